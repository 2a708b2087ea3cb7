package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RecordDeployment appends an audit record and fills in ID and CreatedAt.
func (p *PostgresClient) RecordDeployment(ctx context.Context, d *Deployment) error {
	registersJSON, err := json.Marshal(d.Registers)
	if err != nil {
		return fmt.Errorf("failed to marshal registers: %w", err)
	}

	err = p.pool.QueryRow(ctx, `
		INSERT INTO deployments (layout_id, target_address, unit_id, registers, verified, status, error, deployed_by, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, d.LayoutID, d.TargetAddress, d.UnitID, registersJSON, d.Verified, string(d.Status), d.Error, d.DeployedBy, d.DurationMs,
	).Scan(&d.ID, &d.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert deployment: %w", err)
	}

	return nil
}

// ListDeployments returns the newest deployments of a layout first, at most limit.
func (p *PostgresClient) ListDeployments(ctx context.Context, layoutID uuid.UUID, limit int) ([]Deployment, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, layout_id, target_address, unit_id, registers, verified, status, error, deployed_by, duration_ms, created_at
		FROM deployments
		WHERE layout_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, layoutID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployments: %w", err)
	}
	defer rows.Close()

	deployments := make([]Deployment, 0)

	for rows.Next() {
		var d Deployment
		var status string
		var registersJSON []byte

		err := rows.Scan(&d.ID, &d.LayoutID, &d.TargetAddress, &d.UnitID, &registersJSON,
			&d.Verified, &status, &d.Error, &d.DeployedBy, &d.DurationMs, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		d.Status = DeploymentStatus(status)

		if err := json.Unmarshal(registersJSON, &d.Registers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal registers: %w", err)
		}

		deployments = append(deployments, d)
	}

	return deployments, rows.Err()
}
