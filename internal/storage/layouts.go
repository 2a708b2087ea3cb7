package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

const layoutColumns = `id, layout_name, version, strategy, bank, interface, mappings, created_at, updated_at`

// SaveOrUpdateLayout upserts by name and fills in ID and timestamps.
func (p *PostgresClient) SaveOrUpdateLayout(ctx context.Context, layout *Layout) error {
	bankJSON, err := json.Marshal(layout.Bank)
	if err != nil {
		return fmt.Errorf("failed to marshal bank: %w", err)
	}

	ifaceJSON, err := json.Marshal(layout.Interface)
	if err != nil {
		return fmt.Errorf("failed to marshal interface: %w", err)
	}

	mappingsJSON, err := json.Marshal(layout.Mappings)
	if err != nil {
		return fmt.Errorf("failed to marshal mappings: %w", err)
	}

	err = p.pool.QueryRow(ctx, `
		INSERT INTO layouts (layout_name, version, strategy, bank, interface, mappings)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (layout_name)
		DO UPDATE SET
			version = EXCLUDED.version,
			strategy = EXCLUDED.strategy,
			bank = EXCLUDED.bank,
			interface = EXCLUDED.interface,
			mappings = EXCLUDED.mappings,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, layout.Name, layout.Version, string(layout.Strategy), bankJSON, ifaceJSON, mappingsJSON,
	).Scan(&layout.ID, &layout.CreatedAt, &layout.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert layout: %w", err)
	}

	return nil
}

func (p *PostgresClient) GetLayout(ctx context.Context, id uuid.UUID) (*Layout, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+layoutColumns+` FROM layouts WHERE id = $1`, id)
	return scanLayout(row)
}

func (p *PostgresClient) GetLayoutByName(ctx context.Context, name string) (*Layout, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+layoutColumns+` FROM layouts WHERE layout_name = $1`, name)
	return scanLayout(row)
}

// ListLayouts returns all layouts ordered by name.
func (p *PostgresClient) ListLayouts(ctx context.Context) ([]LayoutSummary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, layout_name, version, strategy, jsonb_array_length(mappings), updated_at
		FROM layouts
		ORDER BY layout_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query layouts: %w", err)
	}
	defer rows.Close()

	layouts := make([]LayoutSummary, 0)

	for rows.Next() {
		var s LayoutSummary
		var strategy string

		if err := rows.Scan(&s.ID, &s.Name, &s.Version, &strategy, &s.Fields, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan layout: %w", err)
		}
		s.Strategy = regmap.Strategy(strategy)

		layouts = append(layouts, s)
	}

	return layouts, rows.Err()
}

// DeleteLayout removes a layout together with its deployment records.
func (p *PostgresClient) DeleteLayout(ctx context.Context, id uuid.UUID) error {
	result, err := p.pool.Exec(ctx, `DELETE FROM layouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete layout: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("layout %s: %w", id, ErrNotFound)
	}

	return nil
}

func scanLayout(row pgx.Row) (*Layout, error) {
	var l Layout
	var strategy string
	var bankJSON, ifaceJSON, mappingsJSON []byte

	err := row.Scan(&l.ID, &l.Name, &l.Version, &strategy, &bankJSON, &ifaceJSON, &mappingsJSON, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("layout: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan layout: %w", err)
	}
	l.Strategy = regmap.Strategy(strategy)

	if err := json.Unmarshal(bankJSON, &l.Bank); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bank: %w", err)
	}
	if err := json.Unmarshal(ifaceJSON, &l.Interface); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interface: %w", err)
	}
	if err := json.Unmarshal(mappingsJSON, &l.Mappings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mappings: %w", err)
	}

	return &l, nil
}
