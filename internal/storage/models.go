package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/KevinKickass/OpenRegMap/internal/regmap"
	"github.com/KevinKickass/OpenRegMap/internal/regpackage"
)

var ErrNotFound = errors.New("not found")

// Layout is a stored register interface together with the mapping generated for it.
type Layout struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Version   string              `json:"version,omitempty"`
	Strategy  regmap.Strategy     `json:"strategy"`
	Bank      regmap.Bank         `json:"bank"`
	Interface *regpackage.Package `json:"interface"` // JSONB
	Mappings  []regmap.Mapping    `json:"mappings"`  // JSONB
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Report rebuilds the packing report of the stored mappings.
func (l *Layout) Report() *regmap.Report {
	return regmap.NewReport(l.Bank, l.Mappings)
}

// LayoutSummary is a Layout without its JSONB payloads, for listings.
type LayoutSummary struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Version   string          `json:"version,omitempty"`
	Strategy  regmap.Strategy `json:"strategy"`
	Fields    int             `json:"fields"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type DeploymentStatus string

const (
	DeploymentCompleted    DeploymentStatus = "completed"
	DeploymentFailed       DeploymentStatus = "failed"
	DeploymentVerifyFailed DeploymentStatus = "verify_failed"
)

// Deployment is one audit record of CR values pushed to a target.
type Deployment struct {
	ID            uuid.UUID        `json:"id"`
	LayoutID      uuid.UUID        `json:"layout_id"`
	TargetAddress string           `json:"target_address"`
	UnitID        int              `json:"unit_id"`
	Registers     map[int]uint32   `json:"registers"` // JSONB
	Verified      bool             `json:"verified"`
	Status        DeploymentStatus `json:"status"`
	Error         string           `json:"error,omitempty"`
	DeployedBy    string           `json:"deployed_by,omitempty"`
	DurationMs    int64            `json:"duration_ms"`
	CreatedAt     time.Time        `json:"created_at"`
}
