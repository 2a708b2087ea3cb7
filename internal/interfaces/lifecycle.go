package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/KevinKickass/OpenRegMap/internal/config"
	"github.com/KevinKickass/OpenRegMap/internal/deploy"
	"github.com/KevinKickass/OpenRegMap/internal/storage"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State            string `json:"state"`
	Store            string `json:"store"`
	LayoutCount      int    `json:"layout_count"`
	TargetCount      int    `json:"target_count"`
	ConnectedTargets int    `json:"connected_targets"`
	WatchedTargets   int    `json:"watched_targets"`
}

// LayoutStore is implemented by storage.PostgresClient and storage.MemoryStore.
type LayoutStore interface {
	SaveOrUpdateLayout(ctx context.Context, layout *storage.Layout) error
	GetLayout(ctx context.Context, id uuid.UUID) (*storage.Layout, error)
	GetLayoutByName(ctx context.Context, name string) (*storage.Layout, error)
	ListLayouts(ctx context.Context) ([]storage.LayoutSummary, error)
	DeleteLayout(ctx context.Context, id uuid.UUID) error
	RecordDeployment(ctx context.Context, d *storage.Deployment) error
	ListDeployments(ctx context.Context, layoutID uuid.UUID, limit int) ([]storage.Deployment, error)
}

type LifecycleManager interface {
	Config() *config.Config
	Store() LayoutStore
	Deployer() *deploy.Manager
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}

var (
	_ LayoutStore = (*storage.PostgresClient)(nil)
	_ LayoutStore = (*storage.MemoryStore)(nil)
)
