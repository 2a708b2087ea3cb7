package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps layouts and deployments in process memory. It backs the
// service when no database is configured.
type MemoryStore struct {
	mu          sync.RWMutex
	layouts     map[uuid.UUID]*Layout
	deployments []Deployment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{layouts: make(map[uuid.UUID]*Layout)}
}

func (m *MemoryStore) SaveOrUpdateLayout(_ context.Context, layout *Layout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, existing := range m.layouts {
		if existing.Name == layout.Name {
			layout.ID = existing.ID
			layout.CreatedAt = existing.CreatedAt
			layout.UpdatedAt = now
			stored := *layout
			m.layouts[layout.ID] = &stored
			return nil
		}
	}

	layout.ID = uuid.New()
	layout.CreatedAt = now
	layout.UpdatedAt = now
	stored := *layout
	m.layouts[layout.ID] = &stored
	return nil
}

func (m *MemoryStore) GetLayout(_ context.Context, id uuid.UUID) (*Layout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.layouts[id]
	if !ok {
		return nil, fmt.Errorf("layout: %w", ErrNotFound)
	}
	out := *l
	return &out, nil
}

func (m *MemoryStore) GetLayoutByName(_ context.Context, name string) (*Layout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.layouts {
		if l.Name == name {
			out := *l
			return &out, nil
		}
	}
	return nil, fmt.Errorf("layout: %w", ErrNotFound)
}

func (m *MemoryStore) ListLayouts(_ context.Context) ([]LayoutSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]LayoutSummary, 0, len(m.layouts))
	for _, l := range m.layouts {
		out = append(out, LayoutSummary{
			ID:        l.ID,
			Name:      l.Name,
			Version:   l.Version,
			Strategy:  l.Strategy,
			Fields:    len(l.Mappings),
			UpdatedAt: l.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) DeleteLayout(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.layouts[id]; !ok {
		return fmt.Errorf("layout %s: %w", id, ErrNotFound)
	}
	delete(m.layouts, id)

	kept := m.deployments[:0]
	for _, d := range m.deployments {
		if d.LayoutID != id {
			kept = append(kept, d)
		}
	}
	m.deployments = kept
	return nil
}

func (m *MemoryStore) RecordDeployment(_ context.Context, d *Deployment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.layouts[d.LayoutID]; !ok {
		return fmt.Errorf("layout %s: %w", d.LayoutID, ErrNotFound)
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Now().UTC()
	m.deployments = append(m.deployments, *d)
	return nil
}

func (m *MemoryStore) ListDeployments(_ context.Context, layoutID uuid.UUID, limit int) ([]Deployment, error) {
	if limit <= 0 {
		limit = 50
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Deployment, 0)
	for i := len(m.deployments) - 1; i >= 0 && len(out) < limit; i-- {
		if m.deployments[i].LayoutID == layoutID {
			out = append(out, m.deployments[i])
		}
	}
	return out, nil
}
