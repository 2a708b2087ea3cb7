// Package deploy pushes control register values to Modbus TCP targets and
// watches them for drift afterwards.
package deploy

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRegMap/internal/modbus"
	"github.com/KevinKickass/OpenRegMap/internal/types"
)

type Options struct {
	Timeout       time.Duration
	WatchInterval time.Duration
}

// DriftHandler is called from the watch goroutine of a target.
type DriftHandler func(target types.Target, drift []modbus.Drift)

type target struct {
	info     types.Target
	client   *modbus.Client
	bank     *modbus.ControlBank
	watcher  *modbus.Watcher
	deployed map[int]uint32
	lastAt   *time.Time
	// serializes deploys to the same target
	deployMu sync.Mutex
}

type Manager struct {
	opts    Options
	targets map[uuid.UUID]*target
	mu      sync.RWMutex
	logger  *zap.Logger
}

func NewManager(opts Options, logger *zap.Logger) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.WatchInterval <= 0 {
		opts.WatchInterval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		opts:    opts,
		targets: make(map[uuid.UUID]*target),
		logger:  logger,
	}
}

// AddTarget registers t. A target with the same address and unit ID is reused.
func (m *Manager) AddTarget(t types.Target) types.Target {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.addLocked(t).info
}

func (m *Manager) addLocked(t types.Target) *target {
	for _, existing := range m.targets {
		if existing.info.Address() == t.Address() && existing.info.UnitID == t.UnitID {
			return existing
		}
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Name == "" {
		t.Name = t.Address()
	}

	client := modbus.NewClient(t.Address(), m.opts.Timeout)
	tg := &target{
		info:   t,
		client: client,
		bank:   modbus.NewControlBank(client, t.UnitID, t.BaseAddress),
	}
	m.targets[t.ID] = tg

	m.logger.Info("Target registered",
		zap.String("name", t.Name),
		zap.String("address", t.Address()),
		zap.Uint8("unit_id", t.UnitID))

	return tg
}

// Deploy writes values to the target and, with verify, reads them back.
// A verification mismatch returns both the Result and a *VerifyError.
func (m *Manager) Deploy(ctx context.Context, t types.Target, values map[int]uint32, verify bool) (*Result, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no control register values to deploy")
	}

	m.mu.Lock()
	tg := m.addLocked(t)
	m.mu.Unlock()

	tg.deployMu.Lock()
	defer tg.deployMu.Unlock()

	result := &Result{
		TargetID:  tg.info.ID,
		Address:   tg.info.Address(),
		Registers: copyValues(values),
		StartedAt: time.Now(),
	}

	if !tg.client.IsConnected() {
		if err := tg.client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect target %s: %w", tg.info.Name, err)
		}
	}

	if err := tg.bank.WriteControlRegisters(ctx, values); err != nil {
		return nil, fmt.Errorf("failed to deploy to %s: %w", tg.info.Name, err)
	}

	if verify {
		indices := make([]int, 0, len(values))
		for cr := range values {
			indices = append(indices, cr)
		}
		actual, err := tg.bank.ReadControlRegisters(ctx, indices)
		if err != nil {
			return nil, fmt.Errorf("failed to read back %s: %w", tg.info.Name, err)
		}
		result.Mismatches = modbus.Compare(values, actual)
		result.Verified = len(result.Mismatches) == 0
	}
	result.Duration = time.Since(result.StartedAt)

	m.mu.Lock()
	tg.deployed = copyValues(values)
	at := result.StartedAt
	tg.lastAt = &at
	restart := tg.watcher != nil && tg.watcher.IsRunning()
	m.mu.Unlock()

	m.logger.Info("Deploy completed",
		zap.String("target", tg.info.Name),
		zap.Int("registers", len(values)),
		zap.Bool("verified", result.Verified),
		zap.Duration("duration", result.Duration))

	if restart {
		if err := m.restartWatch(tg); err != nil {
			m.logger.Warn("Failed to restart watch", zap.String("target", tg.info.Name), zap.Error(err))
		}
	}

	if len(result.Mismatches) > 0 {
		return result, &VerifyError{Address: result.Address, Mismatches: result.Mismatches}
	}
	return result, nil
}

// StartWatch polls the values last deployed to the target and reports drift.
func (m *Manager) StartWatch(id uuid.UUID, onDrift DriftHandler) error {
	m.mu.Lock()
	tg, exists := m.targets[id]
	if !exists {
		m.mu.Unlock()
		return fmt.Errorf("target not found: %s", id)
	}
	if len(tg.deployed) == 0 {
		m.mu.Unlock()
		return fmt.Errorf("target %s has no deployed values to watch", tg.info.Name)
	}
	if tg.watcher != nil && tg.watcher.IsRunning() {
		m.mu.Unlock()
		return nil
	}

	info := tg.info
	tg.watcher = modbus.NewWatcher(info.Name, tg.bank, tg.deployed, m.opts.WatchInterval, func(drift []modbus.Drift) {
		if onDrift != nil {
			onDrift(info, drift)
		}
	}, m.logger)
	w := tg.watcher
	m.mu.Unlock()

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	return nil
}

// restartWatch swaps the running watcher for one expecting the new values.
func (m *Manager) restartWatch(tg *target) error {
	m.mu.Lock()
	old := tg.watcher
	m.mu.Unlock()
	if old == nil {
		return nil
	}
	old.Stop()

	m.mu.Lock()
	tg.watcher = old.WithExpected(tg.deployed)
	w := tg.watcher
	m.mu.Unlock()

	return w.Start()
}

func (m *Manager) StopWatch(id uuid.UUID) error {
	m.mu.RLock()
	tg, exists := m.targets[id]
	var w *modbus.Watcher
	if exists {
		w = tg.watcher
	}
	m.mu.RUnlock()

	if !exists {
		return fmt.Errorf("target not found: %s", id)
	}
	if w != nil {
		w.Stop()
	}
	return nil
}

// CheckNow runs one drift check against the deployed values, without waiting for the watcher.
func (m *Manager) CheckNow(id uuid.UUID) ([]modbus.Drift, error) {
	m.mu.RLock()
	tg, exists := m.targets[id]
	var deployed map[int]uint32
	if exists {
		deployed = tg.deployed
	}
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("target not found: %s", id)
	}
	if len(deployed) == 0 {
		return nil, fmt.Errorf("target %s has no deployed values to check", tg.info.Name)
	}
	w := modbus.NewWatcher(tg.info.Name, tg.bank, deployed, m.opts.WatchInterval, nil, m.logger)
	return w.Check(), nil
}

func (m *Manager) GetTarget(id uuid.UUID) (types.TargetInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tg, exists := m.targets[id]
	if !exists {
		return types.TargetInfo{}, false
	}
	return tg.infoLocked(), true
}

func (m *Manager) GetTargetByName(name string) (types.TargetInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, tg := range m.targets {
		if tg.info.Name == name {
			return tg.infoLocked(), true
		}
	}
	return types.TargetInfo{}, false
}

// ListTargets returns all targets ordered by name.
func (m *Manager) ListTargets() []types.TargetInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.TargetInfo, 0, len(m.targets))
	for _, tg := range m.targets {
		out = append(out, tg.infoLocked())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StopAll stops all watchers and disconnects all targets
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	targets := make([]*target, 0, len(m.targets))
	watchers := make([]*modbus.Watcher, 0, len(m.targets))
	for _, tg := range m.targets {
		targets = append(targets, tg)
		watchers = append(watchers, tg.watcher)
	}
	m.mu.RUnlock()

	// Watchers are stopped without holding mu, drift callbacks may read the registry.
	for i, tg := range targets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if watchers[i] != nil {
			watchers[i].Stop()
		}
		if err := tg.client.Close(); err != nil {
			m.logger.Error("Failed to disconnect target",
				zap.String("target", tg.info.Name),
				zap.Error(err))
		}
	}
	return nil
}

func (tg *target) infoLocked() types.TargetInfo {
	return types.TargetInfo{
		Target:            tg.info,
		Connected:         tg.client.IsConnected(),
		Watching:          tg.watcher != nil && tg.watcher.IsRunning(),
		LastDeploy:        tg.lastAt,
		DeployedRegisters: len(tg.deployed),
	}
}

func copyValues(values map[int]uint32) map[int]uint32 {
	out := make(map[int]uint32, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
