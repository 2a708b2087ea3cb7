package modbus

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Drift is a control register whose value on the device differs from what was deployed.
type Drift struct {
	Register int    `json:"register"`
	Expected uint32 `json:"expected"`
	Actual   uint32 `json:"actual"`
}

// DriftHandler receives the drifted registers of one poll. It is not called when all match.
type DriftHandler func(drift []Drift)

// Watcher periodically reads back deployed CRs and reports drift.
type Watcher struct {
	name     string
	bank     *ControlBank
	expected map[int]uint32
	interval time.Duration
	onDrift  DriftHandler
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewWatcher(name string, bank *ControlBank, expected map[int]uint32, interval time.Duration, onDrift DriftHandler, logger *zap.Logger) *Watcher {
	exp := make(map[int]uint32, len(expected))
	for k, v := range expected {
		exp[k] = v
	}
	return &Watcher{
		name:     name,
		bank:     bank,
		expected: exp,
		interval: interval,
		onDrift:  onDrift,
		logger:   logger,
	}
}

// WithExpected returns a stopped copy of w comparing against expected instead.
func (w *Watcher) WithExpected(expected map[int]uint32) *Watcher {
	return NewWatcher(w.name, w.bank, expected, w.interval, w.onDrift, w.logger)
}

// Start startet das zyklische Polling
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.running = true
	w.stopChan = make(chan struct{})
	w.wg.Add(1)

	go w.pollLoop(w.stopChan)

	w.logger.Info("Watcher started",
		zap.String("target", w.name),
		zap.Int("registers", len(w.expected)),
		zap.Duration("interval", w.interval))

	return nil
}

// Stop stoppt das Polling
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stop := w.stopChan
	w.mu.Unlock()

	close(stop)
	w.wg.Wait()

	w.logger.Info("Watcher stopped", zap.String("target", w.name))
}

func (w *Watcher) pollLoop(stop <-chan struct{}) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check reads the expected registers once and reports any drift.
func (w *Watcher) Check() []Drift {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval/2+time.Second)
	defer cancel()

	if !w.bank.client.IsConnected() {
		if err := w.bank.client.Connect(ctx); err != nil {
			w.logger.Warn("Watch reconnect failed", zap.String("target", w.name), zap.Error(err))
			return nil
		}
	}

	indices := make([]int, 0, len(w.expected))
	for cr := range w.expected {
		indices = append(indices, cr)
	}

	actual, err := w.bank.ReadControlRegisters(ctx, indices)
	if err != nil {
		w.logger.Error("Watch poll failed", zap.String("target", w.name), zap.Error(err))
		return nil
	}

	drift := Compare(w.expected, actual)
	if len(drift) > 0 {
		w.logger.Warn("Register drift detected",
			zap.String("target", w.name),
			zap.Int("registers", len(drift)))
		if w.onDrift != nil {
			w.onDrift(drift)
		}
	}
	return drift
}

// IsRunning gibt an ob der Watcher läuft
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Compare lists the registers in expected whose actual value differs, by register index.
func Compare(expected, actual map[int]uint32) []Drift {
	var out []Drift
	for cr, want := range expected {
		got, ok := actual[cr]
		if !ok || got != want {
			out = append(out, Drift{Register: cr, Expected: want, Actual: got})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Register < out[j].Register })
	return out
}
