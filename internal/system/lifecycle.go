package system

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/KevinKickass/OpenRegMap/internal/api/rest"
	"github.com/KevinKickass/OpenRegMap/internal/api/rpc"
	"github.com/KevinKickass/OpenRegMap/internal/api/websocket"
	"github.com/KevinKickass/OpenRegMap/internal/auth"
	"github.com/KevinKickass/OpenRegMap/internal/config"
	"github.com/KevinKickass/OpenRegMap/internal/deploy"
	"github.com/KevinKickass/OpenRegMap/internal/interfaces"
	"github.com/KevinKickass/OpenRegMap/internal/storage"
)

type LifecycleManager struct {
	config   *config.Config
	db       *storage.PostgresClient
	store    interfaces.LayoutStore
	deployer *deploy.Manager
	wsHub    *websocket.Hub
	jwt      *auth.JWTHandler
	logger   *zap.Logger

	restServer   *rest.Server
	grpcServer   *grpc.Server
	healthServer *health.Server
	grpcAddr     net.Addr
	hubCancel    context.CancelFunc

	stateMu      sync.RWMutex
	currentState SystemState
	lastError    string

	listenersMu     sync.RWMutex
	statusListeners []chan SystemStatus

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// NewLifecycleManager wires the services. With db == nil layouts are kept in memory.
func NewLifecycleManager(db *storage.PostgresClient, cfg *config.Config, logger *zap.Logger) *LifecycleManager {
	var store interfaces.LayoutStore = storage.NewMemoryStore()
	if db != nil {
		store = db
	}

	jwt := auth.NewJWTHandler(cfg.Auth.GetJWTSecret(), cfg.Auth.TokenTTL, cfg.Auth.Issuer)

	deployer := deploy.NewManager(deploy.Options{
		Timeout:       cfg.Modbus.DefaultTimeout,
		WatchInterval: cfg.Modbus.WatchInterval,
	}, logger)

	return &LifecycleManager{
		config:          cfg,
		db:              db,
		store:           store,
		deployer:        deployer,
		wsHub:           websocket.NewHub(logger, jwt),
		jwt:             jwt,
		logger:          logger,
		currentState:    StateInitializing,
		shutdownChan:    make(chan struct{}),
		statusListeners: make([]chan SystemStatus, 0),
	}
}

// Start starts the entire system
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting OpenRegMap",
		zap.String("store", lm.storeName()),
		zap.String("default_strategy", string(lm.config.Mapping.Strategy())))

	if !lm.config.Auth.IsProductionReady() {
		lm.logger.Warn("JWT secret not set, using the development secret",
			zap.String("env", lm.config.Auth.JWTSecretEnv))
	}

	lm.broadcastStatus()

	if lm.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := lm.db.EnsureSchema(ctx)
		cancel()
		if err != nil {
			lm.setError(fmt.Errorf("failed to ensure schema: %w", err))
			return err
		}
	}

	hubCtx, cancel := context.WithCancel(context.Background())
	lm.hubCancel = cancel
	go lm.wsHub.Run(hubCtx)

	if err := lm.startGRPCServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start gRPC: %w", err))
		return err
	}

	if err := lm.startRESTServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start REST API: %w", err))
		return err
	}

	lm.setState(StateRunning)
	lm.broadcastStatus()

	lm.logger.Info("System started successfully",
		zap.Int("grpc_port", lm.config.Server.GRPCPort),
		zap.Int("http_port", lm.config.Server.HTTPPort))

	return nil
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)
		lm.broadcastStatus()

		if lm.config.Server.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, lm.config.Server.ShutdownTimeout)
			defer cancel()
		}

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
		lm.broadcastStatus()

		if lm.hubCancel != nil {
			lm.hubCancel()
		}
		if lm.db != nil {
			lm.db.Close()
		}

		close(lm.shutdownChan)
	})

	return shutdownErr
}

// Done is closed once Shutdown has completed.
func (lm *LifecycleManager) Done() <-chan struct{} {
	return lm.shutdownChan
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var wg sync.WaitGroup
	errChan := make(chan error, 3)

	// 1. Stop watchers and close Modbus connections
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := lm.deployer.StopAll(ctx); err != nil {
			errChan <- fmt.Errorf("deploy manager stop failed: %w", err)
		}
	}()

	// 2. REST API Server graceful shutdown
	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	// 3. gRPC Server graceful stop
	if lm.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lm.logger.Info("Stopping gRPC server")
			lm.healthServer.Shutdown()
			lm.grpcServer.GracefulStop()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		if lm.grpcServer != nil {
			lm.grpcServer.Stop()
		}
		return errors.New("shutdown timeout exceeded")
	}

	close(errChan)
	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	lm.logger.Info("Graceful shutdown completed")
	return nil
}

func (lm *LifecycleManager) startGRPCServer() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", lm.config.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	lm.grpcAddr = lis.Addr()

	svc := rpc.NewLayoutService(lm.config.Bank.ToBank(), lm.config.Mapping.Strategy(), lm.logger)
	lm.grpcServer, lm.healthServer = rpc.NewServer(svc)

	go func() {
		lm.logger.Info("gRPC server listening",
			zap.String("address", lis.Addr().String()),
			zap.String("services", rpc.ServiceName))
		if err := lm.grpcServer.Serve(lis); err != nil {
			lm.logger.Error("gRPC server failed", zap.Error(err))
		}
	}()

	return nil
}

func (lm *LifecycleManager) startRESTServer() error {
	srv, err := rest.NewServer(lm.config, lm, lm.logger, lm.wsHub, lm.jwt)
	if err != nil {
		return err
	}
	lm.restServer = srv
	return lm.restServer.Start()
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Unexpected state change", zap.Error(err))
	}
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.logger.Error("System error", zap.Error(err))

	lm.stateMu.Lock()
	lm.currentState = StateError
	lm.lastError = err.Error()
	lm.stateMu.Unlock()

	lm.broadcastStatus()
}

func (lm *LifecycleManager) storeName() string {
	if lm.db != nil {
		return "postgres"
	}
	return "memory"
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	state := lm.currentState
	lm.stateMu.RUnlock()

	status := interfaces.SystemStatus{
		State: state.String(),
		Store: lm.storeName(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if layouts, err := lm.store.ListLayouts(ctx); err == nil {
		status.LayoutCount = len(layouts)
	} else {
		lm.logger.Warn("Failed to count layouts", zap.Error(err))
	}

	targets := lm.deployer.ListTargets()
	status.TargetCount = len(targets)
	for _, t := range targets {
		if t.Connected {
			status.ConnectedTargets++
		}
		if t.Watching {
			status.WatchedTargets++
		}
	}

	return status
}

func (lm *LifecycleManager) getStatusInternal() SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	return SystemStatus{
		State:     lm.currentState,
		Timestamp: time.Now().Unix(),
		Error:     lm.lastError,
	}
}

// broadcastStatus notifies status subscribers and websocket clients.
func (lm *LifecycleManager) broadcastStatus() {
	status := lm.getStatusInternal()

	lm.wsHub.Broadcast(websocket.NewMessage(websocket.MessageTypeSystemStatus, status))

	lm.listenersMu.RLock()
	defer lm.listenersMu.RUnlock()

	for _, listener := range lm.statusListeners {
		select {
		case listener <- status:
		default:
			// Channel full, skip
		}
	}
}

// SubscribeStatus subscribes to status updates
func (lm *LifecycleManager) SubscribeStatus() chan SystemStatus {
	ch := make(chan SystemStatus, 10)

	lm.listenersMu.Lock()
	lm.statusListeners = append(lm.statusListeners, ch)
	lm.listenersMu.Unlock()

	return ch
}

// UnsubscribeStatus unsubscribes from status updates
func (lm *LifecycleManager) UnsubscribeStatus(ch chan SystemStatus) {
	lm.listenersMu.Lock()
	defer lm.listenersMu.Unlock()

	for i, listener := range lm.statusListeners {
		if listener == ch {
			lm.statusListeners = append(lm.statusListeners[:i], lm.statusListeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// GRPCAddr is the bound gRPC listener address, nil before Start.
func (lm *LifecycleManager) GRPCAddr() net.Addr {
	return lm.grpcAddr
}

func (lm *LifecycleManager) Handler() http.Handler {
	return lm.restServer.Handler()
}

func (lm *LifecycleManager) Store() interfaces.LayoutStore {
	return lm.store
}

func (lm *LifecycleManager) Deployer() *deploy.Manager {
	return lm.deployer
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

func (lm *LifecycleManager) JWT() *auth.JWTHandler {
	return lm.jwt
}

var _ interfaces.LifecycleManager = (*LifecycleManager)(nil)
