package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRegMap/internal/api/websocket"
	"github.com/KevinKickass/OpenRegMap/internal/auth"
	"github.com/KevinKickass/OpenRegMap/internal/config"
	"github.com/KevinKickass/OpenRegMap/internal/interfaces"
	"github.com/KevinKickass/OpenRegMap/internal/regpackage"
)

type Server struct {
	router *gin.Engine
	cfg    *config.Config
	lm     interfaces.LifecycleManager
	logger *zap.Logger
	server *http.Server
	wsHub  *websocket.Hub
	jwt    *auth.JWTHandler
	loader *regpackage.Loader
}

func NewServer(cfg *config.Config, lm interfaces.LifecycleManager, logger *zap.Logger, wsHub *websocket.Hub, jwt *auth.JWTHandler) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	loader, err := regpackage.NewLoader(cfg.Interfaces.SearchPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create interface loader: %w", err)
	}

	s := &Server{
		router: gin.New(),
		cfg:    cfg,
		lm:     lm,
		logger: logger,
		wsHub:  wsHub,
		jwt:    jwt,
		loader: loader,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	// Public routes (no auth required)
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		// ==================== DATATYPES & CONVERSION ====================
		v1.GET("/datatypes", s.listDataTypes)
		v1.GET("/datatypes/:name", s.getDataType)

		convert := v1.Group("/convert")
		{
			convert.POST("/raw", s.convertRaw)
			convert.POST("/cycles", s.convertCycles)
		}

		// ==================== STATELESS MAPPING ====================
		v1.POST("/mappings", s.mapFields)

		// ==================== INTERFACE FILES ====================
		ifaces := v1.Group("/interfaces")
		{
			ifaces.GET("", s.listInterfaceFiles)
			ifaces.GET("/:name", s.getInterfaceFile)
		}

		// ==================== LAYOUTS ====================
		layouts := v1.Group("/layouts")
		{
			// Read operations: public
			layouts.GET("", s.listLayouts)
			layouts.GET("/:id", s.getLayout)
			layouts.GET("/:id/render", s.renderLayout)
			layouts.GET("/:id/control-registers", s.getControlRegisters)
			layouts.GET("/:id/deployments", s.listDeployments)

			// Modify: Editor+
			layouts.POST("", s.jwt.Middleware(), auth.RequireRole(auth.RoleEditor), s.createLayout)
			layouts.DELETE("/:id", s.jwt.Middleware(), auth.RequireRole(auth.RoleEditor), s.deleteLayout)

			// Hardware: Deployer+
			layouts.POST("/:id/deploy", s.jwt.Middleware(), auth.RequireRole(auth.RoleDeployer), s.deployLayout)
		}

		// ==================== DEPLOY TARGETS ====================
		targets := v1.Group("/targets")
		{
			targets.GET("", s.listTargets)
			targets.POST("/:id/check", s.jwt.Middleware(), auth.RequireRole(auth.RoleDeployer), s.checkTarget)
			targets.DELETE("/:id/watch", s.jwt.Middleware(), auth.RequireRole(auth.RoleDeployer), s.stopWatch)
		}

		// ==================== SYSTEM ====================
		system := v1.Group("/system")
		{
			system.GET("/status", s.getSystemStatus)
			system.POST("/shutdown", s.jwt.Middleware(), auth.RequireRole(auth.RoleAdmin), s.shutdown)
		}

		// ==================== WEBSOCKET (PUBLIC - Auth via first message) ====================
		ws := v1.Group("/ws")
		{
			ws.GET("/live", s.wsLiveConnection)
			ws.GET("/status", s.wsStatus)
		}
	}
}

// WebSocket handlers
func (s *Server) wsLiveConnection(c *gin.Context) {
	websocket.ServeWs(s.wsHub, c.Writer, c.Request)
}

func (s *Server) wsStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": s.wsHub.GetClientCount(),
	})
}

// Health check (public)
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
