package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/system/status
func (s *Server) getSystemStatus(c *gin.Context) {
	status := s.lm.GetCurrentStatus()
	c.JSON(http.StatusOK, gin.H{
		"status":            status,
		"websocket_clients": s.wsHub.GetClientCount(),
	})
}

// POST /api/v1/system/shutdown
func (s *Server) shutdown(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Shutdown initiated",
	})

	// the request context ends with this handler
	go s.lm.Shutdown(context.Background())
}
