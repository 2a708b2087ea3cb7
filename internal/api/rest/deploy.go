package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRegMap/internal/api/websocket"
	"github.com/KevinKickass/OpenRegMap/internal/auth"
	"github.com/KevinKickass/OpenRegMap/internal/deploy"
	"github.com/KevinKickass/OpenRegMap/internal/modbus"
	"github.com/KevinKickass/OpenRegMap/internal/regmap"
	"github.com/KevinKickass/OpenRegMap/internal/storage"
	"github.com/KevinKickass/OpenRegMap/internal/types"
)

// POST /api/v1/layouts/:id/deploy
func (s *Server) deployLayout(c *gin.Context) {
	var req struct {
		Address     string             `json:"address" binding:"required"`
		UnitID      *uint8             `json:"unit_id"`
		BaseAddress *uint16            `json:"base_address"`
		Verify      bool               `json:"verify"`
		Watch       bool               `json:"watch"`
		Overrides   map[string]float64 `json:"overrides"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.CodeDeployBadRequest, "Invalid request body", err)
		return
	}

	target, err := types.ParseTargetAddress(req.Address)
	if err != nil {
		badRequest(c, types.CodeDeployBadRequest, "Invalid target address", err)
		return
	}
	target.UnitID = s.cfg.Modbus.UnitID
	if req.UnitID != nil {
		target.UnitID = *req.UnitID
	}
	target.BaseAddress = s.cfg.Modbus.CRBaseAddress
	if req.BaseAddress != nil {
		target.BaseAddress = *req.BaseAddress
	}

	layout, ok := s.lookupLayout(c)
	if !ok {
		return
	}

	values, err := layoutValues(layout, req.Overrides)
	if err != nil {
		var unknown *unknownOverrideError
		if errors.As(err, &unknown) {
			badRequest(c, types.CodeDeployBadRequest, "Unknown override", err)
			return
		}
		mappingFailed(c, err)
		return
	}

	event := websocket.DeployData{
		LayoutID:  layout.ID.String(),
		Target:    target.Address(),
		Registers: values,
	}
	s.wsHub.Broadcast(websocket.NewDeployMessage(websocket.MessageTypeDeployStarted, event))

	started := time.Now()
	result, deployErr := s.lm.Deployer().Deploy(c.Request.Context(), target, values, req.Verify)

	record := &storage.Deployment{
		LayoutID:      layout.ID,
		TargetAddress: target.Address(),
		UnitID:        int(target.UnitID),
		Registers:     values,
		Status:        storage.DeploymentCompleted,
		DeployedBy:    auth.Subject(c),
		DurationMs:    time.Since(started).Milliseconds(),
	}
	if result != nil {
		record.Verified = result.Verified
	}

	var verifyErr *deploy.VerifyError
	switch {
	case errors.As(deployErr, &verifyErr):
		record.Status = storage.DeploymentVerifyFailed
		record.Error = deployErr.Error()
	case deployErr != nil:
		record.Status = storage.DeploymentFailed
		record.Error = deployErr.Error()
	}

	if err := s.lm.Store().RecordDeployment(c.Request.Context(), record); err != nil {
		s.logger.Error("Failed to record deployment", zap.String("layout", layout.Name), zap.Error(err))
	}

	event.Verified = record.Verified
	event.Error = record.Error

	if deployErr != nil {
		s.logger.Warn("Deploy failed",
			zap.String("layout", layout.Name),
			zap.String("target", target.Address()),
			zap.Error(deployErr))
		s.wsHub.Broadcast(websocket.NewDeployMessage(websocket.MessageTypeDeployFailed, event))

		if verifyErr != nil {
			c.JSON(http.StatusConflict, types.NewErrorResponse(types.CodeDeployVerify, "Read-back verification failed", gin.H{
				"deployment": record,
				"mismatches": verifyErr.Mismatches,
			}))
			return
		}
		c.JSON(http.StatusBadGateway, types.NewErrorResponse(types.CodeDeployFailed, "Deploy failed", deployErr.Error()))
		return
	}

	s.wsHub.Broadcast(websocket.NewDeployMessage(websocket.MessageTypeDeployCompleted, event))

	watching := false
	if req.Watch {
		if err := s.lm.Deployer().StartWatch(result.TargetID, s.onDrift); err != nil {
			s.logger.Warn("Failed to start watch", zap.String("target", target.Address()), zap.Error(err))
		} else {
			watching = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"deployment": record,
		"result":     result,
		"watching":   watching,
	})
}

func (s *Server) onDrift(target types.Target, drift []modbus.Drift) {
	s.wsHub.Broadcast(websocket.NewDriftMessage(target.ID.String(), target.Name, drift))
}

type unknownOverrideError struct {
	Name string
}

func (e *unknownOverrideError) Error() string {
	return "no field named " + e.Name + " in layout"
}

// layoutValues materializes the CR values of a layout: declared defaults,
// then overrides on top.
func layoutValues(layout *storage.Layout, overrides map[string]float64) (map[int]uint32, error) {
	known := make(map[string]bool, len(layout.Mappings))
	for _, m := range layout.Mappings {
		known[m.Name] = true
	}

	merged := layout.Interface.Defaults()
	for name, v := range overrides {
		if !known[name] {
			return nil, &unknownOverrideError{Name: name}
		}
		merged[name] = v
	}

	return regmap.MaterializeDefaults(layout.Mappings, merged)
}

// GET /api/v1/targets
func (s *Server) listTargets(c *gin.Context) {
	targets := s.lm.Deployer().ListTargets()
	c.JSON(http.StatusOK, gin.H{
		"targets": targets,
		"count":   len(targets),
	})
}

func (s *Server) targetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, types.CodeDeployBadRequest, "Invalid target ID", err)
		return uuid.Nil, false
	}
	if _, exists := s.lm.Deployer().GetTarget(id); !exists {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.CodeDeployNotFound, "Target not found", nil))
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/v1/targets/:id/check
func (s *Server) checkTarget(c *gin.Context) {
	id, ok := s.targetID(c)
	if !ok {
		return
	}

	drift, err := s.lm.Deployer().CheckNow(id)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, types.NewErrorResponse(types.CodeDeployUnavailable, "Check failed", err.Error()))
		return
	}
	if drift == nil {
		drift = []modbus.Drift{}
	}

	c.JSON(http.StatusOK, gin.H{
		"target_id": id,
		"drift":     drift,
		"in_sync":   len(drift) == 0,
	})
}

// DELETE /api/v1/targets/:id/watch
func (s *Server) stopWatch(c *gin.Context) {
	id, ok := s.targetID(c)
	if !ok {
		return
	}

	if err := s.lm.Deployer().StopWatch(id); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.CodeSystemInternal, "Failed to stop watch", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Watch stopped"})
}
