package rest

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRegMap/internal/api/websocket"
	"github.com/KevinKickass/OpenRegMap/internal/regpackage"
	"github.com/KevinKickass/OpenRegMap/internal/render"
	"github.com/KevinKickass/OpenRegMap/internal/storage"
	"github.com/KevinKickass/OpenRegMap/internal/types"
)

const maxInterfaceSize = 1 << 20

// POST /api/v1/layouts
//
// The body is a register interface file, YAML or JSON.
func (s *Server) createLayout(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInterfaceSize+1))
	if err != nil {
		badRequest(c, types.CodeLayoutBadRequest, "Failed to read request body", err)
		return
	}
	if len(body) > maxInterfaceSize {
		badRequest(c, types.CodeLayoutBadRequest, "Interface file too large", nil)
		return
	}

	pkg, err := regpackage.Parse(body)
	if err != nil {
		badRequest(c, types.CodeLayoutBadRequest, "Invalid interface file", err)
		return
	}

	bank := s.cfg.Bank.ToBank()
	fallback := s.cfg.Mapping.Strategy()

	lint := regpackage.Lint(pkg, bank, fallback)
	if !lint.Valid {
		c.JSON(http.StatusUnprocessableEntity, types.NewErrorResponse(
			types.CodeLayoutUnprocessable, "Interface has errors", lint))
		return
	}

	mapper := pkg.Mapper(bank, s.logger)
	mappings, err := pkg.GenerateMapping(mapper, fallback)
	if err != nil {
		mappingFailed(c, err)
		return
	}
	strategy, _ := pkg.Strategy(fallback)

	layout := &storage.Layout{
		Name:      pkg.AppName,
		Version:   pkg.Version,
		Strategy:  strategy,
		Bank:      mapper.Bank(),
		Interface: pkg,
		Mappings:  mappings,
	}

	if err := s.lm.Store().SaveOrUpdateLayout(c.Request.Context(), layout); err != nil {
		storeFailed(c, "Failed to save layout", err)
		return
	}

	report := layout.Report()

	s.logger.Info("Layout saved",
		zap.String("name", layout.Name),
		zap.String("id", layout.ID.String()),
		zap.Int("fields", len(mappings)),
		zap.Float64("efficiency", report.EfficiencyPercent))

	s.wsHub.Broadcast(websocket.NewLayoutMessage(websocket.MessageTypeLayoutSaved,
		layout.ID.String(), layout.Name, len(mappings), report.EfficiencyPercent))

	c.JSON(http.StatusCreated, gin.H{
		"layout":   layout,
		"summary":  render.NewDocument(report).Summary,
		"warnings": lint.Warnings,
	})
}

// GET /api/v1/layouts
func (s *Server) listLayouts(c *gin.Context) {
	layouts, err := s.lm.Store().ListLayouts(c.Request.Context())
	if err != nil {
		storeFailed(c, "Failed to list layouts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"layouts": layouts,
		"count":   len(layouts),
	})
}

// lookupLayout resolves :id as a UUID, or else as a layout name. It answers
// the request itself when the layout cannot be loaded.
func (s *Server) lookupLayout(c *gin.Context) (*storage.Layout, bool) {
	ref := c.Param("id")

	var layout *storage.Layout
	var err error
	if id, perr := uuid.Parse(ref); perr == nil {
		layout, err = s.lm.Store().GetLayout(c.Request.Context(), id)
	} else {
		layout, err = s.lm.Store().GetLayoutByName(c.Request.Context(), ref)
	}

	if err != nil {
		storeFailed(c, "Failed to load layout", err)
		return nil, false
	}
	return layout, true
}

// GET /api/v1/layouts/:id
func (s *Server) getLayout(c *gin.Context) {
	layout, ok := s.lookupLayout(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"layout":  layout,
		"summary": render.NewDocument(layout.Report()).Summary,
	})
}

// GET /api/v1/layouts/:id/render?format=ascii|markdown|vhdl|json
func (s *Server) renderLayout(c *gin.Context) {
	format, err := render.ParseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, types.CodeLayoutBadRequest, "Invalid format", err)
		return
	}

	layout, ok := s.lookupLayout(c)
	if !ok {
		return
	}

	s.writeReport(c, layout.Report(), format)
}

type controlRegister struct {
	Register int    `json:"register"`
	Value    uint32 `json:"value"`
	Hex      string `json:"hex"`
}

// controlRegisterList orders values by register.
func controlRegisterList(values map[int]uint32) []controlRegister {
	out := make([]controlRegister, 0, len(values))
	for cr, v := range values {
		out = append(out, controlRegister{Register: cr, Value: v, Hex: fmt.Sprintf("0x%08X", v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Register < out[j].Register })
	return out
}

// GET /api/v1/layouts/:id/control-registers
func (s *Server) getControlRegisters(c *gin.Context) {
	layout, ok := s.lookupLayout(c)
	if !ok {
		return
	}

	values, err := layout.Interface.ControlRegisters(layout.Mappings)
	if err != nil {
		mappingFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"layout_id":         layout.ID,
		"control_registers": controlRegisterList(values),
	})
}

// DELETE /api/v1/layouts/:id
func (s *Server) deleteLayout(c *gin.Context) {
	layout, ok := s.lookupLayout(c)
	if !ok {
		return
	}

	if err := s.lm.Store().DeleteLayout(c.Request.Context(), layout.ID); err != nil {
		storeFailed(c, "Failed to delete layout", err)
		return
	}

	s.logger.Info("Layout deleted", zap.String("name", layout.Name), zap.String("id", layout.ID.String()))
	s.wsHub.Broadcast(websocket.NewLayoutMessage(websocket.MessageTypeLayoutDeleted, layout.ID.String(), layout.Name, 0, 0))

	c.JSON(http.StatusOK, gin.H{
		"message": "Layout deleted successfully",
	})
}

// GET /api/v1/layouts/:id/deployments?limit=
func (s *Server) listDeployments(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		badRequest(c, types.CodeLayoutBadRequest, "Invalid limit", err)
		return
	}

	layout, ok := s.lookupLayout(c)
	if !ok {
		return
	}

	deployments, err := s.lm.Store().ListDeployments(c.Request.Context(), layout.ID, limit)
	if err != nil {
		storeFailed(c, "Failed to list deployments", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deployments": deployments,
		"count":       len(deployments),
	})
}
