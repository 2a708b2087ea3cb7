package rest

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/OpenRegMap/internal/regmap"
	"github.com/KevinKickass/OpenRegMap/internal/render"
	"github.com/KevinKickass/OpenRegMap/internal/types"
)

// POST /api/v1/mappings?format=
//
// Stateless: packs the posted fields and returns the report, nothing is stored.
func (s *Server) mapFields(c *gin.Context) {
	var req struct {
		Fields   []regmap.Field `json:"fields"`
		Strategy string         `json:"strategy"`
		Bank     *regmap.Bank   `json:"bank"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.CodeLayoutBadRequest, "Invalid request body", err)
		return
	}

	format, err := render.ParseFormat(c.DefaultQuery("format", string(render.FormatJSON)))
	if err != nil {
		badRequest(c, types.CodeLayoutBadRequest, "Invalid format", err)
		return
	}

	strategy := s.cfg.Mapping.Strategy()
	if req.Strategy != "" {
		strategy = regmap.StrategyName(req.Strategy)
	}

	bank := s.cfg.Bank.ToBank()
	if req.Bank != nil {
		bank = *req.Bank
	}

	mapper := regmap.NewMapper(bank, s.logger)
	mappings, err := mapper.Map(req.Fields, strategy)
	if err != nil {
		mappingFailed(c, err)
		return
	}

	s.writeReport(c, mapper.GenerateReport(mappings), format)
}

// writeReport answers with the report rendered in format.
func (s *Server) writeReport(c *gin.Context, report *regmap.Report, format render.Format) {
	if format == render.FormatJSON {
		c.JSON(http.StatusOK, render.NewDocument(report))
		return
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, report, format); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.CodeLayoutInternal, "Failed to render report", err.Error()))
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
