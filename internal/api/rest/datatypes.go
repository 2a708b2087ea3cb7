package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/OpenRegMap/internal/convert"
	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
	"github.com/KevinKickass/OpenRegMap/internal/types"
)

// GET /api/v1/datatypes
func (s *Server) listDataTypes(c *gin.Context) {
	catalog := datatypes.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"datatypes": catalog,
		"count":     len(catalog),
	})
}

// GET /api/v1/datatypes/:name
func (s *Server) getDataType(c *gin.Context) {
	d, err := datatypes.LookupName(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.CodeDatatypeNotFound, "Unknown datatype", err.Error()))
		return
	}
	c.JSON(http.StatusOK, d.Info())
}

// POST /api/v1/convert/raw
//
// With "value" the physical value is converted to its raw code; with "raw" the
// code is converted back.
func (s *Server) convertRaw(c *gin.Context) {
	var req struct {
		Datatype string   `json:"datatype" binding:"required"`
		Value    *float64 `json:"value"`
		Raw      *int64   `json:"raw"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.CodeConvertBadRequest, "Invalid request body", err)
		return
	}
	if (req.Value == nil) == (req.Raw == nil) {
		badRequest(c, types.CodeConvertBadRequest, "Exactly one of value and raw is required", nil)
		return
	}

	d, err := datatypes.LookupName(req.Datatype)
	if err != nil {
		badRequest(c, types.CodeConvertBadRequest, "Unknown datatype", err)
		return
	}

	if req.Raw != nil {
		if *req.Raw < d.RawMin() || *req.Raw > d.RawMax() {
			badRequest(c, types.CodeConvertBadRequest, "Raw code outside the type's range", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"datatype": d.Name(),
			"raw":      *req.Raw,
			"value":    convert.FromRaw(*req.Raw, d),
			"unit":     string(d.Unit()),
		})
		return
	}

	raw, err := convert.ToRaw(*req.Value, d)
	if err != nil {
		badRequest(c, types.CodeConvertBadRequest, "Value out of range", err)
		return
	}
	bits, err := convert.EncodeField(*req.Value, d)
	if err != nil {
		badRequest(c, types.CodeConvertBadRequest, "Value out of range", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"datatype": d.Name(),
		"value":    *req.Value,
		"raw":      raw,
		"bits":     bits,
		"width":    d.BitWidth(),
		"unit":     string(d.Unit()),
	})
}

// POST /api/v1/convert/cycles
func (s *Server) convertCycles(c *gin.Context) {
	var req struct {
		Value    float64  `json:"value"`
		Unit     string   `json:"unit" binding:"required"`
		PeriodNs *float64 `json:"period_ns"`
		Rounding string   `json:"rounding"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.CodeConvertBadRequest, "Invalid request body", err)
		return
	}

	unit, err := convert.ParseUnit(req.Unit)
	if err != nil {
		badRequest(c, types.CodeConvertBadRequest, "Invalid unit", err)
		return
	}

	rounding := convert.Exact
	if req.Rounding != "" {
		if rounding, err = convert.ParseRounding(req.Rounding); err != nil {
			badRequest(c, types.CodeConvertBadRequest, "Invalid rounding", err)
			return
		}
	}

	period := s.cfg.Clock.PeriodNs
	if req.PeriodNs != nil {
		period = *req.PeriodNs
	}

	cycles, err := convert.DurationToCycles(req.Value, unit, period, rounding)
	if err != nil {
		badRequest(c, types.CodeConvertBadRequest, "Conversion failed", err)
		return
	}

	actual, err := convert.CyclesToDuration(cycles, unit, period)
	if err != nil {
		badRequest(c, types.CodeConvertBadRequest, "Conversion failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cycles":          cycles,
		"period_ns":       period,
		"rounding":        rounding.String(),
		"actual_duration": actual,
		"unit":            string(unit),
	})
}
