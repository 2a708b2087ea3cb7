package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/OpenRegMap/internal/regmap"
	"github.com/KevinKickass/OpenRegMap/internal/storage"
	"github.com/KevinKickass/OpenRegMap/internal/types"
)

func badRequest(c *gin.Context, code, message string, err error) {
	c.JSON(http.StatusBadRequest, types.NewErrorResponse(code, message, errDetails(err)))
}

func errDetails(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

// mappingFailed answers a failed Map call. Validation errors of the packing
// engine are 422 with a machine-readable kind; anything else is 500.
func mappingFailed(c *gin.Context, err error) {
	kind := regmap.ErrorKind(err)
	if kind == "" {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(
			types.CodeLayoutInternal, "Failed to map fields", err.Error()))
		return
	}
	c.JSON(http.StatusUnprocessableEntity, types.NewErrorResponse(
		types.CodeLayoutUnprocessable, err.Error(), gin.H{"kind": kind}))
}

// storeFailed answers a storage error, 404 for missing rows.
func storeFailed(c *gin.Context, message string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.CodeLayoutNotFound, "Layout not found", nil))
		return
	}
	c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.CodeLayoutInternal, message, err.Error()))
}
