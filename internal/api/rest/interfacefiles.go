package rest

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRegMap/internal/regpackage"
	"github.com/KevinKickass/OpenRegMap/internal/render"
	"github.com/KevinKickass/OpenRegMap/internal/types"
)

type interfaceFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// GET /api/v1/interfaces
//
// Lists the interface files found in the configured search paths.
func (s *Server) listInterfaceFiles(c *gin.Context) {
	searchPaths := s.cfg.Interfaces.SearchPaths

	files := make([]interfaceFile, 0)
	seen := make(map[string]bool)

	for _, dir := range searchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				s.logger.Error("Failed to read interface directory",
					zap.String("path", dir),
					zap.Error(err))
			}
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := filepath.Ext(entry.Name())
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ext)
			// earlier search paths shadow later ones, as in the loader
			if seen[name] {
				continue
			}
			seen[name] = true
			files = append(files, interfaceFile{Name: name, Path: filepath.Join(dir, entry.Name())})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	c.JSON(http.StatusOK, gin.H{
		"interfaces": files,
		"count":      len(files),
	})
}

// GET /api/v1/interfaces/:name
//
// Loads an interface file from the search paths, lints and maps it without storing.
func (s *Server) getInterfaceFile(c *gin.Context) {
	name := c.Param("name")
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		badRequest(c, types.CodeLayoutBadRequest, "Invalid interface name", nil)
		return
	}

	pkg, err := s.loader.Load(name)
	if err != nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.CodeInterfaceNotFound, "Interface not found", err.Error()))
		return
	}

	bank := s.cfg.Bank.ToBank()
	fallback := s.cfg.Mapping.Strategy()

	lint := regpackage.Lint(pkg, bank, fallback)
	response := gin.H{
		"interface": pkg,
		"lint":      lint,
	}

	if lint.Valid {
		mapper := pkg.Mapper(bank, s.logger)
		if mappings, err := pkg.GenerateMapping(mapper, fallback); err == nil {
			response["mapping"] = render.NewDocument(mapper.GenerateReport(mappings))
		}
	}

	c.JSON(http.StatusOK, response)
}
