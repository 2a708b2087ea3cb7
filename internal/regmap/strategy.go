package regmap

import (
	"sort"
	"strings"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
)

// Strategy selects how fields are ordered before sequential packing.
type Strategy string

const (
	FirstFit       Strategy = "first_fit"
	BestFit        Strategy = "best_fit"
	TypeClustering Strategy = "type_clustering"
)

// Strategies lists the supported strategies.
func Strategies() []Strategy {
	return []Strategy{FirstFit, BestFit, TypeClustering}
}

func (s Strategy) Valid() bool {
	switch s {
	case FirstFit, BestFit, TypeClustering:
		return true
	}
	return false
}

// StrategyName normalizes name without checking it. Map rejects unknown
// strategies only after the field checks pass.
func StrategyName(name string) Strategy {
	return Strategy(strings.ToLower(strings.TrimSpace(name)))
}

// ParseStrategy resolves a strategy name case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	s := StrategyName(name)
	if !s.Valid() {
		return "", &UnknownStrategyError{Strategy: name}
	}
	return s, nil
}

type orderFunc func(fields []Field) []Field

func (s Strategy) order() orderFunc {
	switch s {
	case FirstFit:
		return orderFirstFit
	case BestFit:
		return orderBestFit
	case TypeClustering:
		return orderTypeClustering
	}
	return nil
}

func orderFirstFit(fields []Field) []Field {
	return append([]Field(nil), fields...)
}

func orderBestFit(fields []Field) []Field {
	out := append([]Field(nil), fields...)
	sort.SliceStable(out, func(i, j int) bool {
		return width(out[i]) > width(out[j])
	})
	return out
}

// clusterRank fixes the group order used by TypeClustering.
func clusterRank(c datatypes.Category) int {
	switch c {
	case datatypes.CategoryVoltageOutput:
		return 0
	case datatypes.CategoryVoltageInput:
		return 1
	case datatypes.CategoryDuration:
		return 2
	case datatypes.CategoryBoolean:
		return 3
	}
	panic("regmap: unhandled category " + c.String())
}

func orderTypeClustering(fields []Field) []Field {
	var groups [4][]Field
	for _, f := range fields {
		r := clusterRank(datatypes.Lookup(f.Type).Category())
		groups[r] = append(groups[r], f)
	}

	out := make([]Field, 0, len(fields))
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// typeWidth is replaced in tests to declare types the table does not have.
var typeWidth = func(t datatypes.DataType) int {
	return datatypes.Lookup(t).BitWidth()
}

func width(f Field) int {
	return typeWidth(f.Type)
}
