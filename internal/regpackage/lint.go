package regpackage

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/KevinKickass/OpenRegMap/internal/convert"
	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

type Severity string

const (
	SevError   Severity = "error"
	SevWarning Severity = "warning"
)

type Issue struct {
	Code     string         `json:"code"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Field    string         `json:"field,omitempty"`
	Path     string         `json:"path,omitempty"` // "/datatypes/3/default_value"
	Hint     string         `json:"hint,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

type Report struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func (r *Report) addError(i Issue) {
	i.Severity = SevError
	r.Errors = append(r.Errors, i)
}

func (r *Report) addWarning(i Issue) {
	i.Severity = SevWarning
	r.Warnings = append(r.Warnings, i)
}

func (r *Report) finalize() {
	sortIssues(r.Errors)
	sortIssues(r.Warnings)
	if r.Errors == nil {
		r.Errors = []Issue{}
	}
	if r.Warnings == nil {
		r.Warnings = []Issue{}
	}
	r.Valid = len(r.Errors) == 0
}

func sortIssues(list []Issue) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}

// HasCode reports whether any error or warning carries code.
func (r *Report) HasCode(code string) bool {
	for _, list := range [][]Issue{r.Errors, r.Warnings} {
		for _, i := range list {
			if i.Code == code {
				return true
			}
		}
	}
	return false
}

var hdlIdentifier = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(_[A-Za-z0-9]+)*$`)

var vhdlReserved = map[string]struct{}{
	"abs": {}, "access": {}, "after": {}, "alias": {}, "all": {}, "and": {}, "architecture": {},
	"array": {}, "assert": {}, "begin": {}, "block": {}, "body": {}, "buffer": {}, "bus": {},
	"case": {}, "component": {}, "configuration": {}, "constant": {}, "downto": {}, "else": {},
	"elsif": {}, "end": {}, "entity": {}, "exit": {}, "file": {}, "for": {}, "function": {},
	"generate": {}, "generic": {}, "if": {}, "in": {}, "inout": {}, "is": {}, "label": {},
	"library": {}, "loop": {}, "map": {}, "mod": {}, "nand": {}, "new": {}, "next": {}, "nor": {},
	"not": {}, "null": {}, "of": {}, "on": {}, "open": {}, "or": {}, "others": {}, "out": {},
	"package": {}, "port": {}, "procedure": {}, "process": {}, "range": {}, "record": {},
	"register": {}, "rem": {}, "report": {}, "return": {}, "select": {}, "signal": {}, "then": {},
	"to": {}, "type": {}, "until": {}, "use": {}, "variable": {}, "wait": {}, "when": {},
	"while": {}, "with": {}, "xor": {},
}

// Lint checks a decoded package against the type table and bank. Problems are
// collected into the report instead of stopping at the first one.
func Lint(pkg *Package, bank regmap.Bank, fallback regmap.Strategy) Report {
	rep := Report{}

	if strings.TrimSpace(pkg.Description) == "" {
		rep.addWarning(Issue{
			Code:    "REG_002",
			Message: "Interface has no description",
			Path:    "/description",
		})
	}

	strategy, err := pkg.Strategy(fallback)
	if err != nil {
		rep.addError(Issue{
			Code:    "REG_012",
			Message: err.Error(),
			Field:   "mapping_strategy",
			Path:    "/mapping_strategy",
			Hint:    "Use first_fit, best_fit or type_clustering",
		})
	}

	seen := map[string]int{}
	var fields []regmap.Field
	resolved := true

	for i, e := range pkg.Datatypes {
		path := fmt.Sprintf("/datatypes/%d", i)

		if prev, dup := seen[e.Name]; dup {
			rep.addError(Issue{
				Code:    "REG_011",
				Message: fmt.Sprintf("Duplicate field name %q", e.Name),
				Field:   e.Name,
				Path:    path + "/name",
				Meta:    map[string]any{"first_index": prev},
			})
		} else {
			seen[e.Name] = i
		}

		if !validHDLName(e.Name) {
			rep.addWarning(Issue{
				Code:    "REG_040",
				Message: fmt.Sprintf("Field name %q is not a valid VHDL identifier", e.Name),
				Field:   e.Name,
				Path:    path + "/name",
				Hint:    "Start with a letter, use letters, digits and single underscores",
			})
		}

		if strings.TrimSpace(e.Description) == "" {
			rep.addWarning(Issue{
				Code:    "REG_002",
				Message: fmt.Sprintf("Field %q has no description", e.Name),
				Field:   e.Name,
				Path:    path + "/description",
			})
		}

		dt, err := datatypes.Parse(e.Datatype)
		if err != nil {
			rep.addError(Issue{
				Code:    "REG_010",
				Message: fmt.Sprintf("Unknown datatype %q", e.Datatype),
				Field:   e.Name,
				Path:    path + "/datatype",
				Hint:    "Run `regmap types` for the supported identifiers",
			})
			resolved = false
			continue
		}
		fields = append(fields, regmap.Field{Name: e.Name, Type: dt})

		if e.DefaultValue != nil {
			d := datatypes.Lookup(dt)
			if _, err := convert.ToRaw(*e.DefaultValue, d); err != nil {
				rep.addError(Issue{
					Code:    "REG_020",
					Message: fmt.Sprintf("Default value of %q: %v", e.Name, err),
					Field:   e.Name,
					Path:    path + "/default_value",
					Meta:    map[string]any{"min": d.Min(), "max": d.Max(), "unit": string(d.Unit())},
				})
			}
		}
	}

	// Placement checks only make sense once every type resolved and names are unique.
	if resolved && len(rep.Errors) == 0 && strategy != "" {
		lintPlacement(&rep, pkg.BankOr(bank), fields, strategy)
	}

	rep.finalize()
	return rep
}

func lintPlacement(rep *Report, bank regmap.Bank, fields []regmap.Field, strategy regmap.Strategy) {
	_, err := regmap.NewMapper(bank, nil).Map(fields, strategy)
	if err == nil {
		return
	}

	var (
		tooWide  *regmap.FieldTooWideError
		capacity *regmap.CapacityExceededError
		badBank  *regmap.InvalidBankError
	)
	switch {
	case errors.As(err, &tooWide):
		rep.addError(Issue{
			Code:    "REG_031",
			Message: err.Error(),
			Field:   tooWide.Name,
		})
	case errors.As(err, &capacity):
		rep.addError(Issue{
			Code:    "REG_030",
			Message: err.Error(),
			Path:    "/datatypes",
			Hint:    "Remove fields, use narrower types or enlarge the bank",
			Meta: map[string]any{
				"requested": capacity.Requested,
				"available": capacity.Available,
			},
		})
	case errors.As(err, &badBank):
		rep.addError(Issue{
			Code:    "REG_032",
			Message: err.Error(),
			Path:    "/bank",
		})
	default:
		rep.addError(Issue{
			Code:    "REG_900",
			Message: fmt.Sprintf("Mapping failed: %v", err),
		})
	}
}

func validHDLName(name string) bool {
	if !hdlIdentifier.MatchString(name) {
		return false
	}
	_, reserved := vhdlReserved[strings.ToLower(name)]
	return !reserved
}
