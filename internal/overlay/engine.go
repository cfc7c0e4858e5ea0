package overlay

import (
	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
	"github.com/a3tai/mcp-official-forms/internal/mapping"
)

// DefaultFontSize is used for placements that do not declare a size
const DefaultFontSize = 10.0

// Result is a filled document plus match diagnostics. A partial match is a
// normal outcome: FieldsMatched < FieldsTotal is reported, not returned as
// an error.
type Result struct {
	Bytes         []byte   `json:"-"`
	Strategy      Strategy `json:"strategy"`
	FieldsMatched int      `json:"fields_matched"`
	FieldsTotal   int      `json:"fields_total"`
	Warnings      []string `json:"warnings,omitempty"`
	// Unmatched lists submitted field ids that did not reach the document
	Unmatched []string `json:"unmatched,omitempty"`
}

func newResult(plan *Plan) *Result {
	return &Result{
		Strategy: plan.Strategy,
		Warnings: append([]string(nil), plan.Warnings...),
	}
}

// Engine executes overlay plans. It holds no per-request state and is safe
// for concurrent use; the template buffer is never modified.
type Engine struct {
	tables   *mapping.Tables
	fontSize float64
}

// NewEngine creates an engine. Nil tables use the compiled-in mappings and a
// non-positive font size uses DefaultFontSize.
func NewEngine(tables *mapping.Tables, defaultFontSize float64) *Engine {
	if tables == nil {
		tables = mapping.Default()
	}
	if defaultFontSize <= 0 {
		defaultFontSize = DefaultFontSize
	}
	return &Engine{tables: tables, fontSize: defaultFontSize}
}

// Fill applies the plan's strategy to the template and returns a freshly
// allocated output buffer
func (e *Engine) Fill(plan *Plan, template []byte, data map[string]string) (*Result, error) {
	if plan == nil {
		return nil, ferrors.New(ferrors.ErrorTypeInvalidRequest, "overlay plan is required")
	}

	switch plan.Strategy {
	case StrategyAcroForm:
		return e.fillAcroForm(plan, template, data)
	case StrategyCoordinateJSON, StrategyLegacyCoordinate:
		return e.fillCoordinates(plan, template, data)
	default:
		res := newResult(plan)
		res.Bytes = append([]byte(nil), template...)
		return res, nil
	}
}
