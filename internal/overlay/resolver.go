package overlay

import (
	"github.com/a3tai/mcp-official-forms/internal/docconfig"
	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
	"github.com/a3tai/mcp-official-forms/internal/jurisdiction"
	"github.com/a3tai/mcp-official-forms/internal/mapping"
)

// WarningNoMapping is reported when an official form exists but nothing
// knows how to fill it; the caller gets the unfilled original.
const WarningNoMapping = "official form asset exists but no mapping was found"

// Plan is the outcome of strategy selection for one request
type Plan struct {
	Strategy     Strategy         `json:"strategy"`
	DocumentType string           `json:"document_type"`
	Jurisdiction jurisdiction.Key `json:"jurisdiction"`
	FormID       string           `json:"form_id,omitempty"`
	// PageCount is 0 when the template was not inspected
	PageCount int `json:"page_count,omitempty"`
	// Fields holds the inspected template fields for the AcroForm strategy
	Fields []FormField `json:"fields,omitempty"`
	// Placements holds the coordinate table for coordinate strategies
	Placements mapping.CoordinateMapping `json:"placements,omitempty"`
	Warnings   []string                  `json:"warnings,omitempty"`
}

// selection is the state candidate rules are evaluated against
type selection struct {
	cfg    *docconfig.DocumentConfig
	info   *TemplateInfo
	tables *mapping.Tables
	plan   *Plan
}

// candidate is one strategy rule. Rules are evaluated in order and the first
// that applies wins; a chosen strategy is never revisited.
type candidate struct {
	strategy Strategy
	applies  func(s *selection) bool
}

var candidates = []candidate{
	{StrategyAcroForm, hasNativeFields},
	{StrategyCoordinateJSON, hasCoordinateMapping},
	{StrategyLegacyCoordinate, hasLegacyTable},
}

func hasNativeFields(s *selection) bool {
	if s.info.FillableCount() == 0 {
		return false
	}
	s.plan.Fields = s.info.Fields
	return true
}

func hasCoordinateMapping(s *selection) bool {
	m, ok := s.tables.Coordinates(s.cfg.DocumentType, s.cfg.Jurisdiction)
	if !ok {
		return false
	}
	s.plan.Placements = m
	return true
}

// hasLegacyTable only accepts a legacy table measured against the same form
// the compliance record names; coordinates for another revision would land
// in the wrong boxes.
func hasLegacyTable(s *selection) bool {
	lt, ok := s.tables.Legacy(s.cfg.Jurisdiction)
	if !ok || lt.FormID != s.cfg.OfficialFormID() {
		return false
	}
	s.plan.Placements = lt.Placements
	return true
}

// Resolver chooses the overlay strategy for a loaded config and template
type Resolver struct {
	tables *mapping.Tables
}

// NewResolver creates a resolver over the given mapping tables. Nil uses the
// compiled-in tables.
func NewResolver(tables *mapping.Tables) *Resolver {
	if tables == nil {
		tables = mapping.Default()
	}
	return &Resolver{tables: tables}
}

// Resolve selects the strategy. The template is only parsed when the
// document has an official form; a template that cannot be parsed then is a
// MalformedTemplate error.
func (r *Resolver) Resolve(cfg *docconfig.DocumentConfig, template []byte) (*Plan, error) {
	if cfg == nil {
		return nil, ferrors.New(ferrors.ErrorTypeInvalidRequest, "document config is required")
	}

	plan := &Plan{
		Strategy:     StrategyNone,
		DocumentType: cfg.DocumentType,
		Jurisdiction: cfg.Jurisdiction,
		FormID:       cfg.OfficialFormID(),
	}
	if !cfg.HasOfficialForm() {
		return plan, nil
	}

	info, err := Inspect(template)
	if err != nil {
		return nil, err
	}
	plan.PageCount = info.PageCount

	s := &selection{cfg: cfg, info: info, tables: r.tables, plan: plan}
	for _, c := range candidates {
		if c.applies(s) {
			plan.Strategy = c.strategy
			return plan, nil
		}
	}

	plan.Warnings = append(plan.Warnings, WarningNoMapping)
	return plan, nil
}
