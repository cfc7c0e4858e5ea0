// Package document is the entry point used by every outer surface: it loads
// the document config, resolves the overlay strategy and fills the template.
package document

import (
	"log"
	"strings"
	"time"

	"github.com/a3tai/mcp-official-forms/internal/compliance"
	"github.com/a3tai/mcp-official-forms/internal/docconfig"
	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
	"github.com/a3tai/mcp-official-forms/internal/jurisdiction"
	"github.com/a3tai/mcp-official-forms/internal/metrics"
	"github.com/a3tai/mcp-official-forms/internal/overlay"
	"github.com/a3tai/mcp-official-forms/internal/security"
)

// FillRequest is one document fill. FormData is flat: nested wizard answers
// must be flattened by the caller.
type FillRequest struct {
	DocumentType  string            `json:"document_type"`
	Jurisdiction  string            `json:"jurisdiction"`
	FormData      map[string]string `json:"form_data"`
	BaseFormBytes []byte            `json:"-"`
}

// FillResult is the filled document with its diagnostics and the compliance
// facts the caller shows next to it
type FillResult struct {
	*overlay.Result
	DocumentType    string           `json:"document_type"`
	Jurisdiction    jurisdiction.Key `json:"jurisdiction"`
	FormID          string           `json:"form_id,omitempty"`
	RequiresNotary  bool             `json:"requires_notary"`
	HasOfficialForm bool             `json:"has_official_form"`
	IsMandatory     bool             `json:"is_mandatory"`
}

// ComplianceSummary answers a feasibility check without building the schema
type ComplianceSummary struct {
	DocumentType    string           `json:"document_type"`
	Jurisdiction    jurisdiction.Key `json:"jurisdiction"`
	RequiresNotary  bool             `json:"requires_notary"`
	HasOfficialForm bool             `json:"has_official_form"`
	IsMandatory     bool             `json:"is_mandatory"`
	Rule            *compliance.Rule `json:"rule,omitempty"`
}

// Service wires the loader, resolver and engine together
type Service struct {
	loader    *docconfig.Loader
	resolver  *overlay.Resolver
	engine    *overlay.Engine
	templates *security.TemplateStore
	metrics   *metrics.Metrics
	logger    *log.Logger
}

// Option configures a Service
type Option func(*Service)

// WithTemplates lets fills without template bytes read the official form
// asset from the store
func WithTemplates(store *security.TemplateStore) Option {
	return func(s *Service) { s.templates = store }
}

// WithMetrics records strategy and fill metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service
func NewService(loader *docconfig.Loader, resolver *overlay.Resolver, engine *overlay.Engine, opts ...Option) *Service {
	s := &Service{
		loader:   loader,
		resolver: resolver,
		engine:   engine,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateKeys(documentType, jurisdictionInput string) error {
	if strings.TrimSpace(documentType) == "" {
		return ferrors.New(ferrors.ErrorTypeInvalidRequest, "document type is required")
	}
	if strings.TrimSpace(jurisdictionInput) == "" {
		return ferrors.New(ferrors.ErrorTypeInvalidRequest, "jurisdiction is required")
	}
	return nil
}

// Config loads the merged document configuration
func (s *Service) Config(documentType, jurisdictionInput string) (*docconfig.DocumentConfig, error) {
	if err := validateKeys(documentType, jurisdictionInput); err != nil {
		return nil, err
	}
	return s.loader.Load(documentType, jurisdictionInput)
}

// Compliance returns the compliance facts for a combination
func (s *Service) Compliance(documentType, jurisdictionInput string) (*ComplianceSummary, error) {
	if err := validateKeys(documentType, jurisdictionInput); err != nil {
		return nil, err
	}
	key, err := jurisdiction.Normalize(jurisdictionInput)
	if err != nil {
		return nil, err
	}
	rule, err := s.loader.LoadComplianceOnly(documentType, string(key))
	if err != nil {
		return nil, err
	}

	// The derived reads live on DocumentConfig; reusing them keeps this
	// summary in agreement with the resolver.
	view := &docconfig.DocumentConfig{DocumentType: documentType, Jurisdiction: key, Compliance: rule}
	return &ComplianceSummary{
		DocumentType:    documentType,
		Jurisdiction:    key,
		RequiresNotary:  view.RequiresNotary(),
		HasOfficialForm: view.HasOfficialForm(),
		IsMandatory:     view.IsMandatory(),
		Rule:            rule,
	}, nil
}

// Strategy resolves the overlay plan without filling anything
func (s *Service) Strategy(documentType, jurisdictionInput string, template []byte) (*overlay.Plan, error) {
	cfg, err := s.Config(documentType, jurisdictionInput)
	if err != nil {
		return nil, err
	}
	template, err = s.template(cfg, template)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(cfg, template)
}

// FillDocument fills the official form for the request. Partial matches
// succeed; only config, request and template problems are errors.
func (s *Service) FillDocument(req FillRequest) (*FillResult, error) {
	start := time.Now()
	res, err := s.fill(req)
	if err != nil {
		s.metrics.IncrementFailure(ferrors.TypeOf(err).String())
		return nil, err
	}
	s.metrics.ObserveFill(res.Strategy.String(), res.FieldsMatched, res.FieldsTotal, time.Since(start))
	return res, nil
}

func (s *Service) fill(req FillRequest) (*FillResult, error) {
	cfg, err := s.Config(req.DocumentType, req.Jurisdiction)
	if err != nil {
		return nil, err
	}
	template, err := s.template(cfg, req.BaseFormBytes)
	if err != nil {
		return nil, err
	}

	plan, err := s.resolver.Resolve(cfg, template)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStrategy(plan.Strategy.String(), string(cfg.Jurisdiction))

	result, err := s.engine.Fill(plan, template, req.FormData)
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		s.logger.Printf("WARNING: %s in %s: %s", cfg.DocumentType, cfg.Jurisdiction, w)
	}

	return &FillResult{
		Result:          result,
		DocumentType:    cfg.DocumentType,
		Jurisdiction:    cfg.Jurisdiction,
		FormID:          cfg.OfficialFormID(),
		RequiresNotary:  cfg.RequiresNotary(),
		HasOfficialForm: cfg.HasOfficialForm(),
		IsMandatory:     cfg.IsMandatory(),
	}, nil
}

// template returns the supplied bytes, or the official form asset when none
// were supplied and a template store is configured
func (s *Service) template(cfg *docconfig.DocumentConfig, supplied []byte) ([]byte, error) {
	if len(supplied) > 0 || s.templates == nil || !cfg.HasOfficialForm() {
		return supplied, nil
	}
	return s.templates.Read(cfg.Compliance.OfficialFormAssetPath)
}

// DocumentTypes lists the unified document catalog
func (s *Service) DocumentTypes() []compliance.DocumentType {
	return compliance.Default().DocumentTypes()
}

// JurisdictionStatus is one row of a jurisdiction listing
type JurisdictionStatus struct {
	jurisdiction.State
	Offered         bool   `json:"offered"`
	OfficialFormID  string `json:"official_form_id,omitempty"`
	RequiresNotary  bool   `json:"requires_notary"`
	HasOfficialForm bool   `json:"has_official_form"`
}

// Jurisdictions lists every supported jurisdiction. With a document type each
// row also says whether the type is offered there and what it requires.
func (s *Service) Jurisdictions(documentType string) ([]JurisdictionStatus, error) {
	states := jurisdiction.All()
	out := make([]JurisdictionStatus, 0, len(states))

	if documentType == "" {
		for _, st := range states {
			out = append(out, JurisdictionStatus{State: st, Offered: true})
		}
		return out, nil
	}
	if !compliance.Default().IsKnown(documentType) && !compliance.IsLegacyType(documentType) {
		return nil, ferrors.NewWithContext(ferrors.ErrorTypeUnsupportedDocumentType,
			"document type is not in the compliance registry", documentType)
	}

	for _, st := range states {
		row := JurisdictionStatus{State: st}
		rule, err := s.loader.LoadComplianceOnly(documentType, string(st.Key))
		switch {
		case err == nil:
			view := &docconfig.DocumentConfig{Compliance: rule}
			row.Offered = true
			row.OfficialFormID = view.OfficialFormID()
			row.RequiresNotary = view.RequiresNotary()
			row.HasOfficialForm = view.HasOfficialForm()
		case ferrors.TypeOf(err) == ferrors.ErrorTypeUnsupportedCombination:
		default:
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
