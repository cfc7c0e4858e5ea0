package compliance

import (
	"fmt"
	"sort"

	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
	"github.com/a3tai/mcp-official-forms/internal/jurisdiction"
)

// Registry is the unified compliance source. It is immutable once built.
type Registry struct {
	types map[string]DocumentType
	rules map[ruleKey]Rule
}

// NewRegistry builds a registry from document types and rules. Every rule
// must reference a known type and a canonical jurisdiction, at most once.
func NewRegistry(types []DocumentType, rules []Rule) (*Registry, error) {
	r := &Registry{
		types: make(map[string]DocumentType, len(types)),
		rules: make(map[ruleKey]Rule, len(rules)),
	}
	for _, t := range types {
		if t.ID == "" {
			return nil, fmt.Errorf("document type without id")
		}
		r.types[t.ID] = t
	}
	for _, rule := range rules {
		if _, ok := r.types[rule.DocumentType]; !ok {
			return nil, fmt.Errorf("rule for unknown document type %q", rule.DocumentType)
		}
		key, err := jurisdiction.Normalize(string(rule.Jurisdiction))
		if err != nil || key != rule.Jurisdiction {
			return nil, fmt.Errorf("rule for %s has non-canonical jurisdiction %q", rule.DocumentType, rule.Jurisdiction)
		}
		rk := ruleKey{rule.DocumentType, rule.Jurisdiction}
		if _, dup := r.rules[rk]; dup {
			return nil, fmt.Errorf("duplicate rule for %s in %s", rule.DocumentType, rule.Jurisdiction)
		}
		r.rules[rk] = rule
	}
	return r, nil
}

var defaultRegistry = mustRegistry(NewRegistry(documentTypes, rules))

func mustRegistry(r *Registry, err error) *Registry {
	if err != nil {
		panic(fmt.Sprintf("compliance: invalid compiled-in registry: %v", err))
	}
	return r
}

// Default returns the compiled-in registry
func Default() *Registry {
	return defaultRegistry
}

// IsKnown reports whether the document type is part of the unified set
func (r *Registry) IsKnown(documentType string) bool {
	_, ok := r.types[documentType]
	return ok
}

// DocumentType returns the catalog entry for a document type
func (r *Registry) DocumentType(documentType string) (DocumentType, bool) {
	t, ok := r.types[documentType]
	return t, ok
}

// DocumentTypes returns the catalog sorted by id
func (r *Registry) DocumentTypes() []DocumentType {
	out := make([]DocumentType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup returns the rule for a canonical jurisdiction. A nil rule with a nil
// error means the combination is offered but has no special compliance data.
func (r *Registry) Lookup(documentType string, key jurisdiction.Key) (*Rule, error) {
	t, ok := r.types[documentType]
	if !ok {
		return nil, ferrors.NewWithContext(ferrors.ErrorTypeUnsupportedDocumentType,
			"document type is not in the compliance registry", documentType)
	}
	if !t.Offered(key) {
		return nil, ferrors.NewWithContext(ferrors.ErrorTypeUnsupportedCombination,
			"document type is not offered in jurisdiction", documentType+" in "+string(key))
	}
	rule, ok := r.rules[ruleKey{documentType, key}]
	if !ok {
		return nil, nil
	}
	return &rule, nil
}

// Rules returns every rule registered for a document type, sorted by jurisdiction
func (r *Registry) Rules(documentType string) []Rule {
	var out []Rule
	for k, rule := range r.rules {
		if k.documentType == documentType {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Jurisdiction < out[j].Jurisdiction })
	return out
}
