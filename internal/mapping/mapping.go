// Package mapping holds the declarative field mapping tables that translate
// canonical field ids into form field names or page coordinates.
//
// The AcroForm alias and coordinate tables are compiled in from
// mappings.json and may be extended at startup with an operator-supplied
// JSON file of the same shape. Coordinates are manual calibrations against a
// specific revision of each official form: onboarding a new form means
// measuring its field boxes (see cmd/form_fields) and adding an entry here.
package mapping

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/viper"

	"github.com/a3tai/mcp-official-forms/internal/jurisdiction"
)

//go:embed mappings.json
var embeddedMappings []byte

// AcroFormMapping maps a canonical field id to raw form field name aliases,
// in priority order
type AcroFormMapping map[string][]string

// Placement is a fixed text position in PDF user space. Page is 0-indexed,
// the origin is the bottom-left corner of the page.
type Placement struct {
	Page     int     `mapstructure:"page" json:"page"`
	X        float64 `mapstructure:"x" json:"x"`
	Y        float64 `mapstructure:"y" json:"y"`
	FontSize float64 `mapstructure:"font_size" json:"font_size,omitempty"`
}

// CoordinateMapping maps a canonical field id to its placement
type CoordinateMapping map[string]Placement

// IDs returns the mapped canonical ids in sorted order
func (m CoordinateMapping) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type tableKey struct {
	jurisdiction jurisdiction.Key
	documentType string
}

// Tables is the single lookup over every mapping, keyed by
// (jurisdiction, document type). It is read-only after Load.
type Tables struct {
	acroform    map[tableKey]AcroFormMapping
	coordinates map[tableKey]CoordinateMapping
	legacy      map[jurisdiction.Key]LegacyTable
}

type rawTables struct {
	AcroForm    map[string]map[string]map[string][]string  `mapstructure:"acroform"`
	Coordinates map[string]map[string]map[string]Placement `mapstructure:"coordinates"`
}

// Load reads the embedded tables and merges the optional override file over
// them. Keys are case-insensitive; jurisdiction keys may use any spelling
// the normalizer accepts.
func Load(overridePath string) (*Tables, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(embeddedMappings)); err != nil {
		return nil, fmt.Errorf("failed to read embedded mappings: %w", err)
	}

	if overridePath != "" {
		v.SetConfigFile(overridePath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to merge mappings from %s: %w", overridePath, err)
		}
	}

	var raw rawTables
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode mappings: %w", err)
	}

	return build(raw)
}

func build(raw rawTables) (*Tables, error) {
	t := &Tables{
		acroform:    make(map[tableKey]AcroFormMapping),
		coordinates: make(map[tableKey]CoordinateMapping),
		legacy:      legacyCoordinates,
	}

	for docType, byJurisdiction := range raw.AcroForm {
		for j, fields := range byJurisdiction {
			key, err := jurisdiction.Normalize(j)
			if err != nil {
				return nil, fmt.Errorf("acroform mapping for %s: %w", docType, err)
			}
			if _, dup := t.acroform[tableKey{key, docType}]; dup {
				return nil, fmt.Errorf("acroform mapping for %s: %s is listed under more than one spelling", docType, key)
			}
			m := make(AcroFormMapping, len(fields))
			for id, aliases := range fields {
				if len(aliases) == 0 {
					return nil, fmt.Errorf("acroform mapping %s/%s: field %s has no aliases", docType, key, id)
				}
				m[id] = aliases
			}
			t.acroform[tableKey{key, docType}] = m
		}
	}

	for docType, byJurisdiction := range raw.Coordinates {
		for j, fields := range byJurisdiction {
			key, err := jurisdiction.Normalize(j)
			if err != nil {
				return nil, fmt.Errorf("coordinate mapping for %s: %w", docType, err)
			}
			if _, dup := t.coordinates[tableKey{key, docType}]; dup {
				return nil, fmt.Errorf("coordinate mapping for %s: %s is listed under more than one spelling", docType, key)
			}
			m := make(CoordinateMapping, len(fields))
			for id, p := range fields {
				if err := p.validate(); err != nil {
					return nil, fmt.Errorf("coordinate mapping %s/%s field %s: %w", docType, key, id, err)
				}
				m[id] = p
			}
			if len(m) > 0 {
				t.coordinates[tableKey{key, docType}] = m
			}
		}
	}

	return t, nil
}

func (p Placement) validate() error {
	if p.Page < 0 {
		return fmt.Errorf("page must not be negative")
	}
	if p.X < 0 || p.Y < 0 {
		return fmt.Errorf("coordinates must not be negative")
	}
	if p.FontSize < 0 {
		return fmt.Errorf("font size must not be negative")
	}
	return nil
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the compiled-in tables without overrides
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("mapping: invalid compiled-in mappings: %v", err))
		}
		defaultTables = t
	})
	return defaultTables
}

// AcroForm returns the alias mapping for a (document type, jurisdiction) pair
func (t *Tables) AcroForm(documentType string, key jurisdiction.Key) (AcroFormMapping, bool) {
	m, ok := t.acroform[tableKey{key, documentType}]
	return m, ok
}

// Coordinates returns the JSON coordinate mapping for a (document type, jurisdiction) pair
func (t *Tables) Coordinates(documentType string, key jurisdiction.Key) (CoordinateMapping, bool) {
	m, ok := t.coordinates[tableKey{key, documentType}]
	return m, ok
}

// Legacy returns the hard-coded coordinate table for a jurisdiction
func (t *Tables) Legacy(key jurisdiction.Key) (LegacyTable, bool) {
	lt, ok := t.legacy[key]
	return lt, ok
}

// Candidates returns the field names to try for a canonical id, in order:
// the jurisdiction's aliases, the global aliases, then the id itself.
func (t *Tables) Candidates(documentType string, key jurisdiction.Key, canonicalID string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(names ...string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}

	if m, ok := t.AcroForm(documentType, key); ok {
		add(m[canonicalID]...)
	}
	add(globalAliases[canonicalID]...)
	add(canonicalID)
	return out
}
