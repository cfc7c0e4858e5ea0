// Package docconfig resolves a (document type, jurisdiction) pair into the
// merged document configuration: form schema, wizard questions and the
// compliance record that drives official form selection.
package docconfig

import (
	"github.com/a3tai/mcp-official-forms/internal/compliance"
	"github.com/a3tai/mcp-official-forms/internal/jurisdiction"
)

// Origin records which compliance source answered a load
type Origin string

const (
	OriginRegistry Origin = "registry"
	OriginLegacy   Origin = "legacy"
)

// DocumentConfig is the merged configuration for one document type in one
// jurisdiction. Loaded configs are shared through the cache and must be
// treated as read-only.
type DocumentConfig struct {
	DocumentType string           `json:"document_type"`
	Jurisdiction jurisdiction.Key `json:"jurisdiction"`
	Sections     []Section        `json:"sections"`
	Questions    []Question       `json:"questions"`
	// Compliance is nil when the combination carries no special compliance data
	Compliance *compliance.Rule `json:"compliance,omitempty"`
	Origin     Origin           `json:"origin"`
}

// RequiresNotary reports whether notarization is required or conditionally required
func (c *DocumentConfig) RequiresNotary() bool {
	if c == nil || c.Compliance == nil {
		return false
	}
	return c.Compliance.RequiresNotary != compliance.NotaryNotRequired
}

// HasOfficialForm reports whether the jurisdiction publishes an official form
// for the document and its asset is known. The overlay resolver uses the same
// predicate to decide between filling a template and passing it through.
func (c *DocumentConfig) HasOfficialForm() bool {
	if c == nil || c.Compliance == nil {
		return false
	}
	return c.Compliance.OfficialFormID != "" && c.Compliance.OfficialFormAssetPath != ""
}

// IsMandatory reports whether a bill of sale is mandatory in the jurisdiction
func (c *DocumentConfig) IsMandatory() bool {
	if c == nil || c.Compliance == nil {
		return false
	}
	return c.Compliance.BillOfSaleMandatory
}

// OfficialFormID returns the official form identifier, or an empty string
func (c *DocumentConfig) OfficialFormID() string {
	if c == nil || c.Compliance == nil {
		return ""
	}
	return c.Compliance.OfficialFormID
}

// Field returns the schema field with the given id
func (c *DocumentConfig) Field(id string) (Field, bool) {
	for _, s := range c.Sections {
		for _, f := range s.Fields {
			if f.ID == id {
				return f, true
			}
		}
	}
	return Field{}, false
}

// FieldIDs returns every schema field id in schema order
func (c *DocumentConfig) FieldIDs() []string {
	var ids []string
	for _, s := range c.Sections {
		for _, f := range s.Fields {
			ids = append(ids, f.ID)
		}
	}
	return ids
}
