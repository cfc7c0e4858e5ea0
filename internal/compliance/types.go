// Package compliance holds the compiled-in per-(document type, jurisdiction)
// compliance matrix and the pre-unification legacy table.
package compliance

import (
	"encoding/json"
	"fmt"

	"github.com/a3tai/mcp-official-forms/internal/jurisdiction"
)

// NotaryRequirement is a tri-state: not required, required, or required
// under conditions described in the rule's notes
type NotaryRequirement int

const (
	NotaryNotRequired NotaryRequirement = iota
	NotaryRequired
	NotaryConditional
)

// String returns a string representation of the NotaryRequirement
func (n NotaryRequirement) String() string {
	switch n {
	case NotaryRequired:
		return "required"
	case NotaryConditional:
		return "conditional"
	default:
		return "not_required"
	}
}

// MarshalJSON encodes the requirement as true, false or "conditional"
func (n NotaryRequirement) MarshalJSON() ([]byte, error) {
	switch n {
	case NotaryRequired:
		return []byte("true"), nil
	case NotaryConditional:
		return []byte(`"conditional"`), nil
	default:
		return []byte("false"), nil
	}
}

// UnmarshalJSON accepts true, false or "conditional"
func (n *NotaryRequirement) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*n = NotaryRequired
		} else {
			*n = NotaryNotRequired
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("notary requirement must be a bool or \"conditional\": %w", err)
	}
	if s != "conditional" {
		return fmt.Errorf("unknown notary requirement %q", s)
	}
	*n = NotaryConditional
	return nil
}

// Rule is the compliance record for one document type in one jurisdiction
type Rule struct {
	DocumentType          string            `json:"document_type"`
	Jurisdiction          jurisdiction.Key  `json:"jurisdiction"`
	RequiresNotary        NotaryRequirement `json:"requires_notary"`
	OfficialFormID        string            `json:"official_form_id,omitempty"`
	OfficialFormAssetPath string            `json:"official_form_asset_path,omitempty"`
	BillOfSaleMandatory   bool              `json:"bill_of_sale_mandatory"`
	OdometerIntegrated    bool              `json:"odometer_integrated"`
	SpecialNotes          string            `json:"special_notes,omitempty"`
}

// DocumentType describes one entry of the known document set
type DocumentType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// NotOffered lists jurisdictions where the document is not available
	NotOffered []jurisdiction.Key `json:"not_offered,omitempty"`
	// Vehicle marks document types that carry VIN/odometer data
	Vehicle bool `json:"vehicle"`
}

// Offered reports whether the document type is available in the jurisdiction
func (d DocumentType) Offered(key jurisdiction.Key) bool {
	for _, k := range d.NotOffered {
		if k == key {
			return false
		}
	}
	return true
}

type ruleKey struct {
	documentType string
	jurisdiction jurisdiction.Key
}
