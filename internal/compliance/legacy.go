package compliance

import (
	"github.com/a3tai/mcp-official-forms/internal/jurisdiction"
)

// LegacyBillOfSale is the pre-unification id for the vehicle bill of sale
const LegacyBillOfSale = "bill-of-sale"

// legacyEntry is the row shape of the pre-unification table, keyed by postal code
type legacyEntry struct {
	notary     string // "yes", "no" or "conditional"
	formNumber string
	formPath   string
	mandatory  bool
	odometer   bool
	notes      string
}

// legacyDocumentTypes are the ids the legacy table can answer for
var legacyDocumentTypes = map[string]bool{
	LegacyBillOfSale:  true,
	VehicleBillOfSale: true,
}

var legacyTable = map[string]legacyEntry{
	"AL": {notary: "no", mandatory: true, odometer: true},
	"CA": {notary: "no"},
	"CO": {notary: "no", formNumber: "DR 2173", formPath: "forms/us/colorado/dr-2173.pdf", mandatory: true, odometer: true},
	"FL": {notary: "yes", formNumber: "HSMV 82050", formPath: "forms/us/florida/hsmv-82050.pdf", odometer: true},
	"GA": {notary: "no", formNumber: "T-7", formPath: "forms/us/georgia/t-7.pdf"},
	"LA": {notary: "yes", mandatory: true, notes: "Notarized act of sale required."},
	"MD": {notary: "conditional", formNumber: "VR-181", formPath: "forms/us/maryland/vr-181.pdf", mandatory: true, odometer: true},
	"NE": {notary: "yes", mandatory: true},
	"NV": {notary: "no", formNumber: "VP104", formPath: "forms/us/nevada/vp104.pdf", odometer: true},
	"TX": {notary: "no"},
	"WV": {notary: "yes", mandatory: true},
}

// IsLegacyType reports whether the legacy table serves the document type
func IsLegacyType(documentType string) bool {
	return legacyDocumentTypes[documentType]
}

// LegacyLookup converts the legacy row for a jurisdiction into a Rule
func LegacyLookup(documentType string, key jurisdiction.Key) (*Rule, bool) {
	if !IsLegacyType(documentType) {
		return nil, false
	}
	entry, ok := legacyTable[key.Code()]
	if !ok {
		return nil, false
	}

	rule := &Rule{
		DocumentType:          documentType,
		Jurisdiction:          key,
		OfficialFormID:        entry.formNumber,
		OfficialFormAssetPath: entry.formPath,
		BillOfSaleMandatory:   entry.mandatory,
		OdometerIntegrated:    entry.odometer,
		SpecialNotes:          entry.notes,
	}
	switch entry.notary {
	case "yes":
		rule.RequiresNotary = NotaryRequired
	case "conditional":
		rule.RequiresNotary = NotaryConditional
	default:
		rule.RequiresNotary = NotaryNotRequired
	}
	return rule, true
}
