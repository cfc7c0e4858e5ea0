package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	DocumentComplianceDescription = `Look up what a jurisdiction requires for a bill of sale before anything is filled.

**When to use:** Deciding whether a notary block, an official state form or an odometer disclosure is needed for a document type in a state.

**Why it's useful:** Answers from the compiled-in compliance registry without parsing any PDF, and accepts postal codes, state names or canonical keys ("FL", "Florida", "us/florida").

**Examples:**
• Notary check: "Does a vehicle bill of sale in Maryland need to be notarized?"
• Form lookup: "Which official form does Florida use for a vehicle sale?"
• Feasibility: "Can I offer a firearm bill of sale in California?"

**Common workflows:**
1. Wizard setup: document_compliance → show notary and odometer sections → collect answers → document_fill
2. Catalog filtering: jurisdictions_list → document_compliance for the chosen state

**Best practices:** "requires_notary" is true for conditional notarization too; show the special notes to the user when present.`

	DocumentFillDescription = `Fill a jurisdiction's official form with flat form data and write the result as a PDF.

**When to use:** The user has answered the wizard and needs the state's own form, not a generic bill of sale.

**Why it's useful:** Picks the fill strategy automatically: native AcroForm fields when the template has them, calibrated coordinate overlays when it does not, and a pass-through copy when the state has no official form.

**Examples:**
• Florida vehicle sale: "Fill HSMV 82050 with seller_name, buyer_name, vin and odometer data"
• Flat template: "Fill Colorado DR 2173 using the coordinate overlay"

**Common workflows:**
1. document_strategy → document_fill → review fields_matched and unmatched → correct data → fill again
2. document_compliance → document_fill → hand the PDF to a notary when required

**Best practices:** form_data must be flat (field id to string). Partial matches are normal: check fields_matched, unmatched and warnings rather than treating them as failures.`

	DocumentStrategyDescription = `Preview which fill strategy would be used for a document type, jurisdiction and template.

**When to use:** Before filling, to check a newly downloaded form revision still has the fields or calibration the server expects.

**Why it's useful:** Runs the same resolution as document_fill without writing anything and reports the template's page and field counts.

**Examples:**
• Revision check: "Does the new GA T-7 template still use the legacy coordinate table?"
• Onboarding: "Will this Vermont form be filled or passed through?"

**Best practices:** A "none" strategy with a warning means an official form exists but no mapping covers it yet.`

	JurisdictionsListDescription = `List supported jurisdictions, optionally with per-state availability for one document type.

**When to use:** Building a state picker or checking where a document type is offered.

**Examples:**
• "List every state where a firearm bill of sale is offered"
• "Which states have an official vehicle bill of sale form?"

**Best practices:** Pass document_type to get offered flags and official form ids per state.`

	ServerInfoDescription = `Get server version, template directory, supported document types and usage guidance.

**When to use:** First call in a session, or when a tool reports a configuration problem.

**Best practices:** Template paths passed to other tools are relative to the template directory shown here.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"document_compliance": DocumentComplianceDescription,
	"document_fill":       DocumentFillDescription,
	"document_strategy":   DocumentStrategyDescription,
	"jurisdictions_list":  JurisdictionsListDescription,
	"server_info":         ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
