package docconfig

import (
	"github.com/a3tai/mcp-official-forms/internal/compliance"
)

// FieldType is the input kind of a schema field
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextArea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldCurrency FieldType = "currency"
	FieldCheckbox FieldType = "checkbox"
	FieldState    FieldType = "state"
)

// Field is one canonical form field. ID is the canonical field id used in
// submitted form data and in the mapping tables.
type Field struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Prompt   string    `json:"prompt,omitempty"`
}

// Section groups fields under a heading
type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Question is a wizard step derived from a schema field
type Question struct {
	ID       string    `json:"id"`
	FieldID  string    `json:"field_id"`
	Section  string    `json:"section"`
	Prompt   string    `json:"prompt"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	// Note carries jurisdiction guidance shown alongside the question
	Note string `json:"note,omitempty"`
}

const (
	sectionSeller   = "seller"
	sectionBuyer    = "buyer"
	sectionProperty = "property"
	sectionSale     = "sale"
	sectionOdometer = "odometer"
	sectionNotary   = "notary"
)

func partySections() []Section {
	return []Section{
		{
			ID:    sectionSeller,
			Title: "Seller",
			Fields: []Field{
				{ID: "seller_name", Label: "Seller name", Type: FieldText, Required: true, Prompt: "What is the seller's full legal name?"},
				{ID: "seller_address", Label: "Seller street address", Type: FieldText, Required: true},
				{ID: "seller_city", Label: "Seller city", Type: FieldText},
				{ID: "seller_state", Label: "Seller state", Type: FieldState},
				{ID: "seller_zip", Label: "Seller ZIP code", Type: FieldText},
			},
		},
		{
			ID:    sectionBuyer,
			Title: "Buyer",
			Fields: []Field{
				{ID: "buyer_name", Label: "Buyer name", Type: FieldText, Required: true, Prompt: "What is the buyer's full legal name?"},
				{ID: "buyer_address", Label: "Buyer street address", Type: FieldText, Required: true},
				{ID: "buyer_city", Label: "Buyer city", Type: FieldText},
				{ID: "buyer_state", Label: "Buyer state", Type: FieldState},
				{ID: "buyer_zip", Label: "Buyer ZIP code", Type: FieldText},
			},
		},
	}
}

func saleSection() Section {
	return Section{
		ID:    sectionSale,
		Title: "Sale",
		Fields: []Field{
			{ID: "sale_price", Label: "Sale price", Type: FieldCurrency, Required: true},
			{ID: "sale_date", Label: "Date of sale", Type: FieldDate, Required: true},
		},
	}
}

// propertyFields holds the document-specific description of what is sold
var propertyFields = map[string][]Field{
	compliance.VehicleBillOfSale: {
		{ID: "year", Label: "Year", Type: FieldNumber, Required: true},
		{ID: "make", Label: "Make", Type: FieldText, Required: true},
		{ID: "model", Label: "Model", Type: FieldText, Required: true},
		{ID: "body_type", Label: "Body type", Type: FieldText},
		{ID: "color", Label: "Color", Type: FieldText},
		{ID: "vin", Label: "Vehicle identification number", Type: FieldText, Required: true},
		{ID: "title_number", Label: "Title number", Type: FieldText},
	},
	compliance.BoatBillOfSale: {
		{ID: "year", Label: "Year", Type: FieldNumber, Required: true},
		{ID: "make", Label: "Manufacturer", Type: FieldText, Required: true},
		{ID: "model", Label: "Model", Type: FieldText},
		{ID: "length", Label: "Length (feet)", Type: FieldNumber},
		{ID: "hull_id", Label: "Hull identification number", Type: FieldText, Required: true},
		{ID: "registration_number", Label: "Registration number", Type: FieldText},
		{ID: "title_number", Label: "Title number", Type: FieldText},
	},
	compliance.GeneralBillOfSale: {
		{ID: "item_description", Label: "Description of property", Type: FieldTextArea, Required: true},
		{ID: "serial_number", Label: "Serial number", Type: FieldText},
	},
	compliance.FirearmBillOfSale: {
		{ID: "make", Label: "Manufacturer", Type: FieldText, Required: true},
		{ID: "model", Label: "Model", Type: FieldText, Required: true},
		{ID: "caliber", Label: "Caliber or gauge", Type: FieldText, Required: true},
		{ID: "serial_number", Label: "Serial number", Type: FieldText, Required: true},
		{ID: "firearm_type", Label: "Type (pistol, rifle, shotgun)", Type: FieldText},
	},
}

func odometerSection() Section {
	return Section{
		ID:    sectionOdometer,
		Title: "Odometer disclosure",
		Fields: []Field{
			{ID: "odometer", Label: "Odometer reading", Type: FieldNumber, Required: true},
			{ID: "odometer_actual", Label: "Reading is the actual mileage", Type: FieldCheckbox},
			{ID: "odometer_exceeds_limits", Label: "Mileage exceeds the odometer's mechanical limits", Type: FieldCheckbox},
			{ID: "odometer_not_actual", Label: "Reading is not the actual mileage", Type: FieldCheckbox},
		},
	}
}

func notarySection(required bool) Section {
	return Section{
		ID:    sectionNotary,
		Title: "Notary acknowledgment",
		Fields: []Field{
			{ID: "notary_state", Label: "State of notarization", Type: FieldState, Required: required},
			{ID: "notary_county", Label: "County of notarization", Type: FieldText, Required: required},
		},
	}
}

// mergeSchema builds the schema for a document type with the jurisdiction's
// additions applied. schemaType is the unified type the schema is drawn from.
func mergeSchema(schemaType string, rule *compliance.Rule) []Section {
	sections := partySections()
	if fields, ok := propertyFields[schemaType]; ok {
		sections = append(sections, Section{
			ID:     sectionProperty,
			Title:  "Property",
			Fields: append([]Field(nil), fields...),
		})
	}
	sections = append(sections, saleSection())

	if rule == nil {
		return sections
	}
	if rule.OdometerIntegrated {
		sections = append(sections, odometerSection())
	}
	if rule.RequiresNotary != compliance.NotaryNotRequired {
		sections = append(sections, notarySection(rule.RequiresNotary == compliance.NotaryRequired))
	}
	return sections
}

// deriveQuestions turns the merged schema into one wizard question per field
func deriveQuestions(sections []Section, rule *compliance.Rule) []Question {
	var questions []Question
	for _, s := range sections {
		for _, f := range s.Fields {
			prompt := f.Prompt
			if prompt == "" {
				prompt = f.Label
			}
			q := Question{
				ID:       s.ID + "." + f.ID,
				FieldID:  f.ID,
				Section:  s.ID,
				Prompt:   prompt,
				Type:     f.Type,
				Required: f.Required,
			}
			if s.ID == sectionNotary && rule != nil && rule.RequiresNotary == compliance.NotaryConditional {
				q.Note = rule.SpecialNotes
				if q.Note == "" {
					q.Note = "Notarization is required only in some circumstances."
				}
			}
			questions = append(questions, q)
		}
	}
	return questions
}

// schemaTypeFor maps legacy ids onto the unified type whose schema they share
func schemaTypeFor(documentType string) string {
	if documentType == compliance.LegacyBillOfSale {
		return compliance.VehicleBillOfSale
	}
	return documentType
}
