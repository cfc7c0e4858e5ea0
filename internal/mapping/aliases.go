package mapping

// globalAliases tolerates field naming drift across form revisions and
// publishers. Jurisdiction aliases take priority over these.
var globalAliases = map[string][]string{
	"seller_name": {
		"seller", "seller_full_name", "seller_printed_name", "from_name", "grantor_name", "transferor_name",
	},
	"seller_address": {"seller_street", "from_address", "grantor_address", "transferor_address"},
	"seller_city":    {"from_city", "grantor_city"},
	"seller_state":   {"from_state", "grantor_state"},
	"seller_zip":     {"from_zip", "grantor_zip"},
	"buyer_name": {
		"buyer", "buyer_full_name", "buyer_printed_name", "purchaser", "purchaser_name", "to_name",
		"grantee_name", "transferee_name",
	},
	"buyer_address": {"buyer_street", "purchaser_address", "to_address", "grantee_address", "transferee_address"},
	"buyer_city":    {"purchaser_city", "to_city", "grantee_city"},
	"buyer_state":   {"purchaser_state", "to_state", "grantee_state"},
	"buyer_zip":     {"purchaser_zip", "to_zip", "grantee_zip"},
	"year":          {"vehicle_year", "model_year", "yr"},
	"make":          {"vehicle_make", "manufacturer", "mfr"},
	"model":         {"vehicle_model"},
	"body_type":     {"body", "body_style"},
	"color":         {"vehicle_color", "colour"},
	"vin":           {"vehicle_vin", "vin_number", "vehicle_identification_number", "identification_number"},
	"hull_id":       {"hin", "hull_identification_number"},
	"title_number":  {"title_no", "certificate_of_title"},
	"sale_price":    {"price", "purchase_price", "selling_price", "amount", "consideration"},
	"sale_date":     {"date_of_sale", "transfer_date", "date"},
	"odometer":      {"odometer_reading", "mileage"},
	"serial_number": {"serial", "serial_no"},
	"item_description": {
		"description", "property_description",
	},
}

// GlobalAliases returns the global aliases for a canonical id
func GlobalAliases(canonicalID string) []string {
	return append([]string(nil), globalAliases[canonicalID]...)
}
