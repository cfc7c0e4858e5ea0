package compliance

import "github.com/a3tai/mcp-official-forms/internal/jurisdiction"

// Document type identifiers
const (
	VehicleBillOfSale = "vehicle-bill-of-sale"
	BoatBillOfSale    = "boat-bill-of-sale"
	GeneralBillOfSale = "general-bill-of-sale"
	FirearmBillOfSale = "firearm-bill-of-sale"
)

// Private firearm transfers in these jurisdictions must go through a licensed
// dealer, so a plain bill of sale is not offered.
var firearmNotOffered = []jurisdiction.Key{
	"us/california",
	"us/colorado",
	"us/connecticut",
	"us/delaware",
	"us/district-of-columbia",
	"us/hawaii",
	"us/illinois",
	"us/maryland",
	"us/massachusetts",
	"us/nevada",
	"us/new-jersey",
	"us/new-mexico",
	"us/new-york",
	"us/oregon",
	"us/rhode-island",
	"us/virginia",
	"us/washington",
}

var documentTypes = []DocumentType{
	{ID: VehicleBillOfSale, Name: "Vehicle Bill of Sale", Vehicle: true},
	{ID: BoatBillOfSale, Name: "Boat Bill of Sale", Vehicle: true},
	{ID: GeneralBillOfSale, Name: "General Bill of Sale"},
	{ID: FirearmBillOfSale, Name: "Firearm Bill of Sale", NotOffered: firearmNotOffered},
}

var rules = []Rule{
	// Vehicle bills of sale
	{
		DocumentType:        VehicleBillOfSale,
		Jurisdiction:        "us/alabama",
		BillOfSaleMandatory: true,
		OdometerIntegrated:  true,
		SpecialNotes:        "Required for title-exempt vehicles (model year 35 years old or older).",
	},
	{
		DocumentType:   VehicleBillOfSale,
		Jurisdiction:   "us/california",
		RequiresNotary: NotaryNotRequired,
		SpecialNotes:   "Seller must submit a Notice of Transfer and Release of Liability within 5 days of sale.",
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/colorado",
		OfficialFormID:        "DR 2173",
		OfficialFormAssetPath: "forms/us/colorado/dr-2173.pdf",
		BillOfSaleMandatory:   true,
		OdometerIntegrated:    true,
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/connecticut",
		OfficialFormID:        "H-31",
		OfficialFormAssetPath: "forms/us/connecticut/h-31.pdf",
		BillOfSaleMandatory:   true,
		OdometerIntegrated:    true,
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/florida",
		RequiresNotary:        NotaryRequired,
		OfficialFormID:        "HSMV 82050",
		OfficialFormAssetPath: "forms/us/florida/hsmv-82050.pdf",
		OdometerIntegrated:    true,
		SpecialNotes:          "HSMV 82050 doubles as the seller's Notice of Sale; file within 30 days.",
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/georgia",
		OfficialFormID:        "T-7",
		OfficialFormAssetPath: "forms/us/georgia/t-7.pdf",
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/kansas",
		OfficialFormID:        "TR-312",
		OfficialFormAssetPath: "forms/us/kansas/tr-312.pdf",
		BillOfSaleMandatory:   true,
		OdometerIntegrated:    true,
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/louisiana",
		RequiresNotary:        NotaryRequired,
		OfficialFormID:        "DPSMV 1697",
		OfficialFormAssetPath: "forms/us/louisiana/dpsmv-1697.pdf",
		BillOfSaleMandatory:   true,
		SpecialNotes:          "Must be notarized or signed before two witnesses as an authentic act.",
	},
	{
		DocumentType:        VehicleBillOfSale,
		Jurisdiction:        "us/maine",
		BillOfSaleMandatory: true,
		SpecialNotes:        "Vehicles of model year 1994 or older are not titled; the bill of sale is proof of ownership.",
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/maryland",
		RequiresNotary:        NotaryConditional,
		OfficialFormID:        "VR-181",
		OfficialFormAssetPath: "forms/us/maryland/vr-181.pdf",
		BillOfSaleMandatory:   true,
		OdometerIntegrated:    true,
		SpecialNotes:          "Notarization required when the vehicle is less than 7 years old and sold below book value.",
	},
	{
		DocumentType:        VehicleBillOfSale,
		Jurisdiction:        "us/montana",
		RequiresNotary:      NotaryRequired,
		BillOfSaleMandatory: true,
	},
	{
		DocumentType:        VehicleBillOfSale,
		Jurisdiction:        "us/nebraska",
		RequiresNotary:      NotaryRequired,
		BillOfSaleMandatory: true,
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/nevada",
		OfficialFormID:        "VP104",
		OfficialFormAssetPath: "forms/us/nevada/vp104.pdf",
		OdometerIntegrated:    true,
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/new-york",
		OfficialFormID:        "MV-912",
		OfficialFormAssetPath: "forms/us/new-york/mv-912.pdf",
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/north-dakota",
		OfficialFormID:        "SFN 2888",
		OfficialFormAssetPath: "forms/us/north-dakota/sfn-2888.pdf",
		OdometerIntegrated:    true,
	},
	{
		DocumentType:   VehicleBillOfSale,
		Jurisdiction:   "us/oklahoma",
		RequiresNotary: NotaryRequired,
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/oregon",
		OfficialFormID:        "735-501",
		OfficialFormAssetPath: "forms/us/oregon/735-501.pdf",
	},
	{
		DocumentType: VehicleBillOfSale,
		Jurisdiction: "us/texas",
		SpecialNotes: "Seller should file a Vehicle Transfer Notification within 30 days.",
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/vermont",
		OfficialFormID:        "VT-005",
		OfficialFormAssetPath: "forms/us/vermont/vt-005.pdf",
		BillOfSaleMandatory:   true,
	},
	{
		DocumentType:          VehicleBillOfSale,
		Jurisdiction:          "us/west-virginia",
		RequiresNotary:        NotaryRequired,
		OfficialFormID:        "DMV-7-TR",
		OfficialFormAssetPath: "forms/us/west-virginia/dmv-7-tr.pdf",
		BillOfSaleMandatory:   true,
	},
	{
		DocumentType:   VehicleBillOfSale,
		Jurisdiction:   "us/wyoming",
		RequiresNotary: NotaryRequired,
	},

	// Boat bills of sale
	{
		DocumentType:   BoatBillOfSale,
		Jurisdiction:   "us/louisiana",
		RequiresNotary: NotaryRequired,
	},
	{
		DocumentType:        BoatBillOfSale,
		Jurisdiction:        "us/maine",
		BillOfSaleMandatory: true,
	},
	{
		DocumentType:        BoatBillOfSale,
		Jurisdiction:        "us/nebraska",
		RequiresNotary:      NotaryRequired,
		BillOfSaleMandatory: true,
	},
	{
		DocumentType:   BoatBillOfSale,
		Jurisdiction:   "us/maryland",
		RequiresNotary: NotaryConditional,
		SpecialNotes:   "Notarization required when the vessel is sold without a title.",
	},

	// General bills of sale
	{
		DocumentType:   GeneralBillOfSale,
		Jurisdiction:   "us/louisiana",
		RequiresNotary: NotaryRequired,
	},

	// Firearm bills of sale
	{
		DocumentType: FirearmBillOfSale,
		Jurisdiction: "us/pennsylvania",
		SpecialNotes: "Handgun transfers must be completed through a licensed dealer or county sheriff.",
	},
}
