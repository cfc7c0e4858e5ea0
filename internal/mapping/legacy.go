package mapping

import "github.com/a3tai/mcp-official-forms/internal/jurisdiction"

// LegacyTable is a hard-coded coordinate table from before the JSON mappings
// existed. It is only valid for the form revision it was measured against.
type LegacyTable struct {
	FormID     string
	Placements CoordinateMapping
}

// Legacy tables use the old underscore-free field ids; the overlay engine
// matches them against submitted keys with underscores stripped.
var legacyCoordinates = map[jurisdiction.Key]LegacyTable{
	"us/georgia": {
		FormID: "T-7",
		Placements: CoordinateMapping{
			"sellername":    {Page: 0, X: 80, Y: 498, FontSize: 10},
			"selleraddress": {Page: 0, X: 80, Y: 474, FontSize: 9},
			"buyername":     {Page: 0, X: 80, Y: 426, FontSize: 10},
			"buyeraddress":  {Page: 0, X: 80, Y: 402, FontSize: 9},
			"year":          {Page: 0, X: 80, Y: 620},
			"make":          {Page: 0, X: 160, Y: 620},
			"model":         {Page: 0, X: 260, Y: 620},
			"vin":           {Page: 0, X: 360, Y: 620, FontSize: 9},
			"saleprice":     {Page: 0, X: 80, Y: 560},
			"saledate":      {Page: 0, X: 330, Y: 560},
		},
	},
	"us/nevada": {
		FormID: "VP104",
		Placements: CoordinateMapping{
			"sellername": {Page: 0, X: 50, Y: 410},
			"buyername":  {Page: 0, X: 50, Y: 470},
			"year":       {Page: 0, X: 50, Y: 610},
			"make":       {Page: 0, X: 130, Y: 610},
			"model":      {Page: 0, X: 230, Y: 610},
			"vin":        {Page: 0, X: 330, Y: 610, FontSize: 9},
			"saleprice":  {Page: 0, X: 50, Y: 550},
			"saledate":   {Page: 0, X: 330, Y: 550},
			"odometer":   {Page: 0, X: 50, Y: 520},
		},
	},
}
