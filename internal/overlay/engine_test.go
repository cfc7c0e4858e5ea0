package overlay

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-official-forms/internal/compliance"
	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
	"github.com/a3tai/mcp-official-forms/internal/mapping"
	"github.com/a3tai/mcp-official-forms/internal/pdftest"
)

func resolveAndFill(t *testing.T, documentType, jurisdiction string, template []byte, data map[string]string) *Result {
	t.Helper()
	cfg := loadConfig(t, documentType, jurisdiction)
	plan, err := NewResolver(nil).Resolve(cfg, template)
	require.NoError(t, err)
	res, err := NewEngine(nil, 0).Fill(plan, template, data)
	require.NoError(t, err)
	return res
}

func TestEngine_AcroFormRoundTrip(t *testing.T) {
	template := floridaForm()
	original := append([]byte(nil), template...)

	res := resolveAndFill(t, compliance.VehicleBillOfSale, "FL", template, map[string]string{
		"seller_name":     "Alice Seller",
		"buyer_name":      "Bob Buyer",
		"year":            "2020",
		"make":            "Toyota",
		"model":           "Camry",
		"odometer_actual": "yes",
	})

	assert.Equal(t, StrategyAcroForm, res.Strategy)
	assert.Equal(t, 6, res.FieldsTotal)
	assert.Equal(t, 5, res.FieldsMatched)
	assert.Equal(t, []string{"model"}, res.Unmatched)
	assert.Equal(t, original, template, "template buffer must not be modified")

	info, err := Inspect(res.Bytes)
	require.NoError(t, err)
	want := map[string]string{
		"Sellers Printed Name":    "Alice Seller",
		"Purchasers Printed Name": "Bob Buyer",
		"Year":                    "2020",
		"Make":                    "Toyota",
		"Actual Mileage":          "Yes",
		"Body Type":               "",
	}
	for name, value := range want {
		f, ok := fieldByName(info.Fields, name)
		require.True(t, ok, name)
		assert.Equal(t, value, f.Value, name)
	}
}

func TestEngine_AcroFormEncoding(t *testing.T) {
	template := pdftest.Form(
		pdftest.Field{Name: "SELLER NAME", Rect: [4]float64{72, 600, 300, 620}},
		pdftest.Field{Name: "purchaser name", Rect: [4]float64{72, 540, 300, 560}},
	)

	res := resolveAndFill(t, compliance.VehicleBillOfSale, "FL", template, map[string]string{
		"seller_name": `Smith (Jr.) \ Sons`,
		"buyer_name":  "José Müller",
	})
	require.Equal(t, 2, res.FieldsMatched)

	info, err := Inspect(res.Bytes)
	require.NoError(t, err)
	seller, _ := fieldByName(info.Fields, "SELLER NAME")
	assert.Equal(t, `Smith (Jr.) \ Sons`, seller.Value)
	buyer, _ := fieldByName(info.Fields, "purchaser name")
	assert.Equal(t, "José Müller", buyer.Value, "case-insensitive alias match with a unicode value")
}

func TestEngine_AcroFormGlobalAliasAndHierarchy(t *testing.T) {
	template := pdftest.Form(
		pdftest.Field{Name: "form.grantor_name", Rect: [4]float64{72, 600, 300, 620}},
		pdftest.Field{Name: "topmostSubform[0].Page1[0].VIN[0]", Rect: [4]float64{72, 560, 300, 580}},
	)

	// Connecticut has no alias for either name; the global aliases and the
	// terminal-name match have to find them.
	res := resolveAndFill(t, compliance.VehicleBillOfSale, "CT", template, map[string]string{
		"seller_name": "Alice",
		"vin":         "1HGCM82633A004352",
	})
	assert.Equal(t, StrategyAcroForm, res.Strategy)
	assert.Equal(t, 2, res.FieldsMatched)
	assert.Empty(t, res.Unmatched)

	info, err := Inspect(res.Bytes)
	require.NoError(t, err)
	seller, _ := fieldByName(info.Fields, "form.grantor_name")
	assert.Equal(t, "Alice", seller.Value)
}

func TestEngine_AcroFormZeroMatchesDoesNotEscalate(t *testing.T) {
	template := pdftest.Form(pdftest.Field{Name: "Renamed Field 1", Rect: [4]float64{72, 600, 300, 620}})

	res := resolveAndFill(t, compliance.VehicleBillOfSale, "FL", template, map[string]string{
		"seller_name": "Alice",
		"buyer_name":  "Bob",
		"empty":       "  ",
	})
	assert.Equal(t, StrategyAcroForm, res.Strategy)
	assert.Equal(t, 0, res.FieldsMatched)
	assert.Equal(t, 2, res.FieldsTotal, "blank values are not counted")
	assert.ElementsMatch(t, []string{"seller_name", "buyer_name"}, res.Unmatched)
}

func TestEngine_CheckboxStates(t *testing.T) {
	for value, want := range map[string]string{
		"true": "Yes", "Y": "Yes", "x": "Yes", "checked": "Yes", "1": "Yes",
		"no": "Off", "false": "Off", "0": "Off", "maybe": "Off",
	} {
		t.Run(value, func(t *testing.T) {
			template := pdftest.Form(pdftest.Field{Name: "Actual Mileage", Checkbox: true, Rect: [4]float64{72, 440, 84, 452}, Checked: want == "Off"})
			res := resolveAndFill(t, compliance.VehicleBillOfSale, "FL", template, map[string]string{"odometer_actual": value})
			require.Equal(t, 1, res.FieldsMatched)

			info, err := Inspect(res.Bytes)
			require.NoError(t, err)
			f, _ := fieldByName(info.Fields, "Actual Mileage")
			assert.Equal(t, want, f.Value)
		})
	}
}

func TestEngine_CoordinateJSON(t *testing.T) {
	template := pdftest.Blank(1)
	original := append([]byte(nil), template...)

	res := resolveAndFill(t, compliance.VehicleBillOfSale, "CO", template, map[string]string{
		"seller_name": "Alice Seller",
		"vin":         "1HGCM82633A004352",
		"nickname":    "unused",
	})

	assert.Equal(t, StrategyCoordinateJSON, res.Strategy)
	co, _ := mapping.Default().Coordinates(compliance.VehicleBillOfSale, "us/colorado")
	assert.Equal(t, len(co), res.FieldsTotal)
	assert.Equal(t, 2, res.FieldsMatched)
	assert.Equal(t, []string{"nickname"}, res.Unmatched)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, original, template)
	assert.False(t, bytes.Equal(template, res.Bytes))

	info, err := Inspect(res.Bytes)
	require.NoError(t, err, "coordinate output is a valid PDF")
	assert.Equal(t, 1, info.PageCount)
}

func pageContent(t *testing.T, doc []byte, pageNr int) string {
	t.Helper()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(doc), newConfiguration())
	require.NoError(t, err)
	pageDict, _, _, err := ctx.PageDict(pageNr, false)
	require.NoError(t, err)
	content, err := ctx.PageContent(pageDict, pageNr)
	require.NoError(t, err)
	return string(content)
}

func TestEngine_CoordinateDrawsValuesVerbatim(t *testing.T) {
	plan := &Plan{
		Strategy:     StrategyCoordinateJSON,
		DocumentType: compliance.VehicleBillOfSale,
		Jurisdiction: "us/colorado",
		Placements: mapping.CoordinateMapping{
			"seller_name": {Page: 0, X: 72, Y: 600},
			"buyer_name":  {Page: 0, X: 72, Y: 560, FontSize: 8.5},
			"make":        {Page: 0, X: 72, Y: 520},
			"model":       {Page: 0, X: 72, Y: 480},
		},
	}

	res, err := NewEngine(nil, 0).Fill(plan, pdftest.Blank(1), map[string]string{
		"seller_name": "Acme 100% Motors %p %%P %t %v 50%",
		"buyer_name":  `Smith (Jr.) \ Sons`,
		"make":        "Citroën",
		"model":       "Model 東",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.FieldsMatched)

	content := pageContent(t, res.Bytes, 1)
	assert.True(t, strings.HasPrefix(content, "q"), "original content is isolated")
	assert.Contains(t, content, "(Acme 100% Motors %p %%P %t %v 50%) Tj")
	assert.Contains(t, content, `(Smith \(Jr.\) \\ Sons) Tj`)
	assert.Contains(t, content, "(Citro\xebn) Tj", "WinAnsi encoded")
	assert.Contains(t, content, "(Model ?) Tj")
	assert.Contains(t, content, "72.00 600.00 Td")
	assert.Contains(t, content, "8.50 Tf")
	assert.Contains(t, content, "10.00 Tf")

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "field model")
}

func TestEngine_CoordinateKeepsExistingResources(t *testing.T) {
	template := floridaForm()
	plan := &Plan{
		Strategy:     StrategyCoordinateJSON,
		DocumentType: compliance.VehicleBillOfSale,
		Jurisdiction: "us/florida",
		Placements:   mapping.CoordinateMapping{"vin": {Page: 0, X: 72, Y: 400}},
	}

	res, err := NewEngine(nil, 0).Fill(plan, template, map[string]string{"vin": "1HGCM82633A004352"})
	require.NoError(t, err)
	assert.Contains(t, pageContent(t, res.Bytes, 1), "(1HGCM82633A004352) Tj")

	info, err := Inspect(res.Bytes)
	require.NoError(t, err)
	assert.Len(t, info.Fields, 6, "form fields survive the overlay")
}

func TestEncodeWinAnsi(t *testing.T) {
	b, ok := encodeWinAnsi("100% é €")
	assert.True(t, ok)
	assert.Equal(t, []byte{'1', '0', '0', '%', ' ', 0xe9, ' ', 0x80}, b)

	b, ok = encodeWinAnsi("日本")
	assert.False(t, ok)
	assert.Equal(t, "??", string(b))
}

func TestEngine_CoordinateMissingFields(t *testing.T) {
	template := pdftest.Blank(1)

	res := resolveAndFill(t, compliance.VehicleBillOfSale, "CO", template, map[string]string{})
	assert.Equal(t, StrategyCoordinateJSON, res.Strategy)
	assert.Equal(t, 0, res.FieldsMatched)
	assert.Equal(t, template, res.Bytes)

	_, err := Inspect(res.Bytes)
	assert.NoError(t, err)
}

func TestEngine_LegacyCoordinateStripsUnderscores(t *testing.T) {
	res := resolveAndFill(t, compliance.VehicleBillOfSale, "GA", pdftest.Blank(1), map[string]string{
		"seller_name": "Alice",
		"sale_price":  "4500",
		"vin":         "1HGCM82633A004352",
	})

	assert.Equal(t, StrategyLegacyCoordinate, res.Strategy)
	assert.Equal(t, 3, res.FieldsMatched)
	assert.Empty(t, res.Unmatched)
}

func TestEngine_CoordinateBounds(t *testing.T) {
	plan := &Plan{
		Strategy:     StrategyCoordinateJSON,
		DocumentType: compliance.VehicleBillOfSale,
		Jurisdiction: "us/colorado",
		Placements: mapping.CoordinateMapping{
			"seller_name": {Page: 0, X: 72, Y: 600},
			"buyer_name":  {Page: 0, X: 900, Y: 600},
			"vin":         {Page: 3, X: 72, Y: 600},
		},
	}

	res, err := NewEngine(nil, 12).Fill(plan, pdftest.Blank(1), map[string]string{
		"seller_name": "Alice",
		"buyer_name":  "Bob",
		"vin":         "123",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.FieldsTotal)
	assert.Equal(t, 2, res.FieldsMatched, "off-document pages are skipped, off-box placements are drawn")
	assert.Equal(t, []string{"vin"}, res.Unmatched)
	require.Len(t, res.Warnings, 2)
	joined := strings.Join(res.Warnings, "\n")
	assert.Contains(t, joined, "outside the page 0 media box")
	assert.Contains(t, joined, "template has 1 pages")
}

func TestEngine_PassThrough(t *testing.T) {
	template := pdftest.Blank(1)

	res := resolveAndFill(t, compliance.VehicleBillOfSale, "us/california", template, map[string]string{"seller_name": "Alice"})
	assert.Equal(t, StrategyNone, res.Strategy)
	assert.Equal(t, template, res.Bytes)

	res.Bytes[0] = 'X'
	assert.Equal(t, byte('%'), template[0], "pass-through returns a copy")
}

func TestEngine_PassThroughWithWarning(t *testing.T) {
	res := resolveAndFill(t, compliance.VehicleBillOfSale, "VT", pdftest.Blank(1), map[string]string{"seller_name": "Alice"})
	assert.Equal(t, StrategyNone, res.Strategy)
	assert.Equal(t, []string{WarningNoMapping}, res.Warnings)
}

func TestEngine_Errors(t *testing.T) {
	engine := NewEngine(nil, 0)

	_, err := engine.Fill(nil, nil, nil)
	assert.True(t, errors.Is(err, ferrors.ErrInvalidRequest))

	_, err = engine.Fill(&Plan{Strategy: StrategyAcroForm}, pdftest.Malformed(), map[string]string{"a": "b"})
	assert.True(t, errors.Is(err, ferrors.ErrMalformedTemplate))
}

func TestStrategy_Text(t *testing.T) {
	for _, s := range []Strategy{StrategyNone, StrategyAcroForm, StrategyCoordinateJSON, StrategyLegacyCoordinate} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back Strategy
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	var s Strategy
	assert.Error(t, s.UnmarshalText([]byte("ocr")))
}

func TestIsTruthy(t *testing.T) {
	assert.True(t, IsTruthy(" Yes "))
	assert.True(t, IsTruthy("ON"))
	assert.False(t, IsTruthy("off"))
	assert.False(t, IsTruthy(""))
}
