package docconfig

import (
	"bytes"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-official-forms/internal/compliance"
	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
	"github.com/a3tai/mcp-official-forms/internal/jurisdiction"
)

type failingSource struct{}

func (failingSource) Lookup(string, jurisdiction.Key) (*compliance.Rule, error) {
	return nil, errors.New("registry unavailable")
}

type countingSource struct {
	calls atomic.Int32
	inner Source
}

func (s *countingSource) Lookup(documentType string, key jurisdiction.Key) (*compliance.Rule, error) {
	s.calls.Add(1)
	return s.inner.Lookup(documentType, key)
}

func newTestLoader(t *testing.T, source Source) (*Loader, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewLoader(source, NewCache(), log.New(&buf, "", 0)), &buf
}

func TestLoader_Load_Florida(t *testing.T) {
	loader, _ := newTestLoader(t, nil)

	cfg, err := loader.Load(compliance.VehicleBillOfSale, "FL")
	require.NoError(t, err)

	assert.Equal(t, jurisdiction.Key("us/florida"), cfg.Jurisdiction)
	assert.Equal(t, OriginRegistry, cfg.Origin)
	assert.True(t, cfg.RequiresNotary())
	assert.True(t, cfg.HasOfficialForm())
	assert.False(t, cfg.IsMandatory())
	assert.Equal(t, "HSMV 82050", cfg.OfficialFormID())

	_, ok := cfg.Field("odometer")
	assert.True(t, ok, "odometer section is merged for odometer-integrated jurisdictions")
	notary, ok := cfg.Field("notary_county")
	require.True(t, ok)
	assert.True(t, notary.Required)

	assert.Len(t, cfg.Questions, len(cfg.FieldIDs()))
}

func TestLoader_Load_California(t *testing.T) {
	loader, _ := newTestLoader(t, nil)

	cfg, err := loader.Load(compliance.VehicleBillOfSale, "us/california")
	require.NoError(t, err)

	assert.False(t, cfg.RequiresNotary())
	assert.False(t, cfg.HasOfficialForm())
	_, ok := cfg.Field("notary_county")
	assert.False(t, ok)
	_, ok = cfg.Field("odometer")
	assert.False(t, ok)
	_, ok = cfg.Field("vin")
	assert.True(t, ok)
}

func TestLoader_Load_ConditionalNotary(t *testing.T) {
	loader, _ := newTestLoader(t, nil)

	cfg, err := loader.Load(compliance.VehicleBillOfSale, "Maryland")
	require.NoError(t, err)

	assert.True(t, cfg.RequiresNotary())
	assert.True(t, cfg.IsMandatory())
	f, ok := cfg.Field("notary_county")
	require.True(t, ok)
	assert.False(t, f.Required, "conditional notarization keeps notary fields optional")

	var noted bool
	for _, q := range cfg.Questions {
		if q.Section == "notary" {
			noted = noted || q.Note != ""
		}
	}
	assert.True(t, noted)
}

func TestLoader_Load_NoComplianceData(t *testing.T) {
	loader, _ := newTestLoader(t, nil)

	cfg, err := loader.Load(compliance.GeneralBillOfSale, "ohio")
	require.NoError(t, err)
	assert.Nil(t, cfg.Compliance)
	assert.False(t, cfg.RequiresNotary())
	assert.False(t, cfg.HasOfficialForm())
	assert.False(t, cfg.IsMandatory())
	_, ok := cfg.Field("item_description")
	assert.True(t, ok)
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name         string
		documentType string
		jurisdiction string
		want         error
	}{
		{"unknown document type", "unsupported-doc", "FL", ferrors.ErrUnsupportedDocumentType},
		{"unknown jurisdiction", compliance.VehicleBillOfSale, "uk/england", ferrors.ErrUnsupportedJurisdiction},
		{"not offered", compliance.FirearmBillOfSale, "CA", ferrors.ErrUnsupportedCombination},
		{"legacy type without legacy row", compliance.LegacyBillOfSale, "OH", ferrors.ErrUnsupportedCombination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _ := newTestLoader(t, nil)
			cfg, err := loader.Load(tt.documentType, tt.jurisdiction)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			_, err = loader.LoadComplianceOnly(tt.documentType, tt.jurisdiction)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLoader_LegacyDocumentType(t *testing.T) {
	loader, logs := newTestLoader(t, nil)

	cfg, err := loader.Load(compliance.LegacyBillOfSale, "GA")
	require.NoError(t, err)
	assert.Equal(t, OriginLegacy, cfg.Origin)
	assert.Equal(t, "T-7", cfg.OfficialFormID())
	assert.True(t, cfg.HasOfficialForm())
	_, ok := cfg.Field("vin")
	assert.True(t, ok, "legacy bill of sale shares the vehicle schema")
	assert.Contains(t, logs.String(), "WARNING")
}

func TestLoader_FallbackOnPrimaryFailure(t *testing.T) {
	loader, logs := newTestLoader(t, failingSource{})

	cfg, err := loader.Load(compliance.VehicleBillOfSale, "us/west-virginia")
	require.NoError(t, err)
	assert.Equal(t, OriginLegacy, cfg.Origin)
	assert.True(t, cfg.RequiresNotary())
	assert.True(t, cfg.IsMandatory())
	assert.Contains(t, logs.String(), "registry unavailable")

	_, err = loader.Load(compliance.VehicleBillOfSale, "us/ohio")
	require.Error(t, err)
	assert.Equal(t, ferrors.ErrorTypeUnsupportedCombination, ferrors.TypeOf(err))

	_, err = loader.Load(compliance.BoatBillOfSale, "us/florida")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry unavailable", "non-legacy types surface the primary failure")
}

func TestLoader_OnFallback(t *testing.T) {
	var fallbacks []string
	loader := NewLoader(failingSource{}, NewCache(), log.New(&bytes.Buffer{}, "", 0),
		OnFallback(func(documentType string) { fallbacks = append(fallbacks, documentType) }))

	for i := 0; i < 3; i++ {
		_, err := loader.Load(compliance.VehicleBillOfSale, "WV")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{compliance.VehicleBillOfSale}, fallbacks, "only the first load falls back")

	_, err := loader.Load(compliance.BoatBillOfSale, "WV")
	require.Error(t, err)
	assert.Len(t, fallbacks, 1)
}

func TestLoader_LoadComplianceOnly(t *testing.T) {
	loader, _ := newTestLoader(t, nil)

	rule, err := loader.LoadComplianceOnly(compliance.VehicleBillOfSale, "louisiana")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, compliance.NotaryRequired, rule.RequiresNotary)
	assert.Equal(t, 0, loader.cache.Len(), "compliance-only reads do not populate the cache")

	_, err = loader.Load(compliance.VehicleBillOfSale, "LA")
	require.NoError(t, err)
	cached, err := loader.LoadComplianceOnly(compliance.VehicleBillOfSale, "LA")
	require.NoError(t, err)
	assert.Equal(t, rule, cached)

	rule, err = loader.LoadComplianceOnly(compliance.GeneralBillOfSale, "ohio")
	assert.NoError(t, err)
	assert.Nil(t, rule)
}

func TestLoader_CacheMemoizes(t *testing.T) {
	source := &countingSource{inner: compliance.Default()}
	cache := NewCache()
	loader := NewLoader(source, cache, log.New(&bytes.Buffer{}, "", 0))

	first, err := loader.Load(compliance.VehicleBillOfSale, "FL")
	require.NoError(t, err)
	second, err := loader.Load(compliance.VehicleBillOfSale, "florida")
	require.NoError(t, err)

	assert.Same(t, first, second, "spellings of the same jurisdiction share one entry")
	assert.Equal(t, int32(1), source.calls.Load())
	assert.Equal(t, 1, cache.Len())

	_, err = loader.Load("unsupported-doc", "FL")
	require.Error(t, err)
	assert.Equal(t, 1, cache.Len(), "failures are not cached")
}

func TestLoader_CacheIsolation(t *testing.T) {
	a, _ := newTestLoader(t, nil)
	b, _ := newTestLoader(t, nil)

	_, err := a.Load(compliance.VehicleBillOfSale, "FL")
	require.NoError(t, err)
	assert.Equal(t, 1, a.cache.Len())
	assert.Equal(t, 0, b.cache.Len())
}

func TestLoader_ConcurrentLoads(t *testing.T) {
	source := &countingSource{inner: compliance.Default()}
	loader := NewLoader(source, NewCache(), log.New(&bytes.Buffer{}, "", 0))

	var wg sync.WaitGroup
	results := make([]*DocumentConfig, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := loader.Load(compliance.VehicleBillOfSale, "CO")
			assert.NoError(t, err)
			results[i] = cfg
		}(i)
	}
	wg.Wait()

	for _, cfg := range results {
		assert.Same(t, results[0], cfg)
	}
	assert.LessOrEqual(t, source.calls.Load(), int32(len(results)))
	assert.Equal(t, 1, loader.cache.Len())
}

func TestDocumentConfig_NilSafe(t *testing.T) {
	var cfg *DocumentConfig
	assert.False(t, cfg.RequiresNotary())
	assert.False(t, cfg.HasOfficialForm())
	assert.False(t, cfg.IsMandatory())
	assert.Empty(t, cfg.OfficialFormID())

	partial := &DocumentConfig{Compliance: &compliance.Rule{OfficialFormID: "X-1"}}
	assert.False(t, partial.HasOfficialForm(), "both form id and asset path are required")
}
