package docconfig

import (
	"log"

	"github.com/a3tai/mcp-official-forms/internal/compliance"
	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
	"github.com/a3tai/mcp-official-forms/internal/jurisdiction"
)

// Source is the primary compliance source. *compliance.Registry implements it.
type Source interface {
	Lookup(documentType string, key jurisdiction.Key) (*compliance.Rule, error)
}

// Loader resolves document configs from the primary source, degrading to the
// compiled-in legacy table for legacy document types.
type Loader struct {
	source     Source
	cache      *Cache
	logger     *log.Logger
	onFallback func(documentType string)
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// OnFallback registers fn to be called each time the legacy table answers
// for a failed primary lookup. Cached configs do not call it again.
func OnFallback(fn func(documentType string)) LoaderOption {
	return func(l *Loader) {
		l.onFallback = fn
	}
}

// NewLoader creates a loader. A nil source uses the compiled-in registry,
// a nil cache gets a private cache and a nil logger uses the standard logger.
func NewLoader(source Source, cache *Cache, logger *log.Logger, opts ...LoaderOption) *Loader {
	if source == nil {
		source = compliance.Default()
	}
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	l := &Loader{
		source: source,
		cache:  cache,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the merged configuration for a document type in a
// jurisdiction. The jurisdiction may be a postal code, a state name or a
// canonical key.
func (l *Loader) Load(documentType, jurisdictionInput string) (*DocumentConfig, error) {
	key, err := jurisdiction.Normalize(jurisdictionInput)
	if err != nil {
		return nil, err
	}

	return l.cache.getOrLoad(cacheKey{documentType, key}, func() (*DocumentConfig, error) {
		rule, origin, err := l.resolveRule(documentType, key)
		if err != nil {
			return nil, err
		}
		sections := mergeSchema(schemaTypeFor(documentType), rule)
		return &DocumentConfig{
			DocumentType: documentType,
			Jurisdiction: key,
			Sections:     sections,
			Questions:    deriveQuestions(sections, rule),
			Compliance:   rule,
			Origin:       origin,
		}, nil
	})
}

// LoadComplianceOnly returns just the compliance record, skipping schema and
// question assembly. A nil rule with a nil error means the combination is
// offered but carries no special compliance data.
func (l *Loader) LoadComplianceOnly(documentType, jurisdictionInput string) (*compliance.Rule, error) {
	key, err := jurisdiction.Normalize(jurisdictionInput)
	if err != nil {
		return nil, err
	}
	if cfg, ok := l.cache.get(cacheKey{documentType, key}); ok {
		return cfg.Compliance, nil
	}
	rule, _, err := l.resolveRule(documentType, key)
	return rule, err
}

func (l *Loader) resolveRule(documentType string, key jurisdiction.Key) (*compliance.Rule, Origin, error) {
	rule, err := l.source.Lookup(documentType, key)
	if err == nil {
		return rule, OriginRegistry, nil
	}
	if !compliance.IsLegacyType(documentType) {
		return nil, "", err
	}

	legacy, ok := compliance.LegacyLookup(documentType, key)
	if !ok {
		context := documentType + " in " + string(key) + ": " + err.Error()
		if ferrors.TypeOf(err) == ferrors.ErrorTypeUnknown {
			return nil, "", ferrors.Wrap(ferrors.ErrorTypeUnsupportedCombination,
				"no compliance source resolves the combination", err).WithContext(documentType + " in " + string(key))
		}
		return nil, "", ferrors.NewWithContext(ferrors.ErrorTypeUnsupportedCombination,
			"no compliance source resolves the combination", context)
	}

	l.logger.Printf("WARNING: compliance registry failed for %s in %s, using legacy table: %v", documentType, key, err)
	if l.onFallback != nil {
		l.onFallback(documentType)
	}
	return legacy, OriginLegacy, nil
}
