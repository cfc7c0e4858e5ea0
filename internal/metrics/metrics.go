package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for document compliance and filling.
type Metrics struct {
	// Strategy selections by strategy and jurisdiction
	StrategySelected *prometheus.CounterVec

	// Fill requests by outcome: "ok" or the error type
	FillOutcome *prometheus.CounterVec

	// Share of submitted fields that reached the document, per strategy
	MatchRatio *prometheus.HistogramVec

	// End-to-end fill latency including template parsing and writing
	FillLatency prometheus.Histogram

	// Configs served from the legacy compliance table
	LegacyFallbacks *prometheus.CounterVec
}

// New creates a Metrics instance registered on reg. Each registry can hold
// one instance; tests pass prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StrategySelected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "official_forms_strategy_selected_total",
			Help: "Overlay strategies chosen by strategy and jurisdiction",
		}, []string{"strategy", "jurisdiction"}),

		FillOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "official_forms_fill_requests_total",
			Help: "Fill requests by outcome",
		}, []string{"outcome"}),

		MatchRatio: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "official_forms_field_match_ratio",
			Help:    "Fraction of submitted fields written to the document",
			Buckets: []float64{0, 0.25, 0.5, 0.75, 0.9, 1},
		}, []string{"strategy"}),

		FillLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "official_forms_fill_duration_seconds",
			Help:    "Duration of document fills",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		LegacyFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "official_forms_legacy_fallbacks_total",
			Help: "Document configs answered by the legacy compliance table",
		}, []string{"document_type"}),
	}
}

// ObserveStrategy records a strategy selection.
func (m *Metrics) ObserveStrategy(strategy, jurisdiction string) {
	if m != nil {
		m.StrategySelected.WithLabelValues(strategy, jurisdiction).Inc()
	}
}

// ObserveFill records a completed fill and its match ratio.
func (m *Metrics) ObserveFill(strategy string, matched, total int, d time.Duration) {
	if m == nil {
		return
	}
	m.FillOutcome.WithLabelValues("ok").Inc()
	m.FillLatency.Observe(d.Seconds())
	if total > 0 {
		m.MatchRatio.WithLabelValues(strategy).Observe(float64(matched) / float64(total))
	}
}

// IncrementFailure records a failed fill by error type.
func (m *Metrics) IncrementFailure(errorType string) {
	if m != nil {
		m.FillOutcome.WithLabelValues(errorType).Inc()
	}
}

// IncrementLegacyFallback records a config served from the legacy table.
func (m *Metrics) IncrementLegacyFallback(documentType string) {
	if m != nil {
		m.LegacyFallbacks.WithLabelValues(documentType).Inc()
	}
}
