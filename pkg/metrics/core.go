package metrics

import "github.com/prometheus/client_golang/prometheus"

// CoreMetrics covers the discount engine and the design pipeline.
type CoreMetrics struct {
	evaluations *prometheus.CounterVec
	generations *prometheus.CounterVec
	debits      prometheus.Counter
}

// NewCoreMetrics registers counters for the hot paths on the provided
// registerer.
func NewCoreMetrics(reg prometheus.Registerer) *CoreMetrics {
	if reg == nil {
		return &CoreMetrics{}
	}
	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_evaluations_total",
		Help: "Discount engine evaluations by outcome.",
	}, []string{"outcome"})
	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "design_generations_total",
		Help: "AI design generation calls by outcome.",
	}, []string{"outcome"})
	debits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "design_tokens_debited_total",
		Help: "AI designer tokens consumed.",
	})
	reg.MustRegister(evaluations, generations, debits)
	return &CoreMetrics{
		evaluations: evaluations,
		generations: generations,
		debits:      debits,
	}
}

// IncEvaluation counts one discount evaluation with the given outcome
// ("applied", "no_discount", "rejected").
func (m *CoreMetrics) IncEvaluation(outcome string) {
	if m == nil || m.evaluations == nil {
		return
	}
	m.evaluations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncGeneration counts one design generation with the given outcome
// ("design", "text", "insufficient_tokens", "upstream_error", "malformed").
func (m *CoreMetrics) IncGeneration(outcome string) {
	if m == nil || m.generations == nil {
		return
	}
	m.generations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncTokenDebit counts one consumed designer token.
func (m *CoreMetrics) IncTokenDebit() {
	if m == nil || m.debits == nil {
		return
	}
	m.debits.Inc()
}
