package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for challenge evaluations.
type Metrics struct {
	Evaluations        *prometheus.CounterVec
	Rejections         *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	RPCErrors          *prometheus.CounterVec
}

// New registers and returns challenge metrics collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mintpass_evaluations_total",
			Help: "Total number of challenge evaluations, labeled by verification path and outcome",
		}, []string{"path", "outcome"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mintpass_rejections_total",
			Help: "Total number of rejected challenges, labeled by reason",
		}, []string{"reason"}),
		EvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mintpass_evaluation_duration_seconds",
			Help:    "Duration of challenge evaluations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RPCErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mintpass_rpc_errors_total",
			Help: "Total number of evaluations that hit an RPC failure, labeled by the challenge chain",
		}, []string{"chain"}),
	}
}

func (m *Metrics) ObserveEvaluation(path, outcome string, duration time.Duration) {
	m.Evaluations.WithLabelValues(path, outcome).Inc()
	m.EvaluationDuration.Observe(duration.Seconds())
}

func (m *Metrics) IncrementRejections(reason string) {
	m.Rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementRPCErrors(chain string) {
	m.RPCErrors.WithLabelValues(chain).Inc()
}
