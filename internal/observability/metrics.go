package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors. Label values come from small closed sets (batch mode,
// rule code, report kind), keeping cardinality bounded.
var (
	// RecognitionsCreated counts persisted recognitions by mode ("single"
	// or "batch").
	RecognitionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_recognitions_created_total",
			Help: "Total number of recognitions persisted.",
		},
		[]string{"mode"},
	)

	// RuleRejections counts operations refused by a domain rule, labelled
	// with the rule's stable error code.
	RuleRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_rule_rejections_total",
			Help: "Total number of operations rejected by a domain rule.",
		},
		[]string{"rule"},
	)

	SentimentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aura_sentiments_created_total",
			Help: "Total number of sentiment entries logged.",
		},
	)

	// ReportsGenerated counts reports by kind ("personal" or "team").
	ReportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_reports_generated_total",
			Help: "Total number of reports generated.",
		},
		[]string{"kind"},
	)

	// EngagementPredicted observes model predictions in percent.
	EngagementPredicted = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aura_engagement_predicted_pct",
			Help:    "Predicted engagement percentage per generated report.",
			Buckets: []float64{10, 20, 30, 45, 60, 75, 90, 100},
		},
	)
)

func init() {
	prometheus.MustRegister(RecognitionsCreated, RuleRejections, SentimentsCreated, ReportsGenerated, EngagementPredicted)
}
