package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	conversionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trackplan",
		Subsystem: "extract",
		Name:      "conversions_total",
		Help:      "Notes converted to plans, by source (api, mcp, cli).",
	}, []string{"source"})
	setsPerPlan = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "trackplan",
		Subsystem: "extract",
		Name:      "sets_per_plan",
		Help:      "Interval sets extracted from a single note.",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})
	validationIssuesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trackplan",
		Subsystem: "validate",
		Name:      "issues_total",
		Help:      "Structural issues reported by the validator, by source.",
	}, []string{"source"})
	plansStoredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trackplan",
		Subsystem: "storage",
		Name:      "plans_stored_total",
		Help:      "Converted plans persisted to Postgres.",
	})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trackplan",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(conversionsTotal, setsPerPlan, validationIssuesTotal, plansStoredTotal, httpRequestDuration)
}

// RecordConversion counts one converted note and the issues found in it.
func RecordConversion(source string, sets, issues int) {
	conversionsTotal.WithLabelValues(source).Inc()
	setsPerPlan.Observe(float64(sets))
	RecordValidation(source, issues)
}

// RecordValidation counts issues reported for a document.
func RecordValidation(source string, issues int) {
	if issues <= 0 {
		return
	}
	validationIssuesTotal.WithLabelValues(source).Add(float64(issues))
}

// RecordPlanStored counts one persisted plan.
func RecordPlanStored() {
	plansStoredTotal.Inc()
}

// ObserveRequest records one served HTTP request. route should be the router
// pattern, not the raw path, to keep label cardinality bounded.
func ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
