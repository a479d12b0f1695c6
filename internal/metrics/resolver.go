package metrics

import "github.com/prometheus/client_golang/prometheus"

// Resolver Prometheus metrics.
var (
	ResolverQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ekn",
			Name:      "resolver_queries_total",
			Help:      "Total number of domain queries",
		},
		[]string{"domain", "status"},
	)

	ResolverQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ekn",
			Name:      "resolver_query_duration_seconds",
			Help:      "Domain query duration in seconds, including hit resolution",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"domain"},
	)

	ResolverHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ekn",
			Name:      "resolver_hits_total",
			Help:      "Total number of hits resolved into content models",
		},
		[]string{"domain", "type"},
	)

	DomainLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ekn",
			Name:      "domain_loads_total",
			Help:      "Total number of domain load attempts",
		},
		[]string{"domain", "version", "status"}, // status: "ok" / "error"
	)

	RedirectHopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ekn",
			Name:      "redirect_hops_total",
			Help:      "Total number of redirects followed",
		},
		[]string{"domain"},
	)
)

var resolverMetricsRegistered bool

// RegisterResolverMetrics registers Prometheus resolver metrics. Must be called once from main.
func RegisterResolverMetrics() {
	if resolverMetricsRegistered {
		return
	}
	prometheus.MustRegister(ResolverQueriesTotal)
	prometheus.MustRegister(ResolverQueryDuration)
	prometheus.MustRegister(ResolverHitsTotal)
	prometheus.MustRegister(DomainLoadsTotal)
	prometheus.MustRegister(RedirectHopsTotal)
	resolverMetricsRegistered = true
}

// Status maps an error to a metrics status label.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
