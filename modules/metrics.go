package modules

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	configCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_config_commits_total",
			Help: "Committed configuration edits by table and result.",
		},
		[]string{"table", "result"},
	)

	validationRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_validation_rejections_total",
			Help: "Configuration edits rejected by validation, by rule.",
		},
		[]string{"rule"},
	)

	droppedLevels = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_take_profit_levels_dropped_total",
			Help: "Malformed take-profit items dropped while normalizing lists.",
		},
	)

	marketFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_market_fetch_failures_total",
			Help: "Failed market data requests by source.",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(configCommits, validationRejections, droppedLevels, marketFailures)
}
