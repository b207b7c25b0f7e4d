// Package metrics defines the Prometheus collectors exported on /metrics.
// promauto registers everything with the default registry at init time.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts processed requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphnav_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures server response time per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphnav_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// TraversalsTotal counts reachability computations by strategy
	// ("cte" for the in-database recursive query, "dfs" for the
	// in-memory engine).
	TraversalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphnav_traversals_total",
			Help: "Total number of reachability traversals executed",
		},
		[]string{"strategy"},
	)

	// GraphNodes tracks the current number of nodes in the graph.
	GraphNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphnav_graph_nodes_total",
			Help: "Current number of nodes in the graph",
		},
	)

	// GraphEdges tracks the current number of edges in the graph.
	GraphEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphnav_graph_edges_total",
			Help: "Current number of edges in the graph",
		},
	)
)
