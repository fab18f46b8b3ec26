// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devcentral_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devcentral_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})

	// TimelineAssembly records how long feed, explore and profile timelines take to build.
	TimelineAssembly = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devcentral_timeline_assembly_seconds",
		Help:    "Timeline assembly latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// MarkdownRenderFailures counts post bodies that could not be rendered.
	MarkdownRenderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devcentral_markdown_render_failures_total",
		Help: "Markdown renders that failed and degraded to no HTML",
	})

	// PostActions counts counter mutations by action and outcome.
	PostActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devcentral_post_actions_total",
		Help: "Post reaction and share actions by outcome",
	}, []string{"action", "outcome"})

	// FollowChanges counts follow graph mutations by outcome.
	FollowChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devcentral_follow_changes_total",
		Help: "Follow and unfollow requests by outcome",
	}, []string{"outcome"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "devcentral_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devcentral_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)
