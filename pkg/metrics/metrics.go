package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 业务与传输层指标
var (
	// WebSocket 连接数
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "Number of active WebSocket connections",
	})

	// 广播帧计数（按出站类型）
	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_broadcasts_total",
		Help: "Total number of broadcast frames by type",
	}, []string{"type"})

	// 因背压被丢弃的帧
	BroadcastsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_broadcasts_dropped_total",
		Help: "Frames dropped because a connection send buffer was full",
	})

	// 入站消息计数（按类型）
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_messages_received_total",
		Help: "Total number of inbound frames by type",
	}, []string{"type"})

	// 告警创建计数（按级别）
	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sos_alerts_created_total",
		Help: "Total number of alerts created by severity",
	}, []string{"severity"})

	// 告警归档计数（按处置方式）
	AlertsArchived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sos_alerts_archived_total",
		Help: "Total number of alerts archived by resolution type",
	}, []string{"resolution"})

	// 路由层错误计数（按原因）
	DispatchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sos_dispatch_errors_total",
		Help: "Inbound frames dropped by the dispatcher by reason",
	}, []string{"reason"})

	// HTTP 请求指标
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)
