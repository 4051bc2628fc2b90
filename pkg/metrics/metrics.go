// Package metrics holds the prometheus collectors of the build tracker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 自定义的注册表
var Registry = prometheus.NewRegistry()

var (
	// HTTP 请求计数, 按路由模板统计
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buildtracker_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "buildtracker_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// 表格导入成功写入的 Item 数量
	ImportedItems = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "buildtracker_imported_items_total",
			Help: "Total number of items created by spreadsheet import",
		},
	)

	ImportFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "buildtracker_import_failures_total",
			Help: "Total number of rejected spreadsheet imports",
		},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buildtracker_notifications_total",
			Help: "Total number of notification attempts by channel and result",
		},
		[]string{"channel", "result"},
	)

	// 每种状态的 Item 数量, 在抓取时刷新
	ItemsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "buildtracker_items",
			Help: "Number of items in each status",
		},
		[]string{"status"},
	)

	PurgedTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "buildtracker_purged_tokens_total",
			Help: "Total number of expired blacklist entries removed",
		},
	)
)

//nolint:gochecknoinits // collectors live for the whole process
func init() {
	Registry.MustRegister(
		HTTPRequests,
		HTTPDuration,
		ImportedItems,
		ImportFailures,
		Notifications,
		ItemsByStatus,
		PurgedTokens,
	)
}

// Handler exposes the registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Result labels a notification attempt.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
