package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal 控制台 HTTP 请求总数
	// Labels: route (gin FullPath), method, status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_console_http_requests_total",
			Help: "Total number of console HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration 控制台 HTTP 请求耗时（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roadmap_console_http_request_duration_seconds",
			Help:    "Console HTTP request duration in seconds by route",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"route"},
	)

	// CollectionSize 当前已加载的路线图数量
	CollectionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roadmap_console_loaded_roadmaps",
			Help: "Number of roadmaps currently held by the console",
		},
	)
)

// RecordRequest 记录一次 HTTP 请求
func RecordRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetCollectionSize 更新已加载路线图数量
func SetCollectionSize(n int) {
	CollectionSize.Set(float64(n))
}
