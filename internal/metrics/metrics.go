// Package metrics provides Prometheus instrumentation for the Vault service.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vault",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// TransactionsTotal counts processed wallet transactions by type and risk level.
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "transactions_total",
			Help:      "Total wallet transactions processed by type and risk level.",
		},
		[]string{"type", "risk_level"},
	)

	// CreditAdjustmentsTotal counts credit score adjustments by direction.
	CreditAdjustmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "credit_adjustments_total",
			Help:      "Total credit score adjustments by direction (increase, decrease, unchanged).",
		},
		[]string{"direction"},
	)

	// RiskAssessmentsTotal counts risk assessments by resulting level.
	RiskAssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "risk_assessments_total",
			Help:      "Total risk assessments by resulting level.",
		},
		[]string{"level"},
	)

	// PriceAlertsTriggeredTotal counts price alerts fired by symbol.
	PriceAlertsTriggeredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "price_alerts_triggered_total",
			Help:      "Total price alerts triggered by symbol.",
		},
		[]string{"symbol"},
	)

	// PriceFetchesTotal counts upstream price API calls by result.
	PriceFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "price_fetches_total",
			Help:      "Total upstream price fetches by result (ok, error, cached).",
		},
		[]string{"result"},
	)

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vault",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vault", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vault", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vault", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// DBWaitCount tracks the total number of connections waited for.
	DBWaitCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vault", Name: "db_wait_count_total",
		Help: "Total number of connections waited for.",
	})
	// DBWaitDuration tracks total time waited for connections.
	DBWaitDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vault", Name: "db_wait_duration_seconds_total",
		Help: "Total time waited for connections in seconds.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vault", Name: "goroutines",
		Help: "Current number of goroutines.",
	})

	// FactoryDuration observes end-to-end transaction pipeline latency.
	FactoryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vault",
		Name:      "transaction_pipeline_duration_seconds",
		Help:      "Time to build, score, and persist a transaction in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		TransactionsTotal,
		CreditAdjustmentsTotal,
		RiskAssessmentsTotal,
		PriceAlertsTriggeredTotal,
		PriceFetchesTotal,
		ActiveWebSocketClients,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		DBWaitCount,
		DBWaitDuration,
		GoroutineCount,
		FactoryDuration,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			DBWaitCount.Set(float64(stats.WaitCount))
			DBWaitDuration.Set(stats.WaitDuration.Seconds())
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
