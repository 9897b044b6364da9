package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application counters
type Metrics struct {
	RequestsTotal     uint64
	SessionsStarted   uint64
	SessionsSucceeded uint64
	SessionsFailed    uint64
	StartTime         time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementSessionsStarted increments accepted session counter
func IncrementSessionsStarted() {
	atomic.AddUint64(&globalMetrics.SessionsStarted, 1)
}

// IncrementSessionsSucceeded increments completed session counter
func IncrementSessionsSucceeded() {
	atomic.AddUint64(&globalMetrics.SessionsSucceeded, 1)
}

// IncrementSessionsFailed increments failed session counter
func IncrementSessionsFailed() {
	atomic.AddUint64(&globalMetrics.SessionsFailed, 1)
}

// MetricsMiddleware counts requests
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		next.ServeHTTP(w, r)
	})
}

// MetricsHandler exposes the counters as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	out := map[string]any{
		"requests_total":     atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"sessions_started":   atomic.LoadUint64(&globalMetrics.SessionsStarted),
		"sessions_succeeded": atomic.LoadUint64(&globalMetrics.SessionsSucceeded),
		"sessions_failed":    atomic.LoadUint64(&globalMetrics.SessionsFailed),
		"uptime_seconds":     int64(time.Since(globalMetrics.StartTime).Seconds()),
		"goroutines":         runtime.NumGoroutine(),
		"heap_alloc_bytes":   mem.HeapAlloc,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
