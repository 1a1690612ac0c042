package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	UploadsTotal       uint64
	UploadsFailed      uint64
	SpamDetected       uint64
	OCRMisses          uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

var (
	gaugesMu sync.RWMutex
	gauges   = map[string]func() any{}
)

// RegisterGauge adds a value computed at scrape time, e.g. hub stats.
func RegisterGauge(name string, fn func() any) {
	gaugesMu.Lock()
	defer gaugesMu.Unlock()
	gauges[name] = fn
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

// RecordUpload counts one analyzed screenshot.
func RecordUpload(spam, ocrEmpty bool) {
	atomic.AddUint64(&globalMetrics.UploadsTotal, 1)
	if spam {
		atomic.AddUint64(&globalMetrics.SpamDetected, 1)
	}
	if ocrEmpty {
		atomic.AddUint64(&globalMetrics.OCRMisses, 1)
	}
}

func IncrementUploadsFailed() {
	atomic.AddUint64(&globalMetrics.UploadsFailed, 1)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	out := map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"uploads_total":        atomic.LoadUint64(&globalMetrics.UploadsTotal),
		"uploads_failed":       atomic.LoadUint64(&globalMetrics.UploadsFailed),
		"spam_detected":        atomic.LoadUint64(&globalMetrics.SpamDetected),
		"ocr_misses":           atomic.LoadUint64(&globalMetrics.OCRMisses),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}

	gaugesMu.RLock()
	for name, fn := range gauges {
		out[name] = fn()
	}
	gaugesMu.RUnlock()
	return out
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
