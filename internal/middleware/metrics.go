package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal       uint64
	RequestsInProgress  uint64
	RequestsSuccess     uint64
	RequestsFailed      uint64
	AnalysesTotal       uint64
	AnalysesDegraded    uint64
	SummaryFallbacks    uint64
	ClassifyFallbacks   uint64
	EntityFallbacks     uint64
	QuestionsTotal      uint64
	QuestionsUnanswered uint64
	OCRRuns             uint64
	OCRFailed           uint64
	StartTime           time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementInProgress increments in-progress request counter
func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

// DecrementInProgress decrements in-progress request counter
func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

// IncrementSuccess increments successful request counter
func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

// IncrementFailed increments failed request counter
func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

// RecordAnalysis counts one analysis and each stage that fell back.
func RecordAnalysis(summaryFailed, classifyFailed, entitiesFailed bool) {
	atomic.AddUint64(&globalMetrics.AnalysesTotal, 1)
	if summaryFailed || classifyFailed || entitiesFailed {
		atomic.AddUint64(&globalMetrics.AnalysesDegraded, 1)
	}
	if summaryFailed {
		atomic.AddUint64(&globalMetrics.SummaryFallbacks, 1)
	}
	if classifyFailed {
		atomic.AddUint64(&globalMetrics.ClassifyFallbacks, 1)
	}
	if entitiesFailed {
		atomic.AddUint64(&globalMetrics.EntityFallbacks, 1)
	}
}

// RecordQuestion counts one question.
func RecordQuestion(answered bool) {
	atomic.AddUint64(&globalMetrics.QuestionsTotal, 1)
	if !answered {
		atomic.AddUint64(&globalMetrics.QuestionsUnanswered, 1)
	}
}

// RecordOCR counts one image extraction.
func RecordOCR(failed bool) {
	atomic.AddUint64(&globalMetrics.OCRRuns, 1)
	if failed {
		atomic.AddUint64(&globalMetrics.OCRFailed, 1)
	}
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"analyses_total":       atomic.LoadUint64(&globalMetrics.AnalysesTotal),
		"analyses_degraded":    atomic.LoadUint64(&globalMetrics.AnalysesDegraded),
		"stage_fallbacks": map[string]interface{}{
			"summarization":  atomic.LoadUint64(&globalMetrics.SummaryFallbacks),
			"classification": atomic.LoadUint64(&globalMetrics.ClassifyFallbacks),
			"ner":            atomic.LoadUint64(&globalMetrics.EntityFallbacks),
		},
		"questions_total":      atomic.LoadUint64(&globalMetrics.QuestionsTotal),
		"questions_unanswered": atomic.LoadUint64(&globalMetrics.QuestionsUnanswered),
		"ocr_runs":             atomic.LoadUint64(&globalMetrics.OCRRuns),
		"ocr_failed":           atomic.LoadUint64(&globalMetrics.OCRFailed),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
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
