package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Metric series owned by the telemetry middleware
const (
	// RequestsTotalMetric counts completed requests by method, endpoint and status
	RequestsTotalMetric = "http_requests_total"

	// RequestDurationMetric tracks request latency in seconds by method, endpoint and status
	RequestDurationMetric = "http_request_duration_seconds"
)

// unmatchedEndpoint labels requests that matched no route. Raw paths must
// never become label values, or unknown URLs would grow the label space
// without bound.
const unmatchedEndpoint = "unmatched"

// RequestLabelNames are the dimensions of both request series
var RequestLabelNames = []string{"method", "endpoint", "status"}

// DefaultDurationBuckets are the latency bucket bounds in seconds
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// MetricsRegistrar is the slice of the metric registry needed to register
// the request series at startup
type MetricsRegistrar interface {
	RegisterCounter(name, help string, labelNames []string) error
	RegisterHistogram(name, help string, labelNames []string, buckets []float64) error
}

// MetricsRecorder is the slice of the metric registry the middleware uses
// per request
type MetricsRecorder interface {
	IncrementCounter(name string, labels map[string]string) error
	ObserveHistogram(name string, labels map[string]string, value float64) error
}

// RequestLogger is the slice of the structured logger the middleware uses
type RequestLogger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

// RegisterRequestMetrics registers the request counter and latency histogram
func RegisterRequestMetrics(registrar MetricsRegistrar) error {
	if err := registrar.RegisterCounter(RequestsTotalMetric,
		"Total number of HTTP requests", RequestLabelNames); err != nil {
		return err
	}
	return registrar.RegisterHistogram(RequestDurationMetric,
		"HTTP request duration in seconds", RequestLabelNames, DefaultDurationBuckets)
}

// Telemetry instruments every request: it starts a monotonic timer on entry
// and, exactly once on completion, increments the request counter, observes
// the latency histogram and emits one structured log record, all with
// identical label values. Recording failures are logged and never affect
// the response. The endpoint label is the matched route template, so
// dynamic path segments cannot explode label cardinality.
//
// Recording runs in a defer: a handler panic still produces a completion
// record with whatever status was written before the panic.
func Telemetry(recorder MetricsRecorder, logger RequestLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := newStatusRecorder(w)

			defer func() {
				duration := time.Since(start)
				status := ww.Status()
				endpoint := routePattern(r)

				labels := map[string]string{
					"method":   r.Method,
					"endpoint": endpoint,
					"status":   strconv.Itoa(status),
				}

				if err := recorder.IncrementCounter(RequestsTotalMetric, labels); err != nil {
					logger.Error("failed to record request count", zap.Error(err))
				}
				if err := recorder.ObserveHistogram(RequestDurationMetric, labels, duration.Seconds()); err != nil {
					logger.Error("failed to record request duration", zap.Error(err))
				}

				fields := []zap.Field{
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("method", r.Method),
					zap.String("endpoint", endpoint),
					zap.Int("status", status),
					zap.Duration("duration", duration),
				}
				if status >= http.StatusInternalServerError {
					logger.Error("request completed", fields...)
				} else {
					logger.Info("request completed", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// routePattern returns the chi route template that handled the request
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedEndpoint
}

// statusRecorder captures the final status code. The first WriteHeader wins;
// later calls are ignored so the recorded status always matches what went
// out on the wire.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w}
}

// WriteHeader records and forwards the first status code only
func (w *statusRecorder) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Write implies a 200 when the handler never set a status explicitly
func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Flush forwards to the underlying writer when it supports streaming
func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Status returns the recorded status code, defaulting to 200 as net/http does
func (w *statusRecorder) Status() int {
	if !w.wroteHeader {
		return http.StatusOK
	}
	return w.status
}
