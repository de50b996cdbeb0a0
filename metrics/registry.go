package metrics

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Sentinel errors returned by Registry operations
var (
	// ErrDuplicateMetricName is returned when registering a metric whose name
	// is already taken, regardless of type or label schema
	ErrDuplicateMetricName = errors.New("metric name already registered")

	// ErrInvalidBucketConfiguration is returned when histogram bucket bounds
	// are empty or not strictly increasing
	ErrInvalidBucketConfiguration = errors.New("bucket bounds must be a non-empty strictly increasing sequence")

	// ErrMetricNotFound is returned when recording against an unregistered name
	ErrMetricNotFound = errors.New("metric not registered")

	// ErrLabelMismatch is returned when the provided labels do not match the
	// registered label names
	ErrLabelMismatch = errors.New("labels do not match registered label names")

	// ErrNegativeObservation is returned for negative histogram values
	ErrNegativeObservation = errors.New("histogram observations must be non-negative")
)

// ExpositionContentType is the content type of the text exposition format
const ExpositionContentType = "text/plain; version=0.0.4; charset=utf-8"

// Registry holds process-wide counters and histograms keyed by name.
// Collectors live in a private Prometheus registry, never the global one,
// so tests can construct isolated instances.
type Registry struct {
	registry *prometheus.Registry

	mu         sync.RWMutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewRegistry creates an empty metric registry
func NewRegistry() *Registry {
	return &Registry{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// RegisterCounter registers a new counter family under the given name.
// Label combinations are created lazily on first increment.
func (r *Registry) RegisterCounter(name, help string, labelNames []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateMetricName, name)
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labelNames)

	if err := r.registry.Register(vec); err != nil {
		return fmt.Errorf("register counter %q: %w", name, err)
	}

	r.counters[name] = vec
	return nil
}

// IncrementCounter increments the counter series identified by name and
// labels, creating the zero-valued series first if it has not been seen.
// Safe for concurrent use; labels are matched by key, not by order.
func (r *Registry) IncrementCounter(name string, labels map[string]string) error {
	r.mu.RLock()
	vec, ok := r.counters[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: counter %q", ErrMetricNotFound, name)
	}

	counter, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return fmt.Errorf("%w: counter %q: %v", ErrLabelMismatch, name, err)
	}

	counter.Inc()
	return nil
}

// RegisterHistogram registers a new histogram family with the given
// cumulative bucket upper bounds.
func (r *Registry) RegisterHistogram(name, help string, labelNames []string, buckets []float64) error {
	if err := validateBuckets(buckets); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateMetricName, name)
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: buckets,
	}, labelNames)

	if err := r.registry.Register(vec); err != nil {
		return fmt.Errorf("register histogram %q: %w", name, err)
	}

	r.histograms[name] = vec
	return nil
}

// ObserveHistogram records a single observation in the histogram series
// identified by name and labels. The value lands in every bucket whose
// bound is >= value, plus the series count and sum; values above the
// largest bound only count toward the implicit +Inf bucket.
func (r *Registry) ObserveHistogram(name string, labels map[string]string, value float64) error {
	if value < 0 {
		return fmt.Errorf("%w: histogram %q got %v", ErrNegativeObservation, name, value)
	}

	r.mu.RLock()
	vec, ok := r.histograms[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: histogram %q", ErrMetricNotFound, name)
	}

	observer, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return fmt.Errorf("%w: histogram %q: %v", ErrLabelMismatch, name, err)
	}

	observer.Observe(value)
	return nil
}

// ExportText renders a snapshot of all series in the Prometheus text
// exposition format. Gather copies current values, so concurrent writers
// are never blocked for the duration of the encoding.
func (r *Registry) ExportText() (string, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return "", fmt.Errorf("encode metric family %q: %w", family.GetName(), err)
		}
	}

	return buf.String(), nil
}

// Gather returns the current snapshot of all metric families
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}

// nameTaken reports whether a metric name is already registered under
// either type. Callers must hold the write lock.
func (r *Registry) nameTaken(name string) bool {
	if _, ok := r.counters[name]; ok {
		return true
	}
	_, ok := r.histograms[name]
	return ok
}

func validateBuckets(buckets []float64) error {
	if len(buckets) == 0 {
		return fmt.Errorf("%w: no buckets", ErrInvalidBucketConfiguration)
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return fmt.Errorf("%w: %v <= %v at index %d",
				ErrInvalidBucketConfiguration, buckets[i], buckets[i-1], i)
		}
	}
	return nil
}
