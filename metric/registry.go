package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/balanceguard/errors"
)

// MetricsRegistrar is the registration surface components depend on.
type MetricsRegistrar interface {
	RegisterCounter(component, metricName string, counter prometheus.Counter) error
	RegisterGauge(component, metricName string, gauge prometheus.Gauge) error
	RegisterCounterVec(component, metricName string, counterVec *prometheus.CounterVec) error
	RegisterGaugeVec(component, metricName string, gaugeVec *prometheus.GaugeVec) error
	RegisterHistogram(component, metricName string, histogram prometheus.Histogram) error
	RegisterHistogramVec(component, metricName string, histogramVec *prometheus.HistogramVec) error
	Unregister(component, metricName string) bool
}

var _ MetricsRegistrar = (*MetricsRegistry)(nil)

// collectorKey names a collector by owning component and metric.
type collectorKey struct {
	component string
	name      string
}

func (k collectorKey) String() string {
	return k.component + "." + k.name
}

// MetricsRegistry owns a private Prometheus registry, the core validation
// metrics and every component collector registered through it.
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics

	mu         sync.Mutex
	collectors map[collectorKey]prometheus.Collector
}

// NewMetricsRegistry creates a registry with the core metrics registered.
func NewMetricsRegistry() *MetricsRegistry {
	r := &MetricsRegistry{
		prometheusRegistry: prometheus.NewRegistry(),
		Metrics:            NewMetrics(),
		collectors:         make(map[collectorKey]prometheus.Collector),
	}
	r.prometheusRegistry.MustRegister(r.Metrics.collectors()...)
	return r
}

// PrometheusRegistry exposes the underlying registry for gathering.
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the request-level validation metrics.
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.Metrics
}

// RegisterCounter registers counter under component.metricName.
func (r *MetricsRegistry) RegisterCounter(component, metricName string, counter prometheus.Counter) error {
	return r.add(collectorKey{component, metricName}, "RegisterCounter", counter)
}

// RegisterGauge registers gauge under component.metricName.
func (r *MetricsRegistry) RegisterGauge(component, metricName string, gauge prometheus.Gauge) error {
	return r.add(collectorKey{component, metricName}, "RegisterGauge", gauge)
}

// RegisterCounterVec registers counterVec under component.metricName.
func (r *MetricsRegistry) RegisterCounterVec(component, metricName string, counterVec *prometheus.CounterVec) error {
	return r.add(collectorKey{component, metricName}, "RegisterCounterVec", counterVec)
}

// RegisterGaugeVec registers gaugeVec under component.metricName.
func (r *MetricsRegistry) RegisterGaugeVec(component, metricName string, gaugeVec *prometheus.GaugeVec) error {
	return r.add(collectorKey{component, metricName}, "RegisterGaugeVec", gaugeVec)
}

// RegisterHistogram registers histogram under component.metricName.
func (r *MetricsRegistry) RegisterHistogram(component, metricName string, histogram prometheus.Histogram) error {
	return r.add(collectorKey{component, metricName}, "RegisterHistogram", histogram)
}

// RegisterHistogramVec registers histogramVec under component.metricName.
func (r *MetricsRegistry) RegisterHistogramVec(
	component, metricName string, histogramVec *prometheus.HistogramVec) error {
	return r.add(collectorKey{component, metricName}, "RegisterHistogramVec", histogramVec)
}

// add rejects a second collector for the same key, and a collector Prometheus
// already knows under another key, as invalid rather than panicking.
func (r *MetricsRegistry) add(key collectorKey, method string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.collectors[key]; taken {
		return errors.WrapInvalid(fmt.Errorf("%s is already registered", key),
			"MetricsRegistry", method, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(c); err != nil {
		var dup prometheus.AlreadyRegisteredError
		if stderrors.As(err, &dup) {
			return errors.WrapInvalid(err, "MetricsRegistry", method,
				fmt.Sprintf("collector for %s conflicts with an existing one", key))
		}
		return errors.WrapFatal(err, "MetricsRegistry", method, "prometheus registration")
	}

	r.collectors[key] = c
	return nil
}

// Unregister drops component.metricName. It reports false when nothing was
// registered under that key.
func (r *MetricsRegistry) Unregister(component, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := collectorKey{component, metricName}
	c, ok := r.collectors[key]
	if !ok || !r.prometheusRegistry.Unregister(c) {
		return false
	}
	delete(r.collectors, key)
	return true
}
