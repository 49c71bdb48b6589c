package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/balanceguard/metric"
)

type ringMetrics struct {
	appended    prometheus.Counter
	evicted     prometheus.Counter
	length      prometheus.Gauge
	utilization prometheus.Gauge
}

// Registry keys, in registration order.
var ringMetricKeys = [...]string{"history_appended", "history_evicted", "history_length", "history_utilization"}

func newRingMetrics(registry *metric.MetricsRegistry, name string) (*ringMetrics, error) {
	labels := prometheus.Labels{"history": name}
	counter := func(metricName, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace, Subsystem: "history", Name: metricName,
			Help: help, ConstLabels: labels,
		})
	}
	gauge := func(metricName, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace, Subsystem: "history", Name: metricName,
			Help: help, ConstLabels: labels,
		})
	}

	m := &ringMetrics{
		appended:    counter("appended_total", "Entries appended to the history ring"),
		evicted:     counter("evicted_total", "Entries evicted from a full history ring"),
		length:      gauge("length", "Entries currently held by the history ring"),
		utilization: gauge("utilization", "History ring fill ratio between 0 and 1"),
	}

	registered := 0
	rollback := func(err error) (*ringMetrics, error) {
		for _, key := range ringMetricKeys[:registered] {
			registry.Unregister(name, key)
		}
		return nil, err
	}
	for i, c := range []prometheus.Counter{m.appended, m.evicted} {
		if err := registry.RegisterCounter(name, ringMetricKeys[i], c); err != nil {
			return rollback(err)
		}
		registered++
	}
	for i, g := range []prometheus.Gauge{m.length, m.utilization} {
		if err := registry.RegisterGauge(name, ringMetricKeys[2+i], g); err != nil {
			return rollback(err)
		}
		registered++
	}
	return m, nil
}

func (m *ringMetrics) observe(length, capacity int) {
	m.length.Set(float64(length))
	m.utilization.Set(float64(length) / float64(capacity))
}

func (m *ringMetrics) release(registry *metric.MetricsRegistry, name string) {
	for _, key := range ringMetricKeys {
		registry.Unregister(name, key)
	}
}
