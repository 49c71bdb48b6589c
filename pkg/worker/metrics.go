package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/balanceguard/metric"
)

type poolMetrics struct {
	depth     prometheus.Gauge
	fill      prometheus.Gauge
	submitted prometheus.Counter
	processed prometheus.Counter
	failed    prometheus.Counter
	dropped   prometheus.Counter
	latency   *prometheus.HistogramVec
}

// Registry keys under the pool's name, in registration order.
var poolMetricKeys = [...]string{
	"queue_depth", "queue_fill", "submitted", "processed", "failed", "dropped", "latency",
}

func newPoolMetrics(registry *metric.MetricsRegistry, name string) (*poolMetrics, error) {
	labels := prometheus.Labels{"pool": name}
	counter := func(metricName, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace, Subsystem: "worker", Name: metricName,
			Help: help, ConstLabels: labels,
		})
	}
	gauge := func(metricName, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace, Subsystem: "worker", Name: metricName,
			Help: help, ConstLabels: labels,
		})
	}

	m := &poolMetrics{
		depth:     gauge("queue_depth", "Items waiting in the pool queue"),
		fill:      gauge("queue_fill_ratio", "Pool queue fill ratio between 0 and 1"),
		submitted: counter("submitted_total", "Items accepted by Submit"),
		processed: counter("processed_total", "Items handled by a worker"),
		failed:    counter("failed_total", "Items whose handler returned an error"),
		dropped:   counter("dropped_total", "Items rejected because the queue was full"),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace, Subsystem: "worker", Name: "handle_duration_seconds",
			Help:        "Time spent handling one item",
			ConstLabels: labels,
			Buckets:     []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		}, []string{"status"}),
	}

	steps := []func(key string) error{
		func(key string) error { return registry.RegisterGauge(name, key, m.depth) },
		func(key string) error { return registry.RegisterGauge(name, key, m.fill) },
		func(key string) error { return registry.RegisterCounter(name, key, m.submitted) },
		func(key string) error { return registry.RegisterCounter(name, key, m.processed) },
		func(key string) error { return registry.RegisterCounter(name, key, m.failed) },
		func(key string) error { return registry.RegisterCounter(name, key, m.dropped) },
		func(key string) error { return registry.RegisterHistogramVec(name, key, m.latency) },
	}
	for i, step := range steps {
		if err := step(poolMetricKeys[i]); err != nil {
			for _, key := range poolMetricKeys[:i] {
				registry.Unregister(name, key)
			}
			return nil, err
		}
	}
	return m, nil
}

func (m *poolMetrics) enqueued(depth, capacity int) {
	if m == nil {
		return
	}
	m.submitted.Inc()
	m.observeQueue(depth, capacity)
}

func (m *poolMetrics) rejected() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *poolMetrics) handled(err error, took time.Duration, depth, capacity int) {
	if m == nil {
		return
	}
	status := "ok"
	m.processed.Inc()
	if err != nil {
		status = "error"
		m.failed.Inc()
	}
	m.latency.WithLabelValues(status).Observe(took.Seconds())
	m.observeQueue(depth, capacity)
}

func (m *poolMetrics) observeQueue(depth, capacity int) {
	m.depth.Set(float64(depth))
	m.fill.Set(float64(depth) / float64(capacity))
}

func (m *poolMetrics) release(registry *metric.MetricsRegistry, name string) {
	if m == nil || registry == nil {
		return
	}
	for _, key := range poolMetricKeys {
		registry.Unregister(name, key)
	}
}
