package metric

import (
	"io"
	"sort"

	"github.com/prometheus/common/expfmt"

	"github.com/c360/balanceguard/errors"
)

// WriteText gathers every registered metric and writes it in the Prometheus text
// exposition format, sorted by family name.
func (r *MetricsRegistry) WriteText(w io.Writer) error {
	families, err := r.prometheusRegistry.Gather()
	if err != nil {
		return errors.Wrap(err, "MetricsRegistry", "WriteText", "gather metrics")
	}

	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "MetricsRegistry", "WriteText", "encode metric family")
		}
	}
	return nil
}
