// Package metrics counts change events with Prometheus collectors.
//
// A Recorder owns its own registry rather than the global one, so several
// tracking contexts (or tests) never share counters.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/covert/internal/track"
	"github.com/roach88/covert/internal/value"
)

// Recorder turns change events into metrics.
type Recorder struct {
	reg *prometheus.Registry

	// changes counts events by op and the kind of the mutated container
	changes *prometheus.CounterVec

	// methods counts events raised through a named collection or date method
	methods *prometheus.CounterVec

	// depth tracks how deep in the graph changes land (root children = 1)
	depth prometheus.Histogram

	// lastSeq is the seq of the most recent event
	lastSeq prometheus.Gauge
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		changes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "covert_changes_total",
			Help: "Total change events by op and target kind",
		}, []string{"op", "kind"}),
		methods: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "covert_method_changes_total",
			Help: "Total change events raised by method calls",
		}, []string{"method"}),
		depth: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "covert_change_path_depth",
			Help:    "Number of path segments per change event",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		}),
		lastSeq: factory.NewGauge(prometheus.GaugeOpts{
			Name: "covert_last_seq",
			Help: "Seq of the most recent change event",
		}),
	}
}

// Observe records one event. It never fails, so it can sit in front of
// other observers.
func (r *Recorder) Observe(ev track.Event) error {
	r.changes.WithLabelValues(string(ev.Op), kindLabel(ev.Target)).Inc()
	if ev.Method != "" {
		r.methods.WithLabelValues(ev.Method).Inc()
	}
	r.depth.Observe(float64(len(value.SplitPath(ev.Path))))
	r.lastSeq.Set(float64(ev.Seq))
	return nil
}

// Observer returns Observe as a track.Observer.
func (r *Recorder) Observer() track.Observer {
	return r.Observe
}

// Registry exposes the registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// WriteText writes every metric in the Prometheus text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func kindLabel(target value.Value) string {
	return value.KindOf(value.Unwrap(target)).String()
}
