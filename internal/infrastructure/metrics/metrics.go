package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relialab/healthprobe/internal/core/domain/target"
	"github.com/relialab/healthprobe/internal/core/ports"
)

var (
	probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthprobe_probes_total",
			Help: "The total number of probes by target kind and outcome",
		},
		[]string{"kind", "healthy"},
	)

	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "healthprobe_probe_duration_seconds",
			Help: "The probe latencies in seconds by target kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(probesTotal)
	prometheus.MustRegister(probeDuration)
}

// ProbeObserver records every probe outcome in Prometheus.
type ProbeObserver struct{}

func NewProbeObserver() *ProbeObserver { return &ProbeObserver{} }

func (o *ProbeObserver) ObserveProbe(kind target.Kind, healthy bool, elapsed time.Duration) {
	probesTotal.WithLabelValues(string(kind), strconv.FormatBool(healthy)).Inc()
	probeDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

var _ ports.ProbeObserver = (*ProbeObserver)(nil)
