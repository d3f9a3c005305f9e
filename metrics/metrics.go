// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/civic-ballot/models"
)

const namespace = "civic_ballot"

// Recorder counts cast outcomes and their latency. It satisfies
// ballot.Observer.
type Recorder struct {
	casts   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewRegistry returns a registry preloaded with process and Go runtime
// collectors
func NewRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}
	return reg, nil
}

func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		casts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "casts_total",
			Help:      "Vote casts by ballot kind and outcome.",
		}, []string{"kind", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cast_duration_seconds",
			Help:      "Time to decide a vote cast, including storage retries.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{r.casts, r.latency} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register cast metrics: %w", err)
		}
	}
	return r, nil
}

func (r *Recorder) ObserveCast(kind models.DomainKind, outcome string, elapsed time.Duration) {
	r.casts.WithLabelValues(string(kind), outcome).Inc()
	r.latency.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
