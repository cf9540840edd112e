// Package metrics exposes search engine counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts search engine events on a private registry. It
// satisfies search.Observer.
type Recorder struct {
	registry   *prometheus.Registry
	searches   *prometheus.CounterVec
	dispatches prometheus.Counter
	failures   *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	cacheHits  prometheus.Counter
}

// NewRecorder creates a Recorder with its own registry, so several
// recorders can live in one process.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookkeeper_searches_total",
			Help: "Completed searches by result origin.",
		}, []string{"origin"}),
		dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_variant_dispatches_total",
			Help: "Requests sent to the remote catalog.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookkeeper_variant_failures_total",
			Help: "Failed catalog requests by failure kind.",
		}, []string{"kind"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookkeeper_fallbacks_total",
			Help: "Searches answered by the fallback generator, by reason.",
		}, []string{"reason"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_cache_hits_total",
			Help: "Searches served from the result cache.",
		}),
	}

	r.registry.MustRegister(
		r.searches, r.dispatches, r.failures, r.fallbacks, r.cacheHits,
		collectors.NewGoCollector(),
	)
	return r
}

func (r *Recorder) SearchCompleted(origin string) {
	r.searches.WithLabelValues(origin).Inc()
	if origin == "cache" {
		r.cacheHits.Inc()
	}
}

func (r *Recorder) VariantDispatched() {
	r.dispatches.Inc()
}

func (r *Recorder) VariantFailed(kind string) {
	r.failures.WithLabelValues(kind).Inc()
}

func (r *Recorder) FallbackUsed(reason string) {
	r.fallbacks.WithLabelValues(reason).Inc()
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
