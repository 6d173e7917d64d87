// Package metrics exposes Prometheus counters and histograms for the
// compression engine: each call creates its own registry so repeated
// construction (tests, multiple CLI invocations sharing a process)
// never collides on a default global registerer.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds every metric the engine reports against.
type Recorder struct {
	registry *prometheus.Registry

	compressions  *prometheus.CounterVec
	nodesFolded   prometheus.Counter
	charsEmitted  prometheus.Counter
	renderSeconds prometheus.Histogram
	parseFallback prometheus.Counter
}

// New builds a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		compressions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nub",
			Name:      "compressions_total",
			Help:      "Number of Compress calls, labeled by format and outcome.",
		}, []string{"format", "outcome"}),
		nodesFolded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nub",
			Name:      "nodes_folded_total",
			Help:      "Total number of nodes rendered as a fold marker across all Compress calls.",
		}),
		charsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nub",
			Name:      "chars_emitted_total",
			Help:      "Total output characters produced across all Compress calls.",
		}),
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nub",
			Name:      "render_duration_seconds",
			Help:      "Wall-clock duration of a single Compress call.",
			Buckets:   prometheus.DefBuckets,
		}),
		parseFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nub",
			Name:      "parse_fallback_total",
			Help:      "Number of Compress calls that fell back to the text format after a parse error.",
		}),
	}
	reg.MustRegister(r.compressions, r.nodesFolded, r.charsEmitted, r.renderSeconds, r.parseFallback)
	return r
}

// Observe records one Compress outcome: nodesFolded and charsEmitted are
// taken from its Stats, durationSeconds is elapsed wall-clock time, and
// err is the error Compress returned, if any. Takes plain fields rather
// than engine.Stats so this package stays a leaf import of internal/engine
// instead of importing it back.
func (r *Recorder) Observe(format string, nodesFolded, charsEmitted int, fellBack bool, durationSeconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.compressions.WithLabelValues(format, outcome).Inc()
	r.renderSeconds.Observe(durationSeconds)
	if err != nil {
		return
	}
	r.nodesFolded.Add(float64(nodesFolded))
	r.charsEmitted.Add(float64(charsEmitted))
	if fellBack {
		r.parseFallback.Inc()
	}
}

// Handler returns the /metrics scrape endpoint for this Recorder's
// registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing Handler at /metrics on addr,
// blocking until the server stops or errors.
func Serve(addr string, r *Recorder) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
