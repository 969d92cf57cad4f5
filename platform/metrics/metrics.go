// Package metrics exposes Prometheus counters for the parking lookup pipeline.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parksmart"

// Recorder owns a private registry and the application's collectors.
type Recorder struct {
	registry *prometheus.Registry

	queriesIssued    *prometheus.CounterVec
	queriesDiscarded prometheus.Counter
	queryFailures    prometheus.Counter
	sensorErrors     *prometheus.CounterVec
	addressFallbacks *prometheus.CounterVec
	lookupDuration   *prometheus.HistogramVec
	candidates       prometheus.Gauge
	streamClients    *prometheus.GaugeVec
}

// New creates a Recorder with Go runtime and process collectors attached.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.queriesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_issued_total",
			Help:      "Parking lookups started, by whether the refresh was forced",
		},
		[]string{"forced"},
	)
	r.queriesDiscarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_discarded_total",
		Help:      "Lookup results dropped because a newer query had been issued",
	})
	r.queryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_failures_total",
		Help:      "Parking searches that failed",
	})
	r.sensorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_errors_total",
			Help:      "Location sensor failures by error code",
		},
		[]string{"code"},
	)
	r.addressFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_fallbacks_total",
			Help:      "Reverse geocoding results replaced by a fallback label",
		},
		[]string{"reason"},
	)
	r.lookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Latency of remote lookups by operation",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"operation", "result"},
	)
	r.candidates = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "candidates_current",
		Help:      "Number of parking candidates in the current outcome",
	})
	r.streamClients = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected streaming clients by transport",
		},
		[]string{"transport"},
	)

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.queriesIssued,
		r.queriesDiscarded,
		r.queryFailures,
		r.sensorErrors,
		r.addressFallbacks,
		r.lookupDuration,
		r.candidates,
		r.streamClients,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) QueryIssued(forced bool) {
	if r == nil {
		return
	}
	r.queriesIssued.WithLabelValues(strconv.FormatBool(forced)).Inc()
}

func (r *Recorder) QueryDiscarded() {
	if r == nil {
		return
	}
	r.queriesDiscarded.Inc()
}

func (r *Recorder) QueryFailed() {
	if r == nil {
		return
	}
	r.queryFailures.Inc()
}

func (r *Recorder) SensorError(code string) {
	if r == nil {
		return
	}
	r.sensorErrors.WithLabelValues(code).Inc()
}

// AddressFallback counts a reverse geocode that returned a placeholder.
// reason is "error" or "empty".
func (r *Recorder) AddressFallback(reason string) {
	if r == nil {
		return
	}
	r.addressFallbacks.WithLabelValues(reason).Inc()
}

// ObserveLookup records the latency of one remote call.
func (r *Recorder) ObserveLookup(operation string, started time.Time, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.lookupDuration.WithLabelValues(operation, result).Observe(time.Since(started).Seconds())
}

func (r *Recorder) SetCandidates(n int) {
	if r == nil {
		return
	}
	r.candidates.Set(float64(n))
}

func (r *Recorder) StreamClientConnected(transport string) {
	if r == nil {
		return
	}
	r.streamClients.WithLabelValues(transport).Inc()
}

func (r *Recorder) StreamClientDisconnected(transport string) {
	if r == nil {
		return
	}
	r.streamClients.WithLabelValues(transport).Dec()
}
