// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the surface services use to report measurements. Keeping it an
// interface lets tests pass a no-op implementation.
type Recorder interface {
	RecordRelayRequest(outcome string)
	RecordRelayLatency(d time.Duration)
	RecordSessionVerification(result string)
	RecordSessionCacheHit()
	RecordSessionCacheMiss()
	RecordAuthEvent(kind string)
	RecordSupplementLogged()
}

// Relay request outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Collector is the Prometheus-backed Recorder implementation.
type Collector struct {
	registry          *prometheus.Registry
	relayRequests     *prometheus.CounterVec
	relayLatency      prometheus.Histogram
	verifications     *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	authEvents        *prometheus.CounterVec
	supplementsLogged prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		relayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sahaya_chat_relay_requests_total",
			Help: "Chat relay requests by outcome.",
		}, []string{"outcome"}),
		relayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sahaya_chat_relay_latency_seconds",
			Help:    "Latency of upstream LLM completion calls.",
			Buckets: prometheus.DefBuckets,
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sahaya_session_verifications_total",
			Help: "Session verifications against the identity provider by result.",
		}, []string{"result"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sahaya_session_cache_hits_total",
			Help: "Verified-session cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sahaya_session_cache_misses_total",
			Help: "Verified-session cache misses.",
		}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sahaya_auth_events_total",
			Help: "Identity provider push events by kind.",
		}, []string{"kind"}),
		supplementsLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sahaya_supplement_logs_total",
			Help: "Supplement intake logs recorded.",
		}),
	}

	c.registry.MustRegister(
		c.relayRequests,
		c.relayLatency,
		c.verifications,
		c.cacheHits,
		c.cacheMisses,
		c.authEvents,
		c.supplementsLogged,
	)

	return c
}

func (c *Collector) RecordRelayRequest(outcome string) {
	c.relayRequests.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRelayLatency(d time.Duration) {
	c.relayLatency.Observe(d.Seconds())
}

func (c *Collector) RecordSessionVerification(result string) {
	c.verifications.WithLabelValues(result).Inc()
}

func (c *Collector) RecordSessionCacheHit()  { c.cacheHits.Inc() }
func (c *Collector) RecordSessionCacheMiss() { c.cacheMisses.Inc() }

func (c *Collector) RecordAuthEvent(kind string) {
	c.authEvents.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordSupplementLogged() { c.supplementsLogged.Inc() }

// Handler exposes the collector's registry in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Nop is a Recorder that discards everything. Useful in tests.
type Nop struct{}

func (Nop) RecordRelayRequest(string)        {}
func (Nop) RecordRelayLatency(time.Duration) {}
func (Nop) RecordSessionVerification(string) {}
func (Nop) RecordSessionCacheHit()           {}
func (Nop) RecordSessionCacheMiss()          {}
func (Nop) RecordAuthEvent(string)           {}
func (Nop) RecordSupplementLogged()          {}
