package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the auth core.
type Metrics struct {
	TokenValidations  *prometheus.CounterVec
	TokenExchanges    *prometheus.CounterVec
	ExchangeLatency   *prometheus.HistogramVec
	KeyCacheHits      prometheus.Counter
	KeyCacheMisses    prometheus.Counter
	KeyCacheEvictions prometheus.Counter
	JWKSFetches       *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on the given registerer.
// Passing a fresh prometheus.NewRegistry() keeps tests isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TokenValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tidecat_token_validations_total",
				Help: "Total number of bearer token validations.",
			},
			[]string{"issuer_class", "result"},
		),
		TokenExchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tidecat_token_exchanges_total",
				Help: "Total number of token-exchange requests.",
			},
			[]string{"result"},
		),
		ExchangeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tidecat_token_exchange_latency_seconds",
				Help:    "Latency of token-exchange requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		KeyCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tidecat_key_cache_hits_total",
			Help: "Total number of signing-key cache hits.",
		}),
		KeyCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tidecat_key_cache_misses_total",
			Help: "Total number of signing-key cache misses.",
		}),
		KeyCacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tidecat_key_cache_evictions_total",
			Help: "Total number of signing-key cache LRU evictions.",
		}),
		JWKSFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tidecat_jwks_fetches_total",
				Help: "Total number of upstream JWKS fetches.",
			},
			[]string{"issuer", "result"},
		),
		RateLimitHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tidecat_rate_limit_hits_total",
				Help: "Total number of key-discovery rate limit hits.",
			},
			[]string{"issuer"},
		),
	}

	reg.MustRegister(
		m.TokenValidations,
		m.TokenExchanges,
		m.ExchangeLatency,
		m.KeyCacheHits,
		m.KeyCacheMisses,
		m.KeyCacheEvictions,
		m.JWKSFetches,
		m.RateLimitHits,
	)

	return m
}

// RecordValidation records the outcome of one token validation.
func (m *Metrics) RecordValidation(issuerClass, result string) {
	m.TokenValidations.WithLabelValues(issuerClass, result).Inc()
}

// RecordExchange records the outcome and latency of one token exchange.
func (m *Metrics) RecordExchange(result string, duration time.Duration) {
	m.TokenExchanges.WithLabelValues(result).Inc()
	m.ExchangeLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordJWKSFetch records one upstream key-set fetch.
func (m *Metrics) RecordJWKSFetch(issuer, result string) {
	m.JWKSFetches.WithLabelValues(issuer, result).Inc()
}

// RecordRateLimitHit records a denied key-discovery attempt.
func (m *Metrics) RecordRateLimitHit(issuer string) {
	m.RateLimitHits.WithLabelValues(issuer).Inc()
}
