package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "yc_central"

// Collector holds the client's Prometheus instruments. A nil *Collector is a no-op.
type Collector struct {
	requests        *prometheus.CounterVec
	retries         *prometheus.CounterVec
	budgetWait      prometheus.Histogram
	budgetRemaining prometheus.Gauge
	cache           *prometheus.CounterVec
}

// New registers the instruments with reg. Pass prometheus.DefaultRegisterer to
// expose them through the default /metrics handler.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "HTTP requests sent to the yield provider by outcome.",
		}, []string{"outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      "Retried provider requests by reason.",
		}, []string{"reason"}),
		budgetWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for rate-limit budget before a request.",
			Buckets:   []float64{0.01, 0.1, 1, 5, 15, 30, 60},
		}),
		budgetRemaining: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limit_remaining",
			Help:      "Requests left in the current rate-limit window.",
		}),
		cache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Observation cache lookups by result.",
		}, []string{"result"}),
	}
}

// ObserveRequest counts one provider request. outcome is "ok" or an error kind.
func (c *Collector) ObserveRequest(outcome string) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(outcome).Inc()
}

// ObserveRetry counts one retry
func (c *Collector) ObserveRetry(reason string) {
	if c == nil {
		return
	}
	c.retries.WithLabelValues(reason).Inc()
}

// ObserveBudget records a budget wait and the units left afterwards
func (c *Collector) ObserveBudget(waitSeconds float64, remaining int) {
	if c == nil {
		return
	}
	c.budgetWait.Observe(waitSeconds)
	c.budgetRemaining.Set(float64(remaining))
}

// ObserveCache counts a cache hit or miss
func (c *Collector) ObserveCache(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cache.WithLabelValues(result).Inc()
}
