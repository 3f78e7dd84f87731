package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Workflow metrics
	DonationsRecorded     *prometheus.CounterVec
	BadgesAwarded         *prometheus.CounterVec
	RequestsFulfilled     prometheus.Counter
	FulfillmentFailures   *prometheus.CounterVec
	EligibilityResets     prometheus.Counter
	InventoryUnitsExpired prometheus.Counter

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates all application metrics and registers them on reg.
// Pass prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DonationsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donations_recorded_total",
			Help:      "Total number of recorded donations",
		}, []string{"emergency"}),
		BadgesAwarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_awarded_total",
			Help:      "Total number of badges awarded",
		}, []string{"badge"}),
		RequestsFulfilled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_fulfilled_total",
			Help:      "Total number of fulfilled blood requests",
		}),
		FulfillmentFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fulfillment_failures_total",
			Help:      "Fulfillment attempts that did not complete",
		}, []string{"reason"}),
		EligibilityResets: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eligibility_resets_total",
			Help:      "Total number of donors made eligible again",
		}),
		InventoryUnitsExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_units_expired_total",
			Help:      "Total number of inventory rows marked expired",
		}),

		OutboxEventsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Donation records one successful donation.
func (m *Metrics) Donation(emergency bool, badge *string) {
	if m == nil {
		return
	}
	m.DonationsRecorded.WithLabelValues(strconv.FormatBool(emergency)).Inc()
	if badge != nil {
		m.BadgesAwarded.WithLabelValues(*badge).Inc()
	}
}

// Fulfilled records a fulfillment outcome. An empty reason means success.
func (m *Metrics) Fulfilled(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		m.RequestsFulfilled.Inc()
		return
	}
	m.FulfillmentFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) Resets(n int64) {
	if m == nil {
		return
	}
	m.EligibilityResets.Add(float64(n))
}

func (m *Metrics) Expired(n int64) {
	if m == nil {
		return
	}
	m.InventoryUnitsExpired.Add(float64(n))
}
