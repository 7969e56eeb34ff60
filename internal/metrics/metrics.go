package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymshood_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymshood_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CheckInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymshood_checkins_total",
			Help: "Total number of gym check-ins",
		},
		[]string{"status"},
	)

	CheckOutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymshood_checkouts_total",
			Help: "Total number of gym check-outs",
		},
	)

	PurchasesInitiatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymshood_purchases_initiated_total",
			Help: "Total number of purchase orders opened",
		},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymshood_settlements_total",
			Help: "Total number of payment settlements",
		},
		[]string{"status"},
	)

	RefundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymshood_refunds_total",
			Help: "Total number of refunds processed",
		},
	)

	SignatureFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymshood_payment_signature_failures_total",
			Help: "Total number of rejected payment signatures",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymshood_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymshood_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	EntitlementsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymshood_entitlements_expired_total",
			Help: "Total number of entitlements marked expired by sweeps",
		},
	)

	VisitsForceClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymshood_visits_force_closed_total",
			Help: "Total number of visits auto-closed past their computed checkout",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordCheckIn(status string) {
	CheckInsTotal.WithLabelValues(status).Inc()
}

func RecordCheckOut() {
	CheckOutsTotal.Inc()
}

func RecordSettlement(status string) {
	SettlementsTotal.WithLabelValues(status).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
