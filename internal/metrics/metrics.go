package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumsport_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quantumsport_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumsport_cart_mutations_total",
			Help: "Selection set mutations by operation and result",
		},
		[]string{"operation", "result"},
	)

	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumsport_checkouts_total",
			Help: "Checkout attempts by outcome",
		},
		[]string{"outcome"},
	)

	CheckoutAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quantumsport_checkout_grand_total_idr",
			Help:    "Grand total of successful checkouts",
			Buckets: prometheus.ExponentialBuckets(50000, 2, 10),
		},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumsport_upstream_requests_total",
			Help: "Calls to the booking API by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quantumsport_upstream_request_duration_seconds",
			Help:    "Booking API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quantumsport_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	InvoicePollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumsport_invoice_polls_total",
			Help: "Invoice status fetches by outcome",
		},
		[]string{"outcome"},
	)

	InvoiceTerminalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumsport_invoice_terminal_total",
			Help: "Invoices observed reaching a terminal status",
		},
		[]string{"status"},
	)

	ActiveInvoiceWatchers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quantumsport_invoice_watchers_active",
			Help: "Invoices currently watched in the background",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quantumsport_sessions_active",
			Help: "Booking sessions held by the in-memory store",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quantumsport_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quantumsport_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordCartMutation(operation, result string) {
	CartMutationsTotal.WithLabelValues(operation, result).Inc()
}

func RecordCheckout(outcome string) {
	CheckoutsTotal.WithLabelValues(outcome).Inc()
}

func RecordCheckoutAmount(grandTotal int64) {
	CheckoutAmount.Observe(float64(grandTotal))
}

func RecordUpstreamRequest(operation, outcome string, duration float64) {
	UpstreamRequestsTotal.WithLabelValues(operation, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(operation).Observe(duration)
}

func SetCircuitBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

func RecordInvoicePoll(outcome string) {
	InvoicePollsTotal.WithLabelValues(outcome).Inc()
}

func RecordInvoiceTerminal(status string) {
	InvoiceTerminalTotal.WithLabelValues(status).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
