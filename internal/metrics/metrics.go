package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	DepositRefillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_deposit_refills_total",
			Help: "Total number of committed weekly deposit refills",
		},
		[]string{"package_type"},
	)

	DepositRefillsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_deposit_refills_skipped_total",
			Help: "Refill evaluations that decided not to fire",
		},
		[]string{"reason"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_bookings_total",
			Help: "Total number of class bookings",
		},
		[]string{"status"},
	)

	BookingCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_booking_cancellations_total",
			Help: "Total number of booking cancellations",
		},
	)

	CheckinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_checkins_total",
			Help: "QR check-in attempts",
		},
		[]string{"allowed"},
	)

	InstallmentPaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_installment_payments_total",
			Help: "Recorded installment payments",
		},
		[]string{"method"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymdesk_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	ReferralAwardsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_referral_awards_total",
			Help: "Total number of referral point awards",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordRefill(packageType string) {
	DepositRefillsTotal.WithLabelValues(packageType).Inc()
}

func RecordRefillSkipped(reason string) {
	DepositRefillsSkippedTotal.WithLabelValues(reason).Inc()
}

func RecordBooking(status string) {
	BookingsTotal.WithLabelValues(status).Inc()
}

func RecordBookingCancellation() {
	BookingCancellationsTotal.Inc()
}

func RecordCheckin(allowed bool) {
	if allowed {
		CheckinsTotal.WithLabelValues("true").Inc()
	} else {
		CheckinsTotal.WithLabelValues("false").Inc()
	}
}

func RecordInstallmentPayment(method string) {
	InstallmentPaymentsTotal.WithLabelValues(method).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordReferralAward() {
	ReferralAwardsTotal.Inc()
}

func SetEmailQueueLength(length int64) {
	EmailQueueLength.Set(float64(length))
}
