package monitoring

import (
	"strings"
	"time"

	"ticket_engine/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_reservations_total",
			Help: "Reservation attempts by result",
		},
		[]string{"result"},
	)

	checkouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_checkouts_total",
			Help: "Checkout initiations by result",
		},
		[]string{"result"},
	)

	paymentCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Gateway callbacks by result",
		},
		[]string{"result"},
	)

	redemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_redemptions_total",
			Help: "Ticket verification attempts by result",
		},
		[]string{"result"},
	)

	refunds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_refunds_total",
			Help: "Refund attempts by result",
		},
		[]string{"result"},
	)

	holdsReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_holds_reclaimed_total",
			Help: "Expired holds returned to inventory",
		},
	)

	refundDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_refund_duration_seconds",
			Help:    "Latency of gateway refund calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

// Result turns an operation error into a metric label: "ok" or the
// lowercased error code.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(utils.CodeOf(err))
}

func TrackReservation(err error) { reservations.WithLabelValues(Result(err)).Inc() }

func TrackCheckout(err error) { checkouts.WithLabelValues(Result(err)).Inc() }

func TrackCallback(result string) { paymentCallbacks.WithLabelValues(result).Inc() }

func TrackRedemption(err error) { redemptions.WithLabelValues(Result(err)).Inc() }

func TrackRefund(result string) { refunds.WithLabelValues(result).Inc() }

func TrackHoldsReclaimed(n int) { holdsReclaimed.Add(float64(n)) }

func ObserveRefundDuration(started time.Time) {
	refundDuration.Observe(time.Since(started).Seconds())
}
