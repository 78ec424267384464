// Package metrics holds the Prometheus metrics shared across the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated        prometheus.Counter
	OTPSent             prometheus.Counter
	OTPVerified         prometheus.Counter
	OTPRejected         prometheus.Counter
	ApplicationsCreated prometheus.Counter
	ScoringDuration     prometheus.Histogram
	OffersMatched       prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kreditomat_users_created_total",
			Help: "Total number of users created in the system",
		}),
		OTPSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kreditomat_otp_sent_total",
			Help: "Total number of verification codes issued",
		}),
		OTPVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kreditomat_otp_verified_total",
			Help: "Total number of successful code verifications",
		}),
		OTPRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kreditomat_otp_rejected_total",
			Help: "Total number of rejected code verifications",
		}),
		ApplicationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kreditomat_applications_created_total",
			Help: "Total number of loan applications created",
		}),
		ScoringDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kreditomat_scoring_duration_seconds",
			Help:    "Time spent computing credit scores",
			Buckets: prometheus.DefBuckets,
		}),
		OffersMatched: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kreditomat_offers_matched",
			Help:    "Number of lender offers matched per application",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
	}
}

// ObserveScoring records one scoring engine run.
func (m *Metrics) ObserveScoring(d time.Duration) {
	if m == nil {
		return
	}
	m.ScoringDuration.Observe(d.Seconds())
}

// ObserveMatches records how many offers survived matching.
func (m *Metrics) ObserveMatches(n int) {
	if m == nil {
		return
	}
	m.OffersMatched.Observe(float64(n))
}
