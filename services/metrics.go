package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homeprice_predictions_created_total",
		Help: "Total number of predictions created.",
	})
	predictionsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homeprice_predictions_updated_total",
		Help: "Total number of predictions updated within a session.",
	})
	predictionsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homeprice_predictions_deleted_total",
		Help: "Total number of predictions deleted within a session.",
	})
	requestsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homeprice_requests_rejected_total",
		Help: "Requests rejected with a client error, by error code.",
	}, []string{"code"})
	sessionCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homeprice_session_cache_lookups_total",
		Help: "Session list cache lookups, by result.",
	}, []string{"result"})
	predictedPrice = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "homeprice_predicted_price_dollars",
		Help:    "Distribution of predicted prices.",
		Buckets: prometheus.ExponentialBuckets(50000, 2, 10),
	})
)

// RecordRejection counts an expected client-facing rejection.
func RecordRejection(code ErrorCode) {
	requestsRejected.WithLabelValues(string(code)).Inc()
}
