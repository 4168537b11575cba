package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	annotationOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_weather",
		Subsystem: "annotate",
		Name:      "outcomes_total",
		Help:      "Annotation attempts by outcome kind and skip reason.",
	}, []string{"kind", "reason"})
	annotationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_weather",
		Subsystem: "annotate",
		Name:      "failures_total",
		Help:      "Annotation attempts aborted by an auth or upstream error.",
	}, []string{"stage"})
	tokenRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_weather",
		Subsystem: "auth",
		Name:      "token_refreshes_total",
		Help:      "Access token refresh attempts by result.",
	}, []string{"result"})
	webhookRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_weather",
		Subsystem: "webhook",
		Name:      "rejections_total",
		Help:      "Inbound webhook requests rejected by verification check.",
	}, []string{"check"})
	weatherDegraded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_weather",
		Subsystem: "weather",
		Name:      "degraded_lookups_total",
		Help:      "Weather or air-quality lookups that fell back to an empty fragment.",
	}, []string{"lookup"})
	subscriptionActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_weather",
		Subsystem: "webhook",
		Name:      "subscription_active",
		Help:      "1 when the upstream push subscription exists, 0 otherwise.",
	})
)

func init() {
	prometheus.MustRegister(
		annotationOutcomes,
		annotationFailures,
		tokenRefreshes,
		webhookRejections,
		weatherDegraded,
		subscriptionActive,
	)
}

// RecordAnnotation counts a completed annotation decision.
func RecordAnnotation(kind, reason string) {
	annotationOutcomes.WithLabelValues(kind, reason).Inc()
}

// RecordAnnotationFailure counts an aborted annotation.
func RecordAnnotationFailure(stage string) {
	annotationFailures.WithLabelValues(stage).Inc()
}

// RecordTokenRefresh counts a refresh exchange.
func RecordTokenRefresh(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	tokenRefreshes.WithLabelValues(result).Inc()
}

// RecordWebhookRejection counts a request that failed verification.
func RecordWebhookRejection(check string) {
	webhookRejections.WithLabelValues(check).Inc()
}

// RecordWeatherDegraded counts a lookup replaced by an empty fragment.
func RecordWeatherDegraded(lookup string) {
	weatherDegraded.WithLabelValues(lookup).Inc()
}

// SetSubscriptionActive updates the subscription gauge.
func SetSubscriptionActive(active bool) {
	if active {
		subscriptionActive.Set(1)
		return
	}
	subscriptionActive.Set(0)
}
