// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RoutesTotal counts pipeline branch decisions.
	RoutesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_routes_total",
			Help: "Chat messages by pipeline route",
		},
		[]string{"route"},
	)

	// ProviderDuration tracks outbound provider call latency.
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_call_duration_seconds",
			Help:    "Search and language-model call duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)

	// PromptTokensTotal tracks tokens sent to language models.
	PromptTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_prompt_tokens_total",
			Help: "Prompt tokens sent to language models",
		},
		[]string{"model"},
	)

	// OrdersTotal counts chat order attempts.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_orders_total",
			Help: "Marketplace order attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ListingsTotal counts listings created through chat.
	ListingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_listings_total",
			Help: "Marketplace listings created via chat",
		},
	)

	// NATSStreamMessages tracks messages in NATS stream.
	NATSStreamMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_messages",
			Help: "Number of messages in NATS stream",
		},
		[]string{"stream"},
	)

	// SessionsTotal tracks chat sessions created.
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_total",
			Help: "Total chat sessions created",
		},
		[]string{"persona"},
	)

	// MessagesTotal tracks total messages recorded.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages recorded",
		},
		[]string{"persona", "role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordProviderCall records one outbound search or language-model call.
func RecordProviderCall(provider string, err error, duration float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ProviderDuration.WithLabelValues(provider, status).Observe(duration)
}

// RecordRoute counts a pipeline branch decision.
func RecordRoute(route string) {
	RoutesTotal.WithLabelValues(route).Inc()
}

// RecordOrder counts an order attempt.
func RecordOrder(outcome string) {
	OrdersTotal.WithLabelValues(outcome).Inc()
}

// RecordPromptTokens adds prompt tokens for a model.
func RecordPromptTokens(model string, n int) {
	PromptTokensTotal.WithLabelValues(model).Add(float64(n))
}
