package observability

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/gin-gonic/gin"
)

// PipelineMetrics records chat pipeline outcomes
type PipelineMetrics struct {
	turns        otelmetric.Int64Counter
	escalations  otelmetric.Int64Counter
	resolutions  otelmetric.Int64Counter
	responseTime otelmetric.Float64Histogram
}

// SetupPrometheusMetrics initializes the Prometheus metrics exporter and
// returns the meter provider. Mount MetricsHandler to expose /metrics.
func SetupPrometheusMetrics() *metric.MeterProvider {
	exp, err := prometheus.New()
	if err != nil {
		log.Fatalf("failed to initialize prometheus exporter: %v", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exp))
	otel.SetMeterProvider(mp)
	return mp
}

// MetricsHandler returns a gin handler serving the Prometheus exposition format
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// NewPipelineMetrics creates the instruments used by the chat pipeline
func NewPipelineMetrics() *PipelineMetrics {
	meter := otel.Meter("genai-customer-service/chat")

	turns, err := meter.Int64Counter("chat_turns_total",
		otelmetric.WithDescription("Number of processed chat turns"))
	if err != nil {
		log.Fatalf("failed to create chat_turns_total counter: %v", err)
	}

	escalations, err := meter.Int64Counter("chat_escalations_total",
		otelmetric.WithDescription("Number of turns escalated to a human agent"))
	if err != nil {
		log.Fatalf("failed to create chat_escalations_total counter: %v", err)
	}

	resolutions, err := meter.Int64Counter("chat_kb_resolutions_total",
		otelmetric.WithDescription("Number of turns auto-resolved from the knowledge base"))
	if err != nil {
		log.Fatalf("failed to create chat_kb_resolutions_total counter: %v", err)
	}

	responseTime, err := meter.Float64Histogram("chat_response_seconds",
		otelmetric.WithDescription("Wall-clock time to process a chat turn"))
	if err != nil {
		log.Fatalf("failed to create chat_response_seconds histogram: %v", err)
	}

	return &PipelineMetrics{
		turns:        turns,
		escalations:  escalations,
		resolutions:  resolutions,
		responseTime: responseTime,
	}
}

// RecordTurn records one processed chat turn and its outcome
func (m *PipelineMetrics) RecordTurn(ctx context.Context, intent string, escalated, autoResolved bool, elapsed time.Duration) {
	if m == nil {
		return
	}

	attrs := otelmetric.WithAttributes(attribute.String("intent", intent))
	m.turns.Add(ctx, 1, attrs)
	if escalated {
		m.escalations.Add(ctx, 1)
	}
	if autoResolved {
		m.resolutions.Add(ctx, 1)
	}
	m.responseTime.Record(ctx, elapsed.Seconds(), attrs)
}
