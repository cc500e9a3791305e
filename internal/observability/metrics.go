package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// Metrics holds the application's instruments.
type Metrics struct {
	// Matching
	Recommendations    metric.Int64Counter
	GapAnalyses        metric.Int64Counter
	ProfilesRegistered metric.Int64Counter
	CompatibilityScore metric.Float64Histogram

	// Advisor
	AdvisorRequests metric.Int64Counter
	AdvisorErrors   metric.Int64Counter
	AdvisorDuration metric.Float64Histogram
	AdvisorTokens   metric.Int64Counter

	// Server
	HTTPRequests    metric.Int64Counter
	RateLimitHits   metric.Int64Counter
	CertReloadCount metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.Recommendations, "careermatch_recommendations_total", "Total number of recommendation runs"},
		{&m.GapAnalyses, "careermatch_gap_analyses_total", "Total number of gap analyses"},
		{&m.ProfilesRegistered, "careermatch_profiles_registered_total", "Total number of profiles registered"},
		{&m.AdvisorRequests, "careermatch_advisor_requests_total", "Total number of learning plan requests"},
		{&m.AdvisorErrors, "careermatch_advisor_errors_total", "Total number of failed learning plan requests"},
		{&m.AdvisorTokens, "careermatch_advisor_tokens_total", "Tokens consumed by the advisor"},
		{&m.HTTPRequests, "careermatch_http_requests_total", "Total number of API requests"},
		{&m.RateLimitHits, "careermatch_rate_limit_hits_total", "Total number of rate limit hits"},
		{&m.CertReloadCount, "careermatch_cert_reloads_total", "Total number of certificate reloads"},
	}
	for _, c := range counters {
		*c.target, err = meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
	}

	m.CompatibilityScore, err = meter.Float64Histogram(
		"careermatch_compatibility_score",
		metric.WithDescription("Compatibility scores of recommended careers"),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compatibility score metric: %w", err)
	}

	m.AdvisorDuration, err = meter.Float64Histogram(
		"careermatch_advisor_duration_seconds",
		metric.WithDescription("Time spent producing learning plans"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create advisor duration metric: %w", err)
	}

	return m, nil
}

// NoopMetrics returns instruments that record nothing.
func NoopMetrics() *Metrics {
	m, err := NewMetrics(metricnoop.NewMeterProvider().Meter("careermatch"))
	if err != nil {
		panic(err)
	}
	return m
}

// RecordRecommendation counts a recommendation run and records each score.
func (m *Metrics) RecordRecommendation(ctx context.Context, source string, scores ...float64) {
	m.Recommendations.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	for _, score := range scores {
		m.CompatibilityScore.Record(ctx, score)
	}
}

// RecordGapAnalysis counts a gap analysis for career.
func (m *Metrics) RecordGapAnalysis(ctx context.Context, source, career string) {
	m.GapAnalyses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("career", career),
	))
}

// RecordProfileRegistered counts a profile append attempt.
func (m *Metrics) RecordProfileRegistered(ctx context.Context, source string, success bool) {
	m.ProfilesRegistered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("success", success),
	))
}

// RecordHTTPRequest counts a served API request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, route string, status int) {
	m.HTTPRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.Int("status", status),
	))
}

// RecordRateLimitHit counts a rejected request.
func (m *Metrics) RecordRateLimitHit(ctx context.Context, keyType string) {
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}

// RecordCertReload counts a TLS certificate reload.
func (m *Metrics) RecordCertReload(ctx context.Context, success bool) {
	m.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// TokenUsage is the token accounting reported by an advisor call.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// AIOperationResult holds the result of an advisor call including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TrackAdvisorOperation runs fn and records its duration, outcome and
// token usage. It returns fn's error.
func (m *Metrics) TrackAdvisorOperation(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	span := trace.SpanFromContext(ctx)

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	m.AdvisorDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
	m.AdvisorRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AdvisorErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
		span.RecordError(err)
	}

	if result != nil && result.TokenUsage != nil {
		m.recordTokens(ctx, operation, result.TokenUsage)
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
		)
	}
	return err
}

func (m *Metrics) recordTokens(ctx context.Context, operation string, usage *TokenUsage) {
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
	} {
		m.AdvisorTokens.Add(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.tokenType),
		))
	}
}
