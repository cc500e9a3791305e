package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"careermatch/internal/config"
	apperrors "careermatch/internal/errors"
	"careermatch/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const (
	modelCheckTimeout = 10 * time.Second
	maxBackoff        = 30 * time.Second
)

// GeminiProvider implements Advisor with Google Gemini
type GeminiProvider struct {
	models         contentGenerator
	model          string
	temperature    float32
	maxRetries     int
	systemPrompt   string
	baseDelay      time.Duration
	circuitBreaker *AdvisorCircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *apperrors.Logger
}

var _ Advisor = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini client from the advisor configuration.
func NewGeminiProvider(ctx context.Context, cfg *config.AIConfig, logger *apperrors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeMissingAPIKey,
			"advisor API key is not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperrors.NewAIError(apperrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return newGeminiProvider(client.Models, cfg, logger), nil
}

func newGeminiProvider(models contentGenerator, cfg *config.AIConfig, logger *apperrors.Logger) *GeminiProvider {
	return &GeminiProvider{
		models:         models,
		model:          cfg.Model,
		temperature:    cfg.Temperature,
		maxRetries:     max(0, cfg.MaxRetries),
		systemPrompt:   resolvePrompt(cfg.SystemPrompt, DefaultSystemPrompt),
		baseDelay:      time.Second,
		circuitBreaker: NewAdvisorCircuitBreaker("Advise", cfg.CircuitBreaker, logger),
		modelBreaker:   NewModelCircuitBreaker("Advise", cfg.CircuitBreaker, logger),
		logger:         logger,
	}
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.models.Get(checkCtx, g.model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.model,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)
	return modelInfo
}

// learningPlan is the JSON shape requested from the model.
type learningPlan struct {
	Summary string               `json:"summary"`
	Steps   []types.LearningStep `json:"steps"`
}

// Advise asks the model for a learning plan covering input.Gaps.
func (g *GeminiProvider) Advise(ctx context.Context, input types.AdviceInput) (types.Advice, *TokenUsage, error) {
	ctx, span := otel.Tracer("careermatch.ai.gemini").Start(ctx, "gemini.advise")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.model),
		attribute.Float64("ai.temperature", float64(g.temperature)),
		attribute.String("career.title", input.Career.Title),
		attribute.Int("input.gap_count", len(input.Gaps)),
	)

	userPrompt := buildAdvicePrompt(input)
	genaiConfig := g.buildAdviceSchema()

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, "advise", func() (*genai.GenerateContentResponse, error) {
			return g.models.GenerateContent(ctx, g.model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.Advice{}, nil, apperrors.NewAIError(apperrors.ErrCodeAIServiceFailed,
			"Failed to generate learning plan", err)
	}

	var plan learningPlan
	if err := json.Unmarshal([]byte(result.Text()), &plan); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.Advice{}, nil, apperrors.NewAIError(apperrors.ErrCodeAIServiceFailed,
			"Failed to parse learning plan", err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.step_count", len(plan.Steps)),
	)

	steps := plan.Steps
	if steps == nil {
		steps = []types.LearningStep{}
	}
	return types.Advice{
		Profile: input.Profile.Name,
		Career:  input.Career.Title,
		Summary: plan.Summary,
		Steps:   steps,
	}, tokenUsage, nil
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", g.maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(g.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", g.maxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, g.maxRetries, lastErr)
}

// backoff doubles baseDelay per attempt and adds up to 10% jitter, capped at maxBackoff.
func (g *GeminiProvider) backoff(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * g.baseDelay
	var jitter time.Duration
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, maxBackoff)
}

// isRetryableError reports network failures and transient HTTP statuses.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return isRetryableStatus(genaiErr.Code)
	}

	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy(),
	}
}

// Close implements Advisor. The Gemini client holds no resources in
// single-shot mode.
func (g *GeminiProvider) Close() error {
	return nil
}

// buildAdviceSchema creates the generation config for advice requests
func (g *GeminiProvider) buildAdviceSchema() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary": {Type: genai.TypeString},
				"steps": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"skill":  {Type: genai.TypeString},
							"action": {Type: genai.TypeString},
							"resources": {
								Type:  genai.TypeArray,
								Items: &genai.Schema{Type: genai.TypeString},
							},
							"timeframe": {Type: genai.TypeString},
						},
						Required: []string{"skill", "action", "resources", "timeframe"},
					},
				},
			},
			Required: []string{"summary", "steps"},
		},
	}

	if g.systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(g.systemPrompt, genai.RoleUser)
	}
	if g.temperature > 0 {
		temperature := g.temperature
		cfg.Temperature = &temperature
	}
	return cfg
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
