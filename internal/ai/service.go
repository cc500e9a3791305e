package ai

import (
	"context"
	"fmt"
	"time"

	"careermatch/internal/config"
	"careermatch/internal/errors"
	"careermatch/internal/types"
)

// Service runs advisor requests with the configured timeout.
type Service struct {
	Provider Advisor
	timeout  time.Duration
	logger   *errors.Logger
}

// NewService creates the advisor selected by cfg.Provider.
func NewService(ctx context.Context, cfg *config.AIConfig, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries)

	var provider Advisor
	var err error
	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(ctx, cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, err
	}

	return NewServiceWithProvider(provider, cfg.Timeout, logger), nil
}

// NewServiceWithProvider wraps an existing advisor.
func NewServiceWithProvider(provider Advisor, timeout time.Duration, logger *errors.Logger) *Service {
	return &Service{Provider: provider, timeout: timeout, logger: logger}
}

// Advise requests a learning plan, giving up after the configured timeout.
func (s *Service) Advise(ctx context.Context, input types.AdviceInput) (types.Advice, *TokenUsage, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	advice, usage, err := s.Provider.Advise(ctx, input)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return types.Advice{}, nil, errors.NewAIError(errors.ErrCodeAITimeout,
				"learning plan request timed out", err).WithContext("timeout", s.timeout.String())
		}
		return types.Advice{}, nil, err
	}
	return advice, usage, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// CircuitBreakerStats returns breaker state when the provider exposes it.
func (s *Service) CircuitBreakerStats() map[string]any {
	if p, ok := s.Provider.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
		return p.GetCircuitBreakerStats()
	}
	return map[string]any{"enabled": false}
}

// Close releases the provider.
func (s *Service) Close() error {
	return s.Provider.Close()
}
