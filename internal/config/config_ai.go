package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AIConfig holds configuration for the learning-plan advisor
type AIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          time.Duration        `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       int                  `mapstructure:"maxRetries"`
	Temperature      float32              `mapstructure:"temperature"`
	SystemPrompt     string               `mapstructure:"systemPrompt"`     // Inline override of the built-in system prompt
	SystemPromptFile string               `mapstructure:"systemPromptFile"` // File override, wins over SystemPrompt
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Open duration before half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// AdvisorConfigured reports whether an API key is available for the advisor.
func (c *Config) AdvisorConfigured() bool {
	return strings.TrimSpace(c.AI.APIKey) != ""
}

// loadAdvisorPrompt replaces SystemPrompt with the content of
// SystemPromptFile when one is configured.
func (c *Config) loadAdvisorPrompt() error {
	if c.AI.SystemPromptFile == "" {
		return nil
	}

	content, err := readPromptFile(c.AI.SystemPromptFile)
	if err != nil {
		return err
	}
	c.AI.SystemPrompt = content
	return nil
}

func readPromptFile(filePath string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve prompt file path '%s': %w", filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("prompt file not found: %s", absPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file '%s': %w", absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("prompt file '%s' is empty", absPath)
	}

	log.Printf("[CONFIG] Loaded advisor system prompt from %s (%d characters)", absPath, len(trimmed))
	return trimmed, nil
}
