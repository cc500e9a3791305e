package ai

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"careermatch/internal/config"
	"careermatch/internal/errors"
	"careermatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func testLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
}

type generateResult struct {
	resp *genai.GenerateContentResponse
	err  error
}

// fakeModels replays queued responses and records the last request.
type fakeModels struct {
	mu       sync.Mutex
	results  []generateResult
	calls    int
	prompt   string
	config   *genai.GenerateContentConfig
	model    *genai.Model
	modelErr error
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.config = cfg
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if len(f.results) == 0 {
		return nil, &googleapi.Error{Code: http.StatusInternalServerError}
	}
	next := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return next.resp, next.err
}

func (f *fakeModels) Get(context.Context, string, *genai.GetModelConfig) (*genai.Model, error) {
	return f.model, f.modelErr
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     120,
			CandidatesTokenCount: 80,
			TotalTokenCount:      200,
		},
	}
}

const planJSON = `{"summary":"Strengthen Python first.","steps":[{"skill":"Python","action":"Build two small CLI tools","resources":["Python docs"],"timeframe":"6 weeks"}]}`

func adviceInput() types.AdviceInput {
	career := types.Career{
		Title:       "Desenvolvedor de Software",
		Technical:   types.Requirements{{Skill: "Python", Level: 4}},
		Description: "Criação de aplicações",
	}
	profile := types.Profile{Name: "Ana", Technical: map[string]int{"Python": 2}}
	return types.AdviceInput{
		Profile: profile,
		Career:  career,
		Score:   0.65,
		Gaps:    []types.GapEntry{{Skill: "Python", Category: types.CategoryTechnical, Gap: 0.5, Required: 4}},
	}
}

func newTestProvider(models contentGenerator, cfg config.AIConfig) *GeminiProvider {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	p := newGeminiProvider(models, &cfg, testLogger())
	p.baseDelay = time.Millisecond
	return p
}

func TestGeminiProviderAdvise(t *testing.T) {
	models := &fakeModels{results: []generateResult{{resp: textResponse(planJSON)}}}
	provider := newTestProvider(models, config.AIConfig{Temperature: 0.4})

	advice, usage, err := provider.Advise(context.Background(), adviceInput())
	require.NoError(t, err)

	assert.Equal(t, "Ana", advice.Profile)
	assert.Equal(t, "Desenvolvedor de Software", advice.Career)
	assert.Equal(t, "Strengthen Python first.", advice.Summary)
	require.Len(t, advice.Steps, 1)
	assert.Equal(t, "Python", advice.Steps[0].Skill)
	assert.Equal(t, []string{"Python docs"}, advice.Steps[0].Resources)

	require.NotNil(t, usage)
	assert.Equal(t, &TokenUsage{InputTokens: 120, OutputTokens: 80, TotalTokens: 200}, usage)

	assert.Contains(t, models.prompt, `"Desenvolvedor de Software"`)
	assert.Contains(t, models.prompt, "Python (technical): level 2 of 4 required (gap 50.0%)")
	assert.Contains(t, models.prompt, "65.0%")

	require.NotNil(t, models.config)
	assert.Equal(t, "application/json", models.config.ResponseMIMEType)
	assert.Equal(t, []string{"summary", "steps"}, models.config.ResponseSchema.Required)
	require.NotNil(t, models.config.Temperature)
	assert.Equal(t, float32(0.4), *models.config.Temperature)
	require.NotNil(t, models.config.SystemInstruction)
	assert.Equal(t, DefaultSystemPrompt, models.config.SystemInstruction.Parts[0].Text)
}

func TestGeminiProviderCustomSystemPrompt(t *testing.T) {
	models := &fakeModels{results: []generateResult{{resp: textResponse(planJSON)}}}
	provider := newTestProvider(models, config.AIConfig{SystemPrompt: "Be brief."})

	_, _, err := provider.Advise(context.Background(), adviceInput())
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", models.config.SystemInstruction.Parts[0].Text)
	assert.Nil(t, models.config.Temperature)
}

func TestGeminiProviderRetriesTransientErrors(t *testing.T) {
	models := &fakeModels{results: []generateResult{
		{err: &googleapi.Error{Code: http.StatusServiceUnavailable}},
		{err: genai.APIError{Code: http.StatusTooManyRequests}},
		{resp: textResponse(planJSON)},
	}}
	provider := newTestProvider(models, config.AIConfig{MaxRetries: 2})

	advice, _, err := provider.Advise(context.Background(), adviceInput())
	require.NoError(t, err)
	assert.Equal(t, 3, models.calls)
	assert.Len(t, advice.Steps, 1)
}

func TestGeminiProviderStopsOnPermanentError(t *testing.T) {
	models := &fakeModels{results: []generateResult{
		{err: &googleapi.Error{Code: http.StatusUnauthorized}},
	}}
	provider := newTestProvider(models, config.AIConfig{MaxRetries: 3})

	_, _, err := provider.Advise(context.Background(), adviceInput())
	require.Error(t, err)
	assert.Equal(t, 1, models.calls)
	assert.Equal(t, errors.ErrorTypeAI, errors.TypeOf(err))
}

func TestGeminiProviderBadJSON(t *testing.T) {
	models := &fakeModels{results: []generateResult{{resp: textResponse("not json")}}}
	provider := newTestProvider(models, config.AIConfig{})

	_, usage, err := provider.Advise(context.Background(), adviceInput())
	require.Error(t, err)
	assert.Nil(t, usage)
	assert.Contains(t, err.Error(), "parse")
}

func TestGeminiProviderRetryHonoursContext(t *testing.T) {
	models := &fakeModels{}
	provider := newTestProvider(models, config.AIConfig{MaxRetries: 5})
	provider.baseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := provider.Advise(ctx, adviceInput())
	require.Error(t, err)
	assert.Equal(t, 1, models.calls)
}

func TestGeminiProviderModelInfo(t *testing.T) {
	provider := newTestProvider(&fakeModels{model: &genai.Model{DisplayName: "Gemini Flash", Version: "2.0"}}, config.AIConfig{})

	info := provider.GetModelInfo(context.Background())
	assert.True(t, info.Available)
	assert.Equal(t, "Gemini Flash", info.DisplayName)
	assert.Equal(t, "gemini-2.0-flash", info.Name)

	failing := newTestProvider(&fakeModels{modelErr: &googleapi.Error{Code: http.StatusNotFound}}, config.AIConfig{})
	info = failing.GetModelInfo(context.Background())
	assert.False(t, info.Available)
	assert.True(t, strings.HasPrefix(info.Error, "Failed to get model info"))
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited", err: &googleapi.Error{Code: http.StatusTooManyRequests}, want: true},
		{name: "gateway timeout", err: genai.APIError{Code: http.StatusGatewayTimeout}, want: true},
		{name: "bad request", err: &googleapi.Error{Code: http.StatusBadRequest}, want: false},
		{name: "plain error", err: io.ErrUnexpectedEOF, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestBackoffIsCapped(t *testing.T) {
	provider := newTestProvider(&fakeModels{}, config.AIConfig{})
	provider.baseDelay = time.Second

	assert.GreaterOrEqual(t, provider.backoff(1), time.Second)
	assert.Less(t, provider.backoff(1), 1100*time.Millisecond)
	assert.Equal(t, maxBackoff, provider.backoff(10))
}

type stubAdvisor struct {
	delay time.Duration
}

func (s stubAdvisor) Advise(ctx context.Context, input types.AdviceInput) (types.Advice, *TokenUsage, error) {
	select {
	case <-time.After(s.delay):
		return types.Advice{Profile: input.Profile.Name}, nil, nil
	case <-ctx.Done():
		return types.Advice{}, nil, ctx.Err()
	}
}

func (s stubAdvisor) GetModelInfo(context.Context) *ModelInfo { return &ModelInfo{Name: "stub"} }
func (s stubAdvisor) Close() error                            { return nil }

func TestServiceTimeout(t *testing.T) {
	service := NewServiceWithProvider(stubAdvisor{delay: time.Second}, 10*time.Millisecond, testLogger())

	_, _, err := service.Advise(context.Background(), adviceInput())
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeAI, errors.TypeOf(err))
	assert.Contains(t, err.Error(), "timed out")

	assert.Equal(t, map[string]any{"enabled": false}, service.CircuitBreakerStats())
}

func TestServiceAdvise(t *testing.T) {
	service := NewServiceWithProvider(stubAdvisor{}, time.Second, testLogger())

	advice, _, err := service.Advise(context.Background(), adviceInput())
	require.NoError(t, err)
	assert.Equal(t, "Ana", advice.Profile)
	assert.Equal(t, "stub", service.GetModelInfo(context.Background()).Name)
}

func TestNewServiceRejectsUnknownProvider(t *testing.T) {
	_, err := NewService(context.Background(), &config.AIConfig{Provider: "openai"}, testLogger())
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))

	_, err = NewService(context.Background(), &config.AIConfig{Provider: "gemini"}, testLogger())
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))
}
