package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"careermatch/internal/ai"
	"careermatch/internal/catalog"
	"careermatch/internal/config"
	"careermatch/internal/errors"
	"careermatch/internal/observability"
	"careermatch/internal/store"
	"careermatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]types.Career{
		{
			Title:       "Backend",
			Technical:   types.Requirements{{Skill: "Go", Level: 4}, {Skill: "SQL", Level: 2}},
			Behavioral:  types.Requirements{{Skill: "Communication", Level: 2}},
			Description: "APIs and services",
		},
		{
			Title:       "Data",
			Technical:   types.Requirements{{Skill: "Statistics", Level: 5}},
			Description: "Models",
		},
	})
	require.NoError(t, err)
	return c
}

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{TopCareers: 3, TopGaps: 5},
		Store:  config.StoreConfig{Driver: store.DriverMemory},
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           "0",
			MaxRequestSize: 1 << 20,
			TLS:            config.TLSConfig{Mode: "disabled"},
		},
	}
}

type stubAdvisor struct {
	err       error
	available bool
}

func (s stubAdvisor) Advise(_ context.Context, input types.AdviceInput) (types.Advice, *ai.TokenUsage, error) {
	if s.err != nil {
		return types.Advice{}, nil, s.err
	}
	steps := make([]types.LearningStep, len(input.Gaps))
	for i, gap := range input.Gaps {
		steps[i] = types.LearningStep{Skill: gap.Skill, Action: "practice", Resources: []string{}, Timeframe: "1 month"}
	}
	return types.Advice{
		Profile: input.Profile.Name,
		Career:  input.Career.Title,
		Summary: "plan",
		Steps:   steps,
	}, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

func (s stubAdvisor) GetModelInfo(context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: s.available}
}

func (s stubAdvisor) Close() error { return nil }

type testEnv struct {
	server   *Server
	handler  http.Handler
	profiles *store.MemoryStore
}

func newTestEnv(t *testing.T, mutate func(*config.Config, *Dependencies)) *testEnv {
	t.Helper()

	cfg := testConfig()
	profiles := store.NewMemoryStore()
	deps := Dependencies{Catalog: testCatalog(t), Profiles: profiles}
	if mutate != nil {
		mutate(cfg, &deps)
	}

	s := NewServer(cfg, deps, "test", testLogger())
	t.Cleanup(func() {
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})

	om, err := observability.NewObservabilityManager(config.ObservabilityConfig{}, "test")
	require.NoError(t, err)

	return &testEnv{server: s, handler: s.Handler(om), profiles: profiles}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, profiles ...types.Profile) {
	t.Helper()
	for _, p := range profiles {
		require.NoError(t, e.profiles.Append(context.Background(), p))
	}
}

func ana() types.Profile {
	return types.Profile{
		Name:       "Ana",
		Technical:  map[string]int{"Go": 2, "SQL": 2},
		Behavioral: map[string]int{"Communication": 2},
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, ana())

	rec := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "careermatch", body["service"])
	assert.Equal(t, map[string]any{"careers": float64(2)}, body["catalog"])
	assert.Equal(t, map[string]any{"healthy": true, "driver": "memory", "profiles": float64(1)}, body["store"])
	assert.Equal(t, map[string]any{"enabled": false}, body["advisor"])
	assert.NotContains(t, body, "certificates")
}

func TestHealthHandlerDegradedAdvisor(t *testing.T) {
	env := newTestEnv(t, func(_ *config.Config, deps *Dependencies) {
		deps.Advisor = ai.NewServiceWithProvider(stubAdvisor{available: false}, time.Second, testLogger())
	})

	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[map[string]any](t, rec)["status"])
}

func TestStatsHandler(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config, _ *Dependencies) {
		cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 120, BurstCapacity: 5, ByIP: true}
	})

	rec := env.do(t, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	limiting := body["rate_limiting"].(map[string]any)
	assert.Equal(t, true, limiting["enabled"])
	assert.InDelta(t, 2.0, limiting["rate_per_second"], 1e-9)
	assert.Equal(t, map[string]any{"enabled": false}, body["circuit_breakers"])
	assert.Equal(t, map[string]any{"driver": "memory"}, body["store"])
}

func TestCareersHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/careers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[CareerListResponse](t, rec)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Backend", body.Careers[0].Title)
	assert.Equal(t, types.Requirements{{Skill: "Go", Level: 4}, {Skill: "SQL", Level: 2}}, body.Careers[0].Technical)
}

func TestProfileEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"profiles":[],"count":0}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/profiles",
		`{"name":"  Ana ","technical_skills":{"Go":2},"behavioral_skills":{"Communication":3},"notes":"n"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[types.Profile](t, rec)
	assert.Equal(t, "Ana", created.Name)
	assert.Equal(t, map[string]int{"Go": 2}, created.Technical)

	rec = env.do(t, http.MethodPost, "/profiles", `{"name":"ANA"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Conflict", decode[ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodGet, "/profiles/ana", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana", decode[types.Profile](t, rec).Name)

	rec = env.do(t, http.MethodGet, "/profiles/bruno", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "PROFILE_NOT_FOUND")

	rec = env.do(t, http.MethodGet, "/profiles", "")
	assert.Equal(t, 1, decode[ProfileListResponse](t, rec).Count)
}

func TestCreateProfileValidation(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
		wantMessage string
	}{
		{"level out of range", `{"name":"Ana","technical_skills":{"Go":7}}`, "application/json", http.StatusBadRequest, "level 7"},
		{"missing name", `{"technical_skills":{"Go":1}}`, "application/json", http.StatusBadRequest, "name is required"},
		{"malformed JSON", `{"name":`, "application/json", http.StatusBadRequest, "failed to parse JSON"},
		{"wrong content type", `{"name":"Ana"}`, "text/plain", http.StatusBadRequest, "content-type"},
		{"charset accepted", `{"name":"Ana"}`, "application/json; charset=utf-8", http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			req := httptest.NewRequest(http.MethodPost, "/profiles", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantMessage != "" {
				assert.Contains(t, decode[ErrorResponse](t, rec).Message, tt.wantMessage)
			}
		})
	}
}

func TestRecommendHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, ana())

	rec := env.do(t, http.MethodPost, "/recommend", `{"name":"ana"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	report := decode[types.Report](t, rec)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "Ana", report.Profile.Name)
	require.Len(t, report.Recommendations, 2)

	backend := report.Recommendations[0]
	assert.Equal(t, "Backend", backend.Career)
	assert.InDelta(t, 0.825, backend.Score, 1e-9)
	assert.InDelta(t, 82.5, backend.Percent, 1e-9)
	assert.Equal(t, []types.GapEntry{{Skill: "Go", Category: types.CategoryTechnical, Gap: 0.5, Required: 4}}, backend.Gaps)

	data := report.Recommendations[1]
	assert.Equal(t, "Data", data.Career)
	assert.InDelta(t, 0.3, data.Score, 1e-9)
}

func TestRecommendHandlerRequests(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantRecs   int
	}{
		{"topN limits results", `{"name":"Ana","topN":1}`, http.StatusOK, 1},
		{"topN zero is empty", `{"name":"Ana","topN":0}`, http.StatusOK, 0},
		{"inline profile", `{"profile":{"name":"Guest","technical_skills":{"Statistics":5}}}`, http.StatusOK, 2},
		{"inline profile wins over name", `{"name":"nobody","profile":{"name":"Guest"}}`, http.StatusOK, 2},
		{"negative topN", `{"name":"Ana","topN":-1}`, http.StatusBadRequest, 0},
		{"negative topGaps", `{"name":"Ana","topGaps":-2}`, http.StatusBadRequest, 0},
		{"no profile", `{}`, http.StatusBadRequest, 0},
		{"invalid inline profile", `{"profile":{"name":"Guest","technical_skills":{"Go":9}}}`, http.StatusBadRequest, 0},
		{"unknown profile", `{"name":"Bruno"}`, http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.seed(t, ana())

			rec := env.do(t, http.MethodPost, "/recommend", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Len(t, decode[types.Report](t, rec).Recommendations, tt.wantRecs)
			}
		})
	}
}

func TestRecommendHandlerTopGapsZero(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, ana())

	rec := env.do(t, http.MethodPost, "/recommend", `{"name":"Ana","topGaps":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, r := range decode[types.Report](t, rec).Recommendations {
		assert.Empty(t, r.Gaps)
	}
}

func TestGapsHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, ana())

	rec := env.do(t, http.MethodPost, "/gaps", `{"name":"Ana","career":" backend "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	gapReport := decode[types.GapReport](t, rec)
	assert.Equal(t, "Ana", gapReport.Profile)
	assert.Equal(t, "Backend", gapReport.Career)
	assert.InDelta(t, 82.5, gapReport.Percent, 1e-9)
	assert.Len(t, gapReport.Gaps, 1)

	rec = env.do(t, http.MethodPost, "/gaps", `{"name":"Ana","career":"Pilot"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "CAREER_NOT_FOUND")

	rec = env.do(t, http.MethodPost, "/gaps", `{"name":"Ana","career":"Data","topN":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[types.GapReport](t, rec).Gaps)
}

func TestAdviseHandler(t *testing.T) {
	t.Run("advisor not configured", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/advise", `{"name":"Ana","career":"Backend"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "Advisor not configured", decode[ErrorResponse](t, rec).Error)
	})

	t.Run("learning plan", func(t *testing.T) {
		env := newTestEnv(t, func(_ *config.Config, deps *Dependencies) {
			deps.Advisor = ai.NewServiceWithProvider(stubAdvisor{available: true}, time.Second, testLogger())
		})
		env.seed(t, ana())

		rec := env.do(t, http.MethodPost, "/advise", `{"name":"Ana","career":"Backend"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		advice := decode[types.Advice](t, rec)
		assert.Equal(t, "Ana", advice.Profile)
		assert.Equal(t, "Backend", advice.Career)
		require.Len(t, advice.Steps, 1)
		assert.Equal(t, "Go", advice.Steps[0].Skill)
	})

	t.Run("advisor failure", func(t *testing.T) {
		env := newTestEnv(t, func(_ *config.Config, deps *Dependencies) {
			failing := stubAdvisor{err: errors.NewAIError(errors.ErrCodeAIServiceFailed, "upstream down", nil)}
			deps.Advisor = ai.NewServiceWithProvider(failing, time.Second, testLogger())
		})
		env.seed(t, ana())

		rec := env.do(t, http.MethodPost, "/advise", `{"name":"Ana","career":"Backend"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "Advisor failed", decode[ErrorResponse](t, rec).Error)
	})
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)

	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodGet, "/recommend", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodPost, "/health", `{}`).Code)
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config, _ *Dependencies) {
		cfg.Server.APIKeys = []string{"secret-key-123", ""}
	})

	tests := []struct {
		name       string
		path       string
		headers    []string
		wantStatus int
	}{
		{"missing key", "/careers", nil, http.StatusUnauthorized},
		{"wrong key", "/careers", []string{"X-API-Key", "nope"}, http.StatusUnauthorized},
		{"header key", "/careers", []string{"X-API-Key", "secret-key-123"}, http.StatusOK},
		{"bearer token", "/careers", []string{"Authorization", "Bearer secret-key-123"}, http.StatusOK},
		{"health is public", "/health", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, "", tt.headers...)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
	assert.Len(t, env.server.APIKeys, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config, _ *Dependencies) {
		cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true}
	})

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/careers", "").Code)

	rec := env.do(t, http.MethodGet, "/careers", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded", decode[ErrorResponse](t, rec).Error)

	other := env.do(t, http.MethodGet, "/careers", "", "X-Forwarded-For", "198.51.100.7")
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config, _ *Dependencies) {
		cfg.Server.MaxRequestSize = 16
	})

	rec := env.do(t, http.MethodPost, "/profiles", `{"name":"A very long profile name indeed"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "too large")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", errors.NewValidationError(errors.ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("%w: %q", store.ErrNotFound, "x"), http.StatusNotFound},
		{"conflict", store.ErrDuplicate, http.StatusConflict},
		{"ai", errors.NewAIError(errors.ErrCodeAIServiceFailed, "x", nil), http.StatusBadGateway},
		{"ai timeout", errors.NewAIError(errors.ErrCodeAITimeout, "x", nil), http.StatusGatewayTimeout},
		{"config", errors.NewConfigError(errors.ErrCodeMissingAPIKey, "x", nil), http.StatusServiceUnavailable},
		{"storage", errors.NewStorageError(errors.ErrCodeStoreFailed, "x", nil), http.StatusInternalServerError},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, title := statusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.NotEmpty(t, title)
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"forwarded for", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "garbage, 203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"real ip", "192.0.2.1:1234", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"invalid real ip", "192.0.2.1:1234", map[string]string{"X-Real-IP": "nope"}, "192.0.2.1"},
		{"no port", "192.0.2.1", nil, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestGetRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("Authorization", "Bearer abc")

	keyType, key := getRateLimitKey(req, true, true)
	assert.Equal(t, limitKeyAPI, keyType)
	assert.Equal(t, "abc", key)

	keyType, key = getRateLimitKey(req, false, true)
	assert.Equal(t, limitKeyIP, keyType)
	assert.Equal(t, "192.0.2.1", key)

	keyType, key = getRateLimitKey(req, false, false)
	assert.Empty(t, keyType)
	assert.Empty(t, key)
}

func TestLimiterManagerCleanup(t *testing.T) {
	m := NewRateLimiter(60, time.Minute, 2, testLogger())
	defer m.Close()

	assert.True(t, m.Allow("ip:a"))
	assert.True(t, m.Allow("ip:a"))
	assert.False(t, m.Allow("ip:a"))
	assert.True(t, m.Allow("ip:b"))
	assert.Equal(t, 2, m.GetStats()["active_limiters"])

	m.cleanup(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, m.GetStats()["active_limiters"])

	m.Close()
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}

func TestServeGracefulShutdown(t *testing.T) {
	env := newTestEnv(t, nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	httpServer := &http.Server{Handler: env.handler}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.serve(ctx, httpServer, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestDisplayServerInfo(t *testing.T) {
	env := newTestEnv(t, nil)

	var out strings.Builder
	env.server.displayServerInfo(&out)

	assert.Contains(t, out.String(), "http://127.0.0.1:0")
	assert.Contains(t, out.String(), "POST /recommend")
	assert.Contains(t, out.String(), "(disabled, no API key)")
	assert.Contains(t, out.String(), "API authentication: DISABLED")
	assert.Contains(t, out.String(), "Rate limiting: DISABLED")
}

func BenchmarkRecommendHandler(b *testing.B) {
	cfg := testConfig()
	profiles := store.NewMemoryStore()
	_ = profiles.Append(context.Background(), ana())
	s := NewServer(cfg, Dependencies{Catalog: catalog.Default(), Profiles: profiles}, "bench", testLogger())
	om, _ := observability.NewObservabilityManager(config.ObservabilityConfig{}, "bench")
	handler := s.Handler(om)

	for b.Loop() {
		req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(`{"name":"Ana"}`))
		req.Header.Set("Content-Type", "application/json")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
