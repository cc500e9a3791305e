package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"careermatch/internal/errors"
	"careermatch/internal/observability"
	"careermatch/internal/store"
	"careermatch/internal/types"
)

const healthCheckTimeout = 5 * time.Second

// healthHandler reports store, advisor and certificate health. Any unhealthy
// component turns the response into a 503 "degraded".
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	healthy := true
	response := map[string]any{
		"status":  "healthy",
		"service": "careermatch",
		"version": s.Version,
		"catalog": map[string]any{"careers": s.Catalog.Len()},
	}

	storeStatus := s.checkStoreHealth(ctx)
	response["store"] = storeStatus
	healthy = healthy && storeStatus["healthy"] == true

	advisorStatus := s.checkAdvisorHealth(ctx)
	response["advisor"] = advisorStatus
	if advisorStatus["enabled"] == true && advisorStatus["available"] != true {
		healthy = false
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		healthy = healthy && certStatus["healthy"] == true
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

func (s *Server) checkStoreHealth(ctx context.Context) map[string]any {
	profiles, err := s.Profiles.LoadAll(ctx)
	if err != nil {
		return map[string]any{
			"healthy": false,
			"driver":  s.AppConfig.Store.Driver,
			"error":   err.Error(),
		}
	}
	return map[string]any{
		"healthy":  true,
		"driver":   s.AppConfig.Store.Driver,
		"profiles": len(profiles),
	}
}

func (s *Server) checkAdvisorHealth(ctx context.Context) map[string]any {
	if s.Advisor == nil {
		return map[string]any{"enabled": false}
	}

	info := s.Advisor.GetModelInfo(ctx)
	status := map[string]any{
		"enabled":         true,
		"available":       info != nil && info.Available,
		"model":           info,
		"circuit_breaker": s.Advisor.CircuitBreakerStats(),
	}
	return status
}

// checkCertificateHealth returns nil when TLS auto-reload is off.
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	certStatus := make(map[string]any)
	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	certStatus["time_to_expiry"] = timeToExpiry.String()
	certStatus["status"], certStatus["healthy"] = expiryStatus(timeToExpiry)
	certStatus["watched_files"] = s.CertificateManager.WatchedFiles()

	metrics := s.CertificateManager.GetMetrics()
	certStatus["metrics"] = map[string]any{
		"reload_count":         metrics.ReloadCount,
		"reload_success_count": metrics.ReloadSuccessCount,
		"reload_failure_count": metrics.ReloadFailureCount,
		"last_reload_time":     metrics.LastReloadTime,
		"last_reload_success":  metrics.LastReloadSuccess,
		"last_reload_error":    metrics.LastReloadError,
	}
	return certStatus
}

// expiryStatus grades the remaining certificate lifetime. Less than a day
// left is unhealthy; less than a week is a warning.
func expiryStatus(timeToExpiry time.Duration) (string, bool) {
	switch {
	case timeToExpiry <= 0:
		return "expired", false
	case timeToExpiry <= 24*time.Hour:
		return "critical", false
	case timeToExpiry <= 7*24*time.Hour:
		return "warning", true
	default:
		return "ok", true
	}
}

// statsHandler reports rate limiter, circuit breaker and store statistics.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "careermatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.Advisor != nil {
		response["circuit_breakers"] = s.Advisor.CircuitBreakerStats()
	} else {
		response["circuit_breakers"] = map[string]any{"enabled": false}
	}

	response["store"] = s.storeStats()

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) storeStats() map[string]any {
	stats := map[string]any{"driver": s.AppConfig.Store.Driver}
	if pg, ok := s.Profiles.(*store.PostgresStore); ok {
		db := pg.Stats()
		stats["open_connections"] = db.OpenConnections
		stats["in_use"] = db.InUse
		stats["idle"] = db.Idle
		stats["wait_count"] = db.WaitCount
		stats["wait_duration"] = db.WaitDuration.String()
	}
	return stats
}

func (s *Server) careersHandler(w http.ResponseWriter, r *http.Request) {
	careers := s.Catalog.Careers()
	s.writeJSON(w, http.StatusOK, CareerListResponse{Careers: careers, Count: len(careers)})
}

func (s *Server) listProfilesHandler(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.Profiles.LoadAll(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if profiles == nil {
		profiles = []types.Profile{}
	}
	s.writeJSON(w, http.StatusOK, ProfileListResponse{Profiles: profiles, Count: len(profiles)})
}

func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := store.Find(r.Context(), s.Profiles, r.PathValue("name"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

// createProfileHandler appends the posted profile and answers 201 with the
// stored copy.
func (s *Server) createProfileHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		metrics := om.GetMetrics()

		var profile types.Profile
		if err := parseJSONRequest(r, &profile); err != nil {
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.Profiles.Append(ctx, profile); err != nil {
			metrics.RecordProfileRegistered(ctx, "http", false)
			s.writeAppError(w, err)
			return
		}
		metrics.RecordProfileRegistered(ctx, "http", true)

		stored, err := store.Find(ctx, s.Profiles, profile.Name)
		if err != nil {
			s.writeAppError(w, err)
			return
		}

		s.Logger.Info("Profile registered", "profile", stored.Name)
		s.writeJSON(w, http.StatusCreated, stored)
	}
}

// resolveProfile returns the inline profile of ref when present, otherwise
// the stored profile named by ref.
func (s *Server) resolveProfile(ctx context.Context, ref ProfileRef) (types.Profile, error) {
	if ref.Profile != nil {
		if err := ref.Profile.Validate(); err != nil {
			return types.Profile{}, err
		}
		return *ref.Profile, nil
	}
	if strings.TrimSpace(ref.Name) == "" {
		return types.Profile{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"either name or profile is required", nil)
	}
	return store.Find(ctx, s.Profiles, ref.Name)
}

// limitOrDefault returns *n, or fallback when n is nil. Negative values are
// rejected.
func limitOrDefault(name string, n *int, fallback int) (int, error) {
	if n == nil {
		return fallback, nil
	}
	if *n < 0 {
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s must not be negative, got %d", name, *n), nil)
	}
	return *n, nil
}

// parseJSONRequest decodes a JSON request body into v.
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// statusFor maps an application error to its HTTP status and short title.
func statusFor(err error) (int, string) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Code == errors.ErrCodeAITimeout {
		return http.StatusGatewayTimeout, "Advisor timed out"
	}

	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest, "Invalid request"
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound, "Not found"
	case errors.ErrorTypeConflict:
		return http.StatusConflict, "Conflict"
	case errors.ErrorTypeAI, errors.ErrorTypeNetwork:
		return http.StatusBadGateway, "Advisor failed"
	case errors.ErrorTypeConfig:
		return http.StatusServiceUnavailable, "Not configured"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	status, title := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "status", status)
	}
	writeErrorResponse(w, title, err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes {error, message} with the given status.
func writeErrorResponse(w http.ResponseWriter, title, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: title, Message: message})
}
