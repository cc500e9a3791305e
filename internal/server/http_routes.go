package server

import (
	"net/http"

	"careermatch/internal/observability"
)

// setupRoutes configures all HTTP routes and middleware. Everything except
// /health and /stats goes through rate limiting, authentication and the
// request size limit, in that order.
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware(om)
	sizeLimit := s.requestSizeLimitMiddleware()
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(s.authMiddleware(sizeLimit(h)))
	}
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.countRequests(om, pattern, h))
	}

	handle("GET /health", s.healthHandler)
	handle("GET /stats", s.statsHandler)

	handle("GET /careers", protected(s.careersHandler))
	handle("GET /profiles", protected(s.listProfilesHandler))
	handle("POST /profiles", protected(s.createProfileHandler(om)))
	handle("GET /profiles/{name}", protected(s.getProfileHandler))
	handle("POST /recommend", protected(s.createRecommendHandler(om)))
	handle("POST /gaps", protected(s.createGapsHandler(om)))
	handle("POST /advise", protected(s.createAdviseHandler(om)))

	return mux
}

// authMiddleware checks the API key when any are configured.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// countRequests records one careermatch_http_requests_total sample per
// request, labelled with the route pattern and response status.
func (s *Server) countRequests(om *observability.ObservabilityManager, route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next(wrapper, r)
		om.GetMetrics().RecordHTTPRequest(r.Context(), route, wrapper.statusCode)
	}
}

// responseWrapper captures the status code written by a handler.
type responseWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWrapper) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// maskAPIKey keeps only the first 8 characters of a key for logging.
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
