package server

import (
	"fmt"
	"io"
)

// displayServerInfo prints the endpoints and the security posture.
func (s *Server) displayServerInfo(w io.Writer) {
	s.displayEndpoints(w)
	s.displayAuthInfo(w)
	s.displayRequestLimitInfo(w)
	s.displayRateLimitInfo(w)
}

func (s *Server) displayEndpoints(w io.Writer) {
	scheme := "http"
	if s.TLSConfig.Mode == tlsModeServer || s.TLSConfig.Mode == tlsModeMutual {
		scheme = "https"
	}
	fmt.Fprintf(w, "careermatch API listening on %s://%s:%s\n", scheme, s.Host, s.Port)
	fmt.Fprintln(w, "Available endpoints:")
	fmt.Fprintln(w, "  GET  /health           - Health check")
	fmt.Fprintln(w, "  GET  /stats            - Server statistics")
	fmt.Fprintln(w, "  GET  /careers          - Career catalog")
	fmt.Fprintln(w, "  GET  /profiles         - List profiles")
	fmt.Fprintln(w, "  POST /profiles         - Register a profile")
	fmt.Fprintln(w, "  GET  /profiles/{name}  - Show a profile")
	fmt.Fprintln(w, "  POST /recommend        - Rank careers for a profile")
	fmt.Fprintln(w, "  POST /gaps             - Improvement areas for one career")
	if s.Advisor != nil {
		fmt.Fprintln(w, "  POST /advise           - AI learning plan")
	} else {
		fmt.Fprintln(w, "  POST /advise           - AI learning plan (disabled, no API key)")
	}
}

func (s *Server) displayAuthInfo(w io.Writer) {
	if len(s.APIKeys) > 0 {
		fmt.Fprintf(w, "API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		return
	}
	fmt.Fprintln(w, "API authentication: DISABLED (no API keys configured)")
	fmt.Fprintln(w, "WARNING: API endpoints are publicly accessible!")
}

func (s *Server) displayRequestLimitInfo(w io.Writer) {
	if s.MaxRequestSize > 0 {
		fmt.Fprintf(w, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
		return
	}
	fmt.Fprintln(w, "Request size limit: DISABLED")
}

func (s *Server) displayRateLimitInfo(w io.Writer) {
	if s.RateLimit == nil || !s.RateLimit.Enabled {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
		return
	}
	fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	if s.RateLimit.ByAPIKey {
		fmt.Fprintln(w, "  - Per API key rate limiting enabled")
	}
	if s.RateLimit.ByIP {
		fmt.Fprintln(w, "  - Per IP address rate limiting enabled")
	}
}
