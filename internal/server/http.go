package server

import (
	"time"

	"careermatch/internal/ai"
	"careermatch/internal/catalog"
	"careermatch/internal/config"
	"careermatch/internal/engine"
	"careermatch/internal/errors"
	"careermatch/internal/store"
	"careermatch/internal/types"
)

// ProfileRef names a stored profile or carries one inline. An inline profile
// wins over the name.
type ProfileRef struct {
	Name    string         `json:"name,omitempty"`
	Profile *types.Profile `json:"profile,omitempty"`
}

// RecommendRequest is the body of POST /recommend. Nil limits fall back to
// the engine defaults.
type RecommendRequest struct {
	ProfileRef
	TopN    *int `json:"topN,omitempty"`
	TopGaps *int `json:"topGaps,omitempty"`
}

// GapsRequest is the body of POST /gaps.
type GapsRequest struct {
	ProfileRef
	Career string `json:"career"`
	TopN   *int   `json:"topN,omitempty"`
}

// AdviseRequest is the body of POST /advise.
type AdviseRequest struct {
	ProfileRef
	Career string `json:"career"`
}

// ProfileListResponse is returned by GET /profiles.
type ProfileListResponse struct {
	Profiles []types.Profile `json:"profiles"`
	Count    int             `json:"count"`
}

// CareerListResponse is returned by GET /careers.
type CareerListResponse struct {
	Careers []types.Career `json:"careers"`
	Count   int            `json:"count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig          config.TLSConfig
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Matching
	Catalog  *catalog.Catalog
	Profiles store.ProfileStore
	Advisor  *ai.Service // nil when no advisor is configured
	ranker   *engine.Ranker

	Logger *errors.Logger
}

// Dependencies are the domain collaborators the handlers serve.
type Dependencies struct {
	Catalog  *catalog.Catalog
	Profiles store.ProfileStore
	Advisor  *ai.Service
}

// NewServer creates a Server from the application configuration.
func NewServer(appCfg *config.Config, deps Dependencies, version string, logger *errors.Logger) *Server {
	srvCfg := appCfg.Server

	apiKeyMap := make(map[string]bool)
	for _, key := range srvCfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if srvCfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			srvCfg.RateLimit.RequestsPerMin,
			srvCfg.RateLimit.Window,
			srvCfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           srvCfg.Host,
		Port:           srvCfg.Port,
		Version:        version,
		AppConfig:      appCfg,
		TLSConfig:      srvCfg.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    srvCfg.ReadTimeout,
		WriteTimeout:   srvCfg.WriteTimeout,
		IdleTimeout:    srvCfg.IdleTimeout,
		MaxRequestSize: srvCfg.MaxRequestSize,
		RateLimit:      &srvCfg.RateLimit,
		RateLimiter:    rateLimiter,
		Catalog:        deps.Catalog,
		Profiles:       deps.Profiles,
		Advisor:        deps.Advisor,
		ranker:         engine.NewRanker(deps.Catalog.Careers()),
		Logger:         logger,
	}
}
