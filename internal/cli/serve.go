package cli

import (
	"fmt"

	"careermatch/internal/ai"
	"careermatch/internal/config"
	"careermatch/internal/server"

	"github.com/spf13/cobra"
)

type serveOptions struct {
	port     string
	host     string
	tlsMode  string
	certFile string
	keyFile  string
	caFile   string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start an HTTP server exposing the career catalog, profile registration,
recommendations, gap analysis and AI learning plans.

Available endpoints:
- GET  /health: Health check endpoint
- GET  /stats: Server statistics and rate limiting info
- GET  /careers: Career catalog
- GET  /profiles, POST /profiles, GET /profiles/{name}: Profiles
- POST /recommend: Rank careers for a profile
- POST /gaps: Improvement areas for one career
- POST /advise: AI learning plan (requires ai.apiKey)

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.port, "port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().StringVar(&opts.host, "host", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&opts.tlsMode, "tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	cmd.Flags().StringVar(&opts.certFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	cmd.Flags().StringVar(&opts.keyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	cmd.Flags().StringVar(&opts.caFile, "ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	return cmd
}

// apply copies the flags that were set onto the server configuration.
func (o serveOptions) apply(srv *config.ServerConfig) {
	overrides := []struct {
		value  string
		target *string
	}{
		{o.port, &srv.Port},
		{o.host, &srv.Host},
		{o.tlsMode, &srv.TLS.Mode},
		{o.certFile, &srv.TLS.CertFile},
		{o.keyFile, &srv.TLS.KeyFile},
		{o.caFile, &srv.TLS.CAFile},
	}
	for _, override := range overrides {
		if override.value != "" {
			*override.target = override.value
		}
	}
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	opts.apply(&cfg.Server)

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	careers, err := openCatalog(cfg, logger)
	if err != nil {
		return err
	}

	profiles, err := openProfiles(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProfiles(profiles, logger)

	var advisor *ai.Service
	if cfg.AdvisorConfigured() {
		advisor, err = newAdvisor(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create AI advisor: %w", err)
		}
		defer func() {
			if err := advisor.Close(); err != nil {
				logger.LogError(err, "Failed to close advisor")
			}
		}()
	} else {
		logger.Warn("No AI API key configured, /advise is disabled")
	}

	deps := server.Dependencies{
		Catalog:  careers,
		Profiles: profiles,
		Advisor:  advisor,
	}
	return server.NewServer(cfg, deps, Version, logger).Start(ctx)
}
