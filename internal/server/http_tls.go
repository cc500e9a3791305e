package server

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"careermatch/internal/observability"
)

// TLS modes accepted in server.tls.mode.
const (
	tlsModeDisabled = "disabled"
	tlsModeServer   = "server"
	tlsModeMutual   = "mutual"
)

// configureTLS loads certificates for the server and mutual modes and
// installs the resulting tls.Config on httpServer.
func (s *Server) configureTLS(httpServer *http.Server, metrics *observability.Metrics) error {
	switch s.TLSConfig.Mode {
	case "", tlsModeDisabled:
		s.Logger.Info("TLS disabled, serving plain HTTP", "address", httpServer.Addr)
		return nil
	case tlsModeServer, tlsModeMutual:
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	certManager := NewCertificateManager(s.TLSConfig, metrics, s.Logger)
	if err := certManager.Start(); err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	certManager.AddReloadCallback(func(success bool, err error) {
		if success {
			s.Logger.Info("TLS certificates reloaded successfully")
		} else {
			s.Logger.LogError(err, "Failed to reload TLS certificates")
		}
	})
	s.CertificateManager = certManager

	httpServer.TLSConfig = s.buildTLSConfig(certManager)
	s.Logger.Info("TLS enabled",
		"mode", s.TLSConfig.Mode,
		"auto_reload", s.TLSConfig.AutoReload.Enabled)
	return nil
}

// buildTLSConfig serves certificates from certManager. In mutual mode every
// handshake sees the CA pool current at that moment.
func (s *Server) buildTLSConfig(certManager *CertificateManager) *tls.Config {
	tlsConfig := &tls.Config{
		MinVersion:     tlsVersion(s.TLSConfig.MinVersion),
		GetCertificate: certManager.GetServerCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	if s.TLSConfig.Mode == tlsModeMutual {
		tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
		tlsConfig.ClientCAs = certManager.GetCACertPool()
		tlsConfig.GetConfigForClient = certManager.ConfigForClient(tlsConfig)
	}
	return tlsConfig
}

func tlsVersion(version string) uint16 {
	if version == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// clientAuthPolicy defaults to requiring a verified client certificate.
func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
