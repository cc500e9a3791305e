package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"careermatch/internal/config"
	"careermatch/internal/errors"
	"careermatch/internal/observability"
)

// CertificateManager serves the current server certificate and client CA
// pool, reloading both from disk when the files change.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert       *tls.Certificate
	caCertPool       *x509.CertPool
	serverCertExpiry time.Time
	lastReloadTime   time.Time

	fileWatcher *CertWatcher

	config  config.TLSConfig
	metrics *observability.Metrics
	logger  *errors.Logger

	reloadCallbacks []ReloadCallback

	reloadCount        int64
	reloadSuccessCount int64
	reloadFailureCount int64
	lastReloadSuccess  bool
	lastReloadError    string
}

// ReloadCallback is called after every reload attempt.
type ReloadCallback func(success bool, err error)

// CertificateMetrics is a snapshot of reload counters.
type CertificateMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

func NewCertificateManager(tlsConfig config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) *CertificateManager {
	if metrics == nil {
		metrics = observability.NoopMetrics()
	}
	return &CertificateManager{
		config:  tlsConfig,
		metrics: metrics,
		logger:  logger,
	}
}

// Start loads the certificates and, when auto-reload is enabled, starts
// watching their files.
func (cm *CertificateManager) Start() error {
	if err := cm.ReloadCertificates(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	if !cm.config.AutoReload.Enabled {
		return nil
	}

	watcher := NewCertWatcher(
		cm.watchedPaths(),
		cm.config.AutoReload.DebounceDelay,
		cm.triggerReload,
		cm.logger,
	)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	cm.fileWatcher = watcher
	return nil
}

func (cm *CertificateManager) Stop() error {
	if cm.fileWatcher != nil {
		if err := cm.fileWatcher.Stop(); err != nil {
			return err
		}
	}
	if cm.logger != nil {
		cm.logger.Info("Certificate manager stopped")
	}
	return nil
}

func (cm *CertificateManager) watchedPaths() []string {
	paths := []string{cm.config.CertFile, cm.config.KeyFile}
	if cm.config.Mode == "mutual" {
		paths = append(paths, cm.config.CAFile)
	}
	return paths
}

// WatchedFiles returns the files being watched, or nil without auto-reload.
func (cm *CertificateManager) WatchedFiles() []string {
	if cm.fileWatcher == nil {
		return nil
	}
	return cm.fileWatcher.Files()
}

// GetServerCertificate is a tls.Config.GetCertificate hook.
func (cm *CertificateManager) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	if time.Now().After(cm.serverCertExpiry) {
		return nil, fmt.Errorf("server certificate expired at %s", cm.serverCertExpiry.Format(time.RFC3339))
	}
	return cm.serverCert, nil
}

// GetCACertPool returns the client CA pool, nil outside mutual mode.
func (cm *CertificateManager) GetCACertPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caCertPool
}

// ConfigForClient returns a tls.Config.GetConfigForClient hook that hands
// each handshake a copy of base carrying the current client CA pool.
func (cm *CertificateManager) ConfigForClient(base *tls.Config) func(*tls.ClientHelloInfo) (*tls.Config, error) {
	return func(*tls.ClientHelloInfo) (*tls.Config, error) {
		cfg := base.Clone()
		cfg.GetConfigForClient = nil
		cfg.ClientCAs = cm.GetCACertPool()
		return cfg, nil
	}
}

// ReloadCertificates reads the certificate files again. On failure the
// previously loaded certificates stay in use.
func (cm *CertificateManager) ReloadCertificates() error {
	cert, expiry, pool, err := cm.readCertificates()
	if err != nil {
		cm.recordReload(false, err)
		return err
	}

	cm.mu.Lock()
	cm.serverCert = cert
	cm.serverCertExpiry = expiry
	cm.caCertPool = pool
	cm.lastReloadTime = time.Now()
	cm.mu.Unlock()

	cm.recordReload(true, nil)
	if cm.logger != nil {
		cm.logger.Info("Certificates loaded",
			"server_cert_expiry", expiry,
			"mode", cm.config.Mode)
	}
	return nil
}

func (cm *CertificateManager) readCertificates() (*tls.Certificate, time.Time, *x509.CertPool, error) {
	cert, err := tls.LoadX509KeyPair(cm.config.CertFile, cm.config.KeyFile)
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("failed to load server cert/key: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("failed to parse server certificate: %w", err)
	}

	var pool *x509.CertPool
	if cm.config.Mode == "mutual" {
		pool, err = loadCAPool(cm.config.CAFile)
		if err != nil {
			return nil, time.Time{}, nil, err
		}
	}
	return &cert, leaf.NotAfter, pool, nil
}

func loadCAPool(caFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate in %s", caFile)
	}
	return pool, nil
}

// AddReloadCallback registers callback for future reload attempts.
func (cm *CertificateManager) AddReloadCallback(callback ReloadCallback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.reloadCallbacks = append(cm.reloadCallbacks, callback)
}

// CheckExpiry returns the time left until the server certificate expires.
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCertExpiry.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(cm.serverCertExpiry), nil
}

func (cm *CertificateManager) GetMetrics() CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return CertificateMetrics{
		ReloadCount:        cm.reloadCount,
		ReloadSuccessCount: cm.reloadSuccessCount,
		ReloadFailureCount: cm.reloadFailureCount,
		LastReloadTime:     cm.lastReloadTime,
		LastReloadSuccess:  cm.lastReloadSuccess,
		LastReloadError:    cm.lastReloadError,
	}
}

// recordReload updates counters and metrics, then runs the callbacks
// outside the lock.
func (cm *CertificateManager) recordReload(success bool, err error) {
	cm.mu.Lock()
	cm.reloadCount++
	cm.lastReloadSuccess = success
	if success {
		cm.reloadSuccessCount++
		cm.lastReloadError = ""
	} else {
		cm.reloadFailureCount++
		cm.lastReloadError = err.Error()
	}
	callbacks := append([]ReloadCallback(nil), cm.reloadCallbacks...)
	cm.mu.Unlock()

	cm.metrics.RecordCertReload(context.Background(), success)

	for _, callback := range callbacks {
		callback(success, err)
	}
}

// triggerReload is the watcher callback.
func (cm *CertificateManager) triggerReload() {
	if err := cm.ReloadCertificates(); err != nil && cm.logger != nil {
		cm.logger.LogError(err, "Failed to reload certificates, keeping previous ones")
	}
}
