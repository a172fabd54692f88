package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"anymouse-hq/anymouse/pkg/config"
)

// ServerConfig builds the listener TLS configuration. It returns nil when
// TLS is disabled. The returned Reloader must be closed by the caller.
func ServerConfig(cfg config.TLSConfig) (*tls.Config, *Reloader, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, nil, fmt.Errorf("cert_file and key_file are required when TLS is enabled")
	}

	reloader, err := NewReloader(cfg.CertFile, cfg.KeyFile, cfg.Reload)
	if err != nil {
		return nil, nil, err
	}

	tlsConfig := &tls.Config{
		GetCertificate: reloader.GetCertificate,
		MinVersion:     minVersion(cfg.MinVersion),
	}
	if cfg.ClientCAFile != "" {
		pool, err := loadCAPool(cfg.ClientCAFile)
		if err != nil {
			reloader.Close()
			return nil, nil, err
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = clientAuth(cfg.ClientAuth)
	}
	return tlsConfig, reloader, nil
}

func minVersion(v string) uint16 {
	if v == "1.2" {
		return tls.VersionTLS12
	}
	return tls.VersionTLS13
}

func clientAuth(mode string) tls.ClientAuthType {
	switch mode {
	case "request":
		return tls.RequestClientCert
	case "verify_if_given":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

func loadCAPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in client CA %s", path)
	}
	return pool, nil
}
