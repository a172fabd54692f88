package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	gotls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"anymouse-hq/anymouse/pkg/config"
)

// writePair writes a self-signed certificate and key and returns their
// paths.
func writePair(t *testing.T, dir, cn string, notBefore, notAfter time.Time) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")
	writePEM(t, certPath, "CERTIFICATE", der)
	writePEM(t, keyPath, "EC PRIVATE KEY", keyDER)
	return certPath, keyPath
}

func writePEM(t *testing.T, path, typ string, der []byte) {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der})
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename %s: %v", path, err)
	}
}

func validPair(t *testing.T, dir, cn string) (string, string) {
	return writePair(t, dir, cn, time.Now().Add(-time.Hour), time.Now().Add(365*24*time.Hour))
}

func TestValidateCertificate(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	tests := []struct {
		name      string
		notBefore time.Time
		notAfter  time.Time
		wantErr   bool
	}{
		{"valid", now.Add(-time.Hour), now.Add(time.Hour), false},
		{"expired", now.Add(-48 * time.Hour), now.Add(-24 * time.Hour), true},
		{"not yet valid", now.Add(24 * time.Hour), now.Add(48 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certPath, keyPath := writePair(t, dir, tt.name, tt.notBefore, tt.notAfter)
			cert, err := gotls.LoadX509KeyPair(certPath, keyPath)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if err := ValidateCertificate(&cert); (err != nil) != tt.wantErr {
				t.Errorf("ValidateCertificate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := ValidateCertificate(nil); err == nil {
		t.Error("nil certificate should fail")
	}
	if err := ValidateCertificate(&gotls.Certificate{}); err == nil {
		t.Error("empty chain should fail")
	}
}

func TestExpiresSoon(t *testing.T) {
	now := time.Now()
	if !expiresSoon(&x509.Certificate{NotAfter: now.Add(24 * time.Hour)}, now) {
		t.Error("one day left should warn")
	}
	if expiresSoon(&x509.Certificate{NotAfter: now.Add(90 * 24 * time.Hour)}, now) {
		t.Error("ninety days left should not warn")
	}
}

func TestServerConfig(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := validPair(t, dir, "anymouse")

	caPath := filepath.Join(dir, "ca.pem")
	data, _ := os.ReadFile(certPath)
	os.WriteFile(caPath, data, 0o600)
	badCA := filepath.Join(dir, "bad.pem")
	os.WriteFile(badCA, []byte("not a certificate"), 0o600)

	tests := []struct {
		name           string
		cfg            config.TLSConfig
		wantNil        bool
		wantErr        bool
		wantMinVersion uint16
		wantClientAuth gotls.ClientAuthType
	}{
		{name: "disabled", cfg: config.TLSConfig{}, wantNil: true},
		{name: "missing files", cfg: config.TLSConfig{Enabled: true}, wantErr: true},
		{name: "default tls13", cfg: config.TLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath}, wantMinVersion: gotls.VersionTLS13},
		{name: "tls12", cfg: config.TLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, MinVersion: "1.2"}, wantMinVersion: gotls.VersionTLS12},
		{
			name:           "client ca",
			cfg:            config.TLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, ClientCAFile: caPath, ClientAuth: "verify_if_given"},
			wantMinVersion: gotls.VersionTLS13,
			wantClientAuth: gotls.VerifyClientCertIfGiven,
		},
		{
			name:           "client ca default require",
			cfg:            config.TLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, ClientCAFile: caPath},
			wantMinVersion: gotls.VersionTLS13,
			wantClientAuth: gotls.RequireAndVerifyClientCert,
		},
		{name: "bad ca", cfg: config.TLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, ClientCAFile: badCA}, wantErr: true},
		{name: "missing cert", cfg: config.TLSConfig{Enabled: true, CertFile: filepath.Join(dir, "nope.crt"), KeyFile: keyPath}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, reloader, err := ServerConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ServerConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tt.wantNil {
				if tc != nil || reloader != nil {
					t.Error("expected nil config when disabled")
				}
				return
			}
			defer reloader.Close()

			if tc.MinVersion != tt.wantMinVersion {
				t.Errorf("MinVersion = %x, want %x", tc.MinVersion, tt.wantMinVersion)
			}
			if tc.ClientAuth != tt.wantClientAuth {
				t.Errorf("ClientAuth = %v, want %v", tc.ClientAuth, tt.wantClientAuth)
			}
			cert, err := tc.GetCertificate(nil)
			if err != nil || cert == nil || cert.Leaf.Subject.CommonName != "anymouse" {
				t.Errorf("GetCertificate() = %v, %v", cert, err)
			}
		})
	}
}

func TestReloaderRejectsExpired(t *testing.T) {
	certPath, keyPath := writePair(t, t.TempDir(), "old", time.Now().Add(-48*time.Hour), time.Now().Add(-time.Hour))
	if _, err := NewReloader(certPath, keyPath, false); err == nil {
		t.Error("expected error for expired certificate")
	}
}

func TestReloaderPicksUpRotation(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := validPair(t, dir, "first")

	r, err := NewReloader(certPath, keyPath, true)
	if err != nil {
		t.Fatalf("NewReloader: %v", err)
	}
	defer r.Close()

	validPair(t, dir, "second")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		cert, _ := r.GetCertificate(nil)
		if cert.Leaf.Subject.CommonName == "second" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("certificate was not reloaded")
}

func TestReloaderKeepsPreviousOnBadUpdate(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := validPair(t, dir, "good")

	r, err := NewReloader(certPath, keyPath, true)
	if err != nil {
		t.Fatalf("NewReloader: %v", err)
	}
	defer r.Close()

	writePEM(t, certPath, "CERTIFICATE", []byte("garbage"))
	time.Sleep(200 * time.Millisecond)

	cert, _ := r.GetCertificate(nil)
	if cert == nil || cert.Leaf.Subject.CommonName != "good" {
		t.Errorf("certificate = %v, want previous", cert)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
