package main

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	sectls "anymouse-hq/anymouse/pkg/security/tls"

	"github.com/spf13/cobra"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Manage TLS certificates for the API listener",
	Long: `Manage the TLS certificate used by "anymouse serve".

Subcommands:
  validate - Check a certificate and key pair
  generate - Generate a self-signed certificate for development`,
}

var certsValidateFlags struct {
	certFile string
	keyFile  string
}

var certsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate certificate and key",
	Long: `Validate a TLS certificate and private key the way the server loads them.

The pair must match and the certificate must be within its validity period.
A warning is printed when it expires within 30 days.

Examples:
  anymouse certs validate --cert server.crt --key server.key`,
	RunE: validateCertificate,
}

var generateFlags struct {
	hosts    string
	org      string
	validity int
	keyType  string
	output   string
}

var certsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate self-signed certificate",
	Long: `Generate a self-signed certificate and key for development.

The key is written with 0600 permissions. Self-signed certificates are for
testing only.

Examples:
  anymouse certs generate --host "localhost,127.0.0.1" --output certs/`,
	RunE: generateCertificate,
}

func init() {
	rootCmd.AddCommand(certsCmd)
	certsCmd.AddCommand(certsValidateCmd, certsGenerateCmd)

	certsValidateCmd.Flags().StringVar(&certsValidateFlags.certFile, "cert", "", "certificate file (required)")
	certsValidateCmd.Flags().StringVar(&certsValidateFlags.keyFile, "key", "", "private key file (required)")
	_ = certsValidateCmd.MarkFlagRequired("cert")
	_ = certsValidateCmd.MarkFlagRequired("key")

	certsGenerateCmd.Flags().StringVar(&generateFlags.hosts, "host", "localhost", "comma-separated hostnames and IPs")
	certsGenerateCmd.Flags().StringVar(&generateFlags.org, "org", "Anymouse", "organization name")
	certsGenerateCmd.Flags().IntVar(&generateFlags.validity, "validity", 365, "validity in days")
	certsGenerateCmd.Flags().StringVar(&generateFlags.keyType, "key-type", "ecdsa", "key type: ecdsa (P-256) or rsa (2048)")
	certsGenerateCmd.Flags().StringVarP(&generateFlags.output, "output", "o", "certs", "output directory")
}

func validateCertificate(cmd *cobra.Command, args []string) error {
	w := out(cmd)
	fmt.Fprintf(w, "Validating certificate: %s\n\n", certsValidateFlags.certFile)

	pair, err := tls.LoadX509KeyPair(certsValidateFlags.certFile, certsValidateFlags.keyFile)
	if err != nil {
		fmt.Fprintln(w, "✗ Certificate and key do NOT match")
		return err
	}
	fmt.Fprintln(w, "✓ Certificate and key match")

	if err := sectls.ValidateCertificate(&pair); err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		return err
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Certificate valid until %s\n", leaf.NotAfter.Format("2006-01-02"))
	if remaining := time.Until(leaf.NotAfter); remaining < sectls.ExpiryWarning {
		fmt.Fprintf(w, "⚠  Certificate expires in %d days\n", int(remaining.Hours()/24))
	}

	printCertDetails(w, leaf)
	return nil
}

func printCertDetails(w io.Writer, cert *x509.Certificate) {
	fmt.Fprintln(w, "\nCertificate Details:")
	fmt.Fprintf(w, "  Subject: %s\n", cert.Subject.CommonName)
	if len(cert.Subject.Organization) > 0 {
		fmt.Fprintf(w, "  Organization: %s\n", cert.Subject.Organization[0])
	}
	fmt.Fprintf(w, "  Issuer: %s\n", cert.Issuer.CommonName)
	fmt.Fprintf(w, "  Serial: %x\n", cert.SerialNumber)
	fmt.Fprintf(w, "  Valid From: %s\n", cert.NotBefore.Format(time.RFC3339))
	fmt.Fprintf(w, "  Valid Until: %s\n", cert.NotAfter.Format(time.RFC3339))
	if len(cert.DNSNames) > 0 {
		fmt.Fprintf(w, "  SANs (DNS): %v\n", cert.DNSNames)
	}
	if len(cert.IPAddresses) > 0 {
		fmt.Fprintf(w, "  SANs (IP): %v\n", cert.IPAddresses)
	}
}

func generateKey(keyType string) (crypto.Signer, *pem.Block, error) {
	switch keyType {
	case "ecdsa":
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		der, err := x509.MarshalECPrivateKey(key)
		if err != nil {
			return nil, nil, err
		}
		return key, &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}, nil
	case "rsa":
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, nil, err
		}
		return key, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}, nil
	default:
		return nil, nil, fmt.Errorf("invalid key type %q (must be ecdsa or rsa)", keyType)
	}
}

func generateCertificate(cmd *cobra.Command, args []string) error {
	w := out(cmd)
	if generateFlags.validity <= 0 {
		return fmt.Errorf("validity must be positive")
	}

	var (
		hosts       []string
		dnsNames    []string
		ipAddresses []net.IP
	)
	for _, host := range strings.Split(generateFlags.hosts, ",") {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		hosts = append(hosts, host)
		if ip := net.ParseIP(host); ip != nil {
			ipAddresses = append(ipAddresses, ip)
		} else {
			dnsNames = append(dnsNames, host)
		}
	}
	if len(hosts) == 0 {
		return fmt.Errorf("at least one host is required")
	}

	key, keyBlock, err := generateKey(generateFlags.keyType)
	if err != nil {
		return err
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}
	notBefore := time.Now().Add(-time.Minute)
	notAfter := notBefore.AddDate(0, 0, generateFlags.validity)

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{generateFlags.org},
			CommonName:   hosts[0],
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ipAddresses,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, key.Public(), key)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	if err := os.MkdirAll(generateFlags.output, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	certPath := filepath.Join(generateFlags.output, "cert.pem")
	keyPath := filepath.Join(generateFlags.output, "key.pem")
	// #nosec G306 - certificates are public.
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0644); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(keyBlock), 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	fmt.Fprintf(w, "✓ Certificate generated: %s\n", certPath)
	fmt.Fprintf(w, "✓ Private key generated: %s\n", keyPath)
	fmt.Fprintf(w, "  Hosts: %s (valid %d days)\n\n", strings.Join(hosts, ", "), generateFlags.validity)
	fmt.Fprintln(w, "⚠️  Self-signed certificates are for TESTING ONLY")
	fmt.Fprintln(w, "\nTo serve HTTPS, add to your config.yaml:")
	fmt.Fprintln(w, "security:")
	fmt.Fprintln(w, "  tls:")
	fmt.Fprintln(w, "    enabled: true")
	fmt.Fprintf(w, "    cert_file: %q\n", certPath)
	fmt.Fprintf(w, "    key_file: %q\n", keyPath)
	fmt.Fprintln(w, "    reload: true")
	return nil
}
