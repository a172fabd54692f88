// Package tls builds the server-side TLS configuration for the API
// listener.
//
// The certificate is held by a Reloader which re-reads the key pair when
// its files change, so rotated certificates are served without a restart.
// When a client CA bundle is configured, client certificates are verified
// against it.
package tls
