// Package types defines the JSON bodies shared by the HTTP API and its
// middleware.
package types
