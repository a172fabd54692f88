// Package auth gates the API behind API keys.
//
// Keys are read from the configured sources in order (the X-API-Key header
// by default). A missing, unknown, or disabled key gets a 401 with the
// message "Missing or invalid API key"; the reason is logged, never
// returned. Authenticated requests carry an APIKeyInfo in their context.
package auth
