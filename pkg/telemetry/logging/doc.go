// Package logging builds the process slog logger.
//
// Every handler returned by New is wrapped in a RedactingHandler. Values
// under sensitive keys (API keys, authorization headers, token maps, and
// request text or payloads) are replaced with [REDACTED], and remaining
// string values have credential and contact patterns masked. Request
// and client IDs stored in the context with WithRequestID and
// WithClientID are added to every entry logged with a *Context method.
package logging
