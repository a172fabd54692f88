// Package api implements the HTTP surface of the anonymization service.
//
// Routes:
//
//	POST /v1/anonymize     text or structured payload in, redacted message and token map out
//	POST /v1/deanonymize   message and token map in, restored message out
//	POST /v1/config/test   validates a field document
//	POST /v1/invoke        dispatches on an "action" key to one of the above
//
// Every non-2xx response is a JSON error envelope from package types.
// Handlers never echo request values in errors or logs, and each call is
// recorded in the audit trail when one is configured.
package api
