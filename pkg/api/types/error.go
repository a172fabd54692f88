package types

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	// Message is human-readable and never contains payload values.
	Message string `json:"message"`

	// Type is one of the ErrorType constants.
	Type string `json:"type"`

	// Param names the offending request field, if any.
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

const (
	ErrorTypeInvalidRequest   = "invalid_request_error"
	ErrorTypeAuthentication   = "authentication_error"
	ErrorTypeMethodNotAllowed = "method_not_allowed"
	ErrorTypeUnprocessable    = "unprocessable_entity"
	ErrorTypeNotFound         = "not_found"
	ErrorTypeServerError      = "server_error"
	ErrorTypeUnavailable      = "service_unavailable"
	ErrorTypeRateLimit        = "rate_limit_error"
)

const (
	CodeInvalidJSON      = "invalid_json"
	CodeInvalidPayload   = "invalid_payload"
	CodeInvalidConfig    = "invalid_config"
	CodeMissingField     = "missing_field"
	CodeInvalidValue     = "invalid_value"
	CodeInvalidAPIKey    = "invalid_api_key"
	CodeRequestTooLarge  = "request_too_large"
	CodeRecognizerOutput = "recognizer_contract"
	CodeInternalError    = "internal_error"
	CodeRateLimited      = "rate_limit_exceeded"
)

// NewErrorResponse builds an error body.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Message: message, Type: errorType, Param: param, Code: code}}
}

// HTTPStatusCode maps the error type to a status.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorTypeUnprocessable:
		return http.StatusUnprocessableEntity
	case ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Write sends e with the status matching its type.
func (e *ErrorResponse) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Error.HTTPStatusCode())
	_ = json.NewEncoder(w).Encode(e)
}
