package types

import (
	"encoding/json"

	"anymouse-hq/anymouse/pkg/anonymize"
	"anymouse-hq/anymouse/pkg/fieldconfig"
)

// AnonymizeRequest is the body of POST /v1/anonymize. Exactly one of Text
// and Payload is set. Config overrides the server's field source.
type AnonymizeRequest struct {
	Text    *string         `json:"text,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Config  map[string]any  `json:"config,omitempty"`
}

// AnonymizeResponse is the body of a successful anonymize call.
type AnonymizeResponse struct {
	Message string             `json:"message"`
	Tokens  anonymize.TokenMap `json:"tokens"`
	Fields  []string           `json:"fields"`
}

// DeanonymizeRequest is the body of POST /v1/deanonymize. Mode is "text",
// "structured" or empty for automatic selection.
type DeanonymizeRequest struct {
	Message string             `json:"message"`
	Tokens  anonymize.TokenMap `json:"tokens"`
	Mode    string             `json:"mode,omitempty"`
}

// DeanonymizeResponse is the body of a successful deanonymize call.
type DeanonymizeResponse struct {
	Message string `json:"message"`
}

// ConfigTestRequest is the body of POST /v1/config/test.
type ConfigTestRequest struct {
	Config map[string]any `json:"config"`
}

// ConfigTestResponse reports a valid field document.
type ConfigTestResponse struct {
	Status string             `json:"status"`
	Config fieldconfig.Config `json:"config"`
}

// InvokeRequest is the body of POST /v1/invoke, a single entry point that
// dispatches on Action. The remaining fields are those of the matching
// per-action request.
type InvokeRequest struct {
	Action string `json:"action"`

	Text    *string         `json:"text,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Config  map[string]any  `json:"config,omitempty"`

	Message string             `json:"message,omitempty"`
	Tokens  anonymize.TokenMap `json:"tokens,omitempty"`
	Mode    string             `json:"mode,omitempty"`
}
