package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"anymouse-hq/anymouse/pkg/anonymize"
	"anymouse-hq/anymouse/pkg/api/types"
	"anymouse-hq/anymouse/pkg/audit"
	"anymouse-hq/anymouse/pkg/fieldconfig"
	"anymouse-hq/anymouse/pkg/security/auth"
	"anymouse-hq/anymouse/pkg/telemetry/logging"
	"anymouse-hq/anymouse/pkg/telemetry/tracing"
)

// Deanonymize modes. ModeAuto restores structurally only when the message
// is in the compact form structured anonymization emits.
const (
	ModeAuto       = ""
	ModeText       = "text"
	ModeStructured = "structured"
)

// DefaultMaxBodyBytes bounds request bodies when Config.MaxBodyBytes is 0.
const DefaultMaxBodyBytes = 1 << 20

// AuditRecorder receives one record per handled call.
type AuditRecorder interface {
	Record(ctx context.Context, rec audit.Record) error
}

// Config configures a Handler.
type Config struct {
	// Engine performs anonymization. Required.
	Engine *anonymize.Engine

	// Fields supplies field paths when a structured request carries no
	// config. Nil means an empty list.
	Fields fieldconfig.Source

	Audit        AuditRecorder
	Tracer       *tracing.Tracer
	MaxBodyBytes int64
}

// Handler serves the anonymization API.
type Handler struct {
	engine       *anonymize.Engine
	fields       fieldconfig.Source
	audit        AuditRecorder
	tracer       *tracing.Tracer
	maxBodyBytes int64
	logger       *slog.Logger
}

// New creates a Handler.
func New(cfg Config) (*Handler, error) {
	if cfg.Engine == nil {
		return nil, errors.New("api: engine is required")
	}
	if cfg.Fields == nil {
		cfg.Fields = fieldconfig.NewInlineSource(nil)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracing.Noop()
	}
	return &Handler{
		engine:       cfg.Engine,
		fields:       cfg.Fields,
		audit:        cfg.Audit,
		tracer:       cfg.Tracer,
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       slog.Default().With("component", "api"),
	}, nil
}

// outcome is what a single action produced, for the response and the audit
// trail.
type outcome struct {
	action   string
	body     any
	shape    string
	entities int
	fields   int
	err      *types.ErrorResponse
}

// Anonymize serves POST /v1/anonymize.
func (h *Handler) Anonymize(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, audit.ActionAnonymize, func(ctx context.Context, body []byte) outcome {
		var req types.AnonymizeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return outcome{err: invalidJSON()}
		}
		return h.anonymize(ctx, req)
	})
}

// Deanonymize serves POST /v1/deanonymize.
func (h *Handler) Deanonymize(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, audit.ActionDeanonymize, func(ctx context.Context, body []byte) outcome {
		var req types.DeanonymizeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return outcome{err: invalidJSON()}
		}
		return h.deanonymize(ctx, req)
	})
}

// ConfigTest serves POST /v1/config/test.
func (h *Handler) ConfigTest(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, audit.ActionConfigTest, func(ctx context.Context, body []byte) outcome {
		var req types.ConfigTestRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return outcome{err: invalidJSON()}
		}
		return h.configTest(req.Config)
	})
}

// Invoke serves POST /v1/invoke, dispatching on the "action" key.
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, audit.ActionInvoke, func(ctx context.Context, body []byte) outcome {
		var req types.InvokeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return outcome{err: invalidJSON()}
		}
		var out outcome
		switch req.Action {
		case audit.ActionAnonymize:
			out = h.anonymize(ctx, types.AnonymizeRequest{Text: req.Text, Payload: req.Payload, Config: req.Config})
		case audit.ActionDeanonymize:
			out = h.deanonymize(ctx, types.DeanonymizeRequest{Message: req.Message, Tokens: req.Tokens, Mode: req.Mode})
		case audit.ActionConfigTest:
			out = h.configTest(req.Config)
		default:
			return outcome{err: types.NewErrorResponse("Invalid action", types.ErrorTypeInvalidRequest, "action", types.CodeInvalidValue)}
		}
		out.action = req.Action
		setAction(ctx, req.Action)
		return out
	})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, action string, run func(context.Context, []byte) outcome) {
	start := time.Now()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		types.NewErrorResponse("Method not allowed", types.ErrorTypeMethodNotAllowed, "", "").Write(w)
		return
	}

	ctx := r.Context()
	var out outcome
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			out.err = types.NewErrorResponse(
				fmt.Sprintf("Request body exceeds %d bytes", h.maxBodyBytes),
				types.ErrorTypeInvalidRequest, "", types.CodeRequestTooLarge)
		} else {
			out.err = invalidJSON()
		}
	} else {
		out = run(ctx, body)
	}

	if out.action != "" {
		action = out.action
	}
	h.record(ctx, r, action, out, time.Since(start))

	if out.err != nil {
		out.err.Write(w)
		return
	}
	writeJSON(w, http.StatusOK, out.body)
}

func (h *Handler) anonymize(ctx context.Context, req types.AnonymizeRequest) outcome {
	switch {
	case req.Text != nil && len(req.Payload) > 0:
		return outcome{err: types.NewErrorResponse("Only one of text or payload may be set", types.ErrorTypeInvalidRequest, "", types.CodeInvalidValue)}
	case req.Text != nil:
		return h.anonymizeText(ctx, *req.Text)
	case len(req.Payload) > 0:
		return h.anonymizePayload(ctx, req.Payload, req.Config)
	default:
		return outcome{err: types.NewErrorResponse("Request must contain text or payload", types.ErrorTypeInvalidRequest, "", types.CodeMissingField)}
	}
}

func (h *Handler) anonymizeText(ctx context.Context, text string) outcome {
	_, span := h.tracer.Start(ctx, "engine.anonymize")
	res, err := h.engine.AnonymizeText(text)
	if err != nil {
		tracing.End(span, err)
		return outcome{shape: anonymize.ShapeText, err: engineError(err)}
	}
	span.SetAttributes(tracing.EngineAttributes("anonymize", anonymize.ShapeText, len(res.Tokens), 0)...)
	tracing.End(span, nil)

	return outcome{
		body:     types.AnonymizeResponse{Message: res.Message, Tokens: res.Tokens, Fields: res.Fields},
		shape:    anonymize.ShapeText,
		entities: len(res.Tokens),
	}
}

func (h *Handler) anonymizePayload(ctx context.Context, payload json.RawMessage, raw map[string]any) outcome {
	var fc fieldconfig.Config
	if raw != nil {
		var err error
		if fc, err = fieldconfig.Validate(raw); err != nil {
			return outcome{shape: anonymize.ShapeStructured, err: invalidConfig(err)}
		}
	} else {
		var err error
		if fc, err = h.fields.Load(ctx); err != nil {
			h.logger.ErrorContext(ctx, "field source unavailable", "source", h.fields.Name(), "error", err)
			return outcome{shape: anonymize.ShapeStructured, err: types.NewErrorResponse(
				"Field configuration unavailable", types.ErrorTypeUnavailable, "", "")}
		}
	}

	_, span := h.tracer.Start(ctx, "engine.anonymize")
	res, err := h.engine.AnonymizeJSON(payload, fc.Fields)
	if err != nil {
		tracing.End(span, err)
		return outcome{shape: anonymize.ShapeStructured, fields: len(fc.Fields), err: engineError(err)}
	}
	span.SetAttributes(tracing.EngineAttributes("anonymize", anonymize.ShapeStructured, len(res.Tokens), len(fc.Fields))...)
	tracing.End(span, nil)

	return outcome{
		body:     types.AnonymizeResponse{Message: res.Message, Tokens: res.Tokens, Fields: res.Fields},
		shape:    anonymize.ShapeStructured,
		entities: len(res.Tokens),
		fields:   len(fc.Fields),
	}
}

func (h *Handler) deanonymize(ctx context.Context, req types.DeanonymizeRequest) outcome {
	mode := req.Mode
	switch mode {
	case ModeAuto:
		mode = ModeText
		if anonymize.IsCanonicalObject(req.Message) {
			mode = ModeStructured
		}
	case ModeText, ModeStructured:
	default:
		return outcome{err: types.NewErrorResponse(`Mode must be "text", "structured" or empty`, types.ErrorTypeInvalidRequest, "mode", types.CodeInvalidValue)}
	}

	_, span := h.tracer.Start(ctx, "engine.deanonymize")
	var msg string
	if mode == ModeStructured {
		msg = h.engine.DeanonymizeStructured(req.Message, req.Tokens)
	} else {
		msg = h.engine.DeanonymizeText(req.Message, req.Tokens)
	}
	span.SetAttributes(tracing.EngineAttributes("deanonymize", mode, len(req.Tokens), 0)...)
	tracing.End(span, nil)

	return outcome{
		body:     types.DeanonymizeResponse{Message: msg},
		shape:    mode,
		entities: len(req.Tokens),
	}
}

func (h *Handler) configTest(raw map[string]any) outcome {
	fc, err := fieldconfig.Validate(raw)
	if err != nil {
		return outcome{err: invalidConfig(err)}
	}
	return outcome{
		body:   types.ConfigTestResponse{Status: "success", Config: fc},
		fields: len(fc.Fields),
	}
}

func (h *Handler) record(ctx context.Context, r *http.Request, action string, out outcome, d time.Duration) {
	if h.audit == nil {
		return
	}
	status := audit.StatusSuccess
	if out.err != nil {
		status = audit.StatusError
	}
	rec := audit.Record{
		RequestID:   logging.GetRequestID(ctx),
		Action:      action,
		Shape:       out.shape,
		Status:      status,
		EntityCount: out.entities,
		FieldCount:  out.fields,
		SourceIP:    auth.ClientIP(r),
		ClientID:    auth.ClientID(ctx),
		Duration:    d,
	}
	if err := h.audit.Record(ctx, rec); err != nil {
		h.logger.WarnContext(ctx, "audit record dropped", "action", action, "error", err)
	}
}

func engineError(err error) *types.ErrorResponse {
	switch {
	case errors.Is(err, anonymize.ErrInvalidPayload):
		return types.NewErrorResponse("Invalid payload: payload must be a JSON object", types.ErrorTypeInvalidRequest, "payload", types.CodeInvalidPayload)
	case errors.Is(err, anonymize.ErrSpanContract):
		return types.NewErrorResponse("Recognizer returned invalid entity spans", types.ErrorTypeUnprocessable, "", types.CodeRecognizerOutput)
	default:
		return types.NewErrorResponse("An internal error occurred. Please try again later.", types.ErrorTypeServerError, "", types.CodeInternalError)
	}
}

func invalidJSON() *types.ErrorResponse {
	return types.NewErrorResponse("Request body is not valid JSON", types.ErrorTypeInvalidRequest, "", types.CodeInvalidJSON)
}

func invalidConfig(err error) *types.ErrorResponse {
	return types.NewErrorResponse("Invalid config: "+err.Error(), types.ErrorTypeInvalidRequest, "config", types.CodeInvalidConfig)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
