package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"anymouse-hq/anymouse/pkg/api/types"
	"anymouse-hq/anymouse/pkg/config"
	"anymouse-hq/anymouse/pkg/telemetry/logging"
)

// UnauthorizedMessage is the only message returned to callers that fail
// authentication, whether the key is missing, unknown, or disabled.
const UnauthorizedMessage = "Missing or invalid API key"

var errNoKey = errors.New("no API key found")

// APIKeyMiddleware rejects requests without a valid key.
type APIKeyMiddleware struct {
	validator *APIKeyValidator
	sources   []APIKeySource
	logger    *slog.Logger
}

// NewAPIKeyMiddleware creates the middleware.
func NewAPIKeyMiddleware(validator *APIKeyValidator, sources []APIKeySource) *APIKeyMiddleware {
	return &APIKeyMiddleware{
		validator: validator,
		sources:   sources,
		logger:    slog.Default().With("component", "auth"),
	}
}

// SourcesFromConfig converts configured key sources.
func SourcesFromConfig(sources []config.APIKeySource) []APIKeySource {
	out := make([]APIKeySource, 0, len(sources))
	for _, s := range sources {
		out = append(out, APIKeySource{Type: s.Type, Name: s.Name, Scheme: s.Scheme})
	}
	return out
}

// Handle wraps next.
func (m *APIKeyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := m.extract(r)
		var info *APIKeyInfo
		if err == nil {
			info, err = m.validator.Validate(key)
		}
		if err != nil {
			m.logger.Warn("authentication failed",
				"reason", err.Error(),
				"source_ip", ClientIP(r),
				"path", r.URL.Path,
			)
			types.NewErrorResponse(UnauthorizedMessage, types.ErrorTypeAuthentication, "", types.CodeInvalidAPIKey).Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), apiKeyInfoKey, info)
		ctx = logging.WithClientID(ctx, info.ClientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *APIKeyMiddleware) extract(r *http.Request) (string, error) {
	for _, s := range m.sources {
		switch s.Type {
		case "header":
			v := r.Header.Get(s.Name)
			if v == "" {
				continue
			}
			if s.Scheme == "" {
				return v, nil
			}
			if rest, ok := strings.CutPrefix(v, s.Scheme+" "); ok && rest != "" {
				return rest, nil
			}
		case "query":
			if v := r.URL.Query().Get(s.Name); v != "" {
				return v, nil
			}
		}
	}
	return "", errNoKey
}

// ClientIP returns the first X-Forwarded-For hop, or the remote address
// without its port.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

type contextKey string

// #nosec G101 - context key, not a credential
const apiKeyInfoKey contextKey = "api_key_info"

// GetAPIKeyInfo returns the authenticated key info, if any.
func GetAPIKeyInfo(ctx context.Context) (*APIKeyInfo, bool) {
	info, ok := ctx.Value(apiKeyInfoKey).(*APIKeyInfo)
	return info, ok
}

// ClientID returns the authenticated client, or "" when unauthenticated.
func ClientID(ctx context.Context) string {
	if info, ok := GetAPIKeyInfo(ctx); ok {
		return info.ClientID
	}
	return ""
}
