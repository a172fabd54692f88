package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider reads secrets from environment variables. The name
// "git-token" with prefix "ANYMOUSE_SECRET_" maps to ANYMOUSE_SECRET_GIT_TOKEN.
type EnvProvider struct {
	prefix string
}

// NewEnvProvider creates an environment variable provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

// GetSecret implements Provider.
func (p *EnvProvider) GetSecret(_ context.Context, name string) (string, error) {
	key := p.envVar(name)
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s (env var %s)", ErrNotFound, name, key)
	}
	return value, nil
}

// Name implements Provider.
func (p *EnvProvider) Name() string { return "env" }

func (p *EnvProvider) envVar(name string) string {
	upper := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", "/", "_").Replace(name))
	return p.prefix + upper
}
