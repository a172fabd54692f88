package secrets

import (
	"context"
	"fmt"

	"anymouse-hq/anymouse/pkg/config"
)

// DefaultEnvPrefix is used when no provider is configured.
const DefaultEnvPrefix = "ANYMOUSE_SECRET_"

// NewManagerFromConfig builds providers in configuration order. With no
// providers configured, an env provider using DefaultEnvPrefix is used.
func NewManagerFromConfig(ctx context.Context, cfg config.SecretsConfig) (*Manager, error) {
	var providers []Provider
	for i, pc := range cfg.Providers {
		switch pc.Type {
		case "env":
			providers = append(providers, NewEnvProvider(pc.Prefix))
		case "file":
			fp, err := NewFileProvider(pc.Path, pc.Watch)
			if err != nil {
				closeAll(providers)
				return nil, fmt.Errorf("secrets provider %d: %w", i, err)
			}
			providers = append(providers, fp)
		case "ssm":
			sp, err := NewSSMProvider(ctx, pc.Path, pc.Region, pc.Endpoint)
			if err != nil {
				closeAll(providers)
				return nil, fmt.Errorf("secrets provider %d: %w", i, err)
			}
			providers = append(providers, sp)
		default:
			closeAll(providers)
			return nil, fmt.Errorf("secrets provider %d: unknown type %q", i, pc.Type)
		}
	}
	if len(providers) == 0 {
		providers = append(providers, NewEnvProvider(DefaultEnvPrefix))
	}
	return NewManager(providers, CacheConfig{
		Enabled: cfg.Cache.Enabled,
		TTL:     cfg.Cache.TTL,
		MaxSize: cfg.Cache.MaxSize,
	}), nil
}

// ResolveConfig replaces secret references in the configuration fields
// that accept them: API keys and the git token.
func ResolveConfig(ctx context.Context, m *Manager, cfg *config.Config) error {
	for i := range cfg.Security.Authentication.Keys {
		k := &cfg.Security.Authentication.Keys[i]
		v, err := m.Resolve(ctx, k.Key)
		if err != nil {
			return fmt.Errorf("security.authentication.keys[%d]: %w", i, err)
		}
		k.Key = v
	}
	token, err := m.Resolve(ctx, cfg.Fields.Git.Auth.Token)
	if err != nil {
		return fmt.Errorf("fields.git.auth.token: %w", err)
	}
	cfg.Fields.Git.Auth.Token = token
	return nil
}

func closeAll(providers []Provider) {
	for _, p := range providers {
		if c, ok := p.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}
