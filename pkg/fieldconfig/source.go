package fieldconfig

import (
	"context"
	"fmt"

	"anymouse-hq/anymouse/pkg/config"
)

// NewSource builds the source selected by cfg.Source. Secret references in
// cfg must already be resolved.
func NewSource(ctx context.Context, cfg config.FieldsConfig) (Source, error) {
	switch cfg.Source {
	case "", "inline":
		return NewInlineSource(cfg.Inline), nil
	case "file":
		return NewFileSource(cfg.File.Path, cfg.File.Watch)
	case "s3":
		return NewS3Source(ctx, S3Options{
			URL:      cfg.S3.URL,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
			CacheTTL: cfg.CacheTTL,
		})
	case "git":
		token := ""
		if cfg.Git.Auth.Type == "token" {
			token = cfg.Git.Auth.Token
		}
		return NewGitSource(GitOptions{
			Repository: cfg.Git.Repository,
			Branch:     cfg.Git.Branch,
			Path:       cfg.Git.Path,
			Token:      token,
			Depth:      1,
			Timeout:    cfg.Git.Timeout,
			CacheTTL:   cfg.CacheTTL,
		})
	default:
		return nil, fmt.Errorf("unknown field source %q", cfg.Source)
	}
}
