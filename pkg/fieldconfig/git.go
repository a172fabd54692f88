package fieldconfig

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// GitOptions configures a GitSource.
type GitOptions struct {
	Repository string
	Branch     string
	// Path of the field document inside the repository.
	Path string
	// Token enables HTTPS token authentication when non-empty.
	Token string
	// Depth limits clone history; 0 clones everything.
	Depth int
	// Timeout bounds a single clone.
	Timeout  time.Duration
	CacheTTL time.Duration
}

// GitSource reads a field document from a branch of a Git repository. Each
// refresh performs an in-memory clone, so nothing is written to disk.
type GitSource struct {
	opts   GitOptions
	auth   transport.AuthMethod
	cache  *cachedLoader
	logger *slog.Logger
}

// NewGitSource validates options. The repository is first contacted on Load.
func NewGitSource(opts GitOptions) (*GitSource, error) {
	if opts.Repository == "" {
		return nil, errors.New("repository URL cannot be empty")
	}
	if opts.Branch == "" {
		return nil, errors.New("branch cannot be empty")
	}
	if opts.Path == "" {
		return nil, errors.New("document path cannot be empty")
	}
	s := &GitSource{
		opts:   opts,
		logger: slog.Default().With("component", "fieldconfig.git", "repository", opts.Repository),
	}
	if opts.Token != "" {
		s.auth = &http.BasicAuth{Username: "git", Password: opts.Token}
	}
	s.cache = newCachedLoader(opts.CacheTTL, s.logger, s.fetch)
	return s, nil
}

// Load returns the cached document, cloning again when the TTL has expired.
func (s *GitSource) Load(ctx context.Context) (Config, error) {
	return s.cache.load(ctx)
}

// Name returns "git".
func (s *GitSource) Name() string { return "git" }

func (s *GitSource) fetch(ctx context.Context) (Config, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	fs := memfs.New()
	repo, err := gogit.CloneContext(ctx, memory.NewStorage(), fs, &gogit.CloneOptions{
		URL:           s.opts.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(s.opts.Branch),
		SingleBranch:  true,
		Depth:         s.opts.Depth,
		Auth:          s.auth,
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to clone repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get HEAD: %w", err)
	}

	f, err := fs.Open(s.opts.Path)
	if err != nil {
		return Config{}, fmt.Errorf("open %s at %s: %w", s.opts.Path, head.Hash().String(), err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxDocumentSize+1))
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", s.opts.Path, err)
	}
	if len(data) > maxDocumentSize {
		return Config{}, fmt.Errorf("%s exceeds %d bytes", s.opts.Path, maxDocumentSize)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}

	s.logger.Info("field document fetched",
		"branch", s.opts.Branch,
		"commit", head.Hash().String(),
		"fields", len(cfg.Fields),
		"duration", time.Since(start),
	)
	return cfg, nil
}
