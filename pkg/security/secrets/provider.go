package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a provider holds no value for a name.
var ErrNotFound = errors.New("secret not found")

// Provider retrieves secret values by name.
type Provider interface {
	// GetSecret returns the value stored under name. Missing secrets wrap
	// ErrNotFound.
	GetSecret(ctx context.Context, name string) (string, error)

	// Name is the provider type used in logs (env, file, ssm).
	Name() string
}

// Refresher is implemented by providers that keep their own cache.
type Refresher interface {
	Refresh(ctx context.Context) error
}
