package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"sync"

	"anymouse-hq/anymouse/pkg/config"
)

var (
	// ErrInvalidKey is returned for unknown keys.
	ErrInvalidKey = errors.New("invalid API key")
	// ErrDisabledKey is returned for keys marked disabled.
	ErrDisabledKey = errors.New("API key disabled")
)

// APIKeyValidator checks keys against a fixed set. Keys are indexed by
// their SHA-256 digest and compared in constant time.
type APIKeyValidator struct {
	mu   sync.RWMutex
	keys map[[sha256.Size]byte]*APIKeyInfo
}

// NewAPIKeyValidator creates a validator for keys.
func NewAPIKeyValidator(keys []*APIKeyInfo) *APIKeyValidator {
	v := &APIKeyValidator{keys: make(map[[sha256.Size]byte]*APIKeyInfo, len(keys))}
	for _, k := range keys {
		v.keys[sha256.Sum256([]byte(k.Key))] = k
	}
	return v
}

// NewAPIKeyValidatorFromConfig builds a validator from resolved key config.
func NewAPIKeyValidatorFromConfig(keys []config.APIKeyConfig) *APIKeyValidator {
	infos := make([]*APIKeyInfo, 0, len(keys))
	for _, k := range keys {
		infos = append(infos, &APIKeyInfo{Key: k.Key, ClientID: k.ClientID, Enabled: !k.Disabled})
	}
	return NewAPIKeyValidator(infos)
}

// Validate returns the info for key.
func (v *APIKeyValidator) Validate(key string) (*APIKeyInfo, error) {
	digest := sha256.Sum256([]byte(key))

	v.mu.RLock()
	info, ok := v.keys[digest]
	v.mu.RUnlock()
	if !ok || subtle.ConstantTimeCompare([]byte(info.Key), []byte(key)) != 1 {
		return nil, ErrInvalidKey
	}
	if !info.Enabled {
		return nil, ErrDisabledKey
	}
	return info, nil
}

// Len returns the number of configured keys.
func (v *APIKeyValidator) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.keys)
}
