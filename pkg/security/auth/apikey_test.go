package auth

import (
	"errors"
	"testing"

	"anymouse-hq/anymouse/pkg/config"
)

func TestAPIKeyValidator_Validate(t *testing.T) {
	v := NewAPIKeyValidatorFromConfig([]config.APIKeyConfig{
		{Key: "test-api-key-123", ClientID: "tests"},
		{Key: "old-key", ClientID: "legacy", Disabled: true},
	})

	tests := []struct {
		name    string
		key     string
		client  string
		wantErr error
	}{
		{name: "valid", key: "test-api-key-123", client: "tests"},
		{name: "disabled", key: "old-key", wantErr: ErrDisabledKey},
		{name: "unknown", key: "wrong-key", wantErr: ErrInvalidKey},
		{name: "empty", key: "", wantErr: ErrInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := v.Validate(tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if info.ClientID != tt.client {
				t.Errorf("ClientID = %q, want %q", info.ClientID, tt.client)
			}
		})
	}
	if v.Len() != 2 {
		t.Errorf("Len() = %d", v.Len())
	}
}
