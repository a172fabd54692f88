package auth

// APIKeyInfo is an accepted key and the client it identifies.
type APIKeyInfo struct {
	Key      string
	ClientID string
	Enabled  bool
}

// APIKeySource says where a request carries its key.
type APIKeySource struct {
	Type   string // header or query
	Name   string
	Scheme string // optional header scheme such as "Bearer"
}
