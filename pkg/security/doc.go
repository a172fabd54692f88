// Package security groups the access-control pieces of the service.
//
//   - secrets: resolves API keys and tokens from env, files or SSM
//   - auth: API key validation and the HTTP gate in front of the API
//   - tls: listener certificates with hot reload and optional client CA
package security
