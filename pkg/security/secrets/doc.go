// Package secrets resolves ${secret:name} references in configuration.
//
// A Manager walks an ordered list of providers and caches what it finds:
//
//   - env: ANYMOUSE_SECRET_<NAME> style environment variables
//   - file: one file per secret, 0600 or 0400, optionally watched
//   - ssm: AWS Systems Manager Parameter Store SecureStrings
//
// A provider that does not hold a name returns ErrNotFound and the next
// provider is tried. Secret values are never logged.
package secrets
