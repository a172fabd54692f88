// Package anonymize replaces sensitive values in free text and in nested JSON
// records with reversible placeholder tokens, and restores them.
//
// # Placeholders
//
// A placeholder has the wire form "[<prefix><n>]", for example "[name1]" or
// "[org2]". The prefix is looked up from the entity type (PERSON is "name",
// ORG is "org", GPE and LOC are "loc", DATE is "date"); structured field
// redaction uses a single prefix for every field. Counters start at 1 and are
// scoped to one call. Within a call an identical value always maps to the
// same placeholder, and the first type seen for a value wins.
//
// # Token maps
//
// Every anonymize call returns a TokenMap from placeholder to original value.
// The engine keeps no reference to it. Passing the same map back to
// DeanonymizeText or DeanonymizeStructured restores the input. Placeholders
// missing from the map are left as they are.
//
// # Structured payloads
//
// Payloads are *Object values: JSON objects that keep the key order of the
// document they were parsed from. Field paths are dotted key paths such as
// "appointment.doctor". Arrays are never traversed. The walker builds a new
// tree and never modifies the caller's payload. Placeholders are numbered in
// key order, and the redacted tree is serialized as compact JSON.
//
// # Concurrency
//
// An Engine is immutable after New and safe for concurrent use. Each call
// owns its allocator and token map.
package anonymize
