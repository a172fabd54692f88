// Package fieldconfig supplies the dotted field paths that structured
// anonymization redacts.
//
// A field document is a JSON or YAML mapping with an optional "fields" list
// of strings:
//
//	{"fields": ["patient_name", "appointment.doctor"]}
//
// A missing list means no fields. Anything other than a list of strings is
// rejected with ErrInvalidConfig.
//
// Documents come from a Source: inline configuration, a local file (optionally
// watched with fsnotify), an S3 object, or a file in a Git repository. Remote
// sources cache the last good document for the configured TTL.
package fieldconfig
