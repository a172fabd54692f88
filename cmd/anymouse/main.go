// Anymouse replaces named entities in text and configured fields in JSON
// records with reversible placeholders, and restores them on request.
//
// Usage:
//
//	# Start the HTTP service
//	anymouse serve --config /etc/anymouse/config.yaml
//
//	# Anonymize text from stdin
//	echo "Meeting with Alice Smith" | anymouse anonymize
//
//	# Anonymize a JSON Lines file, redacting two fields
//	anymouse anonymize --file records.jsonl --fields name,patient.name
//
//	# Restore placeholders
//	anymouse deanonymize --tokens tokens.json --message "[name1] called"
//
//	# Validate a field document
//	anymouse fields validate fields.yaml
//
//	# Prune audit records past retention
//	anymouse audit prune
package main

import "os"

func main() {
	os.Exit(Execute())
}
