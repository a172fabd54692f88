// Package audit keeps a PII-free trail of engine operations.
//
// A Record describes one API call: what was asked (action and payload
// shape), how it ended (status, entity and field counts, duration) and who
// asked (source IP and client ID). Original values, placeholders and token
// maps are never part of a record.
//
// Records are written through a Recorder into a Store. Three stores exist:
//
//   - memory: process-local, for tests and single-shot CLI runs
//   - sqlite3: SQLite through the cgo driver github.com/mattn/go-sqlite3
//   - sqlite: SQLite through the pure-Go driver modernc.org/sqlite
//
// The Pruner deletes records older than the retention period and the
// Scheduler runs it on a cron expression.
package audit
