package audit

// SchemaVersion is the current audit schema version.
const SchemaVersion = 1

// schema is shared by both SQLite drivers. Times are stored as Unix
// nanoseconds so the drivers agree on their encoding.
const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    action TEXT NOT NULL,
    shape TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    entity_count INTEGER NOT NULL DEFAULT 0,
    field_count INTEGER NOT NULL DEFAULT 0,
    source_ip TEXT NOT NULL DEFAULT '',
    client_id TEXT NOT NULL DEFAULT '',
    duration_ns INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_records(created_at);
CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_records(action);
CREATE INDEX IF NOT EXISTS idx_audit_client_id ON audit_records(client_id);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, ?)
ON CONFLICT(version) DO NOTHING;
`

const getSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;`

const insertRecord = `
INSERT INTO audit_records (
    id, request_id, action, shape, status, entity_count, field_count,
    source_ip, client_id, duration_ns, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`

const selectRecords = `
SELECT id, request_id, action, shape, status, entity_count, field_count,
       source_ip, client_id, duration_ns, created_at
FROM audit_records`
