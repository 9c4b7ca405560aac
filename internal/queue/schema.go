package queue

// SchemaVersion is the current queue database schema version
const SchemaVersion = 1

const schema = `
-- Queued submissions, one row per parked draft. FIFO order within a
-- kind is the insertion order (seq).
CREATE TABLE IF NOT EXISTS queued_submissions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    local_id TEXT NOT NULL UNIQUE,
    kind TEXT NOT NULL,
    payload TEXT NOT NULL,
    queued_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_queued_submissions_kind ON queued_submissions(kind, seq);

-- Schema version bookkeeping
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
