// ABOUTME: SQLite database schema for the front-desk agent
// ABOUTME: Timestamps are INTEGER unix nanoseconds so range comparisons are numeric
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Conversation containers
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    channel TEXT NOT NULL,
    consent_to_contact INTEGER NOT NULL DEFAULT 0,
    phone_hash TEXT,
    created_at INTEGER NOT NULL
);

-- Insert-only message log
CREATE TABLE IF NOT EXISTS conversation_turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    channel TEXT NOT NULL,
    role TEXT NOT NULL,
    text TEXT NOT NULL,
    intent TEXT,
    confidence REAL,
    escalated INTEGER NOT NULL DEFAULT 0,
    references_json TEXT,
    created_at INTEGER NOT NULL
);

-- Append-only, time-versioned policy ledger
CREATE TABLE IF NOT EXISTS policies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    policy_key TEXT NOT NULL,
    policy_value TEXT NOT NULL,
    effective_from INTEGER NOT NULL,
    effective_to INTEGER,
    updated_by TEXT NOT NULL
);

-- Retrievable knowledge; seq preserves corpus insertion order
CREATE TABLE IF NOT EXISTS kb_chunks (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    chunk_id TEXT NOT NULL UNIQUE,
    source_url TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    tag TEXT NOT NULL,
    approved INTEGER NOT NULL DEFAULT 1,
    version TEXT NOT NULL,
    embedding BLOB,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS escalation_tickets (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    channel TEXT NOT NULL,
    priority TEXT NOT NULL,
    reason TEXT NOT NULL,
    conversation_excerpt TEXT NOT NULL,
    assigned_queue TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'open',
    created_at INTEGER NOT NULL,
    resolved_at INTEGER
);

CREATE TABLE IF NOT EXISTS lead_captures (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    name TEXT,
    phone TEXT,
    preferred_time TEXT,
    reason TEXT,
    consent INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'new',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    actor TEXT NOT NULL,
    action TEXT NOT NULL,
    payload_json TEXT,
    created_at INTEGER NOT NULL
);

-- At most one active row per policy key
CREATE UNIQUE INDEX IF NOT EXISTS idx_policies_active ON policies(policy_key) WHERE effective_to IS NULL;
CREATE INDEX IF NOT EXISTS idx_policies_key ON policies(policy_key, effective_from);
CREATE INDEX IF NOT EXISTS idx_sessions_phone ON sessions(phone_hash) WHERE phone_hash IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_turns_session ON conversation_turns(session_id, id);
CREATE INDEX IF NOT EXISTS idx_turns_created ON conversation_turns(created_at);
CREATE INDEX IF NOT EXISTS idx_chunks_approved ON kb_chunks(approved, seq);
CREATE INDEX IF NOT EXISTS idx_tickets_status ON escalation_tickets(status, created_at);
CREATE INDEX IF NOT EXISTS idx_leads_created ON lead_captures(created_at);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
