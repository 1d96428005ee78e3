package store

// schemaSQL creates the two logical tables named in the persistence
// schema (spec.md §6), plus their secondary indexes. SQLite accepts
// multiple statements in one Exec call separated by semicolons.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS contacts (
	hash_id              TEXT PRIMARY KEY,
	public_key_hex       TEXT NOT NULL UNIQUE,
	signing_key_hex       TEXT,
	display_name         TEXT NOT NULL,
	custom_name           TEXT,
	trusted               INTEGER NOT NULL DEFAULT 0,
	blocked               INTEGER NOT NULL DEFAULT 0,
	favorite              INTEGER NOT NULL DEFAULT 0,
	groups_json           TEXT,
	notes                 TEXT,
	verification_method   TEXT,
	added_at              INTEGER NOT NULL,
	last_seen_at          INTEGER,
	last_message_at       INTEGER,
	unread_count          INTEGER NOT NULL DEFAULT 0,
	current_peer_address  TEXT,
	connected             INTEGER NOT NULL DEFAULT 0,
	updated_at            INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_trusted ON contacts(trusted);
CREATE INDEX IF NOT EXISTS idx_contacts_blocked ON contacts(blocked);

CREATE TABLE IF NOT EXISTS messages (
	id                    TEXT PRIMARY KEY,
	peer_address          TEXT NOT NULL,
	sender                TEXT NOT NULL,
	content               TEXT NOT NULL,
	timestamp_millis      INTEGER NOT NULL,
	is_private            INTEGER NOT NULL DEFAULT 0,
	delivery_status_text  TEXT NOT NULL,
	recipient_nickname     TEXT,
	sender_peer_address    TEXT,
	encrypted_blob         BLOB,
	is_encrypted_flag      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_messages_peer_ts ON messages(peer_address, timestamp_millis);
`
