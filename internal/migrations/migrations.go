// Package migrations holds the database schema. The schema is applied with
// IF NOT EXISTS guards on every startup, so opening a database is also the
// migration path for a fresh file.
package migrations

// InitialSchema is the bootstrap schema for the relay database.
const InitialSchema = `
CREATE TABLE IF NOT EXISTS message_forwards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    from_user_id TEXT,
    to_user_id TEXT,
    from_chat_id TEXT NOT NULL,
    to_chat_id TEXT NOT NULL,
    from_message_id INTEGER NOT NULL,
    to_message_id INTEGER NOT NULL,
    reply_to_id INTEGER,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_forwards_dest ON message_forwards(to_chat_id, to_message_id);
CREATE INDEX IF NOT EXISTS idx_forwards_source ON message_forwards(from_chat_id, from_message_id);
CREATE INDEX IF NOT EXISTS idx_forwards_chain ON message_forwards(from_user_id, to_chat_id, created);

CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tg_user_id TEXT NOT NULL UNIQUE,
    first_username TEXT,
    username TEXT,
    init_first_name TEXT,
    first_name TEXT,
    init_last_name TEXT,
    last_name TEXT,
    lang_code TEXT,
    is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
    is_banned BOOLEAN NOT NULL DEFAULT FALSE,
    mask_uid TEXT NOT NULL,
    created DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_used DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_users_tg_user_id ON users(tg_user_id);
`

// GetInitialSchema returns the bootstrap schema.
func GetInitialSchema() (string, error) {
	return InitialSchema, nil
}
