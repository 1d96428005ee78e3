// Package store provides bitchat's durable persistence: the local
// identity as a passphrase-encrypted JSON file, per-relay account profiles
// as a plain JSON file, the database-encryption key as a wrapped blob, and
// contacts/messages in
// SQLite. All file-based methods are concurrency-safe via internal
// locking; stored files live under the configured home directory.
//
// The package includes:
//   - Identity keys, passphrase-sealed (IdentityFileStore)
//   - Per-relay account/canary profiles (AccountFileStore)
//   - The SQLite database-encryption key, wrapped at rest (FileDBKeystore)
//   - Contacts and messages, SQLite-backed (SQLiteContactStore, SQLiteMessageStore)
package store
