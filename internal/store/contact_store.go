package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	domain "bitchat/internal/domain"
	"bitchat/internal/crypto"
	"bitchat/internal/identitycodec"
)

// ErrNotFound is returned by SQLiteContactStore mutators targeting a
// contact that doesn't exist and by SQLiteMessageStore.UpdateStatus for an
// unknown message; lookups report a miss through their bool result.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyExists is returned by AddByHashID when the hash_id is already
// present — callers treat this as a soft success, per spec.md §4.2.
var ErrAlreadyExists = errors.New("store: already exists")

// SQLiteContactStore is the SQLite-backed domain.ContactStore (spec.md
// §4.2, persisted per the §6 schema).
type SQLiteContactStore struct {
	db *sqlx.DB

	mu        sync.Mutex
	observers []chan []domain.Contact
}

// NewSQLiteContactStore wraps an already-open *sqlx.DB whose schema has
// been applied (see EnsureSchema).
func NewSQLiteContactStore(db *sqlx.DB) *SQLiteContactStore {
	return &SQLiteContactStore{db: db}
}

// EnsureSchema creates the contacts/messages tables and indexes if they
// don't already exist. Safe to call on every startup.
func EnsureSchema(db *sqlx.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

type contactRow struct {
	HashID             string         `db:"hash_id"`
	PublicKeyHex       string         `db:"public_key_hex"`
	SigningKeyHex      sql.NullString `db:"signing_key_hex"`
	DisplayName        string         `db:"display_name"`
	CustomName         sql.NullString `db:"custom_name"`
	Trusted            bool           `db:"trusted"`
	Blocked            bool           `db:"blocked"`
	Favorite           bool           `db:"favorite"`
	GroupsJSON         sql.NullString `db:"groups_json"`
	Notes              sql.NullString `db:"notes"`
	VerificationMethod sql.NullString `db:"verification_method"`
	AddedAt            int64          `db:"added_at"`
	LastSeenAt         sql.NullInt64  `db:"last_seen_at"`
	LastMessageAt      sql.NullInt64  `db:"last_message_at"`
	UnreadCount        int            `db:"unread_count"`
	CurrentPeerAddress sql.NullString `db:"current_peer_address"`
	Connected          bool           `db:"connected"`
	UpdatedAt          int64          `db:"updated_at"`
}

func rowFromContact(c domain.Contact) (contactRow, error) {
	r := contactRow{
		HashID:             string(c.HashID),
		PublicKeyHex:       hex.EncodeToString(c.PublicKey[:]),
		DisplayName:        c.DisplayName,
		Trusted:            c.Trusted,
		Blocked:            c.Blocked,
		Favorite:           c.Favorite,
		Notes:              sql.NullString{String: c.Notes, Valid: c.Notes != ""},
		VerificationMethod: sql.NullString{String: string(c.VerificationMethod), Valid: c.VerificationMethod != ""},
		AddedAt:            c.AddedAt.UnixMilli(),
		UnreadCount:        c.UnreadCount,
		CurrentPeerAddress: sql.NullString{String: string(c.CurrentPeerAddress), Valid: c.CurrentPeerAddress != ""},
		Connected:          c.Connected,
		UpdatedAt:          c.UpdatedAt.UnixMilli(),
		CustomName:         sql.NullString{String: c.CustomName, Valid: c.CustomName != ""},
	}
	if c.SigningKey != nil {
		r.SigningKeyHex = sql.NullString{String: hex.EncodeToString(c.SigningKey[:]), Valid: true}
	}
	if len(c.Groups) > 0 {
		b, err := json.Marshal(c.Groups)
		if err != nil {
			return contactRow{}, err
		}
		r.GroupsJSON = sql.NullString{String: string(b), Valid: true}
	}
	if c.LastSeenAt != nil {
		r.LastSeenAt = sql.NullInt64{Int64: c.LastSeenAt.UnixMilli(), Valid: true}
	}
	if c.LastMessageAt != nil {
		r.LastMessageAt = sql.NullInt64{Int64: c.LastMessageAt.UnixMilli(), Valid: true}
	}
	return r, nil
}

const placeholderKeyPrefix = "placeholder:"

func (r contactRow) toContact() (domain.Contact, error) {
	var c domain.Contact
	if !strings.HasPrefix(r.PublicKeyHex, placeholderKeyPrefix) {
		pkBytes, err := hex.DecodeString(r.PublicKeyHex)
		if err != nil {
			return domain.Contact{}, err
		}
		copy(c.PublicKey[:], pkBytes)
	}
	if r.SigningKeyHex.Valid {
		skBytes, err := hex.DecodeString(r.SigningKeyHex.String)
		if err != nil {
			return domain.Contact{}, err
		}
		var sk domain.Ed25519Public
		copy(sk[:], skBytes)
		c.SigningKey = &sk
	}
	c.HashID = domain.HashID(r.HashID)
	c.DisplayName = r.DisplayName
	c.CustomName = r.CustomName.String
	c.Trusted = r.Trusted
	c.Blocked = r.Blocked
	c.Favorite = r.Favorite
	if r.GroupsJSON.Valid {
		if err := json.Unmarshal([]byte(r.GroupsJSON.String), &c.Groups); err != nil {
			return domain.Contact{}, err
		}
	}
	c.Notes = r.Notes.String
	c.VerificationMethod = domain.VerificationMethod(r.VerificationMethod.String)
	c.CurrentPeerAddress = domain.PeerAddress(r.CurrentPeerAddress.String)
	c.Connected = r.Connected
	c.UnreadCount = r.UnreadCount
	c.AddedAt = time.UnixMilli(r.AddedAt)
	c.UpdatedAt = time.UnixMilli(r.UpdatedAt)
	if r.LastSeenAt.Valid {
		t := time.UnixMilli(r.LastSeenAt.Int64)
		c.LastSeenAt = &t
	}
	if r.LastMessageAt.Valid {
		t := time.UnixMilli(r.LastMessageAt.Int64)
		c.LastMessageAt = &t
	}
	return c, nil
}

// AddByHashID creates a placeholder contact (empty public key) if hash
// isn't already known; idempotent, returning ErrAlreadyExists with the
// existing record otherwise.
func (s *SQLiteContactStore) AddByHashID(ctx context.Context, hash domain.HashID, customName string, method domain.VerificationMethod) (domain.Contact, error) {
	if existing, ok, err := s.GetByHash(ctx, hash); err != nil {
		return domain.Contact{}, err
	} else if ok {
		return existing, ErrAlreadyExists
	}

	now := time.Now()
	c := domain.Contact{
		HashID:             hash,
		CustomName:         customName,
		VerificationMethod: method,
		AddedAt:            now,
		UpdatedAt:          now,
	}
	row, err := rowFromContact(c)
	if err != nil {
		return domain.Contact{}, err
	}
	// Placeholder contacts share no public key yet; encode a zero-key
	// marker distinct from a real all-zero key collision is astronomically
	// unlikely given HashID is already unique, so this is safe in practice.
	row.PublicKeyHex = "placeholder:" + string(hash)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contacts (hash_id, public_key_hex, display_name, custom_name, trusted, blocked,
			favorite, verification_method, added_at, unread_count, connected, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.HashID, row.PublicKeyHex, row.DisplayName, row.CustomName, row.Trusted, row.Blocked,
		row.Favorite, row.VerificationMethod, row.AddedAt, row.UnreadCount, row.Connected, row.UpdatedAt)
	if err != nil {
		return domain.Contact{}, err
	}
	s.notify(ctx)
	return c, nil
}

// AddFromPeer derives hash_id from pub and inserts or updates the contact.
func (s *SQLiteContactStore) AddFromPeer(ctx context.Context, pub domain.X25519Public, signing *domain.Ed25519Public, displayName string, addr domain.PeerAddress, trusted bool, method domain.VerificationMethod) (domain.Contact, error) {
	hash := identitycodec.HashID(pub)
	now := time.Now()

	existing, ok, err := s.GetByHash(ctx, hash)
	if err != nil {
		return domain.Contact{}, err
	}
	c := domain.Contact{
		PublicKey:          pub,
		SigningKey:         signing,
		HashID:             hash,
		DisplayName:        displayName,
		Trusted:            trusted,
		VerificationMethod: method,
		CurrentPeerAddress: addr,
		Connected:          addr != "",
		AddedAt:            now,
		UpdatedAt:          now,
	}
	if ok {
		c.CustomName = existing.CustomName
		c.Blocked = existing.Blocked
		c.Favorite = existing.Favorite
		c.Groups = existing.Groups
		c.Notes = existing.Notes
		c.UnreadCount = existing.UnreadCount
		c.LastMessageAt = existing.LastMessageAt
		c.AddedAt = existing.AddedAt
	}
	if err := s.upsert(ctx, c); err != nil {
		return domain.Contact{}, err
	}
	s.notify(ctx)
	return c, nil
}

// SyncWithPeer refreshes liveness fields for an already-known contact;
// unknown public keys are a no-op (unknown peers are never auto-added).
func (s *SQLiteContactStore) SyncWithPeer(ctx context.Context, addr domain.PeerAddress, pub domain.X25519Public, signing *domain.Ed25519Public, displayName string) error {
	existing, ok, err := s.GetByPublicKey(ctx, pub)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	now := time.Now()
	existing.CurrentPeerAddress = addr
	existing.Connected = true
	existing.DisplayName = displayName
	existing.LastSeenAt = &now
	existing.UpdatedAt = now
	if signing != nil {
		existing.SigningKey = signing
	}
	if err := s.upsert(ctx, existing); err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

func (s *SQLiteContactStore) IsContact(ctx context.Context, pub domain.X25519Public) (bool, error) {
	_, ok, err := s.GetByPublicKey(ctx, pub)
	return ok, err
}

func (s *SQLiteContactStore) IsBlocked(ctx context.Context, hash domain.HashID) (bool, error) {
	c, ok, err := s.GetByHash(ctx, hash)
	if err != nil || !ok {
		return false, err
	}
	return c.Blocked, nil
}

// IsBlockedFingerprint scans contacts for a matching public-key
// fingerprint. SQLite has no built-in SHA-256, so fingerprints (computed
// from the decoded public key) can't be matched in SQL.
func (s *SQLiteContactStore) IsBlockedFingerprint(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	var rows []contactRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM contacts`); err != nil {
		return false, err
	}
	for _, r := range rows {
		if fingerprintOfHex(r.PublicKeyHex) == fp {
			return r.Blocked, nil
		}
	}
	return false, nil
}

func (s *SQLiteContactStore) GetByHash(ctx context.Context, hash domain.HashID) (domain.Contact, bool, error) {
	var r contactRow
	err := s.db.GetContext(ctx, &r, `SELECT * FROM contacts WHERE hash_id = ?`, string(hash))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, false, nil
	}
	if err != nil {
		return domain.Contact{}, false, err
	}
	c, err := r.toContact()
	return c, err == nil, err
}

func (s *SQLiteContactStore) GetByPublicKey(ctx context.Context, pub domain.X25519Public) (domain.Contact, bool, error) {
	var r contactRow
	err := s.db.GetContext(ctx, &r, `SELECT * FROM contacts WHERE public_key_hex = ?`, hex.EncodeToString(pub[:]))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, false, nil
	}
	if err != nil {
		return domain.Contact{}, false, err
	}
	c, err := r.toContact()
	return c, err == nil, err
}

func (s *SQLiteContactStore) GetByAddress(ctx context.Context, addr domain.PeerAddress) (domain.Contact, bool, error) {
	var r contactRow
	err := s.db.GetContext(ctx, &r, `SELECT * FROM contacts WHERE current_peer_address = ?`, string(addr))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, false, nil
	}
	if err != nil {
		return domain.Contact{}, false, err
	}
	c, err := r.toContact()
	return c, err == nil, err
}

func (s *SQLiteContactStore) SetFavorite(ctx context.Context, hash domain.HashID, fav bool) error {
	return s.update(ctx, hash, "favorite", fav)
}

func (s *SQLiteContactStore) SetBlocked(ctx context.Context, fp domain.Fingerprint, blocked bool) error {
	var rows []contactRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM contacts`); err != nil {
		return err
	}
	for _, r := range rows {
		if fingerprintOfHex(r.PublicKeyHex) == fp {
			return s.update(ctx, domain.HashID(r.HashID), "blocked", blocked)
		}
	}
	return ErrNotFound
}

func (s *SQLiteContactStore) SetTrusted(ctx context.Context, hash domain.HashID, trusted bool) error {
	return s.update(ctx, hash, "trusted", trusted)
}

func (s *SQLiteContactStore) SetGroups(ctx context.Context, hash domain.HashID, groups []string) error {
	b, err := json.Marshal(groups)
	if err != nil {
		return err
	}
	return s.update(ctx, hash, "groups_json", string(b))
}

func (s *SQLiteContactStore) SetVerificationMethod(ctx context.Context, hash domain.HashID, method domain.VerificationMethod) error {
	return s.update(ctx, hash, "verification_method", string(method))
}

func (s *SQLiteContactStore) UpdateDisplayName(ctx context.Context, hash domain.HashID, name string) error {
	return s.update(ctx, hash, "display_name", name)
}

func (s *SQLiteContactStore) UpdateCustomName(ctx context.Context, hash domain.HashID, name string) error {
	return s.update(ctx, hash, "custom_name", name)
}

func (s *SQLiteContactStore) IncrementUnread(ctx context.Context, hash domain.HashID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE contacts SET unread_count = unread_count + 1, updated_at = ? WHERE hash_id = ?`,
		time.Now().UnixMilli(), string(hash))
	if err != nil {
		return err
	}
	return s.checkAffected(ctx, res)
}

func (s *SQLiteContactStore) ClearUnread(ctx context.Context, hash domain.HashID) error {
	return s.update(ctx, hash, "unread_count", 0)
}

func (s *SQLiteContactStore) MarkDisconnected(ctx context.Context, addr domain.PeerAddress) error {
	res, err := s.db.ExecContext(ctx, `UPDATE contacts SET connected = 0, updated_at = ? WHERE current_peer_address = ?`,
		time.Now().UnixMilli(), string(addr))
	if err != nil {
		return err
	}
	_ = res
	s.notify(ctx)
	return nil
}

func (s *SQLiteContactStore) UpdateLastMessageAt(ctx context.Context, hash domain.HashID) error {
	return s.update(ctx, hash, "last_message_at", time.Now().UnixMilli())
}

// ListOrdered returns non-blocked contacts ordered
// favorite DESC, last_message_at DESC NULLS LAST, display_name ASC.
func (s *SQLiteContactStore) ListOrdered(ctx context.Context) ([]domain.Contact, error) {
	var rows []contactRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM contacts WHERE blocked = 0
		ORDER BY favorite DESC, (last_message_at IS NULL) ASC, last_message_at DESC, display_name ASC`)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Contact, 0, len(rows))
	for _, r := range rows {
		c, err := r.toContact()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ObserveAll emits the current snapshot immediately, then a fresh
// snapshot after every mutation, until ctx is cancelled.
func (s *SQLiteContactStore) ObserveAll(ctx context.Context) (<-chan []domain.Contact, error) {
	ch := make(chan []domain.Contact, 1)

	s.mu.Lock()
	s.observers = append(s.observers, ch)
	s.mu.Unlock()

	snap, err := s.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}
	ch <- snap

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o == ch {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

func (s *SQLiteContactStore) notify(ctx context.Context) {
	s.mu.Lock()
	obs := append([]chan []domain.Contact{}, s.observers...)
	s.mu.Unlock()
	if len(obs) == 0 {
		return
	}
	snap, err := s.ListOrdered(ctx)
	if err != nil {
		return
	}
	for _, ch := range obs {
		select {
		case ch <- snap:
		default:
			// Drop the stale pending snapshot and push the fresh one;
			// observers only ever need the latest state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (s *SQLiteContactStore) upsert(ctx context.Context, c domain.Contact) error {
	row, err := rowFromContact(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contacts (hash_id, public_key_hex, signing_key_hex, display_name, custom_name,
			trusted, blocked, favorite, groups_json, notes, verification_method, added_at,
			last_seen_at, last_message_at, unread_count, current_peer_address, connected, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(hash_id) DO UPDATE SET
			public_key_hex=excluded.public_key_hex, signing_key_hex=excluded.signing_key_hex,
			display_name=excluded.display_name, custom_name=excluded.custom_name,
			trusted=excluded.trusted, blocked=excluded.blocked, favorite=excluded.favorite,
			groups_json=excluded.groups_json, notes=excluded.notes,
			verification_method=excluded.verification_method, last_seen_at=excluded.last_seen_at,
			last_message_at=excluded.last_message_at, unread_count=excluded.unread_count,
			current_peer_address=excluded.current_peer_address, connected=excluded.connected,
			updated_at=excluded.updated_at`,
		row.HashID, row.PublicKeyHex, row.SigningKeyHex, row.DisplayName, row.CustomName,
		row.Trusted, row.Blocked, row.Favorite, row.GroupsJSON, row.Notes, row.VerificationMethod,
		row.AddedAt, row.LastSeenAt, row.LastMessageAt, row.UnreadCount, row.CurrentPeerAddress,
		row.Connected, row.UpdatedAt)
	return err
}

func (s *SQLiteContactStore) update(ctx context.Context, hash domain.HashID, column string, value any) error {
	query := fmt.Sprintf(`UPDATE contacts SET %s = ?, updated_at = ? WHERE hash_id = ?`, column)
	res, err := s.db.ExecContext(ctx, query, value, time.Now().UnixMilli(), string(hash))
	if err != nil {
		return err
	}
	if err := s.checkAffected(ctx, res); err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

func (s *SQLiteContactStore) checkAffected(ctx context.Context, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func fingerprintOfHex(pubKeyHex string) domain.Fingerprint {
	if strings.HasPrefix(pubKeyHex, placeholderKeyPrefix) {
		return ""
	}
	b, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return ""
	}
	return domain.Fingerprint(crypto.Fingerprint(b))
}

var _ domain.ContactStore = (*SQLiteContactStore)(nil)
