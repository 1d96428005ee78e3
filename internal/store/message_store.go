package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	domain "bitchat/internal/domain"
)

// SQLiteMessageStore is the SQLite-backed domain.MessageStore (spec.md
// §4.3), persisted per the §6 schema. Writes are gated by a persistence
// toggle: disabled means reads return empty and writes are silently
// dropped, mirroring bitchat's "don't save history" preference.
type SQLiteMessageStore struct {
	db  *sqlx.DB
	cap int

	mu      sync.RWMutex
	enabled bool
}

// NewSQLiteMessageStore wraps an already-open *sqlx.DB. cap is the
// per-conversation message cap (spec.md default 1000); 0 disables capping.
func NewSQLiteMessageStore(db *sqlx.DB, cap int) *SQLiteMessageStore {
	return &SQLiteMessageStore{db: db, cap: cap, enabled: true}
}

type messageRow struct {
	ID                  string         `db:"id"`
	PeerAddress         string         `db:"peer_address"`
	Sender              string         `db:"sender"`
	Content             string         `db:"content"`
	TimestampMillis     int64          `db:"timestamp_millis"`
	IsPrivate           bool           `db:"is_private"`
	DeliveryStatusText  string         `db:"delivery_status_text"`
	RecipientNickname   sql.NullString `db:"recipient_nickname"`
	SenderPeerAddress   sql.NullString `db:"sender_peer_address"`
	EncryptedBlob       []byte         `db:"encrypted_blob"`
	IsEncryptedFlag     bool           `db:"is_encrypted_flag"`
}

func rowFromMessage(peer domain.PeerAddress, m domain.Message) messageRow {
	return messageRow{
		ID:                 m.ID,
		PeerAddress:        string(peer),
		Sender:             m.SenderDisplay,
		Content:            m.Content,
		TimestampMillis:    m.Timestamp.UnixMilli(),
		IsPrivate:          m.IsPrivate,
		DeliveryStatusText: m.Status.Encode(),
		RecipientNickname:  sql.NullString{String: m.RecipientNickname, Valid: m.RecipientNickname != ""},
		SenderPeerAddress:  sql.NullString{String: string(m.SenderPeerAddress), Valid: m.SenderPeerAddress != ""},
		EncryptedBlob:      m.EncryptedBlob,
		IsEncryptedFlag:    len(m.EncryptedBlob) > 0,
	}
}

func (r messageRow) toMessage() (domain.Message, error) {
	status, err := domain.DecodeDeliveryStatus(r.DeliveryStatusText)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:                r.ID,
		SenderDisplay:     r.Sender,
		Content:           r.Content,
		Timestamp:         time.UnixMilli(r.TimestampMillis),
		IsPrivate:         r.IsPrivate,
		RecipientNickname: r.RecipientNickname.String,
		SenderPeerAddress: domain.PeerAddress(r.SenderPeerAddress.String),
		Status:            status,
		EncryptedBlob:     r.EncryptedBlob,
	}, nil
}

func (s *SQLiteMessageStore) SetPersistenceEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
}

func (s *SQLiteMessageStore) isEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

func (s *SQLiteMessageStore) Save(ctx context.Context, peer domain.PeerAddress, msg domain.Message) error {
	if !s.isEnabled() {
		return nil
	}
	row := rowFromMessage(peer, msg)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, peer_address, sender, content, timestamp_millis, is_private,
			delivery_status_text, recipient_nickname, sender_peer_address, encrypted_blob, is_encrypted_flag)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET delivery_status_text=excluded.delivery_status_text`,
		row.ID, row.PeerAddress, row.Sender, row.Content, row.TimestampMillis, row.IsPrivate,
		row.DeliveryStatusText, row.RecipientNickname, row.SenderPeerAddress, row.EncryptedBlob, row.IsEncryptedFlag); err != nil {
		return err
	}
	return s.enforceCap(ctx, peer)
}

func (s *SQLiteMessageStore) SaveBatch(ctx context.Context, peer domain.PeerAddress, msgs []domain.Message) error {
	if !s.isEnabled() || len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, msg := range msgs {
		row := rowFromMessage(peer, msg)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, peer_address, sender, content, timestamp_millis, is_private,
				delivery_status_text, recipient_nickname, sender_peer_address, encrypted_blob, is_encrypted_flag)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(id) DO UPDATE SET delivery_status_text=excluded.delivery_status_text`,
			row.ID, row.PeerAddress, row.Sender, row.Content, row.TimestampMillis, row.IsPrivate,
			row.DeliveryStatusText, row.RecipientNickname, row.SenderPeerAddress, row.EncryptedBlob, row.IsEncryptedFlag); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return s.enforceCap(ctx, peer)
}

func (s *SQLiteMessageStore) Load(ctx context.Context, peer domain.PeerAddress) ([]domain.Message, error) {
	if !s.isEnabled() {
		return nil, nil
	}
	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM messages WHERE peer_address = ? ORDER BY timestamp_millis ASC, id ASC`, string(peer)); err != nil {
		return nil, err
	}
	return toMessages(rows)
}

func (s *SQLiteMessageStore) LoadPaginated(ctx context.Context, peer domain.PeerAddress, limit, offset int) ([]domain.Message, error) {
	if !s.isEnabled() {
		return nil, nil
	}
	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM messages WHERE peer_address = ?
		ORDER BY timestamp_millis DESC, id DESC LIMIT ? OFFSET ?`, string(peer), limit, offset); err != nil {
		return nil, err
	}
	msgs, err := toMessages(rows)
	if err != nil {
		return nil, err
	}
	// Paginated reads page backward from most-recent; callers expect each
	// page itself in chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *SQLiteMessageStore) UpdateStatus(ctx context.Context, msgID string, peer domain.PeerAddress, status domain.DeliveryStatus) error {
	if !s.isEnabled() {
		return nil
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE messages SET delivery_status_text = ? WHERE id = ? AND peer_address = ?`,
		status.Encode(), msgID, string(peer))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteMessageStore) DeleteConversation(ctx context.Context, peer domain.PeerAddress) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE peer_address = ?`, string(peer))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteMessageStore) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteMessageStore) Search(ctx context.Context, query string, peer *domain.PeerAddress) ([]domain.Message, error) {
	if !s.isEnabled() {
		return nil, nil
	}
	like := "%" + query + "%"
	var rows []messageRow
	var err error
	if peer != nil {
		err = s.db.SelectContext(ctx, &rows, `
			SELECT * FROM messages WHERE peer_address = ? AND content LIKE ?
			ORDER BY timestamp_millis ASC, id ASC`, string(*peer), like)
	} else {
		err = s.db.SelectContext(ctx, &rows, `
			SELECT * FROM messages WHERE content LIKE ?
			ORDER BY timestamp_millis ASC, id ASC`, like)
	}
	if err != nil {
		return nil, err
	}
	return toMessages(rows)
}

// ApplyRetention deletes messages older than maxAge days and reports how
// many rows were removed.
func (s *SQLiteMessageStore) ApplyRetention(ctx context.Context, maxAge int) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -maxAge).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE timestamp_millis < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// enforceCap deletes the oldest messages in peer's conversation beyond
// s.cap, tie-breaking by id when timestamps collide.
func (s *SQLiteMessageStore) enforceCap(ctx context.Context, peer domain.PeerAddress) error {
	if s.cap <= 0 {
		return nil
	}
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE peer_address = ?`, string(peer)); err != nil {
		return err
	}
	excess := count - s.cap
	if excess <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE id IN (
			SELECT id FROM messages WHERE peer_address = ?
			ORDER BY timestamp_millis ASC, id ASC LIMIT ?
		)`, string(peer), excess)
	return err
}

func toMessages(rows []messageRow) ([]domain.Message, error) {
	out := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		m, err := r.toMessage()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

var _ domain.MessageStore = (*SQLiteMessageStore)(nil)
