package conversation

import (
	"context"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	domain "bitchat/internal/domain"
	"bitchat/internal/crypto"
)

// ErrBlockedPeer is returned by StartPrivateChat when addr's fingerprint
// is recorded as blocked.
var ErrBlockedPeer = errors.New("conversation: peer is blocked")

const nostrTempPrefix = "nostr_"

// Engine is the ConversationEngine (spec.md §4.5): an in-memory
// conversations map keyed by PeerAddress, plus the unread set and pending
// read-receipt queue. It holds Sender and HandshakeEngine as capabilities
// rather than owning transport, and persists through ContactStore and
// MessageStore.
type Engine struct {
	mu              sync.Mutex
	conversations   map[domain.PeerAddress][]domain.Message
	unread          map[domain.PeerAddress]struct{}
	pendingReceipts map[domain.PeerAddress][]string
	selected        *domain.PeerAddress

	contacts  domain.ContactStore
	messages  domain.MessageStore
	sender    domain.Sender
	handshake domain.HandshakeEngine
	myAddr    domain.PeerAddress
	log       zerolog.Logger
}

// WithLogger returns e with log set, for diagnosing persistence failures.
func (e *Engine) WithLogger(log zerolog.Logger) *Engine {
	e.log = log
	return e
}

// persist saves msg to the backing MessageStore, logging (never
// returning) any failure — a dropped persist must not block delivery
// or unread-state bookkeeping.
func (e *Engine) persist(ctx context.Context, addr domain.PeerAddress, msg domain.Message) {
	if e.messages == nil {
		return
	}
	if err := e.messages.Save(ctx, addr, msg); err != nil {
		e.log.Warn().Err(err).Str("peer", string(addr)).Str("id", msg.ID).Msg("failed to persist message")
	}
}

// New wires a ConversationEngine over its stores and capabilities.
// myAddr is this process's own mesh peer address, used for the
// handshake-initiator tie-break (spec.md §4.5.7).
func New(contacts domain.ContactStore, messages domain.MessageStore, sender domain.Sender, handshake domain.HandshakeEngine, myAddr domain.PeerAddress) *Engine {
	return &Engine{
		conversations:   make(map[domain.PeerAddress][]domain.Message),
		unread:          make(map[domain.PeerAddress]struct{}),
		pendingReceipts: make(map[domain.PeerAddress][]string),
		contacts:        contacts,
		messages:        messages,
		sender:          sender,
		handshake:       handshake,
		myAddr:          myAddr,
	}
}

// Insert appends msg to addr's conversation without sanitizing.
// HandleIncoming calls it once per incoming message and sanitizes
// afterwards (spec.md §4.5.4).
func (e *Engine) Insert(addr domain.PeerAddress, msg domain.Message) {
	e.mu.Lock()
	e.conversations[addr] = append(e.conversations[addr], msg)
	e.mu.Unlock()
}

// Snapshot returns a copy of addr's conversation, safe for a reader to
// retain without blocking writers.
func (e *Engine) Snapshot(addr domain.PeerAddress) []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Message(nil), e.conversations[addr]...)
}

// IsUnread reports whether addr has an outstanding unread message.
func (e *Engine) IsUnread(addr domain.PeerAddress) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.unread[addr]
	return ok
}

// Sanitize dedups addr's conversation by id (first occurrence kept) and
// sorts the remainder by timestamp ascending.
func (e *Engine) Sanitize(addr domain.PeerAddress) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sanitizeLocked(addr)
}

func (e *Engine) sanitizeLocked(addr domain.PeerAddress) {
	msgs := e.conversations[addr]
	seen := make(map[string]bool, len(msgs))
	deduped := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		deduped = append(deduped, m)
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Timestamp.Before(deduped[j].Timestamp)
	})
	e.conversations[addr] = deduped
}

// Consolidate merges every conversation whose messages reference
// displayName (as sender or recipient nickname) into target, then
// sanitizes the union and transfers unread state. Idempotent: re-running
// with the same inputs is a no-op beyond the first call.
func (e *Engine) Consolidate(target domain.PeerAddress, displayName string) []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	var sourceAddrs []domain.PeerAddress
	union := append([]domain.Message(nil), e.conversations[target]...)

	for addr, msgs := range e.conversations {
		if addr == target {
			continue
		}
		matches := false
		for _, m := range msgs {
			if m.SenderDisplay == displayName || m.RecipientNickname == displayName {
				matches = true
				break
			}
		}
		if matches {
			sourceAddrs = append(sourceAddrs, addr)
			union = append(union, msgs...)
		}
	}

	e.conversations[target] = union
	e.sanitizeLocked(target)
	for _, addr := range sourceAddrs {
		delete(e.conversations, addr)
	}

	anyUnread := false
	for _, addr := range sourceAddrs {
		if _, ok := e.unread[addr]; ok {
			anyUnread = true
			delete(e.unread, addr)
		}
	}
	if anyUnread {
		e.unread[target] = struct{}{}
	}
	delete(e.pendingReceipts, target)

	return append([]domain.Message(nil), e.conversations[target]...)
}

// mergeNostrTemp folds any "nostr_<pubhex16>" scratch conversation whose
// identity is known (via the contact store) to belong to target into it.
func (e *Engine) mergeNostrTemp(ctx context.Context, target domain.PeerAddress) error {
	e.mu.Lock()
	var nostrKeys []domain.PeerAddress
	for addr := range e.conversations {
		if strings.HasPrefix(string(addr), nostrTempPrefix) {
			nostrKeys = append(nostrKeys, addr)
		}
	}
	e.mu.Unlock()

	targetContact, ok, err := e.contacts.GetByAddress(ctx, target)
	if err != nil || !ok {
		return err
	}

	targetHex := hex.EncodeToString(targetContact.PublicKey.Slice())
	for _, nostrAddr := range nostrKeys {
		pubHex := strings.TrimPrefix(string(nostrAddr), nostrTempPrefix)
		if !strings.HasPrefix(targetHex, pubHex) {
			continue
		}
		e.mu.Lock()
		msgs := e.conversations[nostrAddr]
		e.conversations[target] = append(e.conversations[target], msgs...)
		delete(e.conversations, nostrAddr)
		e.sanitizeLocked(target)
		e.mu.Unlock()
	}
	return nil
}

// StartPrivateChat implements the state transitions of spec.md §4.5.3.
func (e *Engine) StartPrivateChat(ctx context.Context, addr domain.PeerAddress) error {
	blocked, err := e.isBlocked(ctx, addr)
	if err != nil {
		return err
	}
	if blocked {
		e.appendSystemMessage(addr, "this contact is blocked")
		return ErrBlockedPeer
	}

	if err := e.ensureHandshake(ctx, addr); err != nil {
		return err
	}

	if contact, ok, err := e.contacts.GetByAddress(ctx, addr); err == nil && ok && contact.DisplayName != "" {
		e.Consolidate(addr, contact.DisplayName)
	}
	if err := e.mergeNostrTemp(ctx, addr); err != nil {
		return err
	}
	e.Sanitize(addr)

	e.mu.Lock()
	e.selected = &addr
	delete(e.unread, addr)
	e.mu.Unlock()

	persisted, err := e.messages.Load(ctx, addr)
	if err != nil {
		return err
	}
	if len(persisted) > 0 {
		e.mu.Lock()
		e.conversations[addr] = append(e.conversations[addr], persisted...)
		e.sanitizeLocked(addr)
		e.mu.Unlock()
	}

	e.drainReadReceipts(addr)
	return nil
}

// HandleIncoming applies spec.md §4.5.4's mesh/relay-origin handling.
func (e *Engine) HandleIncoming(ctx context.Context, msg domain.Message, suppressUnread bool) error {
	if msg.SenderPeerAddress != "" {
		blocked, err := e.isBlocked(ctx, msg.SenderPeerAddress)
		if err != nil {
			return err
		}
		if blocked {
			return nil
		}

		addr := msg.SenderPeerAddress
		e.Insert(addr, msg)
		e.Sanitize(addr)
		e.persist(ctx, addr, msg)

		e.mu.Lock()
		isSelected := e.selected != nil && *e.selected == addr
		e.mu.Unlock()
		if !isSelected && !suppressUnread {
			e.mu.Lock()
			e.pendingReceipts[addr] = append(e.pendingReceipts[addr], msg.ID)
			e.unread[addr] = struct{}{}
			e.mu.Unlock()
		}
		return nil
	}

	e.mu.Lock()
	target := e.selected
	e.mu.Unlock()
	if target == nil {
		return nil
	}
	e.Insert(*target, msg)
	e.Sanitize(*target)
	e.persist(ctx, *target, msg)
	return nil
}

// drainReadReceipts emits one read receipt per pending message id for
// addr, then clears the unread/pending state. Per-receipt failures are
// discarded and never stop the remaining receipts.
func (e *Engine) drainReadReceipts(addr domain.PeerAddress) {
	e.mu.Lock()
	ids := e.pendingReceipts[addr]
	delete(e.pendingReceipts, addr)
	delete(e.unread, addr)
	e.mu.Unlock()

	if e.sender == nil {
		return
	}
	for _, id := range ids {
		_ = e.sender.SendReadReceipt(addr, id)
	}
}

// ensureHandshake implements the initiator tie-break of spec.md §4.5.7.
func (e *Engine) ensureHandshake(ctx context.Context, addr domain.PeerAddress) error {
	if e.handshake == nil || e.handshake.HasSession(addr) {
		return nil
	}
	if e.myAddr < addr {
		return e.handshake.InitiateHandshake(ctx, addr)
	}
	if e.sender != nil {
		_ = e.sender.SendAnnounce(addr)
	}
	return e.handshake.InitiateHandshake(ctx, addr)
}

// appendSystemMessage records a local-only system notice in addr's
// conversation; it is never sent over the wire.
func (e *Engine) appendSystemMessage(addr domain.PeerAddress, content string) {
	e.mu.Lock()
	e.conversations[addr] = append(e.conversations[addr], domain.Message{
		ID:        "system-" + string(addr) + "-" + time.Now().Format(time.RFC3339Nano),
		Content:   content,
		Timestamp: time.Now(),
		Status:    domain.Sent(),
	})
	e.mu.Unlock()
}

func (e *Engine) isBlocked(ctx context.Context, addr domain.PeerAddress) (bool, error) {
	contact, ok, err := e.contacts.GetByAddress(ctx, addr)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return contact.Blocked, nil
}

// Block records the block against fp so it survives address rotation. If
// the currently selected address belongs to the contact with fingerprint
// fp, the selection is cleared and a system message is appended.
func (e *Engine) Block(ctx context.Context, fp domain.Fingerprint) error {
	if err := e.contacts.SetBlocked(ctx, fp, true); err != nil {
		return err
	}
	e.mu.Lock()
	selected := e.selected
	e.mu.Unlock()
	if selected != nil {
		addr := *selected
		contact, ok, _ := e.contacts.GetByAddress(ctx, addr)
		if ok && matchesFingerprint(contact, fp) {
			e.mu.Lock()
			e.selected = nil
			e.mu.Unlock()
			e.appendSystemMessage(addr, "this contact is blocked")
		}
	}
	return nil
}

// Unblock reverses Block.
func (e *Engine) Unblock(ctx context.Context, fp domain.Fingerprint) error {
	return e.contacts.SetBlocked(ctx, fp, false)
}

func matchesFingerprint(c domain.Contact, fp domain.Fingerprint) bool {
	return domain.Fingerprint(crypto.Fingerprint(c.PublicKey.Slice())) == fp
}

func (e *Engine) applyStatus(addr domain.PeerAddress, id string, status domain.DeliveryStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	msgs := e.conversations[addr]
	for i, m := range msgs {
		if m.ID != id {
			continue
		}
		if domain.Advances(m.Status, status) {
			msgs[i].Status = status
		}
		return
	}
}

// OnPrivateMessage implements domain.InboundSink for messages arriving
// over the mesh/handshake layer.
func (e *Engine) OnPrivateMessage(msg domain.Message) {
	_ = e.HandleIncoming(context.Background(), msg, false)
}

// OnDelivery implements domain.InboundSink.
func (e *Engine) OnDelivery(peer domain.PeerAddress, msgID string, at int64) {
	e.applyStatus(peer, msgID, domain.Delivered(peer, time.UnixMilli(at)))
}

// OnRead implements domain.InboundSink.
func (e *Engine) OnRead(peer domain.PeerAddress, msgID string, at int64) {
	e.applyStatus(peer, msgID, domain.Read(peer, time.UnixMilli(at)))
}

var _ domain.InboundSink = (*Engine)(nil)
