package interfaces

import (
	"context"

	domaintypes "bitchat/internal/domain/types"
)

// ContactStore is the durable set of known identities with trust/block/
// favorite flags and live-peer metadata (spec.md §4.2). Every operation is
// suspending and runs on an I/O worker; mutators are atomic against
// concurrent readers and return local errors (NotFound, InvalidInput) that
// never propagate to the UI thread unprompted.
type ContactStore interface {
	AddByHashID(ctx context.Context, hash domaintypes.HashID, customName string, method domaintypes.VerificationMethod) (domaintypes.Contact, error)
	AddFromPeer(ctx context.Context, pub domaintypes.X25519Public, signing *domaintypes.Ed25519Public, displayName string, addr domaintypes.PeerAddress, trusted bool, method domaintypes.VerificationMethod) (domaintypes.Contact, error)
	SyncWithPeer(ctx context.Context, addr domaintypes.PeerAddress, pub domaintypes.X25519Public, signing *domaintypes.Ed25519Public, displayName string) error

	IsContact(ctx context.Context, pub domaintypes.X25519Public) (bool, error)
	IsBlocked(ctx context.Context, hash domaintypes.HashID) (bool, error)
	IsBlockedFingerprint(ctx context.Context, fp domaintypes.Fingerprint) (bool, error)

	GetByHash(ctx context.Context, hash domaintypes.HashID) (domaintypes.Contact, bool, error)
	GetByPublicKey(ctx context.Context, pub domaintypes.X25519Public) (domaintypes.Contact, bool, error)
	GetByAddress(ctx context.Context, addr domaintypes.PeerAddress) (domaintypes.Contact, bool, error)

	SetFavorite(ctx context.Context, hash domaintypes.HashID, fav bool) error
	SetBlocked(ctx context.Context, fp domaintypes.Fingerprint, blocked bool) error
	SetTrusted(ctx context.Context, hash domaintypes.HashID, trusted bool) error
	SetGroups(ctx context.Context, hash domaintypes.HashID, groups []string) error
	SetVerificationMethod(ctx context.Context, hash domaintypes.HashID, method domaintypes.VerificationMethod) error
	UpdateDisplayName(ctx context.Context, hash domaintypes.HashID, name string) error
	UpdateCustomName(ctx context.Context, hash domaintypes.HashID, name string) error
	IncrementUnread(ctx context.Context, hash domaintypes.HashID) error
	ClearUnread(ctx context.Context, hash domaintypes.HashID) error
	MarkDisconnected(ctx context.Context, addr domaintypes.PeerAddress) error
	UpdateLastMessageAt(ctx context.Context, hash domaintypes.HashID) error

	// ListOrdered returns all non-blocked contacts ordered per spec.md §4.2:
	// favorite DESC, last_message_at DESC NULLS LAST, display_name ASC.
	ListOrdered(ctx context.Context) ([]domaintypes.Contact, error)

	// ObserveAll emits the current snapshot immediately, then a fresh
	// snapshot after every mutation, until ctx is cancelled.
	ObserveAll(ctx context.Context) (<-chan []domaintypes.Contact, error)
}

// MessageStore is the durable per-conversation message log with cap and
// retention (spec.md §4.3). All writes are gated by the persistence
// toggle: when disabled, reads return empty and writes are silently
// dropped.
type MessageStore interface {
	Save(ctx context.Context, peer domaintypes.PeerAddress, msg domaintypes.Message) error
	SaveBatch(ctx context.Context, peer domaintypes.PeerAddress, msgs []domaintypes.Message) error
	Load(ctx context.Context, peer domaintypes.PeerAddress) ([]domaintypes.Message, error)
	LoadPaginated(ctx context.Context, peer domaintypes.PeerAddress, limit, offset int) ([]domaintypes.Message, error)
	UpdateStatus(ctx context.Context, msgID string, peer domaintypes.PeerAddress, status domaintypes.DeliveryStatus) error
	DeleteConversation(ctx context.Context, peer domaintypes.PeerAddress) (int, error)
	DeleteAll(ctx context.Context) (int, error)
	Search(ctx context.Context, query string, peer *domaintypes.PeerAddress) ([]domaintypes.Message, error)
	ApplyRetention(ctx context.Context, maxAge int) (int, error)
	SetPersistenceEnabled(enabled bool)
}

// DBKeystore protects the message/contact database at rest (spec.md §4.4).
// The key never touches unencrypted on-disk storage.
type DBKeystore interface {
	GetOrCreate(ctx context.Context) ([32]byte, error)
	Shred(ctx context.Context) error
}

// IdentityStore persists the local long-lived Identity, sealed at rest
// under a user passphrase. Bootstrap plumbing every other module assumes
// has already run.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}

// AccountStore persists per-relay account profiles (server URL, username,
// canary). It is constructed by the app wiring; no code in this module
// reads or writes profiles through it or compares stored canaries.
type AccountStore interface {
	SaveAccountProfile(ctx context.Context, profile domaintypes.AccountProfile) error
	LoadAccountProfile(ctx context.Context, serverURL string, username domaintypes.RelayUsername) (domaintypes.AccountProfile, bool, error)
}
