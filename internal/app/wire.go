package app

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"bitchat/internal/conversation"
	"bitchat/internal/crypto"
	domain "bitchat/internal/domain"
	"bitchat/internal/handshake"
	"bitchat/internal/identity"
	"bitchat/internal/logging"
	"bitchat/internal/mesh"
	"bitchat/internal/relay"
	"bitchat/internal/store"
	"bitchat/internal/transport"
	"bitchat/internal/wipe"
)

const dbFilename = "bitchat.db"

// Wire bundles every store, service, and engine bitchat's commands need.
// NewWire builds the identity-independent half of the graph; Unlock (or
// Generate) completes it once the local identity is available.
type Wire struct {
	cfg    Config
	dbPath string
	Log    zerolog.Logger

	IdentityStore domain.IdentityStore
	IdentitySvc   *identity.Service
	AccountStore  domain.AccountStore

	DB       *sqlx.DB
	Keystore domain.DBKeystore
	Contacts domain.ContactStore
	Messages domain.MessageStore

	PreKeys  domain.PreKeyStore
	Bundles  domain.PreKeyBundleStore
	Sessions domain.HandshakeSessionStore
	Ratchets domain.RatchetStore

	Relay     domain.RelayOverlay
	relayHTTP *relay.HTTP

	Handshake    domain.HandshakeEngine
	Conversation *conversation.Engine
	Pipeline     *conversation.SendPipeline
	Router       *transport.Router
	Wipe         *wipe.PanicWipe

	Identity    domain.Identity
	Fingerprint domain.Fingerprint
}

// NewWire constructs every dependency that doesn't require the identity
// passphrase: file stores, the SQLite contact/message stores, and the
// handshake's supporting key stores.
func NewWire(cfg Config) (*Wire, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(cfg.Home, dbFilename)
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(db); err != nil {
		return nil, err
	}

	cap := cfg.MessageCap
	if cap == 0 {
		cap = cfg.Toggles.MessageCap
	}
	if cap == 0 {
		cap = domain.DefaultConfig().MessageCap
	}

	messages := store.NewSQLiteMessageStore(db, cap)
	messages.SetPersistenceEnabled(cfg.Toggles.PersistenceEnabled)

	return &Wire{
		cfg:    cfg,
		dbPath: dbPath,
		Log:    logging.New(cfg.LogLevel),

		IdentityStore: store.NewIdentityFileStore(cfg.Home),
		IdentitySvc:   identity.New(store.NewIdentityFileStore(cfg.Home)),
		AccountStore:  store.NewAccountFileStore(cfg.Home),

		DB:       db,
		Keystore: store.NewFileDBKeystore(cfg.Home),
		Contacts: store.NewSQLiteContactStore(db),
		Messages: messages,

		PreKeys:  handshake.NewPreKeyFileStore(cfg.Home),
		Bundles:  handshake.NewPreKeyBundleFileStore(cfg.Home),
		Sessions: handshake.NewHandshakeSessionFileStore(cfg.Home),
		Ratchets: handshake.NewRatchetFileStore(cfg.Home),
	}, nil
}

// Unlock completes the dependency graph against an already-persisted
// identity, decrypted with passphrase.
func (w *Wire) Unlock(passphrase string) error {
	id, err := w.IdentitySvc.LoadIdentity(passphrase)
	if err != nil {
		return err
	}
	return w.finishWiring(id)
}

// Generate creates a fresh identity sealed under passphrase and completes
// the dependency graph against it.
func (w *Wire) Generate(passphrase string) error {
	id, _, err := w.IdentitySvc.GenerateIdentity(passphrase)
	if err != nil {
		return err
	}
	return w.finishWiring(id)
}

func (w *Wire) finishWiring(id domain.Identity) error {
	w.Identity = id
	w.Fingerprint = domain.Fingerprint(crypto.Fingerprint(id.XPub.Slice()))

	hsEngine := handshake.NewEngine(id, w.Bundles, w.PreKeys, w.Sessions, w.Ratchets)
	w.Handshake = hsEngine

	selfHex := hex.EncodeToString(id.XPub.Slice())
	rc := relay.NewHTTP(w.cfg.RelayURL, selfHex, 2*time.Second)
	if w.cfg.HTTP != nil {
		rc.HTTP = w.cfg.HTTP
	}
	w.relayHTTP = rc
	w.Relay = rc

	sender := mesh.New(hsEngine, rc, w.Contacts, w.cfg.Nickname, selfHex)

	myAddr := domain.PeerAddress(w.cfg.MyPeerAddress)
	engine := conversation.New(w.Contacts, w.Messages, sender, hsEngine, myAddr).WithLogger(w.Log)
	w.Conversation = engine
	w.Pipeline = conversation.NewSendPipeline(engine)

	mesh.NewListener(hsEngine, w.Contacts, engine).WithLogger(w.Log).Attach(rc)

	if days := w.cfg.Toggles.MessageRetentionDays; days > 0 {
		if _, err := w.Messages.ApplyRetention(context.Background(), days); err != nil {
			w.Log.Warn().Err(err).Msg("applying message retention at startup")
		}
	}

	w.Router = transport.NewRouter()

	w.Wipe = &wipe.PanicWipe{
		DB:     w.DB,
		DBPath: w.dbPath,
		PrefsDirs: []string{
			filepath.Join(w.cfg.Home, "identity.json.enc"),
			filepath.Join(w.cfg.Home, "accounts.json"),
			filepath.Join(w.cfg.Home, "handshake_spk.json"),
			filepath.Join(w.cfg.Home, "handshake_opk.json"),
			filepath.Join(w.cfg.Home, "handshake_prekey_meta.json"),
			filepath.Join(w.cfg.Home, "handshake_bundles.json"),
			filepath.Join(w.cfg.Home, "handshake_sessions.json"),
			filepath.Join(w.cfg.Home, "handshake_ratchets.json"),
		},
		CacheDir: filepath.Join(w.cfg.Home, "cache"),
		DataRoot: w.cfg.Home,
		Keystore: w.Keystore,
		Log:      w.Log,
	}

	return nil
}

// RunRelay polls the relay for inbound envelopes until ctx is cancelled.
// Call Unlock or Generate first.
func (w *Wire) RunRelay(ctx context.Context) error {
	return w.relayHTTP.Run(ctx)
}
