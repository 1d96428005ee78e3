package store_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"bitchat/internal/crypto"
	domain "bitchat/internal/domain"
	"bitchat/internal/store"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := store.EnsureSchema(db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func TestContactStore_AddFromPeer_GetByHash_OK(t *testing.T) {
	db := openTestDB(t)
	cs := store.NewSQLiteContactStore(db)
	ctx := context.Background()

	var pub domain.X25519Public
	pub[0] = 7

	c, err := cs.AddFromPeer(ctx, pub, nil, "alice", domain.PeerAddress("addr-1"), true, domain.VerificationQR)
	if err != nil {
		t.Fatalf("add from peer: %v", err)
	}

	got, ok, err := cs.GetByHash(ctx, c.HashID)
	if err != nil || !ok {
		t.Fatalf("get by hash: ok=%v err=%v", ok, err)
	}
	if got.DisplayName != "alice" || got.PublicKey != pub {
		t.Fatalf("mismatch: %+v", got)
	}
}

func TestContactStore_AddByHashID_Placeholder_Fails(t *testing.T) {
	db := openTestDB(t)
	cs := store.NewSQLiteContactStore(db)
	ctx := context.Background()

	hash := domain.HashID("deadbeef")
	c, err := cs.AddByHashID(ctx, hash, "bob", domain.VerificationManual)
	if err != nil {
		t.Fatalf("add by hash: %v", err)
	}
	if c.HasPublicKey() {
		t.Fatalf("placeholder contact should have no public key")
	}

	_, err = cs.AddByHashID(ctx, hash, "bob again", domain.VerificationManual)
	if err != store.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestContactStore_SetBlocked_ByFingerprint_OK(t *testing.T) {
	db := openTestDB(t)
	cs := store.NewSQLiteContactStore(db)
	ctx := context.Background()

	var pub domain.X25519Public
	pub[0] = 42
	c, err := cs.AddFromPeer(ctx, pub, nil, "carol", domain.PeerAddress("addr-2"), false, domain.VerificationInPerson)
	if err != nil {
		t.Fatalf("add from peer: %v", err)
	}

	fp := domain.Fingerprint(crypto.Fingerprint(pub.Slice()))
	if err := cs.SetBlocked(ctx, fp, true); err != nil {
		t.Fatalf("set blocked: %v", err)
	}

	blocked, err := cs.IsBlockedFingerprint(ctx, fp)
	if err != nil || !blocked {
		t.Fatalf("expected blocked=true, got %v (err=%v)", blocked, err)
	}

	got, ok, err := cs.GetByHash(ctx, c.HashID)
	if err != nil || !ok || !got.Blocked {
		t.Fatalf("contact should be blocked: %+v", got)
	}
}

func TestContactStore_ListOrdered_FavoritesFirst_OK(t *testing.T) {
	db := openTestDB(t)
	cs := store.NewSQLiteContactStore(db)
	ctx := context.Background()

	var p1, p2 domain.X25519Public
	p1[0], p2[0] = 1, 2

	a, _ := cs.AddFromPeer(ctx, p1, nil, "zed", domain.PeerAddress("z"), false, domain.VerificationManual)
	_, _ = cs.AddFromPeer(ctx, p2, nil, "amy", domain.PeerAddress("a"), false, domain.VerificationManual)

	if err := cs.SetFavorite(ctx, a.HashID, true); err != nil {
		t.Fatalf("set favorite: %v", err)
	}

	list, err := cs.ListOrdered(ctx)
	if err != nil {
		t.Fatalf("list ordered: %v", err)
	}
	if len(list) != 2 || list[0].DisplayName != "zed" {
		t.Fatalf("expected favorite first, got %+v", list)
	}
}
