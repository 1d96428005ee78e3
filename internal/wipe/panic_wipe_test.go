package wipe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bitchat/internal/wipe"
)

type fakeKeystore struct {
	shredErr error
	shredded bool
}

func (k *fakeKeystore) GetOrCreate(ctx context.Context) ([32]byte, error) { return [32]byte{}, nil }
func (k *fakeKeystore) Shred(ctx context.Context) error {
	k.shredded = true
	return k.shredErr
}

func TestPanicWipe_Run_DeletesEverything_OK(t *testing.T) {
	dir := t.TempDir()

	dbPath := filepath.Join(dir, "db.sqlite")
	if err := os.WriteFile(dbPath, []byte("x"), 0o600); err != nil {
		t.Fatalf("write db file: %v", err)
	}
	if err := os.WriteFile(dbPath+"-wal", []byte("x"), 0o600); err != nil {
		t.Fatalf("write wal file: %v", err)
	}

	prefsDir := filepath.Join(dir, "prefs")
	if err := os.MkdirAll(prefsDir, 0o700); err != nil {
		t.Fatalf("mkdir prefs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(prefsDir, "settings.json"), []byte("{}"), 0o600); err != nil {
		t.Fatalf("write prefs file: %v", err)
	}

	cacheDir := filepath.Join(dir, "cache")
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		t.Fatalf("mkdir cache: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "blob"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write cache file: %v", err)
	}

	dataRoot := filepath.Join(dir, "data")
	if err := os.MkdirAll(filepath.Join(dataRoot, "nested"), 0o700); err != nil {
		t.Fatalf("mkdir data root: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataRoot, "nested", "file.dat"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write data file: %v", err)
	}

	ks := &fakeKeystore{}
	w := &wipe.PanicWipe{
		DBPath:    dbPath,
		PrefsDirs: []string{prefsDir},
		CacheDir:  cacheDir,
		DataRoot:  dataRoot,
		Keystore:  ks,
	}

	result := w.Run(context.Background())

	if !result.Success {
		t.Fatalf("expected success, got errors: %v", result.Errors)
	}
	if !ks.shredded {
		t.Fatal("expected the keystore to be shredded")
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("expected db file removed, stat err=%v", err)
	}
	if _, err := os.Stat(dbPath + "-wal"); !os.IsNotExist(err) {
		t.Fatalf("expected wal file removed, stat err=%v", err)
	}
	if _, err := os.Stat(prefsDir); !os.IsNotExist(err) {
		t.Fatalf("expected prefs dir removed, stat err=%v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Fatalf("expected cache dir removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(dataRoot, "nested", "file.dat")); !os.IsNotExist(err) {
		t.Fatalf("expected data file removed, stat err=%v", err)
	}
}

func TestPanicWipe_Run_MissingDBFile_NotAnError(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "missing.sqlite")

	w := &wipe.PanicWipe{DBPath: dbPath}
	result := w.Run(context.Background())

	if !result.Success {
		t.Fatalf("expected success when the db file never existed, got errors: %v", result.Errors)
	}
}

func TestPanicWipe_Run_KeystoreFailure_DoesNotStopOtherSteps(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		t.Fatalf("mkdir cache: %v", err)
	}

	ks := &fakeKeystore{shredErr: errors.New("key locked")}
	w := &wipe.PanicWipe{CacheDir: cacheDir, Keystore: ks}

	result := w.Run(context.Background())

	if result.Success {
		t.Fatal("expected failure to be reported when the keystore shred fails")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", result.Errors)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Fatalf("expected cache dir still removed despite keystore failure, stat err=%v", err)
	}
}
