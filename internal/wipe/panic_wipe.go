// Package wipe implements PanicWipe (spec.md §4.7): an ordered,
// failure-tolerant destruction of the local database, preferences,
// cache, and app-data files, finishing with the encrypted database key.
package wipe

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	domain "bitchat/internal/domain"
)

// PanicWipe sequentially destroys every piece of durable local state,
// continuing past individual step failures and accumulating them.
type PanicWipe struct {
	DB        *sqlx.DB
	DBPath    string
	PrefsDirs []string // preference namespace files/directories
	CacheDir  string
	DataRoot  string
	Keystore  domain.DBKeystore
	Log       zerolog.Logger // zero value is a no-op logger
}

// Run executes the six steps of spec.md §4.7 and returns the aggregated
// result. It must not block on network or radio; every step here is
// local filesystem/database work.
func (w *PanicWipe) Run(ctx context.Context) domain.WipeResult {
	start := time.Now()
	var deleted []string
	var errs []string

	record := func(item string, err error) {
		if err != nil {
			w.Log.Error().Err(err).Str("item", item).Msg("panic wipe step failed")
			errs = append(errs, item+": "+err.Error())
			return
		}
		deleted = append(deleted, item)
	}

	// 1. Close the database handle.
	if w.DB != nil {
		if err := w.DB.Close(); err != nil {
			w.Log.Error().Err(err).Msg("panic wipe: close db handle")
			errs = append(errs, "close db handle: "+err.Error())
		} else {
			deleted = append(deleted, "db handle")
		}
	}

	// 2. Delete the DB file and its ancillary files.
	if w.DBPath != "" {
		for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
			path := w.DBPath + suffix
			record(path, removeIfExists(path))
		}
	}

	// 3. Clear every known preferences namespace.
	for _, path := range w.PrefsDirs {
		record(path, os.RemoveAll(path))
	}

	// 4. Delete the cache directory recursively.
	if w.CacheDir != "" {
		record(w.CacheDir, os.RemoveAll(w.CacheDir))
	}

	// 5. Delete all non-directory files under the app's private data root.
	if w.DataRoot != "" {
		err := filepath.WalkDir(w.DataRoot, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			record(path, os.Remove(path))
			return nil
		})
		if err != nil {
			errs = append(errs, w.DataRoot+": "+err.Error())
		}
	}

	// 6. Shred the wrapped database key.
	if w.Keystore != nil {
		if err := w.Keystore.Shred(ctx); err != nil {
			w.Log.Error().Err(err).Msg("panic wipe: shred db key")
			errs = append(errs, "shred db key: "+err.Error())
		} else {
			deleted = append(deleted, "db key")
		}
	}

	result := domain.WipeResult{
		Success:      len(errs) == 0,
		DeletedItems: deleted,
		Errors:       errs,
		DurationMS:   time.Since(start).Milliseconds(),
	}
	w.Log.Info().Bool("success", result.Success).Int("deleted", len(deleted)).Int("errors", len(errs)).Msg("panic wipe complete")
	return result
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
