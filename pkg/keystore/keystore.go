// Package keystore holds the key-to-files table the bot serves from.
// The table is an immutable value behind an atomic pointer: reloads
// build a fresh table and swap it in whole, so a lookup racing a reload
// sees either the old or the new table, never a mix.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/models"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/sheets"
)

// ErrSourceUnavailable wraps any spreadsheet failure (credentials,
// network, malformed schema). The previous table is kept in that case.
var ErrSourceUnavailable = errors.New("sheet source unavailable")

// Snapshot is the optional local write-through cache of the last good
// load. A nil snapshot disables caching entirely.
type Snapshot interface {
	Save(rows []models.KeyRow, loadedAt time.Time) error
	Load() ([]models.KeyRow, time.Time, error)
}

type table struct {
	keys     map[string][]models.FileRef
	rows     int
	loadedAt time.Time
}

// Store maps normalized keys to ordered file lists.
type Store struct {
	src  sheets.RowSource
	snap Snapshot
	tab  atomic.Pointer[table]
}

// New builds an empty store reading from src. snap may be nil.
func New(src sheets.RowSource, snap Snapshot) *Store {
	s := &Store{src: src, snap: snap}
	s.tab.Store(&table{keys: map[string][]models.FileRef{}})
	return s
}

// Normalize canonicalizes a user-supplied or sheet-supplied key.
func Normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Load pulls rows from the sheet source and swaps in the grouped table.
// On failure the previous table is kept unchanged and the error wraps
// ErrSourceUnavailable; the caller decides whether that is fatal.
// A successful load writes through to the snapshot (best-effort).
func (s *Store) Load(ctx context.Context) error {
	rows, err := s.src.Rows(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	loadedAt := time.Now().UTC()
	s.install(rows, loadedAt)
	if s.snap != nil {
		if err := s.snap.Save(rows, loadedAt); err != nil {
			logger.Warn("snapshot_save_failed", "error", err)
		}
	}
	logger.Info("keystore_loaded", "rows", len(rows), "keys", s.Len())
	return nil
}

// LoadFromSnapshot installs the locally cached rows. Used at startup
// when the live sheet load fails; a missing or corrupt snapshot is
// returned as an error the caller logs and ignores.
func (s *Store) LoadFromSnapshot() error {
	if s.snap == nil {
		return errors.New("no snapshot configured")
	}
	rows, loadedAt, err := s.snap.Load()
	if err != nil {
		return err
	}
	s.install(rows, loadedAt)
	logger.Info("keystore_loaded_from_snapshot", "rows", len(rows), "keys", s.Len(), "loaded_at", loadedAt)
	return nil
}

// Reload re-invokes Load. force is informational; the store has no
// caching layer to bypass, but the admin command reports it.
func (s *Store) Reload(ctx context.Context, force bool) error {
	logger.Info("keystore_reload", "force", force)
	return s.Load(ctx)
}

// install groups rows by normalized key, preserving source order within
// each group, and swaps the new table in atomically.
func (s *Store) install(rows []models.KeyRow, loadedAt time.Time) {
	keys := make(map[string][]models.FileRef, len(rows))
	for _, r := range rows {
		k := Normalize(r.Key)
		if k == "" {
			continue
		}
		keys[k] = append(keys[k], models.FileRef{Name: r.Name, MessageID: r.MessageID})
	}
	s.tab.Store(&table{keys: keys, rows: len(rows), loadedAt: loadedAt})
}

// Lookup returns the ordered file list for a key, or nil when absent.
// Matching is exact on the normalized key.
func (s *Store) Lookup(key string) []models.FileRef {
	return s.tab.Load().keys[Normalize(key)]
}

// Ready reports whether a non-empty table is loaded.
func (s *Store) Ready() bool {
	return len(s.tab.Load().keys) > 0
}

// Len returns the number of distinct keys.
func (s *Store) Len() int {
	return len(s.tab.Load().keys)
}

// Rows returns the raw row count behind the current table.
func (s *Store) Rows() int {
	return s.tab.Load().rows
}

// LoadedAt returns when the current table was loaded; zero when never.
func (s *Store) LoadedAt() time.Time {
	return s.tab.Load().loadedAt
}
