package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/models"
)

var db *pebble.DB

// snapshotKey is the fixed key under which the last good sheet load is
// stored. A single record is enough; the snapshot is a whole-table
// write-through cache, never an incremental log.
const snapshotKey = "keymap:snapshot"

// ErrNoSnapshot is returned by LoadSnapshot when no snapshot has been
// written yet.
var ErrNoSnapshot = errors.New("no snapshot present")

type snapshotRecord struct {
	LoadedAt time.Time       `json:"loaded_at"`
	Rows     []models.KeyRow `json:"rows"`
}

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_snapshot_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("snapshot_db_open_failed", "path", path, "error", err)
		return err
	}
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("snapshot_db_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// SaveSnapshot replaces the stored snapshot with the given rows. Called
// after every successful sheet load; failure is surfaced to the caller
// who treats it as best-effort.
func SaveSnapshot(rows []models.KeyRow, loadedAt time.Time) error {
	if db == nil {
		return fmt.Errorf("snapshot store not opened; call store.Open first")
	}
	rec := snapshotRecord{LoadedAt: loadedAt, Rows: rows}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := db.Set([]byte(snapshotKey), data, pebble.Sync); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	logger.Info("snapshot_saved", "rows", len(rows))
	return nil
}

// SheetSnapshot adapts the package-level snapshot functions to the
// keystore's Snapshot interface.
type SheetSnapshot struct{}

func (SheetSnapshot) Save(rows []models.KeyRow, loadedAt time.Time) error {
	return SaveSnapshot(rows, loadedAt)
}

func (SheetSnapshot) Load() ([]models.KeyRow, time.Time, error) {
	return LoadSnapshot()
}

// LoadSnapshot returns the rows and load time of the stored snapshot.
// Returns ErrNoSnapshot when none exists; a corrupt record is an error
// the caller logs and ignores, never fatal.
func LoadSnapshot() ([]models.KeyRow, time.Time, error) {
	if db == nil {
		return nil, time.Time{}, fmt.Errorf("snapshot store not opened; call store.Open first")
	}
	data, closer, err := db.Get([]byte(snapshotKey))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, time.Time{}, ErrNoSnapshot
		}
		return nil, time.Time{}, fmt.Errorf("read snapshot: %w", err)
	}
	defer func() { _ = closer.Close() }()

	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return rec.Rows, rec.LoadedAt, nil
}
