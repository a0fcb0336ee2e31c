package keystore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/models"
)

func init() { logger.Init() }

type fakeSource struct {
	mu   sync.Mutex
	rows []models.KeyRow
	err  error
}

func (f *fakeSource) Rows(ctx context.Context) ([]models.KeyRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.KeyRow(nil), f.rows...), nil
}

func (f *fakeSource) set(rows []models.KeyRow, err error) {
	f.mu.Lock()
	f.rows, f.err = rows, err
	f.mu.Unlock()
}

type memSnapshot struct {
	rows     []models.KeyRow
	loadedAt time.Time
	saveErr  error
	loadErr  error
	saves    int
}

func (m *memSnapshot) Save(rows []models.KeyRow, loadedAt time.Time) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rows, m.loadedAt = rows, loadedAt
	m.saves++
	return nil
}

func (m *memSnapshot) Load() ([]models.KeyRow, time.Time, error) {
	if m.loadErr != nil {
		return nil, time.Time{}, m.loadErr
	}
	return m.rows, m.loadedAt, nil
}

func TestLoadGroupsAndNormalizes(t *testing.T) {
	src := &fakeSource{rows: []models.KeyRow{
		{Key: "UE100", Name: "Pack1.zip", MessageID: 42},
		{Key: "ue100", Name: "Pack2.zip", MessageID: 43},
		{Key: "  Demo ", Name: "Demo.zip", MessageID: 7},
	}}
	s := New(src, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	files := s.Lookup("ue100")
	if len(files) != 2 {
		t.Fatalf("expected 2 files for ue100, got %d", len(files))
	}
	if files[0].Name != "Pack1.zip" || files[0].MessageID != 42 {
		t.Fatalf("group order not preserved: %+v", files)
	}
	if files[1].Name != "Pack2.zip" || files[1].MessageID != 43 {
		t.Fatalf("group order not preserved: %+v", files)
	}
	if got := s.Lookup("  UE100  "); len(got) != 2 {
		t.Fatalf("lookup should normalize input, got %+v", got)
	}
	if got := s.Lookup("demo"); len(got) != 1 || got[0].MessageID != 7 {
		t.Fatalf("unexpected demo lookup: %+v", got)
	}
	if s.Lookup("zzz") != nil {
		t.Fatalf("unknown key should return nil")
	}
	if !s.Ready() || s.Len() != 2 {
		t.Fatalf("unexpected store state: ready=%v len=%d", s.Ready(), s.Len())
	}
}

func TestLoadFailureKeepsPreviousTable(t *testing.T) {
	src := &fakeSource{rows: []models.KeyRow{{Key: "k", Name: "F.zip", MessageID: 1}}}
	s := New(src, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	src.set(nil, errors.New("network down"))
	err := s.Load(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if got := s.Lookup("k"); len(got) != 1 {
		t.Fatalf("previous table lost after failed load: %+v", got)
	}
}

func TestLoadWritesThroughSnapshot(t *testing.T) {
	snap := &memSnapshot{}
	src := &fakeSource{rows: []models.KeyRow{{Key: "k", Name: "F.zip", MessageID: 1}}}
	s := New(src, snap)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if snap.saves != 1 || len(snap.rows) != 1 {
		t.Fatalf("snapshot not written: %+v", snap)
	}

	// snapshot save failure must not fail the load
	snap.saveErr = errors.New("disk full")
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load should tolerate snapshot failure: %v", err)
	}
}

func TestLoadFromSnapshot(t *testing.T) {
	snap := &memSnapshot{
		rows:     []models.KeyRow{{Key: "cached", Name: "C.zip", MessageID: 5}},
		loadedAt: time.Now().Add(-time.Hour),
	}
	s := New(&fakeSource{err: errors.New("unreachable")}, snap)
	if err := s.LoadFromSnapshot(); err != nil {
		t.Fatalf("snapshot load failed: %v", err)
	}
	if got := s.Lookup("cached"); len(got) != 1 || got[0].MessageID != 5 {
		t.Fatalf("unexpected lookup after snapshot load: %+v", got)
	}

	s2 := New(&fakeSource{}, &memSnapshot{loadErr: errors.New("corrupt")})
	if err := s2.LoadFromSnapshot(); err == nil {
		t.Fatalf("expected error from corrupt snapshot")
	}
	if s2.Ready() {
		t.Fatalf("store must stay empty after failed snapshot load")
	}
}

func TestReloadAtomicSwap(t *testing.T) {
	src := &fakeSource{rows: []models.KeyRow{
		{Key: "a", Name: "A1.zip", MessageID: 1},
		{Key: "a", Name: "A2.zip", MessageID: 2},
	}}
	s := New(src, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// hammer lookups while reloading between two table generations;
	// every observation must be one full generation, never a mix.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			files := s.Lookup("a")
			switch len(files) {
			case 2:
				if files[0].MessageID != 1 || files[1].MessageID != 2 {
					t.Errorf("torn old table: %+v", files)
					return
				}
			case 3:
				if files[0].MessageID != 10 || files[2].MessageID != 30 {
					t.Errorf("torn new table: %+v", files)
					return
				}
			default:
				t.Errorf("unexpected file count %d", len(files))
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		src.set([]models.KeyRow{
			{Key: "a", Name: "A1.zip", MessageID: 10},
			{Key: "a", Name: "A2.zip", MessageID: 20},
			{Key: "a", Name: "A3.zip", MessageID: 30},
		}, nil)
		if err := s.Reload(context.Background(), true); err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		src.set([]models.KeyRow{
			{Key: "a", Name: "A1.zip", MessageID: 1},
			{Key: "a", Name: "A2.zip", MessageID: 2},
		}, nil)
		if err := s.Reload(context.Background(), true); err != nil {
			t.Fatalf("reload failed: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}
