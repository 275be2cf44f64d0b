package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/storage/storagetest"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "habitlit.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return store, func() { store.Close() }
}

func TestStoreProvider(t *testing.T) {
	storagetest.RunProviderTests(t, func(t *testing.T) storage.Provider {
		store, cleanup := setupTestStore(t)
		t.Cleanup(cleanup)
		return store
	})
}

func TestLoadCreatesMissingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "habitlit.db")
	store := NewStore(path)
	defer store.Close()

	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database not created: %v", err)
	}
	records, err := store.LoadAll()
	if err != nil || len(records) != 0 {
		t.Errorf("LoadAll() = %v, %v; want empty", records, err)
	}
}

func TestLoadRejectsNewerSchema(t *testing.T) {
	store, cleanup := setupTestStore(t)
	if _, err := store.GetDB().Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	cleanup()

	reopened := NewStore(store.GetConfigPath())
	defer reopened.Close()
	storagetest.AssertUnavailable(t, reopened.Load())
}

func TestNotLoaded(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "habitlit.db"))
	_, err := store.LoadAll()
	storagetest.AssertUnavailable(t, err)
	_, err = store.NextHabitID()
	storagetest.AssertUnavailable(t, err)
}

func TestProgressEntryRows(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	start := time.Date(2030, 7, 20, 8, 0, 0, 0, time.UTC)
	if err := store.SaveHabit(storagetest.SampleRecord(1, "run", start, 3)); err != nil {
		t.Fatal(err)
	}

	rows, err := store.GetDB().Query("SELECT id, seq FROM progress_entries WHERE habit_id = 1 ORDER BY seq")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	seq := 0
	for rows.Next() {
		var id string
		var got int
		if err := rows.Scan(&id, &got); err != nil {
			t.Fatal(err)
		}
		if len(id) != 36 || seen[id] {
			t.Errorf("entry id %q is not a fresh uuid", id)
		}
		seen[id] = true
		if got != seq {
			t.Errorf("seq = %d, want %d", got, seq)
		}
		seq++
	}
	if seq != 3 {
		t.Errorf("stored %d entries, want 3", seq)
	}
}

func TestSaveAllRollsBackOnInvalidRow(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	start := time.Date(2030, 7, 20, 8, 0, 0, 0, time.UTC)
	if err := store.SaveAll([]models.HabitRecord{storagetest.SampleRecord(1, "run", start, 1)}); err != nil {
		t.Fatal(err)
	}

	bad := storagetest.SampleRecord(2, "bad", start, 0)
	bad.Goal = 0 // rejected by the CHECK constraint
	err := store.SaveAll([]models.HabitRecord{storagetest.SampleRecord(3, "ok", start, 0), bad})
	storagetest.AssertUnavailable(t, err)

	records, err := store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != 1 {
		t.Errorf("LoadAll() after failed SaveAll = %+v, want the original habit", records)
	}
}
