package system

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
	"github.com/julianstephens/habitlit/internal/storage/storagetest"
)

func setupTestInitDB(t *testing.T, name string) (*cli.Context, string, *bytes.Buffer) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), name)

	store, err := cli.OpenStore(dbPath)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	out := &bytes.Buffer{}
	return &cli.Context{Store: store, Out: out}, dbPath, out
}

func TestInitCmd_Success(t *testing.T) {
	for _, name := range []string{"habitlit.db", "habits.json"} {
		t.Run(name, func(t *testing.T) {
			ctx, dbPath, out := setupTestInitDB(t, name)

			if err := (&InitCmd{}).Run(ctx); err != nil {
				t.Fatalf("init command failed: %v", err)
			}
			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				t.Errorf("store file was not created at %s", dbPath)
			}
			if !strings.Contains(out.String(), "Initialized habitlit storage at: "+dbPath) {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	for _, name := range []string{"habitlit.db", "habits.json"} {
		t.Run(name, func(t *testing.T) {
			ctx, _, out := setupTestInitDB(t, name)

			if err := (&InitCmd{}).Run(ctx); err != nil {
				t.Fatalf("first init failed: %v", err)
			}
			if err := (&InitCmd{}).Run(ctx); err != nil {
				t.Errorf("second init failed (should be idempotent): %v", err)
			}
			if !strings.Contains(out.String(), "already initialized") {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	for _, name := range []string{"habitlit.db", "habits.json"} {
		t.Run(name, func(t *testing.T) {
			ctx, dbPath, _ := setupTestInitDB(t, name)

			if err := (&InitCmd{}).Run(ctx); err != nil {
				t.Fatalf("initial init failed: %v", err)
			}
			if err := ctx.Store.Load(); err != nil {
				t.Fatal(err)
			}
			start := time.Date(2030, 7, 1, 8, 0, 0, 0, time.UTC)
			if err := ctx.Store.SaveHabit(storagetest.SampleRecord(1, "Read", start, 2)); err != nil {
				t.Fatalf("failed to save habit: %v", err)
			}

			if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
				t.Fatalf("init with force failed: %v", err)
			}
			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				t.Fatalf("store file was not recreated after force")
			}

			if err := ctx.Store.Load(); err != nil {
				t.Fatalf("failed to load store after force: %v", err)
			}
			records, err := ctx.Store.LoadAll()
			if err != nil {
				t.Fatal(err)
			}
			if len(records) != 0 {
				t.Errorf("store has %d habits after force, want 0", len(records))
			}
		})
	}
}

func TestInitCmd_ForceWithNonExistentDatabase(t *testing.T) {
	ctx, dbPath, _ := setupTestInitDB(t, "habitlit.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("database file should not exist initially")
	}
	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("init with force on non-existent database failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created")
	}
}

func TestInitCmd_Source(t *testing.T) {
	srcPath := filepath.Join(t.TempDir(), "old.db")
	src := sqlite.NewStore(srcPath)
	if err := src.Init(); err != nil {
		t.Fatal(err)
	}
	start := time.Date(2030, 7, 1, 8, 0, 0, 0, time.UTC)
	titles := map[int]string{1: "Read", 2: "Run"}
	for id, title := range titles {
		if err := src.SaveHabit(storagetest.SampleRecord(id, title, start, id+1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := src.Close(); err != nil {
		t.Fatal(err)
	}

	ctx, _, out := setupTestInitDB(t, "habits.json")
	if err := (&InitCmd{Source: srcPath}).Run(ctx); err != nil {
		t.Fatalf("init with source failed: %v", err)
	}
	if !strings.Contains(out.String(), "Copied 2 habits.") {
		t.Errorf("output = %q", out.String())
	}

	records, err := ctx.Store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != len(titles) {
		t.Fatalf("copied %d habits, want %d", len(records), len(titles))
	}
	for _, r := range records {
		storagetest.AssertRecordEqual(t, storagetest.SampleRecord(r.ID, titles[r.ID], start, r.ID+1), r)
	}

	id, err := ctx.Store.NextHabitID()
	if err != nil {
		t.Fatal(err)
	}
	if id != 3 {
		t.Errorf("NextHabitID() after copy = %d, want 3", id)
	}
}

func TestInitCmd_SourceErrors(t *testing.T) {
	ctx, dbPath, _ := setupTestInitDB(t, "habitlit.db")

	if err := (&InitCmd{Source: dbPath}).Run(ctx); err == nil {
		t.Error("expected error when source and destination are the same")
	}

	ctx, _, _ = setupTestInitDB(t, "habits.json")
	missing := filepath.Join(t.TempDir(), "missing.db")
	if err := (&InitCmd{Source: missing}).Run(ctx); err == nil {
		t.Error("expected error for missing source store")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("a missing source store should not be created")
	}
}
