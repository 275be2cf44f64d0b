package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/habitlit/internal/backup"
	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/lock"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
)

type DoctorCmd struct{}

// schemaVersioner is implemented by the migrated SQL stores
type schemaVersioner interface {
	SchemaVersions() (current, latest int, err error)
}

type checkLevel int

const (
	levelFail checkLevel = iota
	levelWarn
)

type check struct {
	name       string
	level      checkLevel
	needsStore bool
	run        func(ctx *cli.Context) error
}

var doctorChecks = []check{
	{name: "Schema version", needsStore: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsStore: true, run: checkMigrationsComplete},
	{name: "Backups present", level: levelWarn, run: checkBackupsPresent},
	{name: "Habit records", needsStore: true, run: checkHabitRecords},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Lock file", level: levelWarn, run: checkLockFile},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	reachable := true
	if err := checkStoreReachable(ctx); err != nil {
		ctx.Printf("❌ Store reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		reachable = false
	} else {
		ctx.Printf("✓ Store reachable: OK\n")
	}

	for _, c := range doctorChecks {
		if c.needsStore && !reachable {
			ctx.Printf("⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.level == levelWarn:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	if s, ok := ctx.Store.(*sqlite.Store); ok {
		db := s.GetDB()
		if db == nil {
			return errors.New("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	sv, ok := ctx.Store.(schemaVersioner)
	if !ok {
		// JSON stores are unversioned
		return nil
	}
	current, latest, err := sv.SchemaVersions()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	sv, ok := ctx.Store.(schemaVersioner)
	if !ok {
		return nil
	}
	current, latest, err := sv.SchemaVersions()
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if !ctx.IsFileStore() {
		return errors.New("backups are not managed for PostgreSQL stores")
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found - consider creating one with 'habitlit backup create'")
	}
	return nil
}

// checkHabitRecords rebuilds every stored habit, which runs the record
// validation and the streak invariants.
func checkHabitRecords(ctx *cli.Context) error {
	records, err := ctx.Store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to read habits: %w", err)
	}

	seen := make(map[int]bool, len(records))
	for _, r := range records {
		if seen[r.ID] {
			return fmt.Errorf("duplicate habit ID found: %d", r.ID)
		}
		seen[r.ID] = true
	}

	if _, err := models.HabitsFromRecords(records); err != nil {
		return err
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now().In(ctx.Loc())
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkLockFile(ctx *cli.Context) error {
	if !ctx.IsFileStore() {
		return nil
	}
	l := lock.New(filepath.Dir(ctx.Store.GetConfigPath()))
	if _, err := os.Stat(l.Path()); err == nil {
		return fmt.Errorf("lock file present at %s; another habitlit process may be running", l.Path())
	}
	return nil
}
