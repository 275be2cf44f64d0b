package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing habits before initialization."`
	Source string `help:"Source store path or connection string to copy habits from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	storePath := ctx.Store.GetConfigPath()

	if c.Source != "" && ctx.IsFileStore() {
		absStore, err := filepath.Abs(storePath)
		if err == nil {
			absSource, err := filepath.Abs(c.Source)
			if err == nil && absSource == absStore {
				return fmt.Errorf("source and destination are the same: %s", absStore)
			}
		}
	}

	if ctx.IsFileStore() {
		_, err := os.Stat(storePath)
		switch {
		case err == nil && !c.Force:
			ctx.Printf("habitlit storage already initialized at: %s\n", storePath)
			ctx.Println("Use --force to start over.")
			return nil
		case err == nil:
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing store: %w", err)
			}
			if err := os.Remove(storePath); err != nil {
				return fmt.Errorf("failed to delete existing store: %w", err)
			}
			ctx.Printf("Deleted existing store at: %s\n", storePath)
		case !os.IsNotExist(err):
			return fmt.Errorf("failed to access existing store: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}

	if !ctx.IsFileStore() && c.Force {
		if err := ctx.Store.SaveAll(nil); err != nil {
			return fmt.Errorf("failed to clear existing habits: %w", err)
		}
		ctx.Println("Cleared existing habits.")
	}
	ctx.Printf("Initialized habitlit storage at: %s\n", storePath)

	if c.Source != "" {
		ctx.Printf("Copying habits from: %s\n", c.Source)
		n, err := c.copyHabits(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Printf("Copied %d habits.\n", n)
	}

	return nil
}

// copyHabits loads every record from the source store, validates it and
// replaces the destination collection with it.
func (c *InitCmd) copyHabits(ctx *cli.Context) (int, error) {
	source, err := cli.OpenStore(c.Source)
	if err != nil {
		return 0, err
	}
	if _, remote := source.(*postgres.Store); !remote {
		if _, err := os.Stat(c.Source); err != nil {
			return 0, fmt.Errorf("failed to open source store: %w", err)
		}
	}
	if err := source.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source store: %w", err)
	}
	defer source.Close()

	records, err := source.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to read source habits: %w", err)
	}
	if _, err := models.HabitsFromRecords(records); err != nil {
		return 0, fmt.Errorf("source contains invalid habits: %w", err)
	}
	if err := ctx.Store.SaveAll(records); err != nil {
		return 0, fmt.Errorf("failed to save habits: %w", err)
	}
	return len(records), nil
}
