package system

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/storage"
)

type DebugCmd struct {
	DBPath    DebugDBPathCmd    `cmd:"" name:"db-path" help:"Show the store location."`
	DumpHabit DebugDumpHabitCmd `cmd:"" name:"dump-habit" help:"Dump the stored record of a habit as JSON."`
	DumpAll   DebugDumpAllCmd   `cmd:"" name:"dump-all" help:"Dump every stored habit record as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

// DebugDumpHabitCmd prints the raw record, bypassing domain reconstruction so
// records that fail validation can still be inspected.
type DebugDumpHabitCmd struct {
	ID int `arg:"" help:"Habit ID."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	record, err := ctx.Store.GetHabit(cmd.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no habit found with ID: %d", cmd.ID)
		}
		return fmt.Errorf("failed to get habit: %w", err)
	}
	return printJSON(ctx, record)
}

type DebugDumpAllCmd struct{}

func (cmd *DebugDumpAllCmd) Run(ctx *cli.Context) error {
	records, err := ctx.Store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	return printJSON(ctx, records)
}

func printJSON(ctx *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(data))
	return nil
}
