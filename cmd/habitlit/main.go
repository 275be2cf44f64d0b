package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/cli/backups"
	"github.com/julianstephens/habitlit/internal/cli/habits"
	"github.com/julianstephens/habitlit/internal/cli/stats"
	"github.com/julianstephens/habitlit/internal/cli/system"
	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/lock"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/tracker"
	"github.com/julianstephens/habitlit/internal/utils"
)

var CLI struct {
	Version      kong.VersionFlag
	Config       string `help:"Path of the habit store. Files ending in .json use the JSON store, anything else SQLite." type:"path" default:"${default_config}" env:"HABITLIT_CONFIG"`
	DBConnection string `help:"PostgreSQL connection string, or 'keyring' to use the one stored in the OS keyring. Overrides --config. Only a keyring value may embed a password." name:"db-connection" env:"HABITLIT_DB_CONNECTION"`
	Timezone     string `help:"IANA timezone used for periods and dates (default: system local)." env:"HABITLIT_TIMEZONE"`
	Debug        bool   `help:"Log to stderr at debug level." env:"HABITLIT_DEBUG"`
	LogLevel     string `help:"Log level for the log file (debug, info, warn, error)." name:"log-level" env:"HABITLIT_LOG_LEVEL"`

	Init       system.InitCmd    `cmd:"" help:"Initialize habitlit storage."`
	Tui        system.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Habit      habits.HabitCmd   `cmd:"" help:"Manage habits and record completions."`
	Stats      stats.StatsCmd    `cmd:"" help:"Show analytics across all habits."`
	Backup     backups.BackupCmd `cmd:"" help:"Manage store backups."`
	Keyring    system.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Doctor     system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	DebugTools system.DebugCmd   `cmd:"" name:"debug" help:"Inspect raw store contents." hidden:""`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with streaks, deadlines and analytics"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, constants.DefaultConfigFile),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir(),
		Level:     CLI.LogLevel,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	loc, err := utils.LoadLocation(CLI.Timezone)
	if err != nil {
		apperrors.Fatalf("invalid timezone %q: %v", CLI.Timezone, err)
	}

	command := ctx.Command()
	appCtx := &cli.Context{Location: loc}

	// Keyring commands must work before any store is reachable
	if strings.HasPrefix(command, "keyring") {
		if err := ctx.Run(appCtx); err != nil {
			apperrors.Fatal(err)
		}
		return
	}

	store, err := openStore()
	if err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()
	appCtx.Store = store

	opts := []tracker.Option{
		tracker.WithClock(func() time.Time { return time.Now().In(loc) }),
	}
	if appCtx.IsFileStore() {
		opts = append(opts, tracker.WithLock(lock.New(filepath.Dir(store.GetConfigPath()))))
	}
	appCtx.Tracker = tracker.New(store, opts...)

	// Init and doctor manage their own store lifecycle
	if !strings.HasPrefix(command, "init") && !strings.HasPrefix(command, "doctor") {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}
	logger.Debug("Running command", "command", command, "store", store.GetConfigPath())

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}

// openStore picks the backend from --db-connection or --config
func openStore() (storage.Provider, error) {
	if CLI.DBConnection != "" {
		return cli.OpenConnection(CLI.DBConnection)
	}
	return cli.OpenStore(CLI.Config)
}

// configDir is where logs and the lock file live
func configDir() string {
	if CLI.DBConnection == "" && CLI.Config != "" {
		return filepath.Dir(CLI.Config)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", constants.AppName)
}
