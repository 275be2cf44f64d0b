package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/habitlit/internal/backup"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/keyring"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
	"github.com/julianstephens/habitlit/internal/tracker"
	"github.com/julianstephens/habitlit/internal/utils"
)

// OpenStore picks a backend for location: a PostgreSQL URI or DSN, a .json
// file, or a SQLite database file.
func OpenStore(location string) (storage.Provider, error) {
	return openStore(location, false)
}

// OpenConnection opens the PostgreSQL store named by a --db-connection value.
// The value "keyring" reads the connection string from the OS keyring, which
// may carry a password since the keyring is encrypted.
func OpenConnection(value string) (storage.Provider, error) {
	connStr, err := keyring.Resolve(value)
	if err != nil {
		return nil, fmt.Errorf("failed to read connection string from keyring: %w", err)
	}
	if !isPostgres(connStr) {
		return nil, fmt.Errorf("--db-connection must be a PostgreSQL connection string or %q", constants.KeyringConfigValue)
	}
	fromKeyring := strings.EqualFold(strings.TrimSpace(value), constants.KeyringConfigValue)
	return openStore(connStr, fromKeyring)
}

func isPostgres(location string) bool {
	return postgres.IsConnString(location) || strings.Contains(location, "host=")
}

func openStore(location string, fromKeyring bool) (storage.Provider, error) {
	switch {
	case isPostgres(location):
		if ok, err := postgres.ValidateConnString(location); !ok {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, err
			}
			if !fromKeyring {
				return nil, fmt.Errorf("PostgreSQL connection string contains embedded credentials; use 'habitlit keyring set', .pgpass or PGPASSWORD instead")
			}
		}
		return postgres.New(location), nil
	case strings.EqualFold(filepath.Ext(location), ".json"):
		return storage.NewJSONStore(location), nil
	default:
		return sqlite.NewStore(location), nil
	}
}

// Context is handed to every command's Run method
type Context struct {
	Store    storage.Provider
	Tracker  *tracker.Tracker
	Location *time.Location
	Out      io.Writer
	In       io.Reader
}

// Stdout returns the command output writer
func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Stdin returns the command input reader
func (c *Context) Stdin() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

// Printf writes formatted output for the user
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

// Println writes a line of output for the user
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Stdout(), args...)
}

// Loc returns the configured timezone, defaulting to local time
func (c *Context) Loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// IsFileStore reports whether the store lives in a local file that can be
// backed up, deleted and locked.
func (c *Context) IsFileStore() bool {
	_, remote := c.Store.(*postgres.Store)
	return !remote
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if !c.IsFileStore() {
		return
	}
	if _, err := os.Stat(c.Store.GetConfigPath()); err != nil {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ParseDate parses a YYYY-MM-DD flag value in the configured timezone
func (c *Context) ParseDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := utils.ParseDateInLocation(value, c.Loc())
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (expected %s): %w", value, constants.DateFormat, err)
	}
	return &t, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RenderTable draws rows under headers with a rounded border
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// FormatOptionalDate formats t, or returns "-" when it is unset
func FormatOptionalDate(t time.Time, ok bool) string {
	if !ok {
		return "-"
	}
	return utils.FormatDateTime(t)
}
