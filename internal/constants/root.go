package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "habitlit"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitlit/habitlit.db"
	DefaultConfigFile  = "~/.config/habitlit/config.json"
	Version            = "v0.1.0"

	// KeyringConfigValue selects the PostgreSQL connection string stored in the OS keyring
	KeyringConfigValue = "keyring"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// TimestampFormat is the ISO-8601 layout used for every persisted timestamp
	TimestampFormat = time.RFC3339Nano

	// Habit defaults
	DefaultCategory = "personal"
	DefaultGoal     = 1

	// Deadline offsets in calendar days. Monthly habits use a fixed 30 days
	// rather than the next calendar month.
	DailyDeadlineDays   = 1
	WeeklyDeadlineDays  = 7
	MonthlyDeadlineDays = 30

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitlit-"
	BackupFileSuffix = ".db"

	// Lock constants
	LockFileName   = "habitlit.lock"
	LockRetries    = 3
	LockRetryDelay = 100 * time.Millisecond
)

// Session States
const (
	StateHabits SessionState = iota
	StateStats
	StateHistory
	StateAddHabit
	StateConfirmDeactivate
	StateConfirmDelete
)
