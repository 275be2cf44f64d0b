package storage

import (
	"errors"

	"github.com/julianstephens/habitlit/internal/models"
)

// ErrNotFound is returned when a habit id is not stored
var ErrNotFound = errors.New("habit not found")

// Provider persists habit records. Failures reading or writing the backing store
// wrap errors.ErrStorageUnavailable.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Collection
	// LoadAll returns every stored record ordered by id. An empty or missing
	// store yields an empty slice.
	LoadAll() ([]models.HabitRecord, error)
	// SaveAll replaces the stored collection with records.
	SaveAll(records []models.HabitRecord) error

	// Habits
	// NextHabitID allocates a fresh id. Ids are never reused, even after a delete.
	NextHabitID() (int, error)
	GetHabit(id int) (models.HabitRecord, error)
	SaveHabit(record models.HabitRecord) error
	DeleteHabit(id int) error

	// Utils
	GetConfigPath() string
}
