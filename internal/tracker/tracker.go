// Package tracker runs the load, evaluate, mutate and save cycle that every
// habit command shares. Mutating workflows hold the store lock for the whole
// cycle so two habitlit processes never interleave their writes.
package tracker

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitlit/internal/analytics"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage"
)

// Locker is the process lock taken around each mutating workflow
type Locker interface {
	Acquire() error
	Release() error
}

type noopLocker struct{}

func (noopLocker) Acquire() error { return nil }
func (noopLocker) Release() error { return nil }

// Tracker applies habit workflows to a loaded storage provider
type Tracker struct {
	store storage.Provider
	lock  Locker
	now   func() time.Time
}

// Option configures a Tracker
type Option func(*Tracker)

// WithLock serialises mutating workflows through l
func WithLock(l Locker) Option {
	return func(t *Tracker) {
		if l != nil {
			t.lock = l
		}
	}
}

// WithClock overrides the clock used for every workflow
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New returns a Tracker over a store that has already been loaded
func New(store storage.Provider, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		lock:  noopLocker{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Now returns the tracker's current time
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Store returns the underlying provider
func (t *Tracker) Store() storage.Provider {
	return t.store
}

// load rebuilds the stored collection and applies missed-period evaluation.
// It reports whether any streak was reset so callers know the collection is dirty.
func (t *Tracker) load(now time.Time) (models.Habits, bool, error) {
	records, err := t.store.LoadAll()
	if err != nil {
		return nil, false, err
	}
	habits, err := models.HabitsFromRecords(records)
	if err != nil {
		return nil, false, fmt.Errorf("stored habits are invalid: %w", err)
	}
	reset := habits.EvaluateMissedPeriods(now)
	if len(reset) > 0 {
		logger.Debug("Reset streaks for missed periods", "habits", reset)
	}
	return habits, len(reset) > 0, nil
}

func (t *Tracker) withLock(fn func() error) (err error) {
	if err := t.lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if rerr := t.lock.Release(); rerr != nil {
			logger.Warn("Failed to release store lock", "error", rerr)
			if err == nil {
				err = rerr
			}
		}
	}()
	return fn()
}

// update loads the collection under the lock, lets fn change it and saves the
// result. Nothing is written when fn fails.
func (t *Tracker) update(fn func(habits models.Habits, now time.Time) (models.Habits, error)) error {
	return t.withLock(func() error {
		now := t.now()
		habits, _, err := t.load(now)
		if err != nil {
			return err
		}
		updated, err := fn(habits, now)
		if err != nil {
			return err
		}
		return t.store.SaveAll(updated.Records())
	})
}

// mutate applies fn to the habit with the given id
func (t *Tracker) mutate(id int, fn func(h *models.Habit, now time.Time) error) (*models.Habit, error) {
	var changed *models.Habit
	err := t.update(func(habits models.Habits, now time.Time) (models.Habits, error) {
		h, ok := habits.Find(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", storage.ErrNotFound, id)
		}
		if err := fn(h, now); err != nil {
			return nil, err
		}
		changed = h
		return habits, nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// Refresh persists missed-period evaluation for the whole collection
func (t *Tracker) Refresh() (models.Habits, error) {
	var habits models.Habits
	err := t.withLock(func() error {
		loaded, dirty, err := t.load(t.now())
		if err != nil {
			return err
		}
		habits = loaded
		if !dirty {
			return nil
		}
		return t.store.SaveAll(loaded.Records())
	})
	if err != nil {
		return nil, err
	}
	return habits, nil
}

// Add creates a habit with a freshly allocated id
func (t *Tracker) Add(in models.HabitInput) (*models.Habit, error) {
	var h *models.Habit
	err := t.withLock(func() error {
		id, err := t.store.NextHabitID()
		if err != nil {
			return err
		}
		created, err := models.NewHabit(id, in, t.now())
		if err != nil {
			return err
		}
		if err := t.store.SaveHabit(created.Record()); err != nil {
			return err
		}
		h = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Added habit", "id", h.ID(), "title", h.Title(), "frequency", h.Frequency())
	return h, nil
}

// Complete records a completion for the habit at the current time
func (t *Tracker) Complete(id int) (*models.Habit, error) {
	h, err := t.mutate(id, func(h *models.Habit, now time.Time) error {
		return h.RecordCompletion(now)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Recorded completion", "id", id, "streak", h.CurrentStreak())
	return h, nil
}

// Deactivate stops tracking the habit
func (t *Tracker) Deactivate(id int) (*models.Habit, error) {
	h, err := t.mutate(id, func(h *models.Habit, now time.Time) error {
		return h.Deactivate(now)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Deactivated habit", "id", id)
	return h, nil
}

// Edit changes the descriptive fields of a habit. edit receives the current
// details and modifies them in place.
func (t *Tracker) Edit(id int, edit func(d *models.HabitDetails)) (*models.Habit, error) {
	return t.mutate(id, func(h *models.Habit, _ time.Time) error {
		d := h.Details()
		edit(&d)
		return h.UpdateDetails(d)
	})
}

// Delete removes a habit and its history
func (t *Tracker) Delete(id int) error {
	err := t.withLock(func() error {
		habits, _, err := t.load(t.now())
		if err != nil {
			return err
		}
		if _, removed := habits.Remove(id); !removed {
			return fmt.Errorf("%w: %d", storage.ErrNotFound, id)
		}
		return t.store.DeleteHabit(id)
	})
	if err != nil {
		return err
	}
	logger.Info("Deleted habit", "id", id)
	return nil
}

// ListOptions narrows List
type ListOptions struct {
	All       bool
	Frequency models.Frequency
}

// List returns habits in id order. Inactive habits are skipped unless All is set.
func (t *Tracker) List(opts ListOptions) ([]*models.Habit, error) {
	habits, _, err := t.load(t.now())
	if err != nil {
		return nil, err
	}
	out := []*models.Habit(habits)
	if !opts.All {
		out = analytics.ActiveHabits(out)
	}
	if opts.Frequency != "" {
		if !opts.Frequency.Valid() {
			return nil, apperrors.ErrInvalidFrequency
		}
		out = analytics.HabitsWithFrequency(out, opts.Frequency)
	}
	return out, nil
}

// Get returns a single habit with missed periods applied
func (t *Tracker) Get(id int) (*models.Habit, error) {
	habits, _, err := t.load(t.now())
	if err != nil {
		return nil, err
	}
	h, ok := habits.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", storage.ErrNotFound, id)
	}
	return h, nil
}

// ReportOptions limits a report to habits started within [From, To]
type ReportOptions struct {
	From *time.Time
	To   *time.Time
}

// Report summarises the collection as of now
func (t *Tracker) Report(opts ReportOptions) (analytics.Report, error) {
	now := t.now()
	habits, _, err := t.load(now)
	if err != nil {
		return analytics.Report{}, err
	}

	selected := []*models.Habit(habits)
	if opts.From != nil || opts.To != nil {
		from, to := time.Time{}, now
		if opts.From != nil {
			from = *opts.From
		}
		if opts.To != nil {
			to = *opts.To
		}
		selected, err = analytics.HabitsInPeriod(selected, from, to)
		if err != nil {
			return analytics.Report{}, err
		}
	}
	return analytics.Summarize(selected, now), nil
}
