package models

import (
	"math"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
)

// HabitState is the derived tracking state of a habit at a point in time
type HabitState int

const (
	// ActivePending means the habit is tracked and not yet done this period
	ActivePending HabitState = iota
	// ActiveCompleted means the habit is tracked and already done this period
	ActiveCompleted
	// Inactive means the habit was deactivated
	Inactive
)

func (s HabitState) String() string {
	switch s {
	case ActivePending:
		return "pending"
	case ActiveCompleted:
		return "completed"
	case Inactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// HabitInput holds the caller-supplied fields of a new habit
type HabitInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Category    string    `json:"category" validate:"max=100"`
	Frequency   Frequency `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Goal        int       `json:"goal" validate:"gt=0"`
}

// HabitDetails holds the editable descriptive fields of a habit.
// Frequency is fixed at creation and cannot be edited.
type HabitDetails struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=100"`
	Goal        int    `json:"goal" validate:"gt=0"`
}

// Habit is one recurring commitment and its completion history.
//
// State is only changed through RecordCompletion, EvaluateMissedPeriod,
// Deactivate and UpdateDetails, which keep the streak and entry invariants.
type Habit struct {
	id          int
	title       string
	description string
	category    string
	frequency   Frequency
	goal        int
	active      bool

	startDate    time.Time
	endDate      time.Time
	nextDeadline time.Time

	successes     int
	currentStreak int
	longestStreak int

	progressEntries []time.Time
}

// NewHabit creates an active habit starting at now. The id is allocated by the
// caller's persistence layer.
func NewHabit(id int, in HabitInput, now time.Time) (*Habit, error) {
	if id <= 0 {
		return nil, apperrors.Validation("habit_id", "must be a positive integer")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		in.Category = constants.DefaultCategory
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	return &Habit{
		id:              id,
		title:           in.Title,
		description:     in.Description,
		category:        in.Category,
		frequency:       in.Frequency,
		goal:            in.Goal,
		active:          true,
		startDate:       now,
		nextDeadline:    NextDeadline(in.Frequency, now),
		progressEntries: []time.Time{},
	}, nil
}

func (h *Habit) ID() int              { return h.id }
func (h *Habit) Title() string        { return h.title }
func (h *Habit) Description() string  { return h.description }
func (h *Habit) Category() string     { return h.category }
func (h *Habit) Frequency() Frequency { return h.frequency }
func (h *Habit) Goal() int            { return h.goal }
func (h *Habit) Active() bool         { return h.active }
func (h *Habit) StartDate() time.Time { return h.startDate }
func (h *Habit) Successes() int       { return h.successes }
func (h *Habit) CurrentStreak() int   { return h.currentStreak }
func (h *Habit) LongestStreak() int   { return h.longestStreak }

// EndDate returns when the habit was deactivated
func (h *Habit) EndDate() (time.Time, bool) {
	return h.endDate, !h.endDate.IsZero()
}

// NextDeadline returns the point after which the current streak is broken
func (h *Habit) NextDeadline() (time.Time, bool) {
	return h.nextDeadline, !h.nextDeadline.IsZero()
}

// ProgressEntries returns a copy of the completion timestamps in chronological order
func (h *Habit) ProgressEntries() []time.Time {
	out := make([]time.Time, len(h.progressEntries))
	copy(out, h.progressEntries)
	return out
}

// LastCompletion returns the most recent completion
func (h *Habit) LastCompletion() (time.Time, bool) {
	if len(h.progressEntries) == 0 {
		return time.Time{}, false
	}
	return h.progressEntries[len(h.progressEntries)-1], true
}

// CompletedInPeriod reports whether the latest completion falls in the period containing now
func (h *Habit) CompletedInPeriod(now time.Time) bool {
	last, ok := h.LastCompletion()
	return ok && SamePeriod(h.frequency, now, last)
}

// State derives the tracking state at now
func (h *Habit) State(now time.Time) HabitState {
	switch {
	case !h.active:
		return Inactive
	case h.CompletedInPeriod(now):
		return ActiveCompleted
	default:
		return ActivePending
	}
}

// RecordCompletion records a completion at now.
//
// It fails with ErrHabitInactive for a deactivated habit and with
// ErrAlreadyCompletedThisPeriod when the latest entry shares now's period.
// A failed call leaves the habit unchanged.
func (h *Habit) RecordCompletion(now time.Time) error {
	if !h.active {
		return apperrors.ErrHabitInactive
	}
	if last, ok := h.LastCompletion(); ok {
		if SamePeriod(h.frequency, now, last) {
			return apperrors.ErrAlreadyCompletedThisPeriod
		}
		if !now.After(last) {
			return apperrors.ErrNonChronological
		}
	}
	if PeriodStart(h.frequency, now).Before(PeriodStart(h.frequency, h.startDate.In(now.Location()))) {
		return apperrors.Validation("completed_at", "precedes the habit start")
	}

	h.EvaluateMissedPeriod(now)

	h.progressEntries = append(h.progressEntries, now)
	h.successes++
	h.currentStreak++
	if h.currentStreak > h.longestStreak {
		h.longestStreak = h.currentStreak
	}
	h.nextDeadline = NextDeadline(h.frequency, now)
	return nil
}

// EvaluateMissedPeriod resets the current streak when now is past the deadline.
// It reports whether a reset happened. The longest streak is never touched.
func (h *Habit) EvaluateMissedPeriod(now time.Time) bool {
	if h.nextDeadline.IsZero() || !now.After(h.nextDeadline) || h.currentStreak == 0 {
		return false
	}
	h.currentStreak = 0
	return true
}

// CurrentStreakAt is the current streak as EvaluateMissedPeriod would leave it at now
func (h *Habit) CurrentStreakAt(now time.Time) int {
	if !h.nextDeadline.IsZero() && now.After(h.nextDeadline) {
		return 0
	}
	return h.currentStreak
}

// DaysRemaining returns the whole days from now until the next deadline, rounded
// down. The second value is false when no deadline is set.
func (h *Habit) DaysRemaining(now time.Time) (int, bool) {
	if h.nextDeadline.IsZero() {
		return 0, false
	}
	days := h.nextDeadline.Sub(now).Hours() / 24
	return int(math.Floor(days)), true
}

// RequireDaysRemaining is DaysRemaining for callers that need a value
func (h *Habit) RequireDaysRemaining(now time.Time) (int, error) {
	days, ok := h.DaysRemaining(now)
	if !ok {
		return 0, apperrors.ErrNoDeadlineSet
	}
	return days, nil
}

// GoalProgress is successes as a fraction of the goal
func (h *Habit) GoalProgress() float64 {
	if h.goal <= 0 {
		return 0
	}
	return float64(h.successes) / float64(h.goal)
}

// Deactivate stops tracking the habit
func (h *Habit) Deactivate(now time.Time) error {
	if !h.active {
		return apperrors.ErrHabitInactive
	}
	h.active = false
	h.endDate = now
	return nil
}

// UpdateDetails replaces the descriptive fields of the habit
func (h *Habit) UpdateDetails(d HabitDetails) error {
	d.Title = strings.TrimSpace(d.Title)
	d.Category = strings.TrimSpace(d.Category)
	if d.Category == "" {
		d.Category = constants.DefaultCategory
	}
	if err := validateStruct(d); err != nil {
		return err
	}
	h.title = d.Title
	h.description = d.Description
	h.category = d.Category
	h.goal = d.Goal
	return nil
}

// Details returns the editable fields of the habit
func (h *Habit) Details() HabitDetails {
	return HabitDetails{
		Title:       h.title,
		Description: h.description,
		Category:    h.category,
		Goal:        h.goal,
	}
}
