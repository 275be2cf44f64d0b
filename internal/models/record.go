package models

import (
	"fmt"
	"time"

	apperrors "github.com/julianstephens/habitlit/internal/errors"
)

// ProgressEntry is a single stored completion
type ProgressEntry struct {
	Timestamp time.Time `json:"timestamp"`
}

// HabitRecord is the flat, persisted form of a Habit. Timestamps marshal as RFC 3339
// with nanoseconds.
type HabitRecord struct {
	ID              int             `json:"habit_id" validate:"gt=0"`
	Title           string          `json:"title" validate:"required"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Frequency       Frequency       `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Goal            int             `json:"goal" validate:"gt=0"`
	Active          bool            `json:"active"`
	StartDate       time.Time       `json:"start_date" validate:"required"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	NextDeadline    *time.Time      `json:"next_deadline,omitempty"`
	Successes       int             `json:"successes" validate:"gte=0"`
	CurrentStreak   int             `json:"current_streak" validate:"gte=0"`
	LongestStreak   int             `json:"longest_streak" validate:"gte=0,gtefield=CurrentStreak"`
	ProgressEntries []ProgressEntry `json:"progress_entries"`
}

// Record returns the persisted form of the habit
func (h *Habit) Record() HabitRecord {
	r := HabitRecord{
		ID:              h.id,
		Title:           h.title,
		Description:     h.description,
		Category:        h.category,
		Frequency:       h.frequency,
		Goal:            h.goal,
		Active:          h.active,
		StartDate:       h.startDate,
		Successes:       h.successes,
		CurrentStreak:   h.currentStreak,
		LongestStreak:   h.longestStreak,
		ProgressEntries: make([]ProgressEntry, len(h.progressEntries)),
	}
	if !h.endDate.IsZero() {
		t := h.endDate
		r.EndDate = &t
	}
	if !h.nextDeadline.IsZero() {
		t := h.nextDeadline
		r.NextDeadline = &t
	}
	for i, ts := range h.progressEntries {
		r.ProgressEntries[i] = ProgressEntry{Timestamp: ts}
	}
	return r
}

// FromRecord rebuilds a Habit from its persisted form, rejecting records that
// break the habit invariants.
func FromRecord(r HabitRecord) (*Habit, error) {
	if err := validateStruct(r); err != nil {
		return nil, fmt.Errorf("habit %d: %w", r.ID, err)
	}
	if r.Successes != len(r.ProgressEntries) {
		return nil, fmt.Errorf("habit %d: %w", r.ID,
			apperrors.Validation("successes", fmt.Sprintf("is %d but %d progress entries are stored", r.Successes, len(r.ProgressEntries))))
	}

	entries := make([]time.Time, len(r.ProgressEntries))
	for i, e := range r.ProgressEntries {
		if e.Timestamp.IsZero() {
			return nil, fmt.Errorf("habit %d: %w", r.ID, apperrors.Validation("progress_entries", "contains an empty timestamp"))
		}
		if i > 0 {
			prev := entries[i-1]
			if !e.Timestamp.After(prev) {
				return nil, fmt.Errorf("habit %d: %w", r.ID, apperrors.Validation("progress_entries", "must be strictly increasing"))
			}
			if SamePeriod(r.Frequency, e.Timestamp, prev) {
				return nil, fmt.Errorf("habit %d: %w", r.ID, apperrors.Validation("progress_entries", "holds two completions in one period"))
			}
		}
		entries[i] = e.Timestamp
	}

	h := &Habit{
		id:              r.ID,
		title:           r.Title,
		description:     r.Description,
		category:        r.Category,
		frequency:       r.Frequency,
		goal:            r.Goal,
		active:          r.Active,
		startDate:       r.StartDate,
		successes:       r.Successes,
		currentStreak:   r.CurrentStreak,
		longestStreak:   r.LongestStreak,
		progressEntries: entries,
	}
	if r.EndDate != nil {
		h.endDate = *r.EndDate
	}
	if r.NextDeadline != nil {
		h.nextDeadline = *r.NextDeadline
	}
	return h, nil
}
