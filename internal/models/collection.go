package models

import (
	"time"
)

// Habits is an ordered collection of habits as loaded by a caller
type Habits []*Habit

// HabitsFromRecords rebuilds every record, stopping at the first invalid one
func HabitsFromRecords(records []HabitRecord) (Habits, error) {
	habits := make(Habits, 0, len(records))
	for _, r := range records {
		h, err := FromRecord(r)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

// Records returns the persisted form of every habit, in order
func (hs Habits) Records() []HabitRecord {
	records := make([]HabitRecord, 0, len(hs))
	for _, h := range hs {
		records = append(records, h.Record())
	}
	return records
}

// Find returns the habit with the given id
func (hs Habits) Find(id int) (*Habit, bool) {
	for _, h := range hs {
		if h.id == id {
			return h, true
		}
	}
	return nil, false
}

// Remove returns a new collection without the habit with the given id.
// The receiver is left untouched.
func (hs Habits) Remove(id int) (Habits, bool) {
	out := make(Habits, 0, len(hs))
	removed := false
	for _, h := range hs {
		if h.id == id {
			removed = true
			continue
		}
		out = append(out, h)
	}
	return out, removed
}

// EvaluateMissedPeriods applies EvaluateMissedPeriod to every habit and returns
// the ids whose streak was reset.
func (hs Habits) EvaluateMissedPeriods(now time.Time) []int {
	reset := []int{}
	for _, h := range hs {
		if h.EvaluateMissedPeriod(now) {
			reset = append(reset, h.id)
		}
	}
	return reset
}
