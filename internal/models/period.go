package models

import (
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
)

// PeriodStart returns midnight at the start of the period containing t, in t's
// location. Weekly periods are ISO weeks and start on Monday.
func PeriodStart(f Frequency, t time.Time) time.Time {
	y, m, d := t.Date()
	switch f {
	case Weekly:
		day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
}

// SamePeriod reports whether a and b fall in the same qualifying period.
// b is compared in a's location.
func SamePeriod(f Frequency, a, b time.Time) bool {
	b = b.In(a.Location())
	switch f {
	case Weekly:
		ay, aw := a.ISOWeek()
		by, bw := b.ISOWeek()
		return ay == by && aw == bw
	case Monthly:
		return a.Year() == b.Year() && a.Month() == b.Month()
	default:
		ay, am, ad := a.Date()
		by, bm, bd := b.Date()
		return ay == by && am == bm && ad == bd
	}
}

// NextDeadline returns the deadline that follows a completion (or creation) at t.
func NextDeadline(f Frequency, t time.Time) time.Time {
	switch f {
	case Weekly:
		return t.AddDate(0, 0, constants.WeeklyDeadlineDays)
	case Monthly:
		return t.AddDate(0, 0, constants.MonthlyDeadlineDays)
	default:
		return t.AddDate(0, 0, constants.DailyDeadlineDays)
	}
}

// civilDays returns the number of days since the Unix epoch for t's calendar date.
// Working in UTC keeps DST transitions out of the day count.
func civilDays(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// PeriodsBetween counts the period boundaries crossed going from start to end,
// i.e. 0 when both are in the same period. Negative when end precedes start.
func PeriodsBetween(f Frequency, start, end time.Time) int {
	start = start.In(end.Location())
	switch f {
	case Weekly:
		return (civilDays(PeriodStart(Weekly, end)) - civilDays(PeriodStart(Weekly, start))) / 7
	case Monthly:
		return (end.Year()*12 + int(end.Month())) - (start.Year()*12 + int(start.Month()))
	default:
		return civilDays(end) - civilDays(start)
	}
}

// ExpectedPeriods is the number of periods from the habit's start period up to and
// including the period containing now. It is 0 when now precedes the start period.
func ExpectedPeriods(h *Habit, now time.Time) int {
	n := PeriodsBetween(h.frequency, h.startDate, now) + 1
	if n < 0 {
		return 0
	}
	return n
}

// CompletedPeriods counts the distinct periods, up to now, that hold a completion.
func CompletedPeriods(h *Habit, now time.Time) int {
	count := 0
	var prev time.Time
	for i, entry := range h.progressEntries {
		entry = entry.In(now.Location())
		if entry.After(now) && !SamePeriod(h.frequency, now, entry) {
			break
		}
		if i == 0 || !SamePeriod(h.frequency, prev, entry) {
			count++
		}
		prev = entry
	}
	return count
}

// MissedPeriods counts closed periods without a completion. The period containing
// now is still open and only counts once it has passed.
func MissedPeriods(h *Habit, now time.Time) int {
	expected := ExpectedPeriods(h, now)
	if expected == 0 {
		return 0
	}
	missed := expected - CompletedPeriods(h, now)
	if !h.CompletedInPeriod(now) {
		missed--
	}
	if missed < 0 {
		return 0
	}
	return missed
}
