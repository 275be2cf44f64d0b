package models

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/julianstephens/habitlit/internal/errors"
)

// at parses "2006-01-02T15:04" in UTC
func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", s, err)
	}
	return ts
}

func newTestHabit(t *testing.T, id int, freq Frequency, created string) *Habit {
	t.Helper()
	h, err := NewHabit(id, HabitInput{
		Title:     "test_habit",
		Category:  "test",
		Frequency: freq,
		Goal:      1,
	}, at(t, created))
	if err != nil {
		t.Fatalf("NewHabit() error = %v", err)
	}
	return h
}

func assertInvariants(t *testing.T, h *Habit) {
	t.Helper()
	if h.LongestStreak() < h.CurrentStreak() {
		t.Fatalf("longest streak %d < current streak %d", h.LongestStreak(), h.CurrentStreak())
	}
	if h.Successes() != len(h.ProgressEntries()) {
		t.Fatalf("successes %d != %d progress entries", h.Successes(), len(h.ProgressEntries()))
	}
	entries := h.ProgressEntries()
	for i := 1; i < len(entries); i++ {
		if !entries[i].After(entries[i-1]) {
			t.Fatalf("progress entries not strictly increasing at %d", i)
		}
		if SamePeriod(h.Frequency(), entries[i], entries[i-1]) {
			t.Fatalf("two completions in one period at %d", i)
		}
	}
}

func TestNewHabitDefaults(t *testing.T) {
	created := at(t, "2030-07-20T08:00")
	h, err := NewHabit(1, HabitInput{Title: "  H1  ", Frequency: Daily, Goal: 1}, created)
	if err != nil {
		t.Fatalf("NewHabit() error = %v", err)
	}

	if h.ID() != 1 || h.Title() != "H1" {
		t.Errorf("unexpected identity: id=%d title=%q", h.ID(), h.Title())
	}
	if h.Category() != "personal" {
		t.Errorf("expected default category personal, got %q", h.Category())
	}
	if !h.Active() || h.Successes() != 0 || h.CurrentStreak() != 0 || h.LongestStreak() != 0 {
		t.Errorf("unexpected initial state: %+v", h.Record())
	}
	if len(h.ProgressEntries()) != 0 {
		t.Errorf("expected no progress entries")
	}
	if !h.StartDate().Equal(created) {
		t.Errorf("expected start date %v, got %v", created, h.StartDate())
	}
	deadline, ok := h.NextDeadline()
	if !ok || !deadline.Equal(at(t, "2030-07-21T08:00")) {
		t.Errorf("expected initial deadline 2030-07-21T08:00, got %v (set=%v)", deadline, ok)
	}
	if _, ok := h.EndDate(); ok {
		t.Error("new habit should have no end date")
	}
}

func TestNewHabitValidation(t *testing.T) {
	now := at(t, "2030-07-20T08:00")
	tests := []struct {
		name  string
		id    int
		input HabitInput
		want  error
	}{
		{"zero id", 0, HabitInput{Title: "a", Frequency: Daily, Goal: 1}, apperrors.ErrValidation},
		{"empty title", 1, HabitInput{Title: "   ", Frequency: Daily, Goal: 1}, apperrors.ErrValidation},
		{"bad frequency", 1, HabitInput{Title: "a", Frequency: "hourly", Goal: 1}, apperrors.ErrInvalidFrequency},
		{"missing frequency", 1, HabitInput{Title: "a", Goal: 1}, apperrors.ErrInvalidFrequency},
		{"zero goal", 1, HabitInput{Title: "a", Frequency: Weekly, Goal: 0}, apperrors.ErrInvalidGoal},
		{"negative goal", 1, HabitInput{Title: "a", Frequency: Monthly, Goal: -3}, apperrors.ErrInvalidGoal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHabit(tt.id, tt.input, now)
			if !apperrors.Is(err, tt.want) {
				t.Fatalf("NewHabit() error = %v, want %v", err, tt.want)
			}
			if !apperrors.Is(err, apperrors.ErrValidation) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestRecordCompletionDailyScenario(t *testing.T) {
	h := newTestHabit(t, 1, Daily, "2030-07-20T08:00")

	if err := h.RecordCompletion(at(t, "2030-07-20T09:00")); err != nil {
		t.Fatalf("RecordCompletion() error = %v", err)
	}
	if h.Successes() != 1 || h.CurrentStreak() != 1 || h.LongestStreak() != 1 {
		t.Errorf("expected 1/1/1, got successes=%d current=%d longest=%d",
			h.Successes(), h.CurrentStreak(), h.LongestStreak())
	}
	deadline, _ := h.NextDeadline()
	if !deadline.Equal(at(t, "2030-07-21T09:00")) {
		t.Errorf("expected deadline 2030-07-21T09:00, got %v", deadline)
	}

	before := h.Record()
	err := h.RecordCompletion(at(t, "2030-07-20T21:30"))
	if !apperrors.Is(err, apperrors.ErrAlreadyCompletedThisPeriod) {
		t.Fatalf("expected ErrAlreadyCompletedThisPeriod, got %v", err)
	}
	if !reflect.DeepEqual(before, h.Record()) {
		t.Errorf("failed completion changed state:\nbefore %+v\nafter  %+v", before, h.Record())
	}
}

func TestRecordCompletionWeeklyUsesISOWeeks(t *testing.T) {
	// 2020-12-28 is the Monday of ISO week 53 of 2020, which runs to 2021-01-03
	h := newTestHabit(t, 1, Weekly, "2020-12-28T08:00")

	if err := h.RecordCompletion(at(t, "2020-12-31T09:00")); err != nil {
		t.Fatalf("RecordCompletion() error = %v", err)
	}
	err := h.RecordCompletion(at(t, "2021-01-01T09:00"))
	if !apperrors.Is(err, apperrors.ErrAlreadyCompletedThisPeriod) {
		t.Fatalf("expected same ISO week across the year boundary, got %v", err)
	}
	if err := h.RecordCompletion(at(t, "2021-01-04T09:00")); err != nil {
		t.Fatalf("RecordCompletion() in the next ISO week error = %v", err)
	}
	if h.CurrentStreak() != 2 {
		t.Errorf("expected streak 2, got %d", h.CurrentStreak())
	}
	deadline, _ := h.NextDeadline()
	if !deadline.Equal(at(t, "2021-01-11T09:00")) {
		t.Errorf("expected weekly deadline 7 days out, got %v", deadline)
	}
	assertInvariants(t, h)
}

func TestRecordCompletionMonthly(t *testing.T) {
	h := newTestHabit(t, 1, Monthly, "2030-07-01T08:00")

	if err := h.RecordCompletion(at(t, "2030-07-05T09:00")); err != nil {
		t.Fatalf("RecordCompletion() error = %v", err)
	}
	deadline, _ := h.NextDeadline()
	if !deadline.Equal(at(t, "2030-08-04T09:00")) {
		t.Errorf("expected monthly deadline 30 days out, got %v", deadline)
	}

	if err := h.RecordCompletion(at(t, "2030-07-28T09:00")); !apperrors.Is(err, apperrors.ErrAlreadyCompletedThisPeriod) {
		t.Fatalf("expected ErrAlreadyCompletedThisPeriod, got %v", err)
	}
	if err := h.RecordCompletion(at(t, "2030-08-01T09:00")); err != nil {
		t.Fatalf("RecordCompletion() in next month error = %v", err)
	}
	if h.CurrentStreak() != 2 || h.LongestStreak() != 2 {
		t.Errorf("expected streak 2/2, got %d/%d", h.CurrentStreak(), h.LongestStreak())
	}
}

func TestRecordCompletionRejectsOutOfOrder(t *testing.T) {
	h := newTestHabit(t, 1, Daily, "2030-07-20T08:00")
	if err := h.RecordCompletion(at(t, "2030-07-22T09:00")); err != nil {
		t.Fatalf("RecordCompletion() error = %v", err)
	}

	err := h.RecordCompletion(at(t, "2030-07-21T09:00"))
	if !apperrors.Is(err, apperrors.ErrNonChronological) {
		t.Fatalf("expected ErrNonChronological, got %v", err)
	}

	early := newTestHabit(t, 2, Daily, "2030-07-20T08:00")
	if err := early.RecordCompletion(at(t, "2030-07-19T09:00")); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error before start, got %v", err)
	}
	if err := early.RecordCompletion(at(t, "2030-07-20T07:00")); err != nil {
		t.Errorf("completion earlier on the start day should be accepted: %v", err)
	}
}

func TestStreakGrowsAndBreaks(t *testing.T) {
	h := newTestHabit(t, 1, Daily, "2030-07-20T07:00")

	for _, ts := range []string{"2030-07-20T08:00", "2030-07-21T07:30", "2030-07-22T07:00"} {
		if err := h.RecordCompletion(at(t, ts)); err != nil {
			t.Fatalf("RecordCompletion(%s) error = %v", ts, err)
		}
	}
	if h.CurrentStreak() != 3 || h.LongestStreak() != 3 {
		t.Fatalf("expected streak 3/3, got %d/%d", h.CurrentStreak(), h.LongestStreak())
	}

	// deadline is 2030-07-23T07:00
	now := at(t, "2030-07-24T10:00")
	if got := h.CurrentStreakAt(now); got != 0 {
		t.Errorf("CurrentStreakAt() = %d, want 0", got)
	}
	if h.CurrentStreak() != 3 {
		t.Error("CurrentStreakAt must not mutate the habit")
	}

	if !h.EvaluateMissedPeriod(now) {
		t.Fatal("expected the streak to be reset")
	}
	if h.CurrentStreak() != 0 || h.LongestStreak() != 3 {
		t.Errorf("expected streak 0/3 after miss, got %d/%d", h.CurrentStreak(), h.LongestStreak())
	}
	if h.EvaluateMissedPeriod(now) {
		t.Error("second evaluation should be a no-op")
	}

	if err := h.RecordCompletion(now); err != nil {
		t.Fatalf("RecordCompletion() error = %v", err)
	}
	if h.CurrentStreak() != 1 || h.LongestStreak() != 3 {
		t.Errorf("expected streak 1/3 after restart, got %d/%d", h.CurrentStreak(), h.LongestStreak())
	}
	assertInvariants(t, h)
}

func TestRecordCompletionAppliesMissedPeriod(t *testing.T) {
	h := newTestHabit(t, 1, Daily, "2030-07-20T08:00")
	if err := h.RecordCompletion(at(t, "2030-07-20T09:00")); err != nil {
		t.Fatal(err)
	}
	// more than a day later without calling EvaluateMissedPeriod first
	if err := h.RecordCompletion(at(t, "2030-07-25T09:00")); err != nil {
		t.Fatal(err)
	}
	if h.CurrentStreak() != 1 {
		t.Errorf("expected the broken streak to restart at 1, got %d", h.CurrentStreak())
	}
}

func TestMissedDeadlineWithoutCompletions(t *testing.T) {
	h := newTestHabit(t, 1, Daily, "2030-07-20T08:00")
	now := at(t, "2030-07-21T08:01")

	days, ok := h.DaysRemaining(now)
	if !ok || days != -1 {
		t.Errorf("DaysRemaining() = %d, %v; want -1, true", days, ok)
	}
	h.EvaluateMissedPeriod(now)
	if h.CurrentStreak() != 0 {
		t.Errorf("expected streak 0, got %d", h.CurrentStreak())
	}
}

func TestCompletionSequenceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, freq := range Frequencies {
		t.Run(freq.String(), func(t *testing.T) {
			h := newTestHabit(t, 1, freq, "2030-01-01T00:00")
			now := at(t, "2030-01-01T06:00")
			for i := 0; i < 300; i++ {
				now = now.Add(time.Duration(rng.Intn(72)) * time.Hour)
				switch rng.Intn(3) {
				case 0:
					h.EvaluateMissedPeriod(now)
				default:
					before := h.Record()
					if err := h.RecordCompletion(now); err != nil && !reflect.DeepEqual(before, h.Record()) {
						t.Fatalf("failed completion changed state: %v", err)
					}
				}
				assertInvariants(t, h)
			}
		})
	}
}

func TestDeactivate(t *testing.T) {
	h := newTestHabit(t, 1, Daily, "2030-07-20T08:00")
	end := at(t, "2030-07-25T12:00")

	if err := h.Deactivate(end); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if h.Active() {
		t.Error("expected habit to be inactive")
	}
	if got, ok := h.EndDate(); !ok || !got.Equal(end) {
		t.Errorf("expected end date %v, got %v", end, got)
	}
	if h.State(end) != Inactive {
		t.Errorf("expected Inactive state, got %v", h.State(end))
	}

	if err := h.RecordCompletion(at(t, "2030-07-26T09:00")); !apperrors.Is(err, apperrors.ErrHabitInactive) {
		t.Errorf("expected ErrHabitInactive, got %v", err)
	}
	if err := h.Deactivate(end); !apperrors.Is(err, apperrors.ErrHabitInactive) {
		t.Errorf("expected ErrHabitInactive on second deactivate, got %v", err)
	}
}

func TestState(t *testing.T) {
	h := newTestHabit(t, 1, Weekly, "2030-07-15T08:00")
	if got := h.State(at(t, "2030-07-16T08:00")); got != ActivePending {
		t.Errorf("expected pending, got %v", got)
	}
	if err := h.RecordCompletion(at(t, "2030-07-17T08:00")); err != nil {
		t.Fatal(err)
	}
	if got := h.State(at(t, "2030-07-21T20:00")); got != ActiveCompleted {
		t.Errorf("expected completed within the week, got %v", got)
	}
	if got := h.State(at(t, "2030-07-22T08:00")); got != ActivePending {
		t.Errorf("expected pending in the next week, got %v", got)
	}
}

func TestDaysRemaining(t *testing.T) {
	now := at(t, "2030-07-20T08:00")
	deadline := now.AddDate(0, 0, 50)
	h, err := FromRecord(HabitRecord{
		ID: 1, Title: "h", Frequency: Daily, Goal: 1, Active: true,
		StartDate: now, NextDeadline: &deadline,
		ProgressEntries: []ProgressEntry{},
	})
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}

	days, ok := h.DaysRemaining(now)
	if !ok || days != 50 {
		t.Errorf("DaysRemaining() = %d, %v; want 50, true", days, ok)
	}
	if days, _ := h.DaysRemaining(now.Add(time.Hour)); days != 49 {
		t.Errorf("expected partial days to round down to 49, got %d", days)
	}

	unset, err := FromRecord(HabitRecord{
		ID: 2, Title: "h", Frequency: Daily, Goal: 1, Active: true, StartDate: now,
	})
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	if _, ok := unset.DaysRemaining(now); ok {
		t.Error("expected no deadline")
	}
	if _, err := unset.RequireDaysRemaining(now); !apperrors.Is(err, apperrors.ErrNoDeadlineSet) {
		t.Errorf("expected ErrNoDeadlineSet, got %v", err)
	}
	if unset.EvaluateMissedPeriod(now.AddDate(1, 0, 0)) {
		t.Error("habit without deadline should never reset")
	}
}

func TestGoalProgressAndLastCompletion(t *testing.T) {
	h, err := NewHabit(3, HabitInput{Title: "read", Frequency: Daily, Goal: 4}, at(t, "2030-07-20T08:00"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := h.LastCompletion(); ok {
		t.Error("expected no last completion")
	}
	if err := h.RecordCompletion(at(t, "2030-07-20T09:00")); err != nil {
		t.Fatal(err)
	}
	if got := h.GoalProgress(); got != 0.25 {
		t.Errorf("GoalProgress() = %v, want 0.25", got)
	}
	if last, ok := h.LastCompletion(); !ok || !last.Equal(at(t, "2030-07-20T09:00")) {
		t.Errorf("LastCompletion() = %v, %v", last, ok)
	}
}

func TestUpdateDetails(t *testing.T) {
	h := newTestHabit(t, 1, Daily, "2030-07-20T08:00")

	err := h.UpdateDetails(HabitDetails{Title: "Stretch", Description: "10 minutes", Category: "health", Goal: 30})
	if err != nil {
		t.Fatalf("UpdateDetails() error = %v", err)
	}
	d := h.Details()
	if d.Title != "Stretch" || d.Category != "health" || d.Goal != 30 || d.Description != "10 minutes" {
		t.Errorf("unexpected details %+v", d)
	}
	if h.Frequency() != Daily {
		t.Error("frequency must not change")
	}

	if err := h.UpdateDetails(HabitDetails{Title: "x", Goal: 0}); !apperrors.Is(err, apperrors.ErrInvalidGoal) {
		t.Errorf("expected ErrInvalidGoal, got %v", err)
	}
	if err := h.UpdateDetails(HabitDetails{Title: "", Goal: 2}); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if h.Title() != "Stretch" {
		t.Error("failed update must not change the habit")
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    Frequency
		wantErr bool
	}{
		{"daily", Daily, false},
		{" Weekly ", Weekly, false},
		{"MONTHLY", Monthly, false},
		{"yearly", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFrequency(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFrequency(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFrequency(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
