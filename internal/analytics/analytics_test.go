package analytics

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
)

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		t.Fatalf("bad test time %q: %v", s, err)
	}
	return ts
}

func newHabit(t *testing.T, id int, freq models.Frequency, category, created string) *models.Habit {
	t.Helper()
	h, err := models.NewHabit(id, models.HabitInput{
		Title:     fmt.Sprintf("test_habit_%d", id),
		Category:  category,
		Frequency: freq,
		Goal:      1,
	}, at(t, created))
	if err != nil {
		t.Fatalf("NewHabit() error = %v", err)
	}
	return h
}

func complete(t *testing.T, h *models.Habit, ts string) {
	t.Helper()
	if err := h.RecordCompletion(at(t, ts)); err != nil {
		t.Fatalf("RecordCompletion(%s) error = %v", ts, err)
	}
}

// fixture returns four daily habits and one weekly habit, started on
// consecutive days from 2030-07-20.
func fixture(t *testing.T) []*models.Habit {
	t.Helper()
	return []*models.Habit{
		newHabit(t, 1, models.Daily, "test", "2030-07-20T08:00"),
		newHabit(t, 2, models.Daily, "test", "2030-07-21T08:00"),
		newHabit(t, 3, models.Daily, "test", "2030-07-22T08:00"),
		newHabit(t, 4, models.Daily, "test", "2030-07-23T08:00"),
		newHabit(t, 5, models.Weekly, "test", "2030-07-24T08:00"),
	}
}

func ids(habits []*models.Habit) []int {
	out := make([]int, 0, len(habits))
	for _, h := range habits {
		out = append(out, h.ID())
	}
	return out
}

func TestActiveHabits(t *testing.T) {
	habits := fixture(t)
	if got := ActiveHabits(habits); len(got) != 5 {
		t.Fatalf("ActiveHabits() returned %d habits, want 5", len(got))
	}

	if err := habits[2].Deactivate(at(t, "2030-07-25T08:00")); err != nil {
		t.Fatal(err)
	}
	if got := ids(ActiveHabits(habits)); fmt.Sprint(got) != "[1 2 4 5]" {
		t.Errorf("ActiveHabits() = %v, want [1 2 4 5]", got)
	}
}

func TestHabitsWithFrequency(t *testing.T) {
	habits := fixture(t)
	if got := ids(HabitsWithFrequency(habits, models.Daily)); fmt.Sprint(got) != "[1 2 3 4]" {
		t.Errorf("HabitsWithFrequency(daily) = %v, want [1 2 3 4]", got)
	}
	if got := ids(HabitsWithFrequency(habits, models.Monthly)); len(got) != 0 {
		t.Errorf("HabitsWithFrequency(monthly) = %v, want none", got)
	}
}

func TestHabitsInPeriod(t *testing.T) {
	habits := fixture(t)

	tests := []struct {
		name     string
		from, to string
		want     string
	}{
		{"covers all", "2020-01-01T00:00", "2031-01-01T00:00", "[1 2 3 4 5]"},
		{"inclusive bounds", "2030-07-21T08:00", "2030-07-23T08:00", "[2 3 4]"},
		{"before every start", "2020-01-01T00:00", "2030-01-01T00:00", "[]"},
		{"single instant", "2030-07-22T08:00", "2030-07-22T08:00", "[3]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HabitsInPeriod(habits, at(t, tt.from), at(t, tt.to))
			if err != nil {
				t.Fatalf("HabitsInPeriod() error = %v", err)
			}
			if fmt.Sprint(ids(got)) != tt.want {
				t.Errorf("HabitsInPeriod() = %v, want %s", ids(got), tt.want)
			}
		})
	}

	_, err := HabitsInPeriod(habits, at(t, "2030-07-23T00:00"), at(t, "2030-07-21T00:00"))
	var verr *apperrors.ValidationError
	if !apperrors.As(err, &verr) {
		t.Errorf("HabitsInPeriod(from > to) error = %v, want ValidationError", err)
	}
}

func TestTopStreakHabit(t *testing.T) {
	a := newHabit(t, 1, models.Daily, "test", "2030-07-01T08:00")
	b := newHabit(t, 2, models.Daily, "test", "2030-07-01T08:00")
	for day := 1; day <= 5; day++ {
		complete(t, b, fmt.Sprintf("2030-07-%02dT09:00", day))
	}

	got, err := TopStreakHabit([]*models.Habit{a, b})
	if err != nil || got != b.ID() {
		t.Errorf("TopStreakHabit() = %d, %v, want %d", got, err, b.ID())
	}

	// equal streaks keep the first habit
	got, _ = TopStreakHabit(fixture(t))
	if got != 1 {
		t.Errorf("TopStreakHabit() tie = %d, want 1", got)
	}
}

func TestHighestSuccessRate(t *testing.T) {
	habits := fixture(t)
	complete(t, habits[1], "2030-07-21T10:00")

	got, err := HighestSuccessRate(habits, at(t, "2030-07-21T12:00"))
	if err != nil || got != 2 {
		t.Errorf("HighestSuccessRate() = %d, %v, want 2", got, err)
	}
}

func TestHighestFailureRate(t *testing.T) {
	habits := fixture(t)
	for i, h := range habits {
		if i == 1 {
			continue
		}
		complete(t, h, h.StartDate().Add(time.Hour).Format("2006-01-02T15:04"))
	}

	got, err := HighestFailureRate(habits, at(t, "2030-07-24T12:00"))
	if err != nil || got != 2 {
		t.Errorf("HighestFailureRate() = %d, %v, want 2", got, err)
	}
}

func TestOverallSuccesses(t *testing.T) {
	habits := fixture(t)
	for _, h := range habits {
		complete(t, h, h.StartDate().Add(time.Hour).Format("2006-01-02T15:04"))
	}
	if got := OverallSuccesses(habits); got != 5 {
		t.Errorf("OverallSuccesses() = %d, want 5", got)
	}
}

func TestOverallFailures(t *testing.T) {
	habits := fixture(t)
	habits[0] = newHabit(t, 1, models.Daily, "test", "1969-07-20T08:00")

	now := at(t, "2030-08-01T12:00")
	if got := OverallFailures(habits, now); got <= 3000 {
		t.Errorf("OverallFailures() = %d, want > 3000", got)
	}

	got, err := AverageStreakBreak(habits, now)
	if err != nil || got <= 3000/5 {
		t.Errorf("AverageStreakBreak() = %v, %v", got, err)
	}
}

func TestOverallFailuresCountsOnlyClosedPeriods(t *testing.T) {
	h := newHabit(t, 1, models.Daily, "test", "2030-07-20T08:00")
	complete(t, h, "2030-07-20T09:00")
	complete(t, h, "2030-07-22T09:00")

	habits := []*models.Habit{h}
	// the 21st was missed, the 23rd is still open
	if got := OverallFailures(habits, at(t, "2030-07-23T12:00")); got != 1 {
		t.Errorf("OverallFailures() = %d, want 1", got)
	}
	if got := OverallFailures(habits, at(t, "2030-07-24T12:00")); got != 2 {
		t.Errorf("OverallFailures() = %d, want 2", got)
	}
}

func TestTopCategoryPerformance(t *testing.T) {
	habits := fixture(t)
	alt := newHabit(t, 6, models.Daily, "test_alt", "2030-07-31T08:00")
	complete(t, alt, "2030-07-31T09:00")
	habits = append(habits, alt)

	got, err := TopCategoryPerformance(habits, at(t, "2030-07-31T12:00"))
	if err != nil || got != "test_alt" {
		t.Errorf("TopCategoryPerformance() = %q, %v, want test_alt", got, err)
	}

	// no completions anywhere: the first category wins
	got, _ = TopCategoryPerformance(fixture(t), at(t, "2030-07-31T12:00"))
	if got != "test" {
		t.Errorf("TopCategoryPerformance() tie = %q, want test", got)
	}
}

func TestTopFrequencyPerformance(t *testing.T) {
	habits := fixture(t)
	monthly := newHabit(t, 6, models.Monthly, "test_alt", "2030-07-31T08:00")
	complete(t, monthly, "2030-07-31T09:00")
	habits = append(habits, monthly)

	got, err := TopFrequencyPerformance(habits, at(t, "2030-07-31T12:00"))
	if err != nil || got != models.Monthly {
		t.Errorf("TopFrequencyPerformance() = %q, %v, want monthly", got, err)
	}
}

func TestAverageStreakLength(t *testing.T) {
	habits := fixture(t)
	complete(t, habits[0], "2030-07-20T09:00")

	got, err := AverageStreakLength(habits)
	if err != nil || got != 0.2 {
		t.Errorf("AverageStreakLength() = %v, %v, want 0.2", got, err)
	}
}

func TestAverageRemainingTime(t *testing.T) {
	record := models.HabitRecord{
		ID: 1, Title: "no deadline", Category: "test", Frequency: models.Daily, Goal: 1,
		Active: true, StartDate: at(t, "2030-07-20T08:00"), ProgressEntries: []models.ProgressEntry{},
	}
	noDeadline, err := models.FromRecord(record)
	if err != nil {
		t.Fatal(err)
	}
	if got := AverageRemainingTime([]*models.Habit{noDeadline}, at(t, "2030-07-20T09:00")); got != 0 {
		t.Errorf("AverageRemainingTime() = %v, want 0", got)
	}

	daily := newHabit(t, 2, models.Daily, "test", "2030-07-20T08:00")
	weekly := newHabit(t, 3, models.Weekly, "test", "2030-07-20T08:00")
	// 0 and 6 whole days left
	got := AverageRemainingTime([]*models.Habit{noDeadline, daily, weekly}, at(t, "2030-07-20T09:00"))
	if got != 3 {
		t.Errorf("AverageRemainingTime() = %v, want 3", got)
	}
}

func TestSuccessRatio(t *testing.T) {
	h := newHabit(t, 1, models.Daily, "test", "2030-07-20T08:00")
	if got := SuccessRatio(h, at(t, "2030-07-19T08:00")); got != 0 {
		t.Errorf("SuccessRatio() before start = %v, want 0", got)
	}
	complete(t, h, "2030-07-20T09:00")
	complete(t, h, "2030-07-21T09:00")
	if got := SuccessRatio(h, at(t, "2030-07-23T09:00")); got != 0.5 {
		t.Errorf("SuccessRatio() = %v, want 0.5", got)
	}
}

func TestLongestStreaks(t *testing.T) {
	habits := fixture(t)
	complete(t, habits[2], "2030-07-22T09:00")
	complete(t, habits[2], "2030-07-23T09:00")
	complete(t, habits[3], "2030-07-23T09:00")

	got := LongestStreaks(habits, at(t, "2030-07-23T10:00"))
	order := make([]int, 0, len(got))
	for _, e := range got {
		order = append(order, e.ID)
	}
	if fmt.Sprint(order) != "[3 4 1 2 5]" {
		t.Errorf("LongestStreaks() order = %v, want [3 4 1 2 5]", order)
	}
	if got[0].LongestStreak != 2 || got[0].CurrentStreak != 2 {
		t.Errorf("top streak = %d (current %d), want 2 (current 2)", got[0].LongestStreak, got[0].CurrentStreak)
	}

	// Past the deadline the current streak reads as broken, matching the per-habit stats
	later := at(t, "2030-07-25T10:00")
	got = LongestStreaks(habits, later)
	if got[0].ID != 3 || got[0].LongestStreak != 2 || got[0].CurrentStreak != 0 {
		t.Errorf("LongestStreaks() after deadline = %+v", got[0])
	}
	report := Summarize(habits, later)
	for _, e := range report.LongestStreaks {
		for _, hs := range report.Habits {
			if hs.ID == e.ID && hs.CurrentStreak != e.CurrentStreak {
				t.Errorf("habit %d current streak: ranking %d, stats %d", e.ID, e.CurrentStreak, hs.CurrentStreak)
			}
		}
	}
}

func TestEmptyInput(t *testing.T) {
	now := at(t, "2030-07-20T08:00")
	var none []*models.Habit

	if got := ActiveHabits(none); got == nil || len(got) != 0 {
		t.Errorf("ActiveHabits([]) = %v, want empty slice", got)
	}
	if got := HabitsWithFrequency(none, models.Daily); got == nil || len(got) != 0 {
		t.Errorf("HabitsWithFrequency([]) = %v, want empty slice", got)
	}
	if got, err := HabitsInPeriod(none, now, now); err != nil || len(got) != 0 {
		t.Errorf("HabitsInPeriod([]) = %v, %v", got, err)
	}
	if got := OverallSuccesses(none); got != 0 {
		t.Errorf("OverallSuccesses([]) = %d", got)
	}
	if got := OverallFailures(none, now); got != 0 {
		t.Errorf("OverallFailures([]) = %d", got)
	}
	if got := AverageRemainingTime(none, now); got != 0 {
		t.Errorf("AverageRemainingTime([]) = %v", got)
	}
	if got := LongestStreaks(none, now); got == nil || len(got) != 0 {
		t.Errorf("LongestStreaks([]) = %v", got)
	}

	failing := map[string]func() error{
		"TopStreakHabit":          func() error { _, err := TopStreakHabit(none); return err },
		"HighestSuccessRate":      func() error { _, err := HighestSuccessRate(none, now); return err },
		"HighestFailureRate":      func() error { _, err := HighestFailureRate(none, now); return err },
		"TopCategoryPerformance":  func() error { _, err := TopCategoryPerformance(none, now); return err },
		"TopFrequencyPerformance": func() error { _, err := TopFrequencyPerformance(none, now); return err },
		"AverageStreakLength":     func() error { _, err := AverageStreakLength(none); return err },
		"AverageStreakBreak":      func() error { _, err := AverageStreakBreak(none, now); return err },
	}
	for name, fn := range failing {
		if err := fn(); !apperrors.Is(err, apperrors.ErrEmptyInput) {
			t.Errorf("%s([]) error = %v, want ErrEmptyInput", name, err)
		}
	}
}

func TestAnalyticsDoNotMutate(t *testing.T) {
	habits := fixture(t)
	complete(t, habits[0], "2030-07-20T09:00")
	before, err := json.Marshal(models.Habits(habits).Records())
	if err != nil {
		t.Fatal(err)
	}

	// well past every deadline
	_ = Summarize(habits, at(t, "2030-09-01T12:00"))

	after, err := json.Marshal(models.Habits(habits).Records())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("habits changed:\n%s\n%s", before, after)
	}
}
