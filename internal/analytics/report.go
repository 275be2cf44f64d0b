package analytics

import (
	"time"

	"github.com/julianstephens/habitlit/internal/models"
)

// HabitStats is the per-habit breakdown shown next to the summary
type HabitStats struct {
	ID            int
	Title         string
	Category      string
	Frequency     models.Frequency
	Active        bool
	Successes     int
	Missed        int
	Expected      int
	SuccessRatio  float64
	CurrentStreak int
	LongestStreak int
	DaysRemaining int
	HasDeadline   bool
}

// Report bundles every metric for one collection at one instant.
// Fields backed by a metric that requires input are left zero when the
// collection is empty; Empty tells callers to skip them.
type Report struct {
	GeneratedAt time.Time
	Empty       bool

	TotalHabits  int
	ActiveHabits int

	OverallSuccesses int
	OverallFailures  int

	TopStreakID          int
	HighestSuccessRateID int
	HighestFailureRateID int
	TopCategory          string
	TopFrequency         models.Frequency

	AverageStreakLength  float64
	AverageStreakBreak   float64
	AverageRemainingTime float64

	LongestStreaks []StreakEntry
	Categories     []CategoryCount
	Habits         []HabitStats
}

// Summarize computes a Report over habits as of now
func Summarize(habits []*models.Habit, now time.Time) Report {
	r := Report{
		GeneratedAt:          now,
		Empty:                len(habits) == 0,
		TotalHabits:          len(habits),
		ActiveHabits:         len(ActiveHabits(habits)),
		OverallSuccesses:     OverallSuccesses(habits),
		OverallFailures:      OverallFailures(habits, now),
		AverageRemainingTime: AverageRemainingTime(habits, now),
		LongestStreaks:       LongestStreaks(habits, now),
		Categories:           CategoryCounts(habits),
		Habits:               make([]HabitStats, 0, len(habits)),
	}

	for _, h := range habits {
		days, ok := h.DaysRemaining(now)
		r.Habits = append(r.Habits, HabitStats{
			ID:            h.ID(),
			Title:         h.Title(),
			Category:      h.Category(),
			Frequency:     h.Frequency(),
			Active:        h.Active(),
			Successes:     h.Successes(),
			Missed:        models.MissedPeriods(h, now),
			Expected:      models.ExpectedPeriods(h, now),
			SuccessRatio:  SuccessRatio(h, now),
			CurrentStreak: h.CurrentStreakAt(now),
			LongestStreak: h.LongestStreak(),
			DaysRemaining: days,
			HasDeadline:   ok,
		})
	}

	if r.Empty {
		return r
	}

	// Every remaining metric only fails on empty input, checked above
	r.TopStreakID, _ = TopStreakHabit(habits)
	r.HighestSuccessRateID, _ = HighestSuccessRate(habits, now)
	r.HighestFailureRateID, _ = HighestFailureRate(habits, now)
	r.TopCategory, _ = TopCategoryPerformance(habits, now)
	r.TopFrequency, _ = TopFrequencyPerformance(habits, now)
	r.AverageStreakLength, _ = AverageStreakLength(habits)
	r.AverageStreakBreak, _ = AverageStreakBreak(habits, now)
	return r
}
