// Package analytics computes read-only metrics over a loaded habit collection.
// None of the functions modify their inputs.
package analytics

import (
	"sort"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
)

// ActiveHabits returns the habits that are still tracked, in input order
func ActiveHabits(habits []*models.Habit) []*models.Habit {
	out := []*models.Habit{}
	for _, h := range habits {
		if h.Active() {
			out = append(out, h)
		}
	}
	return out
}

// HabitsWithFrequency returns the habits with the given frequency, in input order
func HabitsWithFrequency(habits []*models.Habit, freq models.Frequency) []*models.Habit {
	out := []*models.Habit{}
	for _, h := range habits {
		if h.Frequency() == freq {
			out = append(out, h)
		}
	}
	return out
}

// HabitsInPeriod returns the habits whose start date lies within [from, to]
func HabitsInPeriod(habits []*models.Habit, from, to time.Time) ([]*models.Habit, error) {
	if from.After(to) {
		return nil, apperrors.Validation("from", "must not be after to")
	}
	out := []*models.Habit{}
	for _, h := range habits {
		start := h.StartDate()
		if !start.Before(from) && !start.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

// TopStreakHabit returns the id of the habit with the longest streak ever.
// The first habit wins ties.
func TopStreakHabit(habits []*models.Habit) (int, error) {
	if len(habits) == 0 {
		return 0, apperrors.ErrEmptyInput
	}
	best := habits[0]
	for _, h := range habits[1:] {
		if h.LongestStreak() > best.LongestStreak() {
			best = h
		}
	}
	return best.ID(), nil
}

// SuccessRatio is successes divided by the periods expected since the habit
// started, or 0 when no period has started yet.
func SuccessRatio(h *models.Habit, now time.Time) float64 {
	expected := models.ExpectedPeriods(h, now)
	if expected == 0 {
		return 0
	}
	return float64(h.Successes()) / float64(expected)
}

// completionRate is completed periods divided by expected periods
func completionRate(h *models.Habit, now time.Time) float64 {
	expected := models.ExpectedPeriods(h, now)
	if expected == 0 {
		return 0
	}
	return float64(models.CompletedPeriods(h, now)) / float64(expected)
}

// failureRate is the complement of completionRate for habits with at least one
// expected period.
func failureRate(h *models.Habit, now time.Time) float64 {
	expected := models.ExpectedPeriods(h, now)
	if expected == 0 {
		return 0
	}
	missed := expected - models.CompletedPeriods(h, now)
	if missed < 0 {
		missed = 0
	}
	return float64(missed) / float64(expected)
}

func argMax(habits []*models.Habit, score func(*models.Habit) float64) (int, error) {
	if len(habits) == 0 {
		return 0, apperrors.ErrEmptyInput
	}
	best, bestScore := habits[0], score(habits[0])
	for _, h := range habits[1:] {
		if s := score(h); s > bestScore {
			best, bestScore = h, s
		}
	}
	return best.ID(), nil
}

// HighestSuccessRate returns the id of the habit with the best ratio of completed
// to expected periods. The first habit wins ties.
func HighestSuccessRate(habits []*models.Habit, now time.Time) (int, error) {
	return argMax(habits, func(h *models.Habit) float64 { return completionRate(h, now) })
}

// HighestFailureRate returns the id of the habit with the largest share of
// expected periods left without a completion. The first habit wins ties.
func HighestFailureRate(habits []*models.Habit, now time.Time) (int, error) {
	return argMax(habits, func(h *models.Habit) float64 { return failureRate(h, now) })
}

// OverallSuccesses sums successes across habits
func OverallSuccesses(habits []*models.Habit) int {
	total := 0
	for _, h := range habits {
		total += h.Successes()
	}
	return total
}

// OverallFailures sums the closed periods without a completion across habits
func OverallFailures(habits []*models.Habit, now time.Time) int {
	total := 0
	for _, h := range habits {
		total += models.MissedPeriods(h, now)
	}
	if total < 0 {
		return 0
	}
	return total
}

type group struct {
	key   string
	sum   float64
	count int
}

// topGroup returns the key with the highest mean success ratio. Keys are kept in
// first-encountered order so the earliest key wins ties.
func topGroup(habits []*models.Habit, now time.Time, key func(*models.Habit) string) (string, error) {
	if len(habits) == 0 {
		return "", apperrors.ErrEmptyInput
	}
	var groups []*group
	index := map[string]*group{}
	for _, h := range habits {
		k := key(h)
		g, ok := index[k]
		if !ok {
			g = &group{key: k}
			index[k] = g
			groups = append(groups, g)
		}
		g.sum += SuccessRatio(h, now)
		g.count++
	}

	best := groups[0]
	bestMean := best.sum / float64(best.count)
	for _, g := range groups[1:] {
		if mean := g.sum / float64(g.count); mean > bestMean {
			best, bestMean = g, mean
		}
	}
	return best.key, nil
}

// TopCategoryPerformance returns the category with the highest mean success ratio
func TopCategoryPerformance(habits []*models.Habit, now time.Time) (string, error) {
	return topGroup(habits, now, func(h *models.Habit) string { return h.Category() })
}

// TopFrequencyPerformance returns the frequency with the highest mean success ratio
func TopFrequencyPerformance(habits []*models.Habit, now time.Time) (models.Frequency, error) {
	key, err := topGroup(habits, now, func(h *models.Habit) string { return string(h.Frequency()) })
	if err != nil {
		return "", err
	}
	return models.Frequency(key), nil
}

// AverageStreakLength is the mean longest streak
func AverageStreakLength(habits []*models.Habit) (float64, error) {
	if len(habits) == 0 {
		return 0, apperrors.ErrEmptyInput
	}
	total := 0
	for _, h := range habits {
		total += h.LongestStreak()
	}
	return float64(total) / float64(len(habits)), nil
}

// AverageStreakBreak is the mean number of missed periods per habit
func AverageStreakBreak(habits []*models.Habit, now time.Time) (float64, error) {
	if len(habits) == 0 {
		return 0, apperrors.ErrEmptyInput
	}
	return float64(OverallFailures(habits, now)) / float64(len(habits)), nil
}

// AverageRemainingTime is the mean of DaysRemaining over habits with a deadline,
// or 0 when none has one.
func AverageRemainingTime(habits []*models.Habit, now time.Time) float64 {
	total, count := 0, 0
	for _, h := range habits {
		if days, ok := h.DaysRemaining(now); ok {
			total += days
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

// StreakEntry is one row of the longest streak ranking
type StreakEntry struct {
	ID            int
	Title         string
	LongestStreak int
	CurrentStreak int
}

// LongestStreaks ranks habits by longest streak, highest first. Equal streaks keep
// input order. Current streaks are reported as of now.
func LongestStreaks(habits []*models.Habit, now time.Time) []StreakEntry {
	out := make([]StreakEntry, 0, len(habits))
	for _, h := range habits {
		out = append(out, StreakEntry{
			ID:            h.ID(),
			Title:         h.Title(),
			LongestStreak: h.LongestStreak(),
			CurrentStreak: h.CurrentStreakAt(now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LongestStreak > out[j].LongestStreak
	})
	return out
}

// CategoryCounts returns how many habits each category holds, in
// first-encountered order.
func CategoryCounts(habits []*models.Habit) []CategoryCount {
	var out []CategoryCount
	index := map[string]int{}
	for _, h := range habits {
		c := h.Category()
		if c == "" {
			c = constants.DefaultCategory
		}
		i, ok := index[c]
		if !ok {
			i = len(out)
			index[c] = i
			out = append(out, CategoryCount{Category: c})
		}
		out[i].Habits++
	}
	if out == nil {
		return []CategoryCount{}
	}
	return out
}

// CategoryCount is the number of habits filed under one category
type CategoryCount struct {
	Category string
	Habits   int
}
