package stats

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/habitlit/internal/analytics"
	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/tracker"
	"github.com/julianstephens/habitlit/internal/utils"
)

type StatsCmd struct {
	From string `help:"Only include habits started on or after this date (YYYY-MM-DD)."`
	To   string `help:"Only include habits started on or before this date (YYYY-MM-DD)."`
	Top  int    `help:"Number of habits in the longest streak ranking." default:"5"`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	opts := tracker.ReportOptions{}
	from, err := ctx.ParseDate(c.From)
	if err != nil {
		return err
	}
	opts.From = from
	to, err := ctx.ParseDate(c.To)
	if err != nil {
		return err
	}
	if to != nil {
		end := utils.EndOfDay(*to)
		opts.To = &end
	}

	report, err := ctx.Tracker.Report(opts)
	if err != nil {
		return err
	}

	if report.Empty {
		ctx.Println("No habits to analyze.")
		return nil
	}

	titles := make(map[int]string, len(report.Habits))
	for _, h := range report.Habits {
		titles[h.ID] = h.Title
	}
	name := func(id int) string {
		return fmt.Sprintf("%s (#%d)", titles[id], id)
	}

	ctx.Printf("Habit statistics as of %s\n\n", utils.FormatDateTime(report.GeneratedAt.In(ctx.Loc())))
	ctx.Printf("  Habits:                 %d (%d active)\n", report.TotalHabits, report.ActiveHabits)
	ctx.Printf("  Completions:            %d\n", report.OverallSuccesses)
	ctx.Printf("  Missed periods:         %d\n", report.OverallFailures)
	ctx.Printf("  Longest streak:         %s\n", name(report.TopStreakID))
	ctx.Printf("  Highest success rate:   %s\n", name(report.HighestSuccessRateID))
	ctx.Printf("  Highest failure rate:   %s\n", name(report.HighestFailureRateID))
	ctx.Printf("  Best category:          %s\n", report.TopCategory)
	ctx.Printf("  Best frequency:         %s\n", report.TopFrequency)
	ctx.Printf("  Average longest streak: %.1f\n", report.AverageStreakLength)
	ctx.Printf("  Average missed periods: %.1f\n", report.AverageStreakBreak)
	ctx.Printf("  Average days to due:    %.1f\n", report.AverageRemainingTime)
	ctx.Println()

	rows := make([][]string, 0, len(report.Habits))
	for _, h := range report.Habits {
		due := "-"
		if h.Active && h.HasDeadline {
			due = strconv.Itoa(h.DaysRemaining)
		}
		rows = append(rows, []string{
			strconv.Itoa(h.ID),
			h.Title,
			h.Frequency.String(),
			fmt.Sprintf("%d/%d", h.Successes, h.Expected),
			strconv.Itoa(h.Missed),
			fmt.Sprintf("%.0f%%", h.SuccessRatio*100),
			strconv.Itoa(h.CurrentStreak),
			strconv.Itoa(h.LongestStreak),
			due,
		})
	}
	ctx.Println(cli.RenderTable(
		[]string{"ID", "Title", "Frequency", "Done", "Missed", "Success", "Streak", "Best", "Days left"},
		rows,
	))

	ctx.Println("Longest streaks:")
	for i, s := range topStreaks(report.LongestStreaks, c.Top) {
		ctx.Printf("  %d. %s: %d (current %d)\n", i+1, s.Title, s.LongestStreak, s.CurrentStreak)
	}
	ctx.Println()

	ctx.Println("Categories:")
	for _, cat := range report.Categories {
		ctx.Printf("  %s: %d\n", cat.Category, cat.Habits)
	}
	return nil
}

func topStreaks(entries []analytics.StreakEntry, n int) []analytics.StreakEntry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
