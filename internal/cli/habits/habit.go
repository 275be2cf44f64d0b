package habits

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/habitlit/internal/analytics"
	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/tracker"
	"github.com/julianstephens/habitlit/internal/utils"
)

type HabitCmd struct {
	Add        HabitAddCmd        `cmd:"" help:"Add a new habit."`
	List       HabitListCmd       `cmd:"" help:"List habits."`
	Show       HabitShowCmd       `cmd:"" help:"Show metrics for a habit."`
	Done       HabitDoneCmd       `cmd:"" help:"Mark a habit as done for the current period."`
	Deactivate HabitDeactivateCmd `cmd:"" help:"Stop tracking a habit."`
	Edit       HabitEditCmd       `cmd:"" help:"Edit a habit's details."`
	Delete     HabitDeleteCmd     `cmd:"" help:"Delete a habit and its history."`
	History    HabitHistoryCmd    `cmd:"" help:"Show every recorded completion of a habit."`
}

type HabitAddCmd struct {
	Title       string `arg:"" help:"Habit title."`
	Frequency   string `help:"How often the habit is due." enum:"daily,weekly,monthly" default:"daily" short:"f"`
	Goal        int    `help:"Target number of completions." default:"1" short:"g"`
	Description string `help:"Longer description." short:"d"`
	Category    string `help:"Category used to group habits (default: personal)." short:"c"`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	freq, err := models.ParseFrequency(c.Frequency)
	if err != nil {
		return err
	}

	h, err := ctx.Tracker.Add(models.HabitInput{
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Frequency:   freq,
		Goal:        c.Goal,
	})
	if err != nil {
		return err
	}

	deadline, _ := h.NextDeadline()
	ctx.Printf("Added habit %d: %s (%s, goal %d)\n", h.ID(), h.Title(), h.Frequency(), h.Goal())
	ctx.Printf("First deadline: %s\n", utils.FormatDateTime(deadline.In(ctx.Loc())))
	return nil
}

type HabitListCmd struct {
	All       bool   `help:"Include inactive habits." short:"a"`
	Frequency string `help:"Only list habits with this frequency (daily, weekly or monthly)." short:"f"`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	opts := tracker.ListOptions{All: c.All}
	if c.Frequency != "" {
		freq, err := models.ParseFrequency(c.Frequency)
		if err != nil {
			return err
		}
		opts.Frequency = freq
	}

	habits, err := ctx.Tracker.List(opts)
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	now := ctx.Tracker.Now()
	rows := make([][]string, 0, len(habits))
	for _, h := range habits {
		deadline, ok := h.NextDeadline()
		if !h.Active() {
			ok = false
		}
		rows = append(rows, []string{
			strconv.Itoa(h.ID()),
			h.Title(),
			h.Category(),
			h.Frequency().String(),
			strconv.Itoa(h.CurrentStreakAt(now)),
			strconv.Itoa(h.LongestStreak()),
			fmt.Sprintf("%d/%d", h.Successes(), h.Goal()),
			h.State(now).String(),
			cli.FormatOptionalDate(deadline.In(ctx.Loc()), ok),
		})
	}

	ctx.Println(cli.RenderTable(
		[]string{"ID", "Title", "Category", "Frequency", "Streak", "Best", "Done", "Status", "Due"},
		rows,
	))
	return nil
}

type HabitShowCmd struct {
	ID int `arg:"" help:"Habit ID."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Tracker.Get(c.ID)
	if err != nil {
		return err
	}

	now := ctx.Tracker.Now()
	loc := ctx.Loc()

	ctx.Printf("%s (#%d)\n", h.Title(), h.ID())
	if h.Description() != "" {
		ctx.Printf("%s\n", h.Description())
	}
	ctx.Println()
	ctx.Printf("  Category:        %s\n", h.Category())
	ctx.Printf("  Frequency:       %s\n", h.Frequency())
	ctx.Printf("  Status:          %s\n", h.State(now))
	ctx.Printf("  Created:         %s\n", utils.FormatDateTime(h.StartDate().In(loc)))
	if end, ok := h.EndDate(); ok {
		ctx.Printf("  Deactivated:     %s\n", utils.FormatDateTime(end.In(loc)))
	}
	last, ok := h.LastCompletion()
	ctx.Printf("  Last done:       %s\n", cli.FormatOptionalDate(last.In(loc), ok))
	ctx.Printf("  Current streak:  %d %s\n", h.CurrentStreakAt(now), h.Frequency().PeriodNoun())
	ctx.Printf("  Longest streak:  %d %s\n", h.LongestStreak(), h.Frequency().PeriodNoun())
	ctx.Printf("  Goal progress:   %d/%d (%.0f%%)\n", h.Successes(), h.Goal(), h.GoalProgress()*100)
	ctx.Printf("  Success ratio:   %.0f%% (%d of %d periods)\n",
		analytics.SuccessRatio(h, now)*100, h.Successes(), models.ExpectedPeriods(h, now))
	ctx.Printf("  Missed periods:  %d\n", models.MissedPeriods(h, now))

	if h.Active() {
		if deadline, ok := h.NextDeadline(); ok {
			days, _ := h.DaysRemaining(now)
			ctx.Printf("  Next deadline:   %s (%d days remaining)\n", utils.FormatDateTime(deadline.In(loc)), days)
		}
	}
	return nil
}

type HabitDoneCmd struct {
	ID int `arg:"" help:"Habit ID."`
}

func (c *HabitDoneCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Tracker.Complete(c.ID)
	if err != nil {
		return err
	}

	ctx.Printf("✓ Marked %q done (streak: %d, best: %d)\n", h.Title(), h.CurrentStreak(), h.LongestStreak())
	if deadline, ok := h.NextDeadline(); ok {
		ctx.Printf("  Next deadline: %s\n", utils.FormatDateTime(deadline.In(ctx.Loc())))
	}
	return nil
}

type HabitDeactivateCmd struct {
	ID int `arg:"" help:"Habit ID."`
}

func (c *HabitDeactivateCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Tracker.Deactivate(c.ID)
	if err != nil {
		return err
	}
	ctx.Printf("Deactivated habit %d: %s\n", h.ID(), h.Title())
	return nil
}

type HabitEditCmd struct {
	ID          int     `arg:"" help:"Habit ID."`
	Title       *string `help:"New title."`
	Description *string `help:"New description."`
	Category    *string `help:"New category."`
	Goal        *int    `help:"New goal."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	if c.Title == nil && c.Description == nil && c.Category == nil && c.Goal == nil {
		return fmt.Errorf("nothing to change: pass at least one of --title, --description, --category or --goal")
	}

	h, err := ctx.Tracker.Edit(c.ID, func(d *models.HabitDetails) {
		if c.Title != nil {
			d.Title = *c.Title
		}
		if c.Description != nil {
			d.Description = *c.Description
		}
		if c.Category != nil {
			d.Category = *c.Category
		}
		if c.Goal != nil {
			d.Goal = *c.Goal
		}
	})
	if err != nil {
		return err
	}

	ctx.Printf("Updated habit %d: %s [%s, goal %d]\n", h.ID(), h.Title(), h.Category(), h.Goal())
	return nil
}

type HabitDeleteCmd struct {
	ID int `arg:"" help:"Habit ID."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Tracker.Delete(c.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit %d\n", c.ID)
	return nil
}

type HabitHistoryCmd struct {
	ID int `arg:"" help:"Habit ID."`
}

func (c *HabitHistoryCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Tracker.Get(c.ID)
	if err != nil {
		return err
	}

	entries := h.ProgressEntries()
	if len(entries) == 0 {
		ctx.Printf("%s has no completions yet.\n", h.Title())
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		local := e.In(ctx.Loc())
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			local.Format(constants.DateFormat),
			local.Format(constants.TimeFormat),
			local.Weekday().String()[:3],
		})
	}

	ctx.Printf("History of %s (%d completions):\n", h.Title(), len(entries))
	ctx.Println(cli.RenderTable([]string{"#", "Date", "Time", "Day"}, rows))
	return nil
}
