package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

type HabitFormModel struct {
	Title       string
	Description string
	Category    string
	Frequency   models.Frequency
	Goal        string
}

func newHabitFormModel() *HabitFormModel {
	return &HabitFormModel{
		Category:  constants.DefaultCategory,
		Frequency: models.Daily,
		Goal:      strconv.Itoa(constants.DefaultGoal),
	}
}

// Input converts the form fields into a habit input. The goal has already
// passed validateGoal.
func (f *HabitFormModel) Input() models.HabitInput {
	goal, _ := strconv.Atoi(strings.TrimSpace(f.Goal))
	return models.HabitInput{
		Title:       f.Title,
		Description: f.Description,
		Category:    f.Category,
		Frequency:   f.Frequency,
		Goal:        goal,
	}
}

func validateGoal(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("goal must be a whole number")
	}
	if n < 1 {
		return fmt.Errorf("goal must be at least 1")
	}
	return nil
}

// NewHabitForm creates a new form for adding habits
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Value(&fm.Description),
			huh.NewInput().
				Title("Category").
				Value(&fm.Category),
			huh.NewSelect[models.Frequency]().
				Title("Frequency").
				Options(frequencyOptions()...).
				Value(&fm.Frequency),
			huh.NewInput().
				Title("Goal (completions)").
				Value(&fm.Goal).
				Validate(validateGoal),
		),
	).WithTheme(huh.ThemeDracula())
}

func frequencyOptions() []huh.Option[models.Frequency] {
	opts := make([]huh.Option[models.Frequency], 0, len(models.Frequencies))
	for _, f := range models.Frequencies {
		label := string(f)
		opts = append(opts, huh.NewOption(strings.ToUpper(label[:1])+label[1:], f))
	}
	return opts
}
