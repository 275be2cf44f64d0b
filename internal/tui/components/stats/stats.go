package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitlit/internal/analytics"
	"github.com/julianstephens/habitlit/internal/utils"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(24)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

type Model struct {
	viewport viewport.Model
	Report   *analytics.Report
	loc      *time.Location
}

func New(width, height int, loc *time.Location) Model {
	return Model{
		viewport: viewport.New(width, height),
		loc:      loc,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetReport(r analytics.Report) {
	m.Report = &r
	m.Render()
}

func (m *Model) Render() {
	m.viewport.SetContent(Render(m.Report, m.loc))
}

// Render formats a report for the stats tab
func Render(r *analytics.Report, loc *time.Location) string {
	if r == nil || r.Empty {
		return mutedStyle.Render("No habits to analyze yet.")
	}

	titles := make(map[int]string, len(r.Habits))
	for _, h := range r.Habits {
		titles[h.ID] = h.Title
	}

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}

	b.WriteString(mutedStyle.Render("as of "+utils.FormatDateTime(r.GeneratedAt.In(loc))) + "\n\n")
	row("Habits", fmt.Sprintf("%d (%d active)", r.TotalHabits, r.ActiveHabits))
	row("Completions", fmt.Sprintf("%d", r.OverallSuccesses))
	row("Missed periods", fmt.Sprintf("%d", r.OverallFailures))
	row("Longest streak", titles[r.TopStreakID])
	row("Highest success rate", titles[r.HighestSuccessRateID])
	row("Highest failure rate", titles[r.HighestFailureRateID])
	row("Best category", r.TopCategory)
	row("Best frequency", r.TopFrequency.String())
	row("Average longest streak", fmt.Sprintf("%.1f", r.AverageStreakLength))
	row("Average missed periods", fmt.Sprintf("%.1f", r.AverageStreakBreak))
	row("Average days to due", fmt.Sprintf("%.1f", r.AverageRemainingTime))

	b.WriteString(headingStyle.Render("Longest streaks") + "\n")
	for i, s := range r.LongestStreaks {
		b.WriteString(fmt.Sprintf("  %d. %s: %d (current %d)\n", i+1, s.Title, s.LongestStreak, s.CurrentStreak))
	}

	b.WriteString(headingStyle.Render("Categories") + "\n")
	for _, c := range r.Categories {
		b.WriteString(fmt.Sprintf("  %s: %d\n", c.Category, c.Habits))
	}
	return b.String()
}
