package history

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("205")).
	Bold(true)

type Model struct {
	table table.Model
	title string
	empty bool
	loc   *time.Location
}

func New(width, height int, loc *time.Location) Model {
	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).Foreground(lipgloss.Color("205"))
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)

	return Model{
		table: t,
		empty: true,
		loc:   loc,
	}
}

func columns(width int) []table.Column {
	date := 12
	if width > 40 {
		date = width / 3
	}
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Date", Width: date},
		{Title: "Time", Width: 8},
		{Title: "Day", Width: 6},
	}
}

// SetHabit shows the completions of h, oldest first
func (m *Model) SetHabit(h *models.Habit) {
	if h == nil {
		m.title = ""
		m.empty = true
		m.table.SetRows(nil)
		return
	}

	entries := h.ProgressEntries()
	rows := make([]table.Row, 0, len(entries))
	for i, e := range entries {
		local := e.In(m.loc)
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			local.Format(constants.DateFormat),
			local.Format(constants.TimeFormat),
			local.Weekday().String()[:3],
		})
	}
	m.title = fmt.Sprintf("%s (%d completions)", h.Title(), len(entries))
	m.empty = len(entries) == 0
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.title == "" {
		return "\n  Select a habit and press enter to see its history."
	}
	if m.empty {
		return titleStyle.Render(m.title) + "\n\n  No completions yet."
	}
	return titleStyle.Render(m.title) + "\n\n" + m.table.View()
}

func (m *Model) SetSize(width, height int) {
	m.table.SetColumns(columns(width))
	// Leave room for the title line
	m.table.SetHeight(max(height-2, 1))
}
