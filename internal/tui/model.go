package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlit/internal/analytics"
	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/tracker"
	"github.com/julianstephens/habitlit/internal/tui/components/habits"
	"github.com/julianstephens/habitlit/internal/tui/components/history"
	"github.com/julianstephens/habitlit/internal/tui/components/stats"
)

// tabs lists the top-level views in tab order
var tabs = []struct {
	state constants.SessionState
	title string
}{
	{constants.StateHabits, "Habits"},
	{constants.StateStats, "Stats"},
	{constants.StateHistory, "History"},
}

type Model struct {
	tracker       *tracker.Tracker
	loc           *time.Location
	state         constants.SessionState
	previousState constants.SessionState
	keys          KeyMap
	help          help.Model
	habitsModel   habits.Model
	statsModel    stats.Model
	historyModel  history.Model
	form          *huh.Form
	habitForm     *HabitFormModel
	pendingID     int // Habit awaiting confirmation
	pendingTitle  string
	historyID     int
	status        string
	errMsg        string
	quitting      bool
	width         int
	height        int
}

func NewModel(t *tracker.Tracker, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	m := Model{
		tracker:      t,
		loc:          loc,
		state:        constants.StateHabits,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		habitsModel:  habits.New(nil, t.Now(), 0, 0),
		statsModel:   stats.New(0, 0, loc),
		historyModel: history.New(0, 0, loc),
	}
	m.reload()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	if m.state == constants.StateHistory {
		keys = append(keys, m.keys.Back)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Back}

	var actions []key.Binding
	if m.state == constants.StateHabits {
		hk := habits.DefaultKeyMap()
		actions = []key.Binding{hk.Add, hk.Done, hk.Deactivate, hk.Delete, hk.History}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// reload evaluates missed periods, then refreshes every view from the store
func (m *Model) reload() {
	all, err := m.tracker.Refresh()
	if err != nil {
		m.setError(err)
		return
	}
	now := m.tracker.Now()
	m.habitsModel.SetHabits(all, now)
	m.statsModel.SetReport(analytics.Summarize(all, now))

	if m.historyID != 0 {
		m.historyModel.SetHabit(find(all, m.historyID))
	}
}

func find(all models.Habits, id int) *models.Habit {
	for _, h := range all {
		if h.ID() == id {
			return h
		}
	}
	return nil
}

func (m *Model) setError(err error) {
	logger.Warn("TUI action failed", "error", err)
	m.status = ""
	m.errMsg = apperrors.Describe(err)
}

func (m *Model) setStatus(s string) {
	m.errMsg = ""
	m.status = s
}
