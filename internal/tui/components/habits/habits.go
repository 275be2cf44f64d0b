package habits

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitlit/internal/models"
)

type AddHabitMsg struct{}

type CompleteHabitMsg struct {
	ID int
}

type DeactivateHabitMsg struct {
	ID    int
	Title string
}

type DeleteHabitMsg struct {
	ID    int
	Title string
}

type ShowHistoryMsg struct {
	ID int
}

type Item struct {
	Habit  *models.Habit
	State  models.HabitState
	Streak int
}

func (i Item) Title() string {
	switch i.State {
	case models.Inactive:
		return "[INACTIVE] " + i.Habit.Title()
	case models.ActiveCompleted:
		return "✓ " + i.Habit.Title()
	default:
		return "○ " + i.Habit.Title()
	}
}

func (i Item) Description() string {
	desc := fmt.Sprintf("%s | %s | streak %d (best %d) | %d/%d",
		i.Habit.Category(), i.Habit.Frequency(), i.Streak, i.Habit.LongestStreak(),
		i.Habit.Successes(), i.Habit.Goal())
	if i.State == models.ActiveCompleted {
		desc += " | done this " + i.Habit.Frequency().PeriodNoun()
	}
	return desc
}

func (i Item) FilterValue() string { return i.Habit.Title() }

type KeyMap struct {
	Add        key.Binding
	Done       key.Binding
	Deactivate key.Binding
	Delete     key.Binding
	History    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Done: key.NewBinding(
			key.WithKeys("m", " "),
			key.WithHelp("m/space", "mark done"),
		),
		Deactivate: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "deactivate"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		History: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "history"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(habits []*models.Habit, now time.Time, width, height int) Model {
	l := list.New(items(habits, now), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	bindings := func() []key.Binding {
		return []key.Binding{keys.Add, keys.Done, keys.Deactivate, keys.Delete, keys.History}
	}
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings

	return Model{
		list: l,
		keys: keys,
	}
}

func items(habits []*models.Habit, now time.Time) []list.Item {
	out := make([]list.Item, len(habits))
	for i, h := range habits {
		out[i] = Item{
			Habit:  h,
			State:  h.State(now),
			Streak: h.CurrentStreakAt(now),
		}
	}
	return out
}

func (m *Model) SetHabits(habits []*models.Habit, now time.Time) {
	m.list.SetItems(items(habits, now))
}

// Selected returns the highlighted item, if any
func (m Model) Selected() (Item, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i, ok
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		i, selected := m.Selected()
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Done):
			if selected && i.State == models.ActivePending {
				return m, func() tea.Msg { return CompleteHabitMsg{ID: i.Habit.ID()} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Deactivate):
			if selected && i.State != models.Inactive {
				return m, func() tea.Msg { return DeactivateHabitMsg{ID: i.Habit.ID(), Title: i.Habit.Title()} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if selected {
				return m, func() tea.Msg { return DeleteHabitMsg{ID: i.Habit.ID(), Title: i.Habit.Title()} }
			}
			return m, nil
		case key.Matches(msg, m.keys.History):
			if selected {
				return m, func() tea.Msg { return ShowHistoryMsg{ID: i.Habit.ID()} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

// Filtering reports whether the list is capturing keys for its filter
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}
