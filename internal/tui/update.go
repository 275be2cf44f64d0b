package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/tui/components/habits"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.resize(size)
		return m, nil
	}

	switch m.state {
	case constants.StateAddHabit:
		return m, m.handleAddHabitState(msg)
	case constants.StateConfirmDeactivate, constants.StateConfirmDelete:
		m.handleConfirmState(msg)
		return m, nil
	}

	switch msg := msg.(type) {
	case habits.AddHabitMsg:
		m.habitForm = newHabitFormModel()
		m.form = NewHabitForm(m.habitForm)
		m.previousState = m.state
		m.state = constants.StateAddHabit
		return m, m.form.Init()

	case habits.CompleteHabitMsg:
		h, err := m.tracker.Complete(msg.ID)
		if err != nil {
			m.setError(err)
		} else {
			m.setStatus(fmt.Sprintf("✓ %s done (streak %d)", h.Title(), h.CurrentStreak()))
		}
		m.reload()
		return m, nil

	case habits.DeactivateHabitMsg:
		m.confirm(constants.StateConfirmDeactivate, msg.ID, msg.Title)
		return m, nil

	case habits.DeleteHabitMsg:
		m.confirm(constants.StateConfirmDelete, msg.ID, msg.Title)
		return m, nil

	case habits.ShowHistoryMsg:
		h, err := m.tracker.Get(msg.ID)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.historyID = msg.ID
		m.historyModel.SetHabit(h)
		m.state = constants.StateHistory
		return m, nil

	case tea.KeyMsg:
		if m.state == constants.StateHabits && m.habitsModel.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = m.nextTab(1)
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = m.nextTab(-1)
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.reload()
			if m.errMsg == "" {
				m.setStatus("Refreshed")
			}
			return m, nil
		case key.Matches(msg, m.keys.Back) && m.state == constants.StateHistory:
			m.state = constants.StateHabits
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case constants.StateHabits:
		m.habitsModel, cmd = m.habitsModel.Update(msg)
	case constants.StateStats:
		m.statsModel, cmd = m.statsModel.Update(msg)
	case constants.StateHistory:
		m.historyModel, cmd = m.historyModel.Update(msg)
	}
	return m, cmd
}

func (m *Model) resize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width
	// Tabs, status line and help take about four lines
	contentHeight := msg.Height - 4

	h, v := docStyle.GetFrameSize()
	m.habitsModel.SetSize(msg.Width-h, contentHeight-v)
	m.statsModel.SetSize(msg.Width-h, contentHeight-v)
	m.historyModel.SetSize(msg.Width-h, contentHeight-v)
}

func (m Model) nextTab(step int) constants.SessionState {
	for i, t := range tabs {
		if t.state == m.state {
			return tabs[(i+step+len(tabs))%len(tabs)].state
		}
	}
	return constants.StateHabits
}

func (m *Model) confirm(state constants.SessionState, id int, title string) {
	m.pendingID = id
	m.pendingTitle = title
	m.previousState = m.state
	m.state = state
}

// handleConfirmState applies or cancels a pending deactivate or delete
func (m *Model) handleConfirmState(msg tea.Msg) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return
	}

	switch keyMsg.String() {
	case "y", "Y":
		var err error
		if m.state == constants.StateConfirmDeactivate {
			_, err = m.tracker.Deactivate(m.pendingID)
			if err == nil {
				m.setStatus(fmt.Sprintf("Deactivated %s", m.pendingTitle))
			}
		} else {
			err = m.tracker.Delete(m.pendingID)
			if err == nil {
				m.setStatus(fmt.Sprintf("Deleted %s", m.pendingTitle))
				if m.historyID == m.pendingID {
					m.historyID = 0
					m.historyModel.SetHabit(nil)
				}
			}
		}
		if err != nil {
			m.setError(err)
		}
		m.reload()
	case "n", "N", "esc", "q":
	default:
		return
	}

	m.pendingID = 0
	m.pendingTitle = ""
	m.state = m.previousState
}

// handleAddHabitState drives the add form and creates the habit on submit
func (m *Model) handleAddHabitState(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = m.previousState
		return nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		h, err := m.tracker.Add(m.habitForm.Input())
		if err != nil {
			// Stay on the form so the user can fix the input or cancel with esc
			m.setError(err)
			m.form.State = huh.StateNormal
			return cmd
		}
		m.setStatus(fmt.Sprintf("Added %s", h.Title()))
		m.reload()
		m.state = m.previousState
	case huh.StateAborted:
		m.state = m.previousState
	}
	return cmd
}
