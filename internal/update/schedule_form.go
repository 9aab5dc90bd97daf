package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"schedd/internal/model"
)

func (m Model) handleScheduleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.persistScheduleForm(true)
		m.CurrentView = ViewSchedules
		m.reload()
		return m, nil
	case "tab":
		m = m.cycleScheduleFormFocus(1)
		return m, nil
	case "shift+tab":
		m = m.cycleScheduleFormFocus(-1)
		return m, nil
	}

	switch m.Form.Focus {
	case focusName:
		var cmd tea.Cmd
		m.Form.NameInput, cmd = m.Form.NameInput.Update(msg)
		m = m.persistScheduleForm(false)
		return m, cmd
	case focusDays:
		return m.handleDayPickKey(msg), nil
	case focusRepeat:
		return m.handleRepeatKey(msg), nil
	case focusTasks:
		return m.handleFormTaskKey(msg)
	}
	return m, nil
}

func (m Model) cycleScheduleFormFocus(dir int) Model {
	order := []scheduleFormFocus{focusName, focusDays, focusRepeat, focusTasks}
	idx := 0
	for i, f := range order {
		if f == m.Form.Focus {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(order)) % len(order)
	m.Form.Focus = order[idx]
	if m.Form.Focus == focusName {
		m.Form.NameInput.Focus()
	} else {
		m.Form.NameInput.Blur()
	}
	return m
}

func (m Model) handleDayPickKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "left", "h":
		if m.Form.DayCursor > 0 {
			m.Form.DayCursor--
		}
	case "right", "l":
		if m.Form.DayCursor < 6 {
			m.Form.DayCursor++
		}
	case " ", "space", "enter":
		day := m.Form.Week[m.Form.DayCursor]
		if m.Form.Selected[day] {
			delete(m.Form.Selected, day)
		} else {
			m.Form.Selected[day] = true
		}
		m = m.persistScheduleForm(false)
	}
	return m
}

func (m Model) handleRepeatKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case " ", "space", "enter", "left", "right", "h", "l":
		if m.Form.Repeat == model.RepeatOnce {
			m.Form.Repeat = model.RepeatForever
		} else {
			m.Form.Repeat = model.RepeatOnce
		}
		m = m.persistScheduleForm(false)
	}
	return m
}

func (m Model) handleFormTaskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.Form.TaskCursor > 0 {
			m.Form.TaskCursor--
		}
	case "down", "j":
		if m.Form.TaskCursor < len(m.Form.Tasks)-1 {
			m.Form.TaskCursor++
		}
	case "n", "a":
		m = m.persistScheduleForm(true)
		if !m.scheduleFormSaved() {
			m.Status = StatusBar{Text: "name the schedule before adding tasks", IsError: true}
			return m, nil
		}
		return m.openTaskForm(m.Form.ScheduleID, ""), nil
	case "enter", "e":
		if task, ok := m.selectedFormTask(); ok {
			return m.openTaskForm(m.Form.ScheduleID, task.ID), nil
		}
	case "d":
		return m.deleteSelectedFormTask(), nil
	}
	return m, nil
}

func (m Model) selectedFormTask() (model.Task, bool) {
	if m.Form.TaskCursor < 0 || m.Form.TaskCursor >= len(m.Form.Tasks) {
		return model.Task{}, false
	}
	return m.Form.Tasks[m.Form.TaskCursor], true
}

func (m Model) deleteSelectedFormTask() Model {
	task, ok := m.selectedFormTask()
	if !ok {
		return m
	}
	removed, err := m.store.DeleteTask(storeContext(), task.ID)
	if err != nil {
		m.Status = StatusBar{Text: "delete failed: " + err.Error(), IsError: true}
		return m
	}
	if m.alarms != nil {
		m.alarms.CancelTask(removed)
	}
	m.Status = StatusBar{Text: "deleted task: " + removed.Name}
	m.Form.Tasks = m.store.TasksForSchedule(storeContext(), m.Form.ScheduleID)
	if m.Form.TaskCursor >= len(m.Form.Tasks) && m.Form.TaskCursor > 0 {
		m.Form.TaskCursor--
	}
	return m
}

func (m Model) scheduleFormName() string {
	return strings.TrimSpace(m.Form.NameInput.Value())
}

func (m Model) scheduleFormSaved() bool {
	_, err := m.store.GetSchedule(storeContext(), m.Form.ScheduleID)
	return err == nil
}

func (m Model) formSchedule() model.Schedule {
	dates := append([]model.Date(nil), m.Form.Retained...)
	for _, day := range m.Form.Week {
		if m.Form.Selected[day] {
			dates = append(dates, day)
		}
	}
	return model.Schedule{
		ID:          m.Form.ScheduleID,
		Name:        m.scheduleFormName(),
		ActiveDates: dates,
		Repeat:      m.Form.Repeat,
	}
}

// persistScheduleForm saves the form after every edit, so there is no
// explicit save step. An unnamed schedule is not saved; leaving the
// form unnamed discards it, with a status hint when the user cared
// enough to edit other fields.
func (m Model) persistScheduleForm(leaving bool) Model {
	name := m.scheduleFormName()
	if name == "" {
		if leaving && (len(m.Form.Selected) > 0 || len(m.Form.Tasks) > 0) {
			m.Status = StatusBar{Text: "unnamed schedule discarded", IsError: true}
		}
		return m
	}
	sched := m.formSchedule()
	if err := m.store.UpsertSchedule(storeContext(), sched); err != nil {
		m.Status = StatusBar{Text: "save failed: " + err.Error(), IsError: true}
		return m
	}
	m = m.resyncScheduleTasks(sched)
	return m
}

// resyncScheduleTasks re-arms every task of the schedule, since a date
// or repeat edit moves their next occurrences.
func (m Model) resyncScheduleTasks(sched model.Schedule) Model {
	if m.alarms == nil {
		return m
	}
	ctx := storeContext()
	for _, task := range m.store.TasksForSchedule(ctx, sched.ID) {
		updated, err := m.alarms.SyncTask(task, sched, m.Now)
		if err != nil {
			m = m.noteSyncError(err)
		}
		if err := m.store.UpsertTask(ctx, updated); err != nil {
			m.Status = StatusBar{Text: "save failed: " + err.Error(), IsError: true}
		}
	}
	m.Form.Tasks = m.store.TasksForSchedule(ctx, sched.ID)
	return m
}
