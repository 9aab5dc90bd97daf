package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"schedd/internal/agenda"
	"schedd/internal/model"

	"github.com/google/uuid"
)

func (m Model) handleSchedulesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.ListCursor > 0 {
			m.ListCursor--
		}
	case "down", "j":
		if m.ListCursor < len(m.Schedules)-1 {
			m.ListCursor++
		}
	case "a":
		return m.openScheduleForm(""), nil
	case "enter", "e":
		if sched, ok := m.selectedSchedule(); ok {
			return m.openScheduleForm(sched.ID), nil
		}
	case "d":
		return m.deleteSelectedSchedule(), nil
	}
	return m, nil
}

func (m Model) selectedSchedule() (model.Schedule, bool) {
	if m.ListCursor < 0 || m.ListCursor >= len(m.Schedules) {
		return model.Schedule{}, false
	}
	return m.Schedules[m.ListCursor], true
}

// deleteSelectedSchedule cascade-deletes the schedule's tasks and
// disarms every alarm they held.
func (m Model) deleteSelectedSchedule() Model {
	sched, ok := m.selectedSchedule()
	if !ok {
		return m
	}
	removed, err := m.store.DeleteSchedule(storeContext(), sched.ID)
	if err != nil {
		m.Status = StatusBar{Text: "delete failed: " + err.Error(), IsError: true}
		return m
	}
	if m.alarms != nil {
		m.alarms.CancelAll(removed)
	}
	m.Status = StatusBar{Text: "deleted schedule: " + sched.Name}
	m.reload()
	if m.ListCursor >= len(m.Schedules) && m.ListCursor > 0 {
		m.ListCursor--
	}
	return m
}

// openScheduleForm loads an existing schedule into the form, or seeds a
// fresh one. A stale id (deleted underneath the list) falls back to a
// fresh form.
func (m Model) openScheduleForm(id string) Model {
	ctx := storeContext()
	week := agenda.WeekOf(model.DateOf(m.Now))

	form := ScheduleFormState{
		ScheduleID: uuid.NewString(),
		NameInput:  newTextInput("Schedule name", 64),
		Week:       week,
		Selected:   make(map[model.Date]bool),
		Repeat:     model.RepeatOnce,
	}

	if id != "" {
		if sched, err := m.store.GetSchedule(ctx, id); err == nil {
			form.ScheduleID = sched.ID
			form.NameInput.SetValue(sched.Name)
			form.Repeat = sched.Repeat
			for _, d := range sched.ActiveDates {
				switch {
				case !d.Before(week[0]) && !d.After(week[6]):
					form.Selected[d] = true
				case sched.Repeat == model.RepeatForever:
					// A forever schedule is a weekday pattern, so
					// picks from past weeks map onto this week's
					// matching day.
					form.Selected[week[int(d.Weekday())]] = true
				default:
					form.Retained = append(form.Retained, d)
				}
			}
			form.Tasks = m.store.TasksForSchedule(ctx, sched.ID)
		}
	}

	form.NameInput.Focus()
	m.Form = form
	m.CurrentView = ViewScheduleForm
	return m
}
