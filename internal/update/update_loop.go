package update

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"schedd/internal/agenda"
	"schedd/internal/alarm"
	"schedd/internal/applog"
	"schedd/internal/model"
)

func storeContext() context.Context {
	return context.Background()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case TickMsg:
		m.Now = time.Time(typed)
		if m.CurrentView == ViewAlarm && !m.Now.Before(m.Alarm.Until) {
			m = m.dismissAlarm()
		}
		return m, tickCmd()

	case AlarmFiredMsg:
		next := m.handleAlarmFired(typed.Event)
		if m.engine == nil {
			return next, nil
		}
		return next, waitForAlarmCmd(m.engine.C())

	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	if keyStr == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}

	// The alarm screen ignores back/quit keys until dismissed or
	// timed out.
	if m.CurrentView == ViewAlarm {
		return m.handleAlarmKey(msg), nil
	}

	// Forms own the keyboard while a text field is focused.
	switch m.CurrentView {
	case ViewScheduleForm:
		return m.handleScheduleFormKey(msg)
	case ViewTaskForm:
		return m.handleTaskFormKey(msg)
	}

	switch keyStr {
	case "1":
		m.CurrentView = ViewHome
		m.reload()
		return m, nil
	case "2":
		m.CurrentView = ViewWeek
		m.WeekCursor = int(model.DateOf(m.Now).Weekday())
		m.reload()
		return m, nil
	case "3":
		m.CurrentView = ViewSchedules
		m.reload()
		return m, nil
	case "?":
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case "q":
		m.Quitting = true
		return m, tea.Quit
	}

	switch m.CurrentView {
	case ViewWeek:
		return m.handleWeekKey(msg), nil
	case ViewSchedules:
		return m.handleSchedulesKey(msg)
	}
	return m, nil
}

func (m Model) handleWeekKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "left", "h":
		if m.WeekCursor > 0 {
			m.WeekCursor--
		}
	case "right", "l":
		if m.WeekCursor < 6 {
			m.WeekCursor++
		}
	}
	return m
}

// handleAlarmFired takes over the screen, mirrors the alarm to the
// desktop, and immediately re-arms the fired task for its next
// occurrence so a forever schedule keeps ringing week after week.
func (m Model) handleAlarmFired(ev alarm.Event) Model {
	m.Now = time.Now()
	m.Alarm = AlarmState{Event: ev, Until: m.Now.Add(m.alarmTimeout())}
	m.CurrentView = ViewAlarm

	if m.alarms != nil {
		m.alarms.Notify(ev)
	}
	if m.cfg != nil && m.cfg.Sound != "" {
		if err := m.player.Play(m.cfg.Sound); err != nil {
			applog.Error("alarm sound failed", err, "file", m.cfg.Sound)
		}
	}
	m.rearmFiredTask(ev)
	return m
}

func (m *Model) rearmFiredTask(ev alarm.Event) {
	if m.alarms == nil {
		return
	}
	ctx := storeContext()
	task, err := m.store.GetTask(ctx, ev.Payload.TaskID)
	if err != nil {
		return
	}
	sched, err := m.store.GetSchedule(ctx, task.ScheduleID)
	if err != nil {
		return
	}
	task.StartNotificationID = ""
	updated, err := m.alarms.SyncTask(task, sched, m.Now)
	if err != nil && err != alarm.ErrPermissionDenied {
		applog.Error("re-arm after fire failed", err, "task", task.ID)
		return
	}
	if err := m.store.UpsertTask(ctx, updated); err != nil {
		applog.Error("persist re-armed task failed", err, "task", task.ID)
	}
	m.reload()
}

func (m Model) handleAlarmKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "enter", " ", "space":
		return m.dismissAlarm()
	}
	return m
}

func (m Model) dismissAlarm() Model {
	m.player.Stop()
	m.CurrentView = ViewHome
	m.Status = StatusBar{Text: "alarm dismissed: " + m.Alarm.Event.Payload.TaskName}
	m.Alarm = AlarmState{}
	m.reload()
	return m
}

// currentInstance re-derives the ongoing task from the cached
// collections, evaluated at m.Now.
func (m Model) currentInstance() (model.TaskInstance, bool) {
	today := model.DateOf(m.Now)
	instances := agenda.TasksForDate(m.Schedules, m.Tasks, today)
	return agenda.Current(instances, m.Now)
}
