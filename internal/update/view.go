package update

import (
	"fmt"
	"time"

	"schedd/internal/agenda"
	"schedd/internal/model"
	"schedd/internal/views"
)

var dayLetters = [7]string{"S", "M", "T", "W", "T", "F", "S"}

func (m Model) View() string {
	if m.Quitting {
		return "bye\n"
	}
	if m.CurrentView == ViewAlarm {
		return m.alarmView()
	}
	if m.HelpVisible {
		return views.RenderApp(views.AppData{
			Header: "schedd: Help",
			Body:   views.RenderMarkdown(helpMarkdown),
			Footer: m.helpModel.View(keys),
		})
	}

	var body string
	switch m.CurrentView {
	case ViewHome:
		body = m.homeView()
	case ViewWeek:
		body = m.weekView()
	case ViewSchedules:
		body = m.schedulesView()
	case ViewScheduleForm:
		body = m.scheduleFormView()
	case ViewTaskForm:
		body = m.taskFormView()
	}

	return views.RenderApp(views.AppData{
		Header:     "schedd: " + string(m.CurrentView),
		Body:       body,
		StatusLine: m.Status.Text,
		IsError:    m.Status.IsError,
		Footer:     m.helpModel.View(keys),
	})
}

func (m Model) homeView() string {
	data := views.HomeData{
		Clock:    m.Now.Format("15:04:05"),
		DateLine: m.Now.Format("Monday, January 2 2006"),
	}
	if inst, ok := m.currentInstance(); ok {
		data.HasCurrent = true
		data.ScheduleName = inst.ScheduleName
		data.TaskName = inst.Name
		data.TimeRange = timeRange(inst.Start, inst.End)
	}
	return views.RenderHome(data)
}

func (m Model) weekView() string {
	today := model.DateOf(m.Now)
	week := agenda.WeekOf(today)

	days := make([]views.WeekDayData, 0, 7)
	for i, d := range week {
		days = append(days, views.WeekDayData{
			Letter:    dayLetters[i],
			DayNumber: d.Day,
			Selected:  i == m.WeekCursor,
			IsToday:   d == today,
		})
	}

	cursorDate := week[m.WeekCursor]
	spans := agenda.SpansForDate(m.Schedules, m.Tasks, cursorDate)
	spanData := make([]views.SpanData, 0, len(spans))
	for _, span := range spans {
		spanData = append(spanData, views.SpanData{
			Name:      span.ScheduleName,
			TimeRange: timeRange(span.Start, span.End),
			TaskCount: span.TaskCount,
		})
	}

	return views.RenderWeek(views.WeekData{
		Days:     days,
		DayTitle: cursorDate.Midnight(time.Local).Format("Monday, January 2"),
		Spans:    spanData,
	})
}

func (m Model) schedulesView() string {
	items := make([]views.ScheduleItemData, 0, len(m.Schedules))
	for i, sched := range m.Schedules {
		items = append(items, views.ScheduleItemData{
			Name:     sched.Name,
			Detail:   scheduleDetail(sched),
			Selected: i == m.ListCursor,
		})
	}
	return views.RenderSchedules(views.SchedulesData{Items: items})
}

func scheduleDetail(sched model.Schedule) string {
	mode := "this week"
	if sched.Repeat == model.RepeatForever {
		mode = "every week"
	}
	days := sched.Weekdays()
	if len(days) == 0 {
		return mode + ", no days picked"
	}
	letters := ""
	for _, wd := range days {
		letters += dayLetters[int(wd)]
	}
	return fmt.Sprintf("%s on %s", mode, letters)
}

func (m Model) scheduleFormView() string {
	days := make([]views.WeekDayData, 0, 7)
	today := model.DateOf(m.Now)
	for i, d := range m.Form.Week {
		days = append(days, views.WeekDayData{
			Letter:    dayLetters[i],
			DayNumber: d.Day,
			Selected:  m.Form.Selected[d],
			IsToday:   d == today,
		})
	}

	tasks := make([]views.TaskRowData, 0, len(m.Form.Tasks))
	for i, task := range m.Form.Tasks {
		tasks = append(tasks, views.TaskRowData{
			Name:      task.Name,
			TimeRange: timeRange(task.StartTime, task.EndTime),
			Selected:  m.Form.Focus == focusTasks && i == m.Form.TaskCursor,
		})
	}

	title := "Edit Schedule"
	if !m.scheduleFormSaved() {
		title = "New Schedule"
	}

	return views.RenderScheduleForm(views.ScheduleFormData{
		Title:       title,
		NameInput:   m.Form.NameInput.View(),
		Days:        days,
		DaysFocused: m.Form.Focus == focusDays,
		DayCursor:   m.Form.DayCursor,
		RepeatOnce:  m.Form.Repeat == model.RepeatOnce,
		Tasks:       tasks,
		FocusHint:   scheduleFormHint(m.Form.Focus),
	})
}

func scheduleFormHint(focus scheduleFormFocus) string {
	switch focus {
	case focusName:
		return "tab: days | esc: back"
	case focusDays:
		return "h/l: move | space: toggle day | tab: repeat"
	case focusRepeat:
		return "space: toggle repeat | tab: tasks"
	case focusTasks:
		return "n: add task | enter: edit | d: delete | tab: name"
	}
	return ""
}

func (m Model) taskFormView() string {
	title := "Edit Task"
	if _, err := m.store.GetTask(storeContext(), m.TaskForm.TaskID); err != nil {
		title = "New Task"
	}
	return views.RenderTaskForm(views.TaskFormData{
		Title:      title,
		NameInput:  m.TaskForm.NameInput.View(),
		StartInput: m.TaskForm.StartInput.View(),
		EndInput:   m.TaskForm.EndInput.View(),
		ErrorText:  m.TaskForm.ErrorText,
	})
}

func (m Model) alarmView() string {
	left := int(m.Alarm.Until.Sub(m.Now).Seconds())
	if left < 0 {
		left = 0
	}
	return views.RenderAlarm(views.AlarmData{
		TaskName:    m.Alarm.Event.Payload.TaskName,
		SecondsLeft: left,
	})
}

func timeRange(start, end time.Time) string {
	return start.Format("15:04") + " - " + end.Format("15:04")
}

const helpMarkdown = `# schedd

A daily scheduler. Schedules group tasks; tasks ring an alarm at their
start time on every day the schedule is active.

## Views

- **1** Home: clock and the task running right now
- **2** Week: S through S day cards for this week
- **3** Schedules: create, edit, and delete schedules

## Schedules view

- **j/k** move, **a** add, **enter/e** edit, **d** delete

## Schedule form

Edits save automatically once the schedule has a name.

- **tab** cycle name, days, repeat, tasks
- **space** toggle the highlighted day or the repeat mode
- **n** add a task, **d** delete the highlighted one

## Task form

- **tab** next field, **enter** save, **esc** cancel
- Times are 24h clock readings, like ` + "`21:30`" + `

## Alarm screen

Rings at a task's start. **enter** dismisses; it auto-dismisses after
the configured timeout. Navigation keys are ignored while it is up.
`
