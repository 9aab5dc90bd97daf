package update

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"schedd/internal/alarm"
	"schedd/internal/model"
)

const clockLayout = "15:04"

func (m Model) openTaskForm(scheduleID, taskID string) Model {
	form := TaskFormState{
		TaskID:     uuid.NewString(),
		ScheduleID: scheduleID,
		NameInput:  newTextInput("Task name", 64),
		StartInput: newTextInput("09:00", 5),
		EndInput:   newTextInput("10:00", 5),
	}

	if taskID != "" {
		if task, err := m.store.GetTask(storeContext(), taskID); err == nil {
			form.TaskID = task.ID
			form.ScheduleID = task.ScheduleID
			form.NameInput.SetValue(task.Name)
			form.StartInput.SetValue(task.StartTime.Format(clockLayout))
			form.EndInput.SetValue(task.EndTime.Format(clockLayout))
		}
	}

	form.NameInput.Focus()
	m.TaskForm = form
	m.CurrentView = ViewTaskForm
	return m
}

func (m Model) handleTaskFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closeTaskForm(), nil
	case "tab", "shift+tab", "up", "down":
		dir := 1
		if msg.String() == "shift+tab" || msg.String() == "up" {
			dir = -1
		}
		m = m.cycleTaskFormFocus(dir)
		return m, nil
	case "enter":
		return m.saveTaskForm(), nil
	}

	var cmd tea.Cmd
	switch m.TaskForm.Focus {
	case fieldTaskName:
		m.TaskForm.NameInput, cmd = m.TaskForm.NameInput.Update(msg)
	case fieldTaskStart:
		m.TaskForm.StartInput, cmd = m.TaskForm.StartInput.Update(msg)
	case fieldTaskEnd:
		m.TaskForm.EndInput, cmd = m.TaskForm.EndInput.Update(msg)
	}
	return m, cmd
}

func (m Model) cycleTaskFormFocus(dir int) Model {
	fields := []taskFormField{fieldTaskName, fieldTaskStart, fieldTaskEnd}
	next := (int(m.TaskForm.Focus) + dir + len(fields)) % len(fields)
	m.TaskForm.Focus = taskFormField(next)

	m.TaskForm.NameInput.Blur()
	m.TaskForm.StartInput.Blur()
	m.TaskForm.EndInput.Blur()
	switch m.TaskForm.Focus {
	case fieldTaskName:
		m.TaskForm.NameInput.Focus()
	case fieldTaskStart:
		m.TaskForm.StartInput.Focus()
	case fieldTaskEnd:
		m.TaskForm.EndInput.Focus()
	}
	return m
}

func (m Model) closeTaskForm() Model {
	m.Form.Tasks = m.store.TasksForSchedule(storeContext(), m.Form.ScheduleID)
	m.CurrentView = ViewScheduleForm
	return m
}

// saveTaskForm validates, arms the start alarm, and persists. The task
// is persisted even when notifications are unavailable; only the alarm
// is skipped.
func (m Model) saveTaskForm() Model {
	task, errText := m.taskFromForm()
	if errText != "" {
		m.TaskForm.ErrorText = errText
		return m
	}

	ctx := storeContext()
	sched, err := m.store.GetSchedule(ctx, task.ScheduleID)
	if err != nil {
		m.TaskForm.ErrorText = "schedule no longer exists"
		return m
	}

	if m.alarms != nil {
		task, err = m.alarms.SyncTask(task, sched, m.Now)
		if err != nil {
			m = m.noteSyncError(err)
		}
	}
	if err := m.store.UpsertTask(ctx, task); err != nil {
		m.TaskForm.ErrorText = err.Error()
		return m
	}
	if !m.Status.IsError {
		m.Status = StatusBar{Text: "saved task: " + task.Name}
	}
	return m.closeTaskForm()
}

func (m Model) taskFromForm() (model.Task, string) {
	name := strings.TrimSpace(m.TaskForm.NameInput.Value())
	if name == "" {
		return model.Task{}, "task name is required"
	}
	start, err := parseClock(m.TaskForm.StartInput.Value(), m.Now)
	if err != nil {
		return model.Task{}, "start time must look like 09:00"
	}
	end, err := parseClock(m.TaskForm.EndInput.Value(), m.Now)
	if err != nil {
		return model.Task{}, "end time must look like 10:00"
	}

	task := model.Task{
		ID:         m.TaskForm.TaskID,
		ScheduleID: m.TaskForm.ScheduleID,
		Name:       name,
		StartTime:  start,
		EndTime:    end,
	}
	if existing, err := m.store.GetTask(storeContext(), task.ID); err == nil {
		task.StartNotificationID = existing.StartNotificationID
	}
	if err := task.Validate(); err != nil {
		if errors.Is(err, model.ErrEndNotAfterStart) {
			return model.Task{}, "end time must be after start time"
		}
		return model.Task{}, err.Error()
	}
	return task, ""
}

// parseClock anchors an HH:MM reading on now's calendar date, in local
// time. Only the time-of-day part ever matters downstream.
func parseClock(raw string, now time.Time) (time.Time, error) {
	parsed, err := time.Parse(clockLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, err
	}
	return model.DateOf(now).At(time.Date(0, 1, 1,
		parsed.Hour(), parsed.Minute(), 0, 0, now.Location())), nil
}

// noteSyncError maps an arming failure to the status bar. Permission
// denial is surfaced once per run, not on every save.
func (m Model) noteSyncError(err error) Model {
	if errors.Is(err, alarm.ErrPermissionDenied) {
		if !m.PermissionWarned {
			m.PermissionWarned = true
			m.Status = StatusBar{Text: "notifications unavailable, alarms will not ring", IsError: true}
		}
		return m
	}
	m.Status = StatusBar{Text: "alarm scheduling failed: " + err.Error(), IsError: true}
	return m
}
