package update

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"schedd/internal/alarm"
	"schedd/internal/config"
	"schedd/internal/model"
	"schedd/internal/storage"
)

type memKV struct {
	data map[string]string
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (k *memKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := k.data[key]
	return v, ok, nil
}

func (k *memKV) Set(_ context.Context, key, value string) error {
	k.data[key] = value
	return nil
}

type stubArmer struct {
	arms    int
	cancels []string
}

func (a *stubArmer) ScheduleAt(at time.Time, p alarm.Payload) (string, error) {
	a.arms++
	return fmt.Sprintf("h%d", a.arms), nil
}

func (a *stubArmer) Cancel(handle string) {
	a.cancels = append(a.cancels, handle)
}

type deniedNotifier struct{}

func (deniedNotifier) Available() bool               { return false }
func (deniedNotifier) Send(title, body string) error { return nil }

func newTestModel(t *testing.T) (Model, *storage.Store, *stubArmer) {
	t.Helper()
	store := storage.NewStore(newMemKV())
	armer := &stubArmer{}
	sched := alarm.NewScheduler(armer, store, alarm.NoopNotifier{})
	cfg := config.DefaultConfig()
	cfg.Sound = ""
	m := NewModel(store, sched, nil, nil, cfg)
	// fixed clock keeps date math away from midnight boundaries
	m.Now = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.Local)
	return m, store, armer
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(keyMsg(k))
		m = updated.(Model)
	}
	return m
}

func TestNewModelDefaults(t *testing.T) {
	m, _, _ := newTestModel(t)
	if m.CurrentView != ViewHome {
		t.Fatalf("expected default view %q, got %q", ViewHome, m.CurrentView)
	}
	if len(m.Schedules) != 0 || len(m.Tasks) != 0 {
		t.Fatalf("expected empty collections, got %d schedules %d tasks", len(m.Schedules), len(m.Tasks))
	}
}

func TestKeySwitchesView(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "2")
	if m.CurrentView != ViewWeek {
		t.Fatalf("expected week view, got %q", m.CurrentView)
	}
	if m.WeekCursor != int(model.DateOf(m.Now).Weekday()) {
		t.Fatalf("expected week cursor on today, got %d", m.WeekCursor)
	}
	m = press(t, m, "3")
	if m.CurrentView != ViewSchedules {
		t.Fatalf("expected schedules view, got %q", m.CurrentView)
	}
	m = press(t, m, "1")
	if m.CurrentView != ViewHome {
		t.Fatalf("expected home view, got %q", m.CurrentView)
	}
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newTestModel(t)
	updated, cmd := m.Update(keyMsg("q"))
	next := updated.(Model)
	if !next.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestScheduleFormAutoSaves(t *testing.T) {
	m, store, _ := newTestModel(t)
	m = press(t, m, "3", "a")
	if m.CurrentView != ViewScheduleForm {
		t.Fatalf("expected schedule form, got %q", m.CurrentView)
	}

	m = press(t, m, "G", "y", "m")
	schedules := store.Schedules(context.Background())
	if len(schedules) != 1 {
		t.Fatalf("expected schedule saved while typing, got %d", len(schedules))
	}
	if schedules[0].Name != "Gym" {
		t.Fatalf("expected name Gym, got %q", schedules[0].Name)
	}

	// tab to the day row, toggle the first day
	m = press(t, m, "tab", "space")
	schedules = store.Schedules(context.Background())
	if len(schedules[0].ActiveDates) != 1 {
		t.Fatalf("expected one picked date, got %d", len(schedules[0].ActiveDates))
	}
	wantDate := m.Form.Week[0]
	if schedules[0].ActiveDates[0] != wantDate {
		t.Fatalf("expected date %s, got %s", wantDate, schedules[0].ActiveDates[0])
	}

	// tab to repeat, toggle to forever
	m = press(t, m, "tab", "space")
	schedules = store.Schedules(context.Background())
	if schedules[0].Repeat != model.RepeatForever {
		t.Fatalf("expected forever repeat, got %q", schedules[0].Repeat)
	}
}

func TestUnnamedScheduleDiscarded(t *testing.T) {
	m, store, _ := newTestModel(t)
	m = press(t, m, "3", "a", "tab", "space", "esc")
	if m.CurrentView != ViewSchedules {
		t.Fatalf("expected schedules view after esc, got %q", m.CurrentView)
	}
	if got := store.Schedules(context.Background()); len(got) != 0 {
		t.Fatalf("expected no schedule saved, got %d", len(got))
	}
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "discarded") {
		t.Fatalf("expected discard status, got %+v", m.Status)
	}
}

func seedSchedule(t *testing.T, m Model, store *storage.Store) model.Schedule {
	t.Helper()
	sched := model.Schedule{
		ID:          "s1",
		Name:        "Gym",
		Repeat:      model.RepeatForever,
		ActiveDates: []model.Date{model.DateOf(m.Now)},
	}
	if err := store.UpsertSchedule(context.Background(), sched); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	return sched
}

func TestTaskFormSaveArmsAlarm(t *testing.T) {
	m, store, armer := newTestModel(t)
	sched := seedSchedule(t, m, store)
	m.reload()

	m = m.openTaskForm(sched.ID, "")
	m.TaskForm.NameInput.SetValue("Lift")
	m.TaskForm.StartInput.SetValue("09:00")
	m.TaskForm.EndInput.SetValue("10:00")
	m = press(t, m, "enter")

	if m.CurrentView != ViewScheduleForm {
		t.Fatalf("expected return to schedule form, got %q", m.CurrentView)
	}
	tasks := store.Tasks(context.Background())
	if len(tasks) != 1 {
		t.Fatalf("expected one task saved, got %d", len(tasks))
	}
	if tasks[0].StartNotificationID == "" {
		t.Fatal("expected an armed alarm handle on the saved task")
	}
	if armer.arms != 1 {
		t.Fatalf("expected one armed alarm, got %d", armer.arms)
	}
}

func TestTaskFormRejectsInvertedInterval(t *testing.T) {
	m, store, _ := newTestModel(t)
	sched := seedSchedule(t, m, store)
	m.reload()

	m = m.openTaskForm(sched.ID, "")
	m.TaskForm.NameInput.SetValue("Lift")
	m.TaskForm.StartInput.SetValue("10:00")
	m.TaskForm.EndInput.SetValue("09:00")
	m = press(t, m, "enter")

	if m.CurrentView != ViewTaskForm {
		t.Fatalf("expected to stay on task form, got %q", m.CurrentView)
	}
	if !strings.Contains(m.TaskForm.ErrorText, "after start") {
		t.Fatalf("expected interval error, got %q", m.TaskForm.ErrorText)
	}
	if got := store.Tasks(context.Background()); len(got) != 0 {
		t.Fatalf("expected no task saved, got %d", len(got))
	}
}

func TestTaskFormRejectsBadClock(t *testing.T) {
	m, store, _ := newTestModel(t)
	sched := seedSchedule(t, m, store)
	m.reload()

	m = m.openTaskForm(sched.ID, "")
	m.TaskForm.NameInput.SetValue("Lift")
	m.TaskForm.StartInput.SetValue("9am")
	m.TaskForm.EndInput.SetValue("10:00")
	m = press(t, m, "enter")

	if m.TaskForm.ErrorText == "" {
		t.Fatal("expected clock parse error")
	}
	if got := store.Tasks(context.Background()); len(got) != 0 {
		t.Fatalf("expected no task saved, got %d", len(got))
	}
}

func TestPermissionDeniedStillPersistsAndWarnsOnce(t *testing.T) {
	store := storage.NewStore(newMemKV())
	armer := &stubArmer{}
	sched := alarm.NewScheduler(armer, store, deniedNotifier{})
	m := NewModel(store, sched, nil, nil, config.DefaultConfig())
	seeded := seedSchedule(t, m, store)
	m.reload()

	m = m.openTaskForm(seeded.ID, "")
	m.TaskForm.NameInput.SetValue("Lift")
	m.TaskForm.StartInput.SetValue("09:00")
	m.TaskForm.EndInput.SetValue("10:00")
	m = press(t, m, "enter")

	tasks := store.Tasks(context.Background())
	if len(tasks) != 1 {
		t.Fatalf("expected task persisted despite denial, got %d", len(tasks))
	}
	if tasks[0].StartNotificationID != "" {
		t.Fatalf("expected no handle, got %q", tasks[0].StartNotificationID)
	}
	if !m.PermissionWarned || !m.Status.IsError {
		t.Fatalf("expected one-time warning, got warned=%v status=%+v", m.PermissionWarned, m.Status)
	}

	// a second save must not re-warn
	m.Status = StatusBar{}
	m = m.openTaskForm(seeded.ID, "")
	m.TaskForm.NameInput.SetValue("Stretch")
	m.TaskForm.StartInput.SetValue("10:00")
	m.TaskForm.EndInput.SetValue("11:00")
	m = press(t, m, "enter")
	if m.Status.IsError {
		t.Fatalf("expected no repeat warning, got %+v", m.Status)
	}
}

func TestDeleteScheduleCancelsAlarms(t *testing.T) {
	m, store, armer := newTestModel(t)
	sched := seedSchedule(t, m, store)
	m.reload()

	m = m.openTaskForm(sched.ID, "")
	m.TaskForm.NameInput.SetValue("Lift")
	m.TaskForm.StartInput.SetValue("09:00")
	m.TaskForm.EndInput.SetValue("10:00")
	m = press(t, m, "enter")

	m.CurrentView = ViewSchedules
	m.reload()
	m.ListCursor = 0
	m = press(t, m, "d")

	if got := store.Schedules(context.Background()); len(got) != 0 {
		t.Fatalf("expected schedule deleted, got %d", len(got))
	}
	if got := store.Tasks(context.Background()); len(got) != 0 {
		t.Fatalf("expected cascade task deletion, got %d", len(got))
	}
	if len(armer.cancels) == 0 {
		t.Fatal("expected the task's alarm cancelled")
	}
}

func TestAlarmFiredTakesOverScreen(t *testing.T) {
	m, store, _ := newTestModel(t)
	sched := seedSchedule(t, m, store)
	task := model.Task{
		ID:         "t1",
		ScheduleID: sched.ID,
		Name:       "Lift",
		StartTime:  m.Now,
		EndTime:    m.Now.Add(time.Hour),
	}
	if err := store.UpsertTask(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	m.reload()

	ev := alarm.Event{
		Handle:    "h1",
		TriggerAt: m.Now,
		Payload:   alarm.Payload{TaskID: task.ID, TaskName: task.Name},
	}
	updated, _ := m.Update(AlarmFiredMsg{Event: ev})
	m = updated.(Model)

	if m.CurrentView != ViewAlarm {
		t.Fatalf("expected alarm view, got %q", m.CurrentView)
	}
	out := m.View()
	if !strings.Contains(out, "Lift") {
		t.Fatalf("expected alarm screen to name the task: %q", out)
	}

	// the fired task is immediately re-armed for its next occurrence
	tasks := store.Tasks(context.Background())
	if tasks[0].StartNotificationID == "" {
		t.Fatal("expected fired task re-armed")
	}

	// navigation and quit keys are ignored while the alarm is up
	m = press(t, m, "q", "1", "esc")
	if m.CurrentView != ViewAlarm {
		t.Fatalf("expected alarm view to hold, got %q", m.CurrentView)
	}

	m = press(t, m, "enter")
	if m.CurrentView != ViewHome {
		t.Fatalf("expected home after dismiss, got %q", m.CurrentView)
	}
}

func TestAlarmAutoDismissesOnTimeout(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.CurrentView = ViewAlarm
	m.Alarm = AlarmState{
		Event: alarm.Event{Payload: alarm.Payload{TaskName: "Lift"}},
		Until: m.Now.Add(-time.Second),
	}
	updated, _ := m.Update(TickMsg(m.Now))
	m = updated.(Model)
	if m.CurrentView != ViewHome {
		t.Fatalf("expected auto dismiss to home, got %q", m.CurrentView)
	}
}

func TestHelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "?")
	if !m.HelpVisible {
		t.Fatal("expected help visible")
	}
	out := m.View()
	if !strings.Contains(out, "Help") {
		t.Fatalf("expected help header, got %q", out)
	}
	m = press(t, m, "?")
	if m.HelpVisible {
		t.Fatal("expected help hidden")
	}
}

func TestHomeViewShowsCurrentTask(t *testing.T) {
	m, store, _ := newTestModel(t)
	sched := seedSchedule(t, m, store)
	task := model.Task{
		ID:         "t1",
		ScheduleID: sched.ID,
		Name:       "Lift",
		StartTime:  m.Now.Add(-time.Minute),
		EndTime:    m.Now.Add(time.Hour),
	}
	if err := store.UpsertTask(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	m.reload()

	out := m.View()
	if !strings.Contains(out, "Lift") {
		t.Fatalf("expected ongoing task on home view, got %q", out)
	}
}
