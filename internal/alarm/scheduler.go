package alarm

import (
	"context"
	"errors"
	"time"

	"schedd/internal/applog"
	"schedd/internal/model"
	"schedd/internal/recur"
	"schedd/internal/storage"
)

// ErrPermissionDenied means the platform has no way to deliver
// notifications (no notification command available). Tasks are still
// persisted; no alarm fires.
var ErrPermissionDenied = errors.New("alarm: notification permission denied")

// Armer is the notification facility contract the scheduler talks to.
type Armer interface {
	ScheduleAt(at time.Time, p Payload) (string, error)
	Cancel(handle string)
}

// Scheduler keeps device alarms consistent with stored tasks: on every
// save it cancels the task's previous start alarm and arms a new one at
// the next occurrence of the task's start time.
type Scheduler struct {
	armer    Armer
	store    *storage.Store
	notifier DesktopNotifier
}

func NewScheduler(armer Armer, store *storage.Store, notifier DesktopNotifier) *Scheduler {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Scheduler{armer: armer, store: store, notifier: notifier}
}

// SyncTask cancels any previously armed start alarm for the task, then
// arms one at the next start occurrence after now. The returned task
// carries the new handle (or none, when the schedule has no future
// occurrence or permission is denied). On ErrPermissionDenied the caller
// must persist the task anyway.
func (s *Scheduler) SyncTask(task model.Task, sched model.Schedule, now time.Time) (model.Task, error) {
	if task.StartNotificationID != "" {
		s.armer.Cancel(task.StartNotificationID)
		task.StartNotificationID = ""
	}

	at, ok := recur.NextStart(sched, task, now)
	if !ok {
		return task, nil
	}

	if !s.notifier.Available() {
		return task, ErrPermissionDenied
	}

	handle, err := s.armer.ScheduleAt(at, Payload{TaskID: task.ID, TaskName: task.Name})
	if err != nil {
		return task, err
	}
	task.StartNotificationID = handle
	return task, nil
}

// CancelTask disarms the task's outstanding alarm, if any. Idempotent.
func (s *Scheduler) CancelTask(task model.Task) {
	if task.StartNotificationID != "" {
		s.armer.Cancel(task.StartNotificationID)
	}
}

// CancelAll disarms every task in the list, used on cascade deletion.
func (s *Scheduler) CancelAll(tasks []model.Task) {
	for _, task := range tasks {
		s.CancelTask(task)
	}
}

// RearmAll re-arms the next occurrence for every stored task. Run at
// launch and nightly, since armed triggers are single absolute instants
// that do not recur at the notification layer.
func (s *Scheduler) RearmAll(ctx context.Context, now time.Time) error {
	schedules := make(map[string]model.Schedule)
	for _, sched := range s.store.Schedules(ctx) {
		schedules[sched.ID] = sched
	}

	var denied bool
	tasks := s.store.Tasks(ctx)
	for i, task := range tasks {
		sched, ok := schedules[task.ScheduleID]
		if !ok {
			applog.Error("task references missing schedule, skipping re-arm", storage.ErrNotFound,
				"task", task.ID, "schedule", task.ScheduleID)
			continue
		}
		updated, err := s.SyncTask(task, sched, now)
		if err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				applog.Info("notifications unavailable, tasks left unarmed")
				denied = true
			} else {
				applog.Error("re-arm failed", err, "task", task.ID)
			}
		}
		tasks[i] = updated
	}
	if err := s.store.SaveTasks(ctx, tasks); err != nil {
		return err
	}
	if denied {
		return ErrPermissionDenied
	}
	return nil
}

// Notify posts the fired alarm to the desktop, mirroring the alarm
// screen. Failures are logged, never fatal.
func (s *Scheduler) Notify(ev Event) {
	title := "Starting: " + ev.Payload.TaskName
	if err := s.notifier.Send(title, "Time to switch tasks!"); err != nil {
		applog.Error("desktop notification failed", err, "task", ev.Payload.TaskID)
	}
}
