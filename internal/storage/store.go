package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"schedd/internal/applog"
	"schedd/internal/model"
)

// Store keeps the two flat collections (schedules, tasks) in the record
// store, each as one JSON array under its well-known key.
//
// Every mutation is a whole-collection read-modify-write. That is not
// atomic against concurrent writers and is acceptable only because the
// UI is the sole writer, one action at a time.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Schedules loads the schedule collection. A missing key and malformed
// stored data both read as an empty collection.
func (s *Store) Schedules(ctx context.Context) []model.Schedule {
	out := make([]model.Schedule, 0)
	loadCollection(ctx, s.kv, KeySchedules, &out)
	return out
}

// Tasks loads the task collection, with the same empty fallback.
func (s *Store) Tasks(ctx context.Context) []model.Task {
	out := make([]model.Task, 0)
	loadCollection(ctx, s.kv, KeyTasks, &out)
	return out
}

func loadCollection(ctx context.Context, kv KV, key string, dest any) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		applog.Error("record store read failed, using empty collection", err, "key", key)
		return
	}
	if !found {
		return
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		applog.Error("stored collection is malformed, using empty collection", err, "key", key)
	}
}

func (s *Store) SaveSchedules(ctx context.Context, schedules []model.Schedule) error {
	return saveCollection(ctx, s.kv, KeySchedules, schedules)
}

func (s *Store) SaveTasks(ctx context.Context, tasks []model.Task) error {
	return saveCollection(ctx, s.kv, KeyTasks, tasks)
}

func saveCollection(ctx context.Context, kv KV, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, id string) (model.Schedule, error) {
	for _, sched := range s.Schedules(ctx) {
		if sched.ID == id {
			return sched, nil
		}
	}
	return model.Schedule{}, ErrNotFound
}

func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	for _, task := range s.Tasks(ctx) {
		if task.ID == id {
			return task, nil
		}
	}
	return model.Task{}, ErrNotFound
}

// UpsertSchedule replaces the schedule with the same id, or appends it.
func (s *Store) UpsertSchedule(ctx context.Context, in model.Schedule) error {
	if err := in.Validate(); err != nil {
		return err
	}
	schedules := s.Schedules(ctx)
	replaced := false
	for i := range schedules {
		if schedules[i].ID == in.ID {
			schedules[i] = in
			replaced = true
			break
		}
	}
	if !replaced {
		schedules = append(schedules, in)
	}
	return s.SaveSchedules(ctx, schedules)
}

// UpsertTask replaces the task with the same id, or appends it.
func (s *Store) UpsertTask(ctx context.Context, in model.Task) error {
	if err := in.Validate(); err != nil {
		return err
	}
	tasks := s.Tasks(ctx)
	replaced := false
	for i := range tasks {
		if tasks[i].ID == in.ID {
			tasks[i] = in
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, in)
	}
	return s.SaveTasks(ctx, tasks)
}

// DeleteSchedule removes the schedule and cascade-deletes its tasks.
// The removed tasks are returned so the caller can cancel their alarms.
func (s *Store) DeleteSchedule(ctx context.Context, id string) ([]model.Task, error) {
	tasks := s.Tasks(ctx)
	kept := make([]model.Task, 0, len(tasks))
	removed := make([]model.Task, 0)
	for _, task := range tasks {
		if task.ScheduleID == id {
			removed = append(removed, task)
		} else {
			kept = append(kept, task)
		}
	}
	if err := s.SaveTasks(ctx, kept); err != nil {
		return nil, err
	}

	schedules := s.Schedules(ctx)
	keptSchedules := make([]model.Schedule, 0, len(schedules))
	for _, sched := range schedules {
		if sched.ID != id {
			keptSchedules = append(keptSchedules, sched)
		}
	}
	if err := s.SaveSchedules(ctx, keptSchedules); err != nil {
		return nil, err
	}
	return removed, nil
}

// DeleteTask removes one task and returns it so the caller can cancel
// its alarm.
func (s *Store) DeleteTask(ctx context.Context, id string) (model.Task, error) {
	tasks := s.Tasks(ctx)
	kept := make([]model.Task, 0, len(tasks))
	var removed model.Task
	found := false
	for _, task := range tasks {
		if task.ID == id {
			removed = task
			found = true
			continue
		}
		kept = append(kept, task)
	}
	if !found {
		return model.Task{}, ErrNotFound
	}
	if err := s.SaveTasks(ctx, kept); err != nil {
		return model.Task{}, err
	}
	return removed, nil
}

// TasksForSchedule returns the schedule's tasks sorted by start time.
func (s *Store) TasksForSchedule(ctx context.Context, scheduleID string) []model.Task {
	out := make([]model.Task, 0)
	for _, task := range s.Tasks(ctx) {
		if task.ScheduleID == scheduleID {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
