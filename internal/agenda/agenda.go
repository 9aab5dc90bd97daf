// Package agenda materializes task templates into concrete, time-stamped
// task instances for a date or a date range.
package agenda

import (
	"sort"
	"time"

	"schedd/internal/model"
	"schedd/internal/recur"
)

// TasksForDate produces one instance per task whose schedule is active
// on the date, with start/end built from the date plus the template's
// time-of-day. Instances are sorted by start time ascending; ties keep
// template insertion order.
func TasksForDate(schedules []model.Schedule, tasks []model.Task, date model.Date) []model.TaskInstance {
	active := make(map[string]model.Schedule, len(schedules))
	for _, s := range schedules {
		if recur.IsActiveOn(s, date) {
			active[s.ID] = s
		}
	}

	out := make([]model.TaskInstance, 0)
	for _, task := range tasks {
		s, ok := active[task.ScheduleID]
		if !ok {
			continue
		}
		out = append(out, model.TaskInstance{
			TaskID:       task.ID,
			ScheduleID:   s.ID,
			ScheduleName: s.Name,
			Name:         task.Name,
			Start:        date.At(task.StartTime),
			End:          date.At(task.EndTime),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// TasksForRange materializes each date in [from, to] independently;
// recurrence is re-evaluated per date, never assumed constant across
// the range.
func TasksForRange(schedules []model.Schedule, tasks []model.Task, from, to model.Date) []model.TaskInstance {
	out := make([]model.TaskInstance, 0)
	for d := from; !d.After(to); d = d.AddDays(1) {
		out = append(out, TasksForDate(schedules, tasks, d)...)
	}
	return out
}

// Current picks the single instance whose [start, end) interval contains
// now. When overlapping instances qualify, the earliest-starting one
// wins. No qualifying instance is not an error: ok is false.
func Current(instances []model.TaskInstance, now time.Time) (model.TaskInstance, bool) {
	var best model.TaskInstance
	found := false
	for _, inst := range instances {
		if !inst.Contains(now) {
			continue
		}
		if !found || inst.Start.Before(best.Start) {
			best = inst
			found = true
		}
	}
	return best, found
}

// WeekOf returns the fixed 7-day window beginning on the most recent
// Sunday on/before the given date.
func WeekOf(today model.Date) [7]model.Date {
	start := today.AddDays(-int(today.Weekday()))
	var week [7]model.Date
	for i := range week {
		week[i] = start.AddDays(i)
	}
	return week
}

// ScheduleSpan is the first-start to last-end window of one schedule's
// instances on a single date, shown on the week view's day cards.
type ScheduleSpan struct {
	ScheduleID   string
	ScheduleName string
	Start        time.Time
	End          time.Time
	TaskCount    int
}

// SpansForDate groups the date's instances by schedule, ordered by each
// schedule's earliest start.
func SpansForDate(schedules []model.Schedule, tasks []model.Task, date model.Date) []ScheduleSpan {
	instances := TasksForDate(schedules, tasks, date)
	index := make(map[string]int)
	out := make([]ScheduleSpan, 0)
	for _, inst := range instances {
		i, ok := index[inst.ScheduleID]
		if !ok {
			index[inst.ScheduleID] = len(out)
			out = append(out, ScheduleSpan{
				ScheduleID:   inst.ScheduleID,
				ScheduleName: inst.ScheduleName,
				Start:        inst.Start,
				End:          inst.End,
				TaskCount:    1,
			})
			continue
		}
		if inst.End.After(out[i].End) {
			out[i].End = inst.End
		}
		out[i].TaskCount++
	}
	return out
}
