package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEndNotAfterStart = errors.New("model: task end time must be after start time")
	ErrOvernightSpan    = errors.New("model: task may not span midnight")
)

// Task is a template: a named time interval owned by one Schedule. The
// stored StartTime/EndTime carry the calendar date the template was
// authored on; only their time-of-day matters for materialization.
//
// StartNotificationID is the handle of the currently armed start alarm,
// or empty when no alarm is armed (degraded mode, or never synced).
//
// JSON field names match the mobile app's "tasks" records.
type Task struct {
	ID                  string    `json:"id"`
	ScheduleID          string    `json:"scheduleId"`
	Name                string    `json:"name"`
	StartTime           time.Time `json:"startTime"`
	EndTime             time.Time `json:"endTime"`
	StartNotificationID string    `json:"startNotificationId,omitempty"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.ScheduleID) == "" {
		return errors.New("model: task schedule id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("model: task name is required")
	}
	if t.StartTime.IsZero() || t.EndTime.IsZero() {
		return errors.New("model: task start and end times are required")
	}
	if !t.EndTime.After(t.StartTime) {
		return ErrEndNotAfterStart
	}
	if DateOf(t.StartTime) != DateOf(t.EndTime) {
		return ErrOvernightSpan
	}
	return nil
}

// TaskInstance is a task template projected onto a concrete calendar
// date by the materializer. Start and End carry the template's
// time-of-day combined with that date.
type TaskInstance struct {
	TaskID       string
	ScheduleID   string
	ScheduleName string
	Name         string
	Start        time.Time
	End          time.Time
}

// Contains reports whether now falls within [Start, End).
func (i TaskInstance) Contains(now time.Time) bool {
	return !now.Before(i.Start) && now.Before(i.End)
}
