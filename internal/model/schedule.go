package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidRepeatMode = errors.New("model: invalid repeat mode")

type RepeatMode string

const (
	// RepeatOnce makes the schedule active only on the literal dates
	// the user picked.
	RepeatOnce RepeatMode = "once"
	// RepeatForever makes the schedule active every week on the same
	// weekdays as the picked dates, with no end date.
	RepeatForever RepeatMode = "forever"
)

func (r RepeatMode) IsValid() bool {
	switch r {
	case RepeatOnce, RepeatForever:
		return true
	default:
		return false
	}
}

// Schedule is a named container of task templates, active on a set of
// picked dates (once) or on their weekdays (forever).
//
// JSON field names match the record layout the mobile app stored under
// the "schedules" key, so existing data files load as-is.
type Schedule struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ActiveDates []Date     `json:"dates"`
	Repeat      RepeatMode `json:"repeat"`
}

func (s Schedule) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("model: schedule id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("model: schedule name is required")
	}
	if !s.Repeat.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRepeatMode, s.Repeat)
	}
	return nil
}

// Weekdays returns the distinct weekdays covered by ActiveDates.
func (s Schedule) Weekdays() []time.Weekday {
	seen := make(map[time.Weekday]bool, len(s.ActiveDates))
	out := make([]time.Weekday, 0, len(s.ActiveDates))
	for _, d := range s.ActiveDates {
		wd := d.Weekday()
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	return out
}

// HasDate reports whether the literal calendar date is one of the
// schedule's picked dates.
func (s Schedule) HasDate(d Date) bool {
	for _, a := range s.ActiveDates {
		if a == d {
			return true
		}
	}
	return false
}
