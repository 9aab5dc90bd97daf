// Package recur decides on which calendar dates a schedule is active and
// when its tasks next start. Evaluation is pure: the stored schedule is
// never mutated and results are recomputed per date, never cached.
package recur

import (
	"time"

	"github.com/teambition/rrule-go"

	"schedd/internal/model"
)

// IsActiveOn reports whether the schedule is active on the given date.
//
// Once schedules match only the literal picked dates. Forever schedules
// match every date whose weekday appears among the picked dates, with no
// start floor and no end date. A schedule with no picked dates is active
// on no date regardless of repeat mode.
func IsActiveOn(s model.Schedule, d model.Date) bool {
	if len(s.ActiveDates) == 0 {
		return false
	}
	switch s.Repeat {
	case model.RepeatForever:
		wd := d.Weekday()
		for _, a := range s.ActiveDates {
			if a.Weekday() == wd {
				return true
			}
		}
		return false
	default:
		// Once, and anything unrecognized, falls back to literal dates.
		return s.HasDate(d)
	}
}

// ActiveDatesInRange lists the dates in [from, to] on which the schedule
// is active, in ascending order.
func ActiveDatesInRange(s model.Schedule, from, to model.Date) []model.Date {
	var out []model.Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		if IsActiveOn(s, d) {
			out = append(out, d)
		}
	}
	return out
}

// NextStart returns the next instant strictly after now at which the
// task starts under its schedule's recurrence, and false when no future
// occurrence exists (a once schedule whose dates have all passed, or a
// schedule with no dates).
func NextStart(s model.Schedule, task model.Task, now time.Time) (time.Time, bool) {
	if len(s.ActiveDates) == 0 {
		return time.Time{}, false
	}
	switch s.Repeat {
	case model.RepeatForever:
		return nextWeeklyStart(s, task, now)
	default:
		return nextLiteralStart(s, task, now)
	}
}

func nextLiteralStart(s model.Schedule, task model.Task, now time.Time) (time.Time, bool) {
	var best time.Time
	for _, d := range s.ActiveDates {
		at := d.At(task.StartTime)
		if !at.After(now) {
			continue
		}
		if best.IsZero() || at.Before(best) {
			best = at
		}
	}
	return best, !best.IsZero()
}

func nextWeeklyStart(s model.Schedule, task model.Task, now time.Time) (time.Time, bool) {
	earliest := s.ActiveDates[0]
	for _, d := range s.ActiveDates[1:] {
		if d.Before(earliest) {
			earliest = d
		}
	}

	byday := make([]rrule.Weekday, 0, len(s.ActiveDates))
	for _, wd := range s.Weekdays() {
		byday = append(byday, rruleWeekday(wd))
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   earliest.At(task.StartTime),
		Byweekday: byday,
	})
	if err != nil {
		return time.Time{}, false
	}
	next := r.After(now, false)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

func rruleWeekday(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
