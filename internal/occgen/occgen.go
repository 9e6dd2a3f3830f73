// Package occgen turns schedule iterator output into fully-populated
// occurrence records. It is polymorphic over schedule variant: Generator is
// an interface with one concrete implementation per Schedule.Kind, the
// acceptable alternative (per the engine's design notes) to the source's
// trait-object-based OccGen.
package occgen

import (
	"time"

	"github.com/rezkam/keepup/internal/civil"
	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/schediter"
)

// Generator produces occurrences for one schedule variant.
type Generator interface {
	// GenerateFirst returns the first occurrence whose end is at or after
	// now (for events: the first matching date on or after now's date, even
	// when its time of day is earlier than now), or ok=false if the schedule
	// never produces one (e.g. an already-past fixed Date filter).
	GenerateFirst(now time.Time) (domain.Occurrence, bool)
	// GenerateAfter returns occurrences strictly after last, up to and
	// including one whose end crosses horizon.
	GenerateAfter(last domain.Occurrence, horizon time.Time) []domain.Occurrence
}

// For builds the Generator matching schedule.Kind.
func For(schedule domain.Schedule) Generator {
	switch schedule.Kind {
	case domain.ScheduleEvent:
		return eventGen{schedule.Event}
	case domain.ScheduleProgressTask:
		return progressTaskGen{schedule.ProgressTask}
	case domain.ScheduleDeadlineTask:
		return deadlineTaskGen{schedule.DeadlineTask}
	default:
		return noopGen{}
	}
}

type noopGen struct{}

func (noopGen) GenerateFirst(time.Time) (domain.Occurrence, bool)            { return domain.Occurrence{}, false }
func (noopGen) GenerateAfter(domain.Occurrence, time.Time) []domain.Occurrence { return nil }

func newOcc(start, end time.Time) domain.Occurrence {
	return domain.Occurrence{Active: true, Start: start, End: end, TaskCompletionProgress: 0}
}

func dateOfInstant(t time.Time) civil.Date {
	u := t.UTC()
	return civil.Date{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// --- Event ---

type eventGen struct {
	sched domain.EventSchedule
}

func (g eventGen) occAt(day civil.Date) domain.Occurrence {
	instant := day.ToUTC(g.sched.Time)
	return newOcc(instant, instant)
}

func (g eventGen) GenerateFirst(now time.Time) (domain.Occurrence, bool) {
	today := dateOfInstant(now)
	it := schediter.NewDayFilterIter(g.sched.Days, g.sched.InitialDay)
	for {
		d, ok := it.Next()
		if !ok {
			return domain.Occurrence{}, false
		}
		if !d.Before(today) {
			return g.occAt(d), true
		}
	}
}

func (g eventGen) GenerateAfter(last domain.Occurrence, horizon time.Time) []domain.Occurrence {
	lastDay := dateOfInstant(last.Start)
	startFrom := civil.AddDays(lastDay, 1)
	it := schediter.NewDayFilterIter(g.sched.Days, startFrom)
	var out []domain.Occurrence
	for {
		d, ok := it.Next()
		if !ok {
			return out
		}
		occ := g.occAt(d)
		out = append(out, occ)
		if !occ.End.Before(horizon) {
			return out
		}
	}
}

// --- ProgressTask ---

type progressTaskGen struct {
	sched domain.ProgressTaskSchedule
}

func (g progressTaskGen) GenerateFirst(now time.Time) (domain.Occurrence, bool) {
	today := dateOfInstant(now)
	it := schediter.NewPeriodIter(g.sched.Duration, today)
	p, ok := it.Next()
	if !ok {
		return domain.Occurrence{}, false
	}
	return newOcc(p.Start.ToUTC(nil), p.End.ToUTC(nil)), true
}

func (g progressTaskGen) GenerateAfter(last domain.Occurrence, horizon time.Time) []domain.Occurrence {
	startFrom := dateOfInstant(last.End)
	it := schediter.NewPeriodIterAt(g.sched.Duration, startFrom)
	var out []domain.Occurrence
	for {
		p, ok := it.Next()
		if !ok {
			return out
		}
		occ := newOcc(p.Start.ToUTC(nil), p.End.ToUTC(nil))
		out = append(out, occ)
		if !occ.End.Before(horizon) {
			return out
		}
	}
}

// --- DeadlineTask ---

type deadlineTaskGen struct {
	sched domain.DeadlineTaskSchedule
}

func (g deadlineTaskGen) GenerateFirst(now time.Time) (domain.Occurrence, bool) {
	return newOcc(now, now.Add(g.sched.Duration)), true
}

func (g deadlineTaskGen) GenerateAfter(last domain.Occurrence, horizon time.Time) []domain.Occurrence {
	var out []domain.Occurrence
	lastEnd := last.End
	for {
		next := newOcc(lastEnd, lastEnd.Add(g.sched.Duration))
		out = append(out, next)
		lastEnd = next.End
		if !lastEnd.Before(horizon) {
			return out
		}
	}
}
