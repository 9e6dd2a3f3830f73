// Package schediter implements the two lazy, single-pass, stateful
// iterator families the engine expands schedules into: DayFilterIter over
// event day filters, and PeriodIter over progress-task period rules. Both
// are next()-style stateful iterators rather than generator functions, per
// the re-architecture called out for lazy infinite sequences.
package schediter

import (
	"sort"
	"time"

	"github.com/rezkam/keepup/internal/civil"
	"github.com/rezkam/keepup/internal/domain"
)

// DayFilterIter produces dates matching a domain.DayFilter in strictly
// ascending order, starting at or after startDay. It is not restartable.
type DayFilterIter struct {
	filter  domain.DayFilter
	started bool
	done    bool
	last    civil.Date
	startDay civil.Date

	// Dom/Wom month-cursor state: queue of remaining candidate dates for
	// the month currently being scanned.
	monthAnchor civil.Date
	queue       []civil.Date
	monthInit   bool
}

// NewDayFilterIter constructs an iterator over filter, anchored at startDay.
func NewDayFilterIter(filter domain.DayFilter, startDay civil.Date) *DayFilterIter {
	return &DayFilterIter{filter: filter, startDay: startDay}
}

// Next returns the next matching date, or ok=false when the filter is
// exhausted (empty day set, single-date filter already passed, or the
// calendar saturated at civil.MaxDate).
func (it *DayFilterIter) Next() (civil.Date, bool) {
	if it.done {
		return civil.Date{}, false
	}
	d, ok := it.advance()
	if !ok {
		it.done = true
		return civil.Date{}, false
	}
	// Monotonicity guard: also catches saturation at civil.MaxDate, where
	// further arithmetic would otherwise repeat the same date forever.
	if it.started && !d.After(it.last) {
		it.done = true
		return civil.Date{}, false
	}
	it.started = true
	it.last = d
	return d, true
}

func (it *DayFilterIter) advance() (civil.Date, bool) {
	switch it.filter.Kind {
	case domain.DayFilterDay:
		return it.advanceDay()
	case domain.DayFilterDow:
		return it.advanceDow()
	case domain.DayFilterDows:
		return it.advanceDows()
	case domain.DayFilterDom:
		return it.advanceDom()
	case domain.DayFilterWom:
		return it.advanceWom()
	case domain.DayFilterDoy:
		return it.advanceDoy()
	case domain.DayFilterDate:
		return it.advanceDate()
	default:
		return civil.Date{}, false
	}
}

func (it *DayFilterIter) advanceDay() (civil.Date, bool) {
	if !it.started {
		return it.startDay, true
	}
	if it.filter.DaysApart == 0 {
		return civil.Date{}, false
	}
	return civil.AddDays(it.last, int(it.filter.DaysApart)), true
}

func (it *DayFilterIter) advanceDow() (civil.Date, bool) {
	if !it.started {
		return civil.ForwardsToDOW(it.startDay, it.filter.Weekday), true
	}
	if it.filter.WeeksApart == 0 {
		return civil.Date{}, false
	}
	return civil.AddDays(it.last, 7*int(it.filter.WeeksApart)), true
}

func (it *DayFilterIter) advanceDows() (civil.Date, bool) {
	if len(it.filter.Weekdays) == 0 {
		return civil.Date{}, false
	}
	set := make(map[time.Weekday]bool, len(it.filter.Weekdays))
	for _, w := range it.filter.Weekdays {
		set[w] = true
	}
	cur := it.startDay
	if it.started {
		cur = civil.AddDays(it.last, 1)
	}
	for i := 0; i < 400000; i++ {
		if set[cur.Weekday()] {
			return cur, true
		}
		if cur.Equal(civil.MaxDate) {
			return civil.Date{}, false
		}
		cur = civil.AddDays(cur, 1)
	}
	return civil.Date{}, false
}

// monthDomCandidates returns the saturated, deduplicated, ascending-sorted
// dates that the Dom filter's day list maps to within anchor's month.
func monthDomCandidates(anchor civil.Date, days []int) []civil.Date {
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		sat := civil.WithDOMSaturating(anchor, d)
		seen[sat.Day] = true
	}
	out := make([]int, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Ints(out)
	result := make([]civil.Date, len(out))
	for i, d := range out {
		result[i] = civil.Date{Year: anchor.Year, Month: anchor.Month, Day: d}
	}
	return result
}

func (it *DayFilterIter) advanceDom() (civil.Date, bool) {
	if len(it.filter.DomDays) == 0 {
		return civil.Date{}, false
	}
	if !it.monthInit {
		it.monthAnchor = civil.Date{Year: it.startDay.Year, Month: it.startDay.Month, Day: 1}
		candidates := monthDomCandidates(it.monthAnchor, it.filter.DomDays)
		for _, c := range candidates {
			if !c.Before(it.startDay) {
				it.queue = append(it.queue, c)
			}
		}
		it.monthInit = true
	}
	for len(it.queue) == 0 {
		next := civil.AddMonths(it.monthAnchor, int(it.filter.MonthsApart))
		if next.Equal(civil.MaxDate) && it.monthAnchor.Equal(civil.MaxDate) {
			return civil.Date{}, false
		}
		it.monthAnchor = next
		it.queue = monthDomCandidates(it.monthAnchor, it.filter.DomDays)
	}
	d := it.queue[0]
	it.queue = it.queue[1:]
	return d, true
}

func weekOfMonth(d civil.Date) int {
	return (d.Day-1)/7 + 1
}

func (it *DayFilterIter) advanceWom() (civil.Date, bool) {
	if len(it.filter.WomWeeks) == 0 {
		return civil.Date{}, false
	}
	weeks := make(map[int]bool, len(it.filter.WomWeeks))
	for _, w := range it.filter.WomWeeks {
		weeks[w] = true
	}
	if !it.monthInit {
		it.monthAnchor = civil.Date{Year: it.startDay.Year, Month: it.startDay.Month, Day: 1}
		for _, c := range womMonthCandidates(it.monthAnchor, it.filter.WomWeekday, weeks) {
			if !c.Before(it.startDay) {
				it.queue = append(it.queue, c)
			}
		}
		it.monthInit = true
	}
	for len(it.queue) == 0 {
		next := civil.AddMonths(it.monthAnchor, int(it.filter.WomMonthsApart))
		if next.Equal(civil.MaxDate) && it.monthAnchor.Equal(civil.MaxDate) {
			return civil.Date{}, false
		}
		it.monthAnchor = next
		it.queue = womMonthCandidates(it.monthAnchor, it.filter.WomWeekday, weeks)
	}
	d := it.queue[0]
	it.queue = it.queue[1:]
	return d, true
}

func womMonthCandidates(anchor civil.Date, dow time.Weekday, weeks map[int]bool) []civil.Date {
	last := civil.DaysInMonth(anchor.Year, anchor.Month)
	var out []civil.Date
	for day := 1; day <= last; day++ {
		d := civil.Date{Year: anchor.Year, Month: anchor.Month, Day: day}
		if d.Weekday() == dow && weeks[weekOfMonth(d)] {
			out = append(out, d)
		}
	}
	return out
}

func (it *DayFilterIter) advanceDoy() (civil.Date, bool) {
	if it.filter.YearsApart == 0 && it.started {
		return civil.Date{}, false
	}
	year := it.startDay.Year
	if it.started {
		year = it.last.Year + int(it.filter.YearsApart)
	}
	candidate := civil.WithMonthDOMSaturating(civil.Date{Year: year, Month: it.filter.DoyMonth}, it.filter.DoyMonth, it.filter.DoyDom)
	if !it.started && candidate.Before(it.startDay) {
		year++
		candidate = civil.WithMonthDOMSaturating(civil.Date{Year: year, Month: it.filter.DoyMonth}, it.filter.DoyMonth, it.filter.DoyDom)
	}
	return candidate, true
}

func (it *DayFilterIter) advanceDate() (civil.Date, bool) {
	if it.started {
		return civil.Date{}, false
	}
	d := civil.Date{Year: it.filter.DateYear, Month: it.filter.DateMonth, Day: it.filter.DateDom}
	if !d.After(it.startDay) {
		return civil.Date{}, false
	}
	return d, true
}
