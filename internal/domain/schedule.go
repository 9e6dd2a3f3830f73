package domain

import (
	"time"

	"github.com/rezkam/keepup/internal/civil"
)

// ScheduleKind discriminates the Schedule sum type.
type ScheduleKind int

const (
	ScheduleEvent ScheduleKind = iota
	ScheduleProgressTask
	ScheduleDeadlineTask
)

// Schedule is a tagged union over the three recurrence variants an Item can
// carry. Only the field matching Kind is meaningful.
type Schedule struct {
	Kind         ScheduleKind
	Event        EventSchedule
	ProgressTask ProgressTaskSchedule
	DeadlineTask DeadlineTaskSchedule
}

// NewEventSchedule builds a Schedule wrapping an EventSchedule.
func NewEventSchedule(initialDay civil.Date, days DayFilter, t *civil.Time) Schedule {
	return Schedule{Kind: ScheduleEvent, Event: EventSchedule{InitialDay: initialDay, Days: days, Time: t}}
}

// NewProgressTaskSchedule builds a Schedule wrapping a ProgressTaskSchedule.
func NewProgressTaskSchedule(duration PeriodRule) Schedule {
	return Schedule{Kind: ScheduleProgressTask, ProgressTask: ProgressTaskSchedule{Duration: duration}}
}

// NewDeadlineTaskSchedule builds a Schedule wrapping a DeadlineTaskSchedule.
func NewDeadlineTaskSchedule(duration time.Duration) Schedule {
	return Schedule{Kind: ScheduleDeadlineTask, DeadlineTask: DeadlineTaskSchedule{Duration: duration}}
}

// EventSchedule occurs at fixed points in time according to its DayFilter.
type EventSchedule struct {
	// InitialDay anchors the day filter so its output is deterministic.
	InitialDay civil.Date
	Days       DayFilter
	// Time is the time-of-day the event occurs at; nil means midnight.
	Time *civil.Time
}

// ProgressTaskSchedule is a recurring task tracked by average completion over
// periods produced by Duration.
type ProgressTaskSchedule struct {
	Duration PeriodRule
}

// DeadlineTaskSchedule rolls its deadline forward by Duration each time the
// previous occurrence is completed/rolled over.
type DeadlineTaskSchedule struct {
	Duration time.Duration
}

// DayFilterKind discriminates the DayFilter sum type.
type DayFilterKind int

const (
	DayFilterDay DayFilterKind = iota
	DayFilterDow
	DayFilterDows
	DayFilterDom
	DayFilterWom
	DayFilterDoy
	DayFilterDate
)

// DayFilter selects which calendar days an Event schedule occurs on. Only the
// fields relevant to Kind are populated.
type DayFilter struct {
	Kind DayFilterKind

	// Day{days_apart}
	DaysApart uint32

	// Dow{day, weeks_apart}
	Weekday    time.Weekday
	WeeksApart uint32

	// Dows{days}
	Weekdays []time.Weekday

	// Dom{days, months_apart}: day-of-month, 1..31.
	DomDays     []int
	MonthsApart uint32

	// Wom{dow, weeks, months_apart}: week-of-month, 1..5.
	WomWeekday    time.Weekday
	WomWeeks      []int
	WomMonthsApart uint32

	// Doy{dom, month, years_apart}
	DoyDom     int
	DoyMonth   time.Month
	YearsApart uint32

	// Date{dom, month, year}: a single fixed calendar date.
	DateDom   int
	DateMonth time.Month
	DateYear  int
}

func NewDayFilterDay(daysApart uint32) DayFilter {
	return DayFilter{Kind: DayFilterDay, DaysApart: daysApart}
}

func NewDayFilterDow(day time.Weekday, weeksApart uint32) DayFilter {
	return DayFilter{Kind: DayFilterDow, Weekday: day, WeeksApart: weeksApart}
}

func NewDayFilterDows(days []time.Weekday) DayFilter {
	return DayFilter{Kind: DayFilterDows, Weekdays: days}
}

func NewDayFilterDom(days []int, monthsApart uint32) DayFilter {
	return DayFilter{Kind: DayFilterDom, DomDays: days, MonthsApart: monthsApart}
}

func NewDayFilterWom(dow time.Weekday, weeks []int, monthsApart uint32) DayFilter {
	return DayFilter{Kind: DayFilterWom, WomWeekday: dow, WomWeeks: weeks, WomMonthsApart: monthsApart}
}

func NewDayFilterDoy(dom int, month time.Month, yearsApart uint32) DayFilter {
	return DayFilter{Kind: DayFilterDoy, DoyDom: dom, DoyMonth: month, YearsApart: yearsApart}
}

func NewDayFilterDate(dom int, month time.Month, year int) DayFilter {
	return DayFilter{Kind: DayFilterDate, DateDom: dom, DateMonth: month, DateYear: year}
}

// PeriodRuleKind discriminates the PeriodRule sum type.
type PeriodRuleKind int

const (
	PeriodDays PeriodRuleKind = iota
	PeriodWeeks
	PeriodMonths
	PeriodYears
)

// PeriodRule describes the period length and alignment for a ProgressTask
// schedule. Only the fields relevant to Kind are populated.
type PeriodRule struct {
	Kind PeriodRuleKind

	// Days{num}, Weeks{num}, Months{num}, Years{num}
	Num int

	// Weeks{start_day: weekday}
	StartWeekday time.Weekday

	// Months{start_day: dom 1..31}, Years{start_dom: 1..31}
	StartDom int

	// Years{start_month}
	StartMonth time.Month
}

func NewPeriodDays(num int) PeriodRule {
	return PeriodRule{Kind: PeriodDays, Num: num}
}

func NewPeriodWeeks(num int, startDay time.Weekday) PeriodRule {
	return PeriodRule{Kind: PeriodWeeks, Num: num, StartWeekday: startDay}
}

func NewPeriodMonths(num int, startDom int) PeriodRule {
	return PeriodRule{Kind: PeriodMonths, Num: num, StartDom: startDom}
}

func NewPeriodYears(num int, startMonth time.Month, startDom int) PeriodRule {
	return PeriodRule{Kind: PeriodYears, Num: num, StartMonth: startMonth, StartDom: startDom}
}
