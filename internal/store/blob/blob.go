// Package blob implements the self-describing codec for sched_blob
// and config_blob: each envelope carries a discriminator alongside its
// payload so a single column can hold any Schedule, DayFilter, PeriodRule,
// or Config variant and round-trip it exactly.
//
// JSON is the wire format. It is not the most compact option, but it is
// self-describing, diff-friendly in migrations/backups, and every variant
// here is a flat, already-JSON-friendly struct.
package blob

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rezkam/keepup/internal/civil"
	"github.com/rezkam/keepup/internal/domain"
)

// --- Schedule ---

type scheduleEnvelope struct {
	Kind         string                    `json:"kind"`
	Event        *eventScheduleWire        `json:"event,omitempty"`
	ProgressTask *progressTaskScheduleWire `json:"progress_task,omitempty"`
	DeadlineTask *deadlineTaskScheduleWire `json:"deadline_task,omitempty"`
}

type eventScheduleWire struct {
	InitialDay civil.Date    `json:"initial_day"`
	Days       dayFilterWire `json:"days"`
	Time       *civil.Time   `json:"time,omitempty"`
}

type progressTaskScheduleWire struct {
	Duration periodRuleWire `json:"duration"`
}

type deadlineTaskScheduleWire struct {
	DurationSeconds int64 `json:"duration_seconds"`
}

// EncodeSchedule serialises a Schedule to its wire envelope.
func EncodeSchedule(s domain.Schedule) ([]byte, error) {
	env := scheduleEnvelope{}
	switch s.Kind {
	case domain.ScheduleEvent:
		env.Kind = "event"
		env.Event = &eventScheduleWire{
			InitialDay: s.Event.InitialDay,
			Days:       toDayFilterWire(s.Event.Days),
			Time:       s.Event.Time,
		}
	case domain.ScheduleProgressTask:
		env.Kind = "progress_task"
		env.ProgressTask = &progressTaskScheduleWire{Duration: toPeriodRuleWire(s.ProgressTask.Duration)}
	case domain.ScheduleDeadlineTask:
		env.Kind = "deadline_task"
		env.DeadlineTask = &deadlineTaskScheduleWire{DurationSeconds: int64(s.DeadlineTask.Duration / time.Second)}
	default:
		return nil, fmt.Errorf("blob: unknown schedule kind %v", s.Kind)
	}
	return json.Marshal(env)
}

// DecodeSchedule deserialises a Schedule wire envelope.
func DecodeSchedule(data []byte) (domain.Schedule, error) {
	var env scheduleEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.Schedule{}, domain.NewError(domain.KindCodec, "decode schedule", err)
	}
	switch env.Kind {
	case "event":
		if env.Event == nil {
			return domain.Schedule{}, domain.NewError(domain.KindCodec, "event envelope missing payload", nil)
		}
		df, err := fromDayFilterWire(env.Event.Days)
		if err != nil {
			return domain.Schedule{}, err
		}
		return domain.NewEventSchedule(env.Event.InitialDay, df, env.Event.Time), nil
	case "progress_task":
		if env.ProgressTask == nil {
			return domain.Schedule{}, domain.NewError(domain.KindCodec, "progress_task envelope missing payload", nil)
		}
		pr, err := fromPeriodRuleWire(env.ProgressTask.Duration)
		if err != nil {
			return domain.Schedule{}, err
		}
		return domain.NewProgressTaskSchedule(pr), nil
	case "deadline_task":
		if env.DeadlineTask == nil {
			return domain.Schedule{}, domain.NewError(domain.KindCodec, "deadline_task envelope missing payload", nil)
		}
		return domain.NewDeadlineTaskSchedule(time.Duration(env.DeadlineTask.DurationSeconds) * time.Second), nil
	default:
		return domain.Schedule{}, domain.NewError(domain.KindCodec, fmt.Sprintf("unknown schedule kind %q", env.Kind), nil)
	}
}

// --- DayFilter ---

type dayFilterWire struct {
	Kind        string `json:"kind"`
	DaysApart   uint32 `json:"days_apart,omitempty"`
	Weekday     int    `json:"weekday,omitempty"`
	WeeksApart  uint32 `json:"weeks_apart,omitempty"`
	Weekdays    []int  `json:"weekdays,omitempty"`
	DomDays     []int  `json:"dom_days,omitempty"`
	MonthsApart uint32 `json:"months_apart,omitempty"`
	WomWeeks    []int  `json:"wom_weeks,omitempty"`
	Dom         int    `json:"dom,omitempty"`
	Month       int    `json:"month,omitempty"`
	YearsApart  uint32 `json:"years_apart,omitempty"`
	Year        int    `json:"year,omitempty"`
}

func toDayFilterWire(df domain.DayFilter) dayFilterWire {
	switch df.Kind {
	case domain.DayFilterDay:
		return dayFilterWire{Kind: "day", DaysApart: df.DaysApart}
	case domain.DayFilterDow:
		return dayFilterWire{Kind: "dow", Weekday: int(df.Weekday), WeeksApart: df.WeeksApart}
	case domain.DayFilterDows:
		weekdays := make([]int, len(df.Weekdays))
		for i, w := range df.Weekdays {
			weekdays[i] = int(w)
		}
		return dayFilterWire{Kind: "dows", Weekdays: weekdays}
	case domain.DayFilterDom:
		return dayFilterWire{Kind: "dom", DomDays: df.DomDays, MonthsApart: df.MonthsApart}
	case domain.DayFilterWom:
		return dayFilterWire{Kind: "wom", Weekday: int(df.WomWeekday), WomWeeks: df.WomWeeks, MonthsApart: df.WomMonthsApart}
	case domain.DayFilterDoy:
		return dayFilterWire{Kind: "doy", Dom: df.DoyDom, Month: int(df.DoyMonth), YearsApart: df.YearsApart}
	case domain.DayFilterDate:
		return dayFilterWire{Kind: "date", Dom: df.DateDom, Month: int(df.DateMonth), Year: df.DateYear}
	default:
		return dayFilterWire{Kind: "unknown"}
	}
}

func fromDayFilterWire(w dayFilterWire) (domain.DayFilter, error) {
	switch w.Kind {
	case "day":
		return domain.NewDayFilterDay(w.DaysApart), nil
	case "dow":
		return domain.NewDayFilterDow(time.Weekday(w.Weekday), w.WeeksApart), nil
	case "dows":
		weekdays := make([]time.Weekday, len(w.Weekdays))
		for i, d := range w.Weekdays {
			weekdays[i] = time.Weekday(d)
		}
		return domain.NewDayFilterDows(weekdays), nil
	case "dom":
		return domain.NewDayFilterDom(w.DomDays, w.MonthsApart), nil
	case "wom":
		return domain.NewDayFilterWom(time.Weekday(w.Weekday), w.WomWeeks, w.MonthsApart), nil
	case "doy":
		return domain.NewDayFilterDoy(w.Dom, time.Month(w.Month), w.YearsApart), nil
	case "date":
		return domain.NewDayFilterDate(w.Dom, time.Month(w.Month), w.Year), nil
	default:
		return domain.DayFilter{}, domain.NewError(domain.KindCodec, fmt.Sprintf("unknown day filter kind %q", w.Kind), nil)
	}
}

// --- PeriodRule ---

type periodRuleWire struct {
	Kind       string `json:"kind"`
	Num        int    `json:"num"`
	StartDay   int    `json:"start_day,omitempty"`
	StartDom   int    `json:"start_dom,omitempty"`
	StartMonth int    `json:"start_month,omitempty"`
}

func toPeriodRuleWire(pr domain.PeriodRule) periodRuleWire {
	switch pr.Kind {
	case domain.PeriodDays:
		return periodRuleWire{Kind: "days", Num: pr.Num}
	case domain.PeriodWeeks:
		return periodRuleWire{Kind: "weeks", Num: pr.Num, StartDay: int(pr.StartWeekday)}
	case domain.PeriodMonths:
		return periodRuleWire{Kind: "months", Num: pr.Num, StartDom: pr.StartDom}
	case domain.PeriodYears:
		return periodRuleWire{Kind: "years", Num: pr.Num, StartMonth: int(pr.StartMonth), StartDom: pr.StartDom}
	default:
		return periodRuleWire{Kind: "unknown"}
	}
}

func fromPeriodRuleWire(w periodRuleWire) (domain.PeriodRule, error) {
	switch w.Kind {
	case "days":
		return domain.NewPeriodDays(w.Num), nil
	case "weeks":
		return domain.NewPeriodWeeks(w.Num, time.Weekday(w.StartDay)), nil
	case "months":
		return domain.NewPeriodMonths(w.Num, w.StartDom), nil
	case "years":
		return domain.NewPeriodYears(w.Num, time.Month(w.StartMonth), w.StartDom), nil
	default:
		return domain.PeriodRule{}, domain.NewError(domain.KindCodec, fmt.Sprintf("unknown period rule kind %q", w.Kind), nil)
	}
}

// --- Config ---

type configEnvelope struct {
	Active             *bool   `json:"active,omitempty"`
	OccAlertSeconds    *int64  `json:"occ_alert_seconds,omitempty"`
	Total              *int    `json:"total,omitempty"`
	Unit               *string `json:"unit,omitempty"`
	ExcessPastSeconds  *int64  `json:"excess_past_seconds,omitempty"`
	ExcessFutureSeconds *int64 `json:"excess_future_seconds,omitempty"`
}

// EncodeConfig serialises the scope-independent part of a Config (its Scope
// lives in its own column, per the schema in §6).
func EncodeConfig(c domain.Config) ([]byte, error) {
	env := configEnvelope{Active: c.Active}
	if c.OccAlert != nil {
		s := int64(*c.OccAlert / time.Second)
		env.OccAlertSeconds = &s
	}
	env.Total = c.TaskCompletion.Total
	env.Unit = c.TaskCompletion.Unit
	if c.TaskCompletion.ExcessPast != nil {
		s := int64(*c.TaskCompletion.ExcessPast / time.Second)
		env.ExcessPastSeconds = &s
	}
	if c.TaskCompletion.ExcessFuture != nil {
		s := int64(*c.TaskCompletion.ExcessFuture / time.Second)
		env.ExcessFutureSeconds = &s
	}
	return json.Marshal(env)
}

// DecodeConfig deserialises a config_blob into the scope-independent part of
// a Config. The caller fills in Scope from the row's discriminator column.
func DecodeConfig(data []byte) (domain.Config, error) {
	var env configEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.Config{}, domain.NewError(domain.KindCodec, "decode config", err)
	}
	cfg := domain.Config{Active: env.Active}
	if env.OccAlertSeconds != nil {
		d := time.Duration(*env.OccAlertSeconds) * time.Second
		cfg.OccAlert = &d
	}
	cfg.TaskCompletion.Total = env.Total
	cfg.TaskCompletion.Unit = env.Unit
	if env.ExcessPastSeconds != nil {
		d := time.Duration(*env.ExcessPastSeconds) * time.Second
		cfg.TaskCompletion.ExcessPast = &d
	}
	if env.ExcessFutureSeconds != nil {
		d := time.Duration(*env.ExcessFutureSeconds) * time.Second
		cfg.TaskCompletion.ExcessFuture = &d
	}
	return cfg, nil
}
