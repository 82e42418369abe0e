// Package session ведёт пошаговые диалоги: публикацию слотов оператором и запись клиента.
// Состояние диалога живёт только в памяти и привязано к пользователю чата.
package session

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Flow int

const (
	FlowNone Flow = iota
	FlowPublish
	FlowBooking
)

func (f Flow) String() string {
	switch f {
	case FlowPublish:
		return "publish"
	case FlowBooking:
		return "booking"
	default:
		return "none"
	}
}

type Step int

const (
	StepNone Step = iota
	// публикация
	StepChoosingPeriod
	StepSelectingDates
	StepSelectingTimeSlots
	// запись
	StepBookingDate
	StepBookingTime
	StepBookingName
)

var stepNames = map[Step]string{
	StepNone:               "none",
	StepChoosingPeriod:     "choosing_period",
	StepSelectingDates:     "selecting_dates",
	StepSelectingTimeSlots: "selecting_time_slots",
	StepBookingDate:        "booking_date",
	StepBookingTime:        "booking_time",
	StepBookingName:        "booking_name",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Flow возвращает сценарий, которому принадлежит шаг.
func (s Step) Flow() Flow {
	switch s {
	case StepChoosingPeriod, StepSelectingDates, StepSelectingTimeSlots:
		return FlowPublish
	case StepBookingDate, StepBookingTime, StepBookingName:
		return FlowBooking
	default:
		return FlowNone
	}
}

// Scratch — промежуточные данные диалога.
type Scratch struct {
	// публикация
	Period         int
	CandidateDates []time.Time
	SelectedDates  map[time.Time]struct{}
	CandidateTimes []string
	SelectedTimes  map[string]struct{}

	// запись
	AvailableDates []time.Time
	AvailableTimes []string
	BookingDate    time.Time
	BookingTime    string
}

type Session struct {
	ActorID   int64
	FlowID    uuid.UUID
	Flow      Flow
	Step      Step
	Scratch   Scratch
	StartedAt time.Time
}

func newSession(actorID int64, flow Flow, step Step, now time.Time) *Session {
	return &Session{
		ActorID:   actorID,
		FlowID:    uuid.New(),
		Flow:      flow,
		Step:      step,
		StartedAt: now,
	}
}

// Clone делает глубокую копию: Apply работает с копией, исходник остаётся состоянием "до операции".
func (s *Session) Clone() *Session {
	c := *s
	c.Scratch.CandidateDates = append([]time.Time(nil), s.Scratch.CandidateDates...)
	c.Scratch.CandidateTimes = append([]string(nil), s.Scratch.CandidateTimes...)
	c.Scratch.AvailableDates = append([]time.Time(nil), s.Scratch.AvailableDates...)
	c.Scratch.AvailableTimes = append([]string(nil), s.Scratch.AvailableTimes...)

	if s.Scratch.SelectedDates != nil {
		c.Scratch.SelectedDates = make(map[time.Time]struct{}, len(s.Scratch.SelectedDates))
		for d := range s.Scratch.SelectedDates {
			c.Scratch.SelectedDates[d] = struct{}{}
		}
	}
	if s.Scratch.SelectedTimes != nil {
		c.Scratch.SelectedTimes = make(map[string]struct{}, len(s.Scratch.SelectedTimes))
		for t := range s.Scratch.SelectedTimes {
			c.Scratch.SelectedTimes[t] = struct{}{}
		}
	}
	return &c
}

// SelectedDateList — выбранные даты по возрастанию.
func (s *Scratch) SelectedDateList() []time.Time {
	out := make([]time.Time, 0, len(s.SelectedDates))
	for d := range s.SelectedDates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// SelectedTimeList — выбранное время по возрастанию.
func (s *Scratch) SelectedTimeList() []string {
	out := make([]string, 0, len(s.SelectedTimes))
	for t := range s.SelectedTimes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
