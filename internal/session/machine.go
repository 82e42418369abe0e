package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Leganyst/slotbook/internal/calendar"
	"github.com/Leganyst/slotbook/internal/inventory"
	"github.com/Leganyst/slotbook/internal/model"
	"github.com/Leganyst/slotbook/internal/notify"
)

// ErrUnexpectedAction — действие не подходит к текущему шагу (устаревшая кнопка). Сессия не меняется.
var ErrUnexpectedAction = errors.New("unexpected action for current step")

// Минимальная длина имени клиента (в символах, после TrimSpace).
const MinNameLength = 2

// Inventory — операции над расписанием, которые нужны диалогам.
type Inventory interface {
	PublishSlots(ctx context.Context, dates []time.Time, times []string) (inventory.PublishResult, error)
	ListAvailableDates(ctx context.Context) ([]time.Time, error)
	ListAvailableTimes(ctx context.Context, date time.Time) ([]string, error)
	ReserveSlot(ctx context.Context, date time.Time, clock string, info inventory.ClientInfo) (inventory.ReserveResult, error)
}

type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomePromptPeriod
	OutcomePromptDates
	OutcomePromptTimes
	OutcomePublished
	OutcomePromptBookingDates
	OutcomeFullyBooked
	OutcomeNoAvailability
	OutcomePromptBookingTimes
	OutcomePromptName
	OutcomeBooked
	OutcomeSlotTaken
	OutcomeMenu
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeNone:               "none",
	OutcomePromptPeriod:       "prompt_period",
	OutcomePromptDates:        "prompt_dates",
	OutcomePromptTimes:        "prompt_times",
	OutcomePublished:          "published",
	OutcomePromptBookingDates: "prompt_booking_dates",
	OutcomeFullyBooked:        "fully_booked",
	OutcomeNoAvailability:     "no_availability",
	OutcomePromptBookingTimes: "prompt_booking_times",
	OutcomePromptName:         "prompt_name",
	OutcomeBooked:             "booked",
	OutcomeSlotTaken:          "slot_taken",
	OutcomeMenu:               "menu",
}

func (k OutcomeKind) String() string {
	if n, ok := outcomeNames[k]; ok {
		return n
	}
	return "unknown"
}

// Outcome — результат шага. Session — состояние после шага; nil, если диалог завершён (Terminal).
type Outcome struct {
	Kind     OutcomeKind
	Terminal bool
	Session  *Session

	Periods       []int
	Dates         []time.Time
	SelectedDates []time.Time
	Times         []string
	SelectedTimes []string
	Date          time.Time
	Time          string

	Published *inventory.PublishResult
	Booking   *model.Booking
	Warning   *calendar.ValidationError
	Events    []notify.Event
}

type transitionKey struct {
	step Step
	kind Kind
}

type transition func(m *Machine, ctx context.Context, s *Session, a Action) (Outcome, error)

// Таблица переходов (шаг, действие) -> обработчик. ReturnToMenu допустим на любом шаге и в таблицу не входит.
var transitions = map[transitionKey]transition{
	{StepChoosingPeriod, KindSelectPeriod}: (*Machine).selectPeriod,

	{StepSelectingDates, KindToggleDate}: (*Machine).toggleDate,
	{StepSelectingDates, KindDatesDone}:  (*Machine).datesDone,

	{StepSelectingTimeSlots, KindToggleTime}:   (*Machine).toggleTime,
	{StepSelectingTimeSlots, KindTimesDone}:    (*Machine).timesDone,
	{StepSelectingTimeSlots, KindBackToPeriod}: (*Machine).backToDateSelection,

	{StepBookingDate, KindSelectDate}:  (*Machine).selectDate,
	{StepBookingDate, KindBackToDates}: (*Machine).backToBookingDates,

	{StepBookingTime, KindSelectTime}:  (*Machine).selectTime,
	{StepBookingTime, KindBackToDates}: (*Machine).backToBookingDates,

	{StepBookingName, KindSubmitName}: (*Machine).submitName,
}

type Machine struct {
	inv Inventory
	now func() time.Time
}

// NewMachine: now задаёт текущее время в поясе оператора, от него считается "сегодня".
func NewMachine(inv Inventory, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{inv: inv, now: now}
}

// BeginPublish открывает диалог публикации.
func (m *Machine) BeginPublish(actorID int64) Outcome {
	s := newSession(actorID, FlowPublish, StepChoosingPeriod, m.now())
	return Outcome{
		Kind:    OutcomePromptPeriod,
		Session: s,
		Periods: append([]int(nil), calendar.Periods...),
	}
}

// BeginBooking открывает диалог записи. Если свободных дат нет, диалог сразу завершается.
func (m *Machine) BeginBooking(ctx context.Context, actorID int64) (Outcome, error) {
	dates, err := m.inv.ListAvailableDates(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list available dates: %w", err)
	}
	if len(dates) == 0 {
		return Outcome{Kind: OutcomeNoAvailability, Terminal: true}, nil
	}

	s := newSession(actorID, FlowBooking, StepBookingDate, m.now())
	s.Scratch.AvailableDates = dates
	return prompt(s, OutcomePromptBookingDates), nil
}

// Apply выполняет шаг над копией сессии. При ошибке исходная сессия остаётся состоянием "до операции".
func (m *Machine) Apply(ctx context.Context, s *Session, a Action) (Outcome, error) {
	if s == nil {
		return Outcome{}, ErrUnexpectedAction
	}
	if a.Kind() == KindReturnToMenu {
		return Outcome{Kind: OutcomeMenu, Terminal: true}, nil
	}

	tr, ok := transitions[transitionKey{s.Step, a.Kind()}]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s at %s", ErrUnexpectedAction, a.Kind(), s.Step)
	}
	return tr(m, ctx, s.Clone(), a)
}

//
// публикация
//

func (m *Machine) selectPeriod(_ context.Context, s *Session, a Action) (Outcome, error) {
	days := a.(SelectPeriod).Days
	if !calendar.IsPeriod(days) {
		out := warn(s, OutcomePromptPeriod, "days", fmt.Sprintf("period must be one of %v", calendar.Periods))
		out.Periods = append([]int(nil), calendar.Periods...)
		return out, nil
	}

	s.Scratch.Period = days
	s.Scratch.CandidateDates = calendar.Horizon(m.now(), days)
	s.Scratch.SelectedDates = map[time.Time]struct{}{}
	s.Step = StepSelectingDates
	return prompt(s, OutcomePromptDates), nil
}

func (m *Machine) toggleDate(_ context.Context, s *Session, a Action) (Outcome, error) {
	d := calendar.DateOf(a.(ToggleDate).Date)
	if !containsDate(s.Scratch.CandidateDates, d) {
		return warn(s, OutcomePromptDates, "date", calendar.FormatDate(d)+" is not offered"), nil
	}
	if s.Scratch.SelectedDates == nil {
		s.Scratch.SelectedDates = map[time.Time]struct{}{}
	}
	if _, ok := s.Scratch.SelectedDates[d]; ok {
		delete(s.Scratch.SelectedDates, d)
	} else {
		s.Scratch.SelectedDates[d] = struct{}{}
	}
	return prompt(s, OutcomePromptDates), nil
}

func (m *Machine) datesDone(_ context.Context, s *Session, _ Action) (Outcome, error) {
	if len(s.Scratch.SelectedDates) == 0 {
		return warn(s, OutcomePromptDates, "dates", "select at least one date"), nil
	}
	s.Scratch.CandidateTimes = calendar.DayGrid()
	s.Scratch.SelectedTimes = map[string]struct{}{}
	s.Step = StepSelectingTimeSlots
	return prompt(s, OutcomePromptTimes), nil
}

func (m *Machine) toggleTime(_ context.Context, s *Session, a Action) (Outcome, error) {
	t := a.(ToggleTime).Time
	if !containsClock(s.Scratch.CandidateTimes, t) {
		return warn(s, OutcomePromptTimes, "time", t+" is not offered"), nil
	}
	if s.Scratch.SelectedTimes == nil {
		s.Scratch.SelectedTimes = map[string]struct{}{}
	}
	if _, ok := s.Scratch.SelectedTimes[t]; ok {
		delete(s.Scratch.SelectedTimes, t)
	} else {
		s.Scratch.SelectedTimes[t] = struct{}{}
	}
	return prompt(s, OutcomePromptTimes), nil
}

func (m *Machine) timesDone(ctx context.Context, s *Session, _ Action) (Outcome, error) {
	if len(s.Scratch.SelectedTimes) == 0 {
		return warn(s, OutcomePromptTimes, "times", "select at least one time"), nil
	}

	res, err := m.inv.PublishSlots(ctx, s.Scratch.SelectedDateList(), s.Scratch.SelectedTimeList())
	if err != nil {
		var ve *calendar.ValidationError
		if errors.As(err, &ve) {
			out := prompt(s, OutcomePromptTimes)
			out.Warning = ve
			return out, nil
		}
		return Outcome{}, err
	}

	return Outcome{
		Kind:      OutcomePublished,
		Terminal:  true,
		Published: &res,
	}, nil
}

// Возврат к выбору дат сбрасывает выбранные даты; сетку времени DatesDone строит заново.
func (m *Machine) backToDateSelection(_ context.Context, s *Session, _ Action) (Outcome, error) {
	s.Scratch.SelectedDates = map[time.Time]struct{}{}
	s.Step = StepSelectingDates
	return prompt(s, OutcomePromptDates), nil
}

//
// запись
//

func (m *Machine) selectDate(ctx context.Context, s *Session, a Action) (Outcome, error) {
	d := calendar.DateOf(a.(SelectDate).Date)
	if !containsDate(s.Scratch.AvailableDates, d) {
		return warn(s, OutcomePromptBookingDates, "date", calendar.FormatDate(d)+" is not offered"), nil
	}

	times, err := m.inv.ListAvailableTimes(ctx, d)
	if err != nil {
		return Outcome{}, fmt.Errorf("list available times: %w", err)
	}
	if len(times) == 0 {
		// дату успели разобрать: обновляем список и остаёмся на выборе даты
		out, err := m.refreshBookingDates(ctx, s)
		if err != nil || out.Terminal {
			return out, err
		}
		out.Kind = OutcomeFullyBooked
		out.Date = d
		return out, nil
	}

	s.Scratch.BookingDate = d
	s.Scratch.AvailableTimes = times
	s.Step = StepBookingTime
	return prompt(s, OutcomePromptBookingTimes), nil
}

func (m *Machine) backToBookingDates(ctx context.Context, s *Session, _ Action) (Outcome, error) {
	return m.refreshBookingDates(ctx, s)
}

func (m *Machine) refreshBookingDates(ctx context.Context, s *Session) (Outcome, error) {
	dates, err := m.inv.ListAvailableDates(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list available dates: %w", err)
	}
	if len(dates) == 0 {
		return Outcome{Kind: OutcomeNoAvailability, Terminal: true}, nil
	}

	s.Scratch.AvailableDates = dates
	s.Scratch.AvailableTimes = nil
	s.Scratch.BookingDate = time.Time{}
	s.Scratch.BookingTime = ""
	s.Step = StepBookingDate
	return prompt(s, OutcomePromptBookingDates), nil
}

func (m *Machine) selectTime(_ context.Context, s *Session, a Action) (Outcome, error) {
	t := a.(SelectTime).Time
	if !containsClock(s.Scratch.AvailableTimes, t) {
		return warn(s, OutcomePromptBookingTimes, "time", t+" is not offered"), nil
	}
	s.Scratch.BookingTime = t
	s.Step = StepBookingName
	return prompt(s, OutcomePromptName), nil
}

func (m *Machine) submitName(ctx context.Context, s *Session, a Action) (Outcome, error) {
	sub := a.(SubmitName)
	name := strings.TrimSpace(sub.Text)
	if utf8.RuneCountInString(name) < MinNameLength {
		return warn(s, OutcomePromptName, "name", fmt.Sprintf("must be at least %d characters", MinNameLength)), nil
	}

	res, err := m.inv.ReserveSlot(ctx, s.Scratch.BookingDate, s.Scratch.BookingTime, inventory.ClientInfo{
		Name:     name,
		Handle:   sub.Handle,
		ClientID: s.ActorID,
	})
	switch {
	case err == nil:
	case errors.Is(err, calendar.ErrSlotUnavailable):
		// список устарел: диалог заканчивается, пользователь начинает заново
		return Outcome{
			Kind:     OutcomeSlotTaken,
			Terminal: true,
			Date:     s.Scratch.BookingDate,
			Time:     s.Scratch.BookingTime,
		}, nil
	default:
		var ve *calendar.ValidationError
		if errors.As(err, &ve) {
			out := prompt(s, OutcomePromptName)
			out.Warning = ve
			return out, nil
		}
		return Outcome{}, err
	}

	booking := res.Booking
	return Outcome{
		Kind:     OutcomeBooked,
		Terminal: true,
		Date:     s.Scratch.BookingDate,
		Time:     s.Scratch.BookingTime,
		Booking:  &booking,
		Events:   res.Events,
	}, nil
}

// prompt заполняет подсказку по текущему шагу сессии.
func prompt(s *Session, kind OutcomeKind) Outcome {
	out := Outcome{Kind: kind, Session: s}
	switch s.Step {
	case StepChoosingPeriod:
		out.Periods = append([]int(nil), calendar.Periods...)
	case StepSelectingDates:
		out.Dates = append([]time.Time(nil), s.Scratch.CandidateDates...)
		out.SelectedDates = s.Scratch.SelectedDateList()
	case StepSelectingTimeSlots:
		out.Times = append([]string(nil), s.Scratch.CandidateTimes...)
		out.SelectedTimes = s.Scratch.SelectedTimeList()
	case StepBookingDate:
		out.Dates = append([]time.Time(nil), s.Scratch.AvailableDates...)
	case StepBookingTime:
		out.Date = s.Scratch.BookingDate
		out.Times = append([]string(nil), s.Scratch.AvailableTimes...)
	case StepBookingName:
		out.Date = s.Scratch.BookingDate
		out.Time = s.Scratch.BookingTime
	}
	return out
}

func warn(s *Session, kind OutcomeKind, field, reason string) Outcome {
	out := prompt(s, kind)
	out.Warning = &calendar.ValidationError{Field: field, Reason: reason}
	return out
}

func containsDate(list []time.Time, d time.Time) bool {
	for _, v := range list {
		if v.Equal(d) {
			return true
		}
	}
	return false
}

func containsClock(list []string, t string) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}
