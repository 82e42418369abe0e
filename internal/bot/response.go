package bot

import (
	"time"

	"github.com/Leganyst/slotbook/internal/calendar"
	"github.com/Leganyst/slotbook/internal/model"
	"github.com/Leganyst/slotbook/internal/session"
)

type Status string

const (
	StatusOK          Status = "ok"
	StatusWarning     Status = "warning"
	StatusDenied      Status = "access_denied"
	StatusNotFound    Status = "not_found"
	StatusRetryLater  Status = "retry_later"
	StatusNoSession   Status = "no_session"
	StatusStale       Status = "stale_action"
	StatusUnavailable Status = "slot_unavailable"
	StatusRateLimited Status = "rate_limited"
)

// Screen — что показать пользователю. Для шагов диалога совпадает с session.OutcomeKind.
type Screen string

const (
	ScreenMenu            Screen = "menu"
	ScreenCRM             Screen = "crm"
	ScreenMyBookings      Screen = "my_bookings"
	ScreenCancelDates     Screen = "cancel_dates"
	ScreenCancelBookings  Screen = "cancel_bookings"
	ScreenCancelled       Screen = "cancelled"
	ScreenNothingToCancel Screen = "nothing_to_cancel"
	ScreenDeleteDates     Screen = "delete_dates"
	ScreenDayDeleted      Screen = "day_deleted"
)

// Пункты меню по ролям.
var (
	OperatorMenu = []string{NameBeginPublish, NameCRM, NameManageCancel, NameManageDeleteDay}
	ClientMenu   = []string{NameBeginBook, NameMyBookings}
)

// Actor — пользователь чата. ID приходит от транспорта, Handle — ник (может быть пустым).
type Actor struct {
	ID     int64
	Handle string
	Name   string
}

// Response — результат команды без привязки к транспорту и форматированию.
type Response struct {
	Status  Status
	Screen  Screen
	Role    calendar.Role
	Step    session.Step
	Warning string

	Menu          []string
	Periods       []int
	Dates         []time.Time
	SelectedDates []time.Time
	Times         []string
	SelectedTimes []string
	Date          time.Time
	Time          string

	Created  int
	Booking  *model.Booking
	Bookings []model.Booking
	Removed  int

	Page     int
	PageSize int
	Total    int
	HasNext  bool
}

func fromOutcome(out session.Outcome) Response {
	resp := Response{
		Status:        StatusOK,
		Screen:        Screen(out.Kind.String()),
		Periods:       out.Periods,
		Dates:         out.Dates,
		SelectedDates: out.SelectedDates,
		Times:         out.Times,
		SelectedTimes: out.SelectedTimes,
		Date:          out.Date,
		Time:          out.Time,
		Booking:       out.Booking,
	}
	if out.Session != nil {
		resp.Step = out.Session.Step
	}
	if out.Published != nil {
		resp.Created = out.Published.Created
		resp.Dates = out.Published.Dates
		resp.Times = out.Published.Times
	}
	if out.Kind == session.OutcomeSlotTaken {
		resp.Status = StatusUnavailable
	}
	if out.Warning != nil {
		resp.Status = StatusWarning
		resp.Warning = out.Warning.Error()
	}
	return resp
}
