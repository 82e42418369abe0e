package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Leganyst/slotbook/internal/calendar"
	"github.com/Leganyst/slotbook/internal/session"
)

// Имена команд вне диалогов.
const (
	NameStart                = "start"
	NameCRM                  = "crm"
	NameMyBookings           = "my-bookings"
	NameBeginPublish         = "begin-publish"
	NameBeginBook            = "begin-book"
	NameManageCancel         = "manage-cancel"
	NameCancelBookingForDate = "cancel-booking-for-date"
	NameCancelSpecific       = "cancel-specific"
	NameManageDeleteDay      = "manage-delete-day"
	NameDeleteDay            = "delete-day"
)

// Command — закрытый набор команд. Разбирается один раз на границе транспорта.
type Command interface {
	Name() string
	operatorOnly() bool
}

type Start struct{}

// CRM — отчёт по всем записям, постранично.
type CRM struct {
	Page     int
	PageSize int
}

type MyBookings struct{}
type BeginPublish struct{}
type BeginBook struct{}
type ManageCancel struct{}
type CancelBookingForDate struct{ Date time.Time }
type CancelSpecific struct {
	Date time.Time
	Time string
}
type ManageDeleteDay struct{}
type DeleteDay struct{ Date time.Time }

// Step — шаг активного диалога.
type Step struct{ Action session.Action }

func (Start) Name() string                { return NameStart }
func (CRM) Name() string                  { return NameCRM }
func (MyBookings) Name() string           { return NameMyBookings }
func (BeginPublish) Name() string         { return NameBeginPublish }
func (BeginBook) Name() string            { return NameBeginBook }
func (ManageCancel) Name() string         { return NameManageCancel }
func (CancelBookingForDate) Name() string { return NameCancelBookingForDate }
func (CancelSpecific) Name() string       { return NameCancelSpecific }
func (ManageDeleteDay) Name() string      { return NameManageDeleteDay }
func (DeleteDay) Name() string            { return NameDeleteDay }
func (s Step) Name() string               { return s.Action.Kind().String() }

func (Start) operatorOnly() bool                { return false }
func (CRM) operatorOnly() bool                  { return true }
func (MyBookings) operatorOnly() bool           { return false }
func (BeginPublish) operatorOnly() bool         { return true }
func (BeginBook) operatorOnly() bool            { return false }
func (ManageCancel) operatorOnly() bool         { return true }
func (CancelBookingForDate) operatorOnly() bool { return true }
func (CancelSpecific) operatorOnly() bool       { return true }
func (ManageDeleteDay) operatorOnly() bool      { return true }
func (DeleteDay) operatorOnly() bool            { return true }

// Шаги публикации доступны только оператору: проверка повторяется на каждом шаге.
func (s Step) operatorOnly() bool {
	switch s.Action.Kind() {
	case session.KindSelectPeriod, session.KindToggleDate, session.KindDatesDone,
		session.KindToggleTime, session.KindTimesDone, session.KindBackToPeriod:
		return true
	default:
		return false
	}
}

// DecodeCommand разбирает команду из транспорта.
func DecodeCommand(name string, args map[string]string) (Command, error) {
	switch name {
	case NameStart:
		return Start{}, nil
	case NameCRM:
		page, err := optionalInt(args, "page")
		if err != nil {
			return nil, err
		}
		size, err := optionalInt(args, "page_size")
		if err != nil {
			return nil, err
		}
		return CRM{Page: page, PageSize: size}, nil
	case NameMyBookings:
		return MyBookings{}, nil
	case NameBeginPublish:
		return BeginPublish{}, nil
	case NameBeginBook:
		return BeginBook{}, nil
	case NameManageCancel:
		return ManageCancel{}, nil
	case NameCancelBookingForDate:
		d, err := calendar.ParseDate(args["date"])
		if err != nil {
			return nil, err
		}
		return CancelBookingForDate{Date: d}, nil
	case NameCancelSpecific:
		d, err := calendar.ParseDate(args["date"])
		if err != nil {
			return nil, err
		}
		t, err := calendar.ParseClock(args["time"])
		if err != nil {
			return nil, err
		}
		return CancelSpecific{Date: d, Time: t}, nil
	case NameManageDeleteDay:
		return ManageDeleteDay{}, nil
	case NameDeleteDay:
		d, err := calendar.ParseDate(args["date"])
		if err != nil {
			return nil, err
		}
		return DeleteDay{Date: d}, nil
	}

	a, err := session.Decode(name, args)
	if err != nil {
		return nil, err
	}
	return Step{Action: a}, nil
}

func optionalInt(args map[string]string, key string) (int, error) {
	raw := strings.TrimSpace(args[key])
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &calendar.ValidationError{Field: key, Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return n, nil
}
