package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Leganyst/slotbook/internal/calendar"
)

var ErrUnknownAction = errors.New("unknown action")

type Kind int

const (
	KindSelectPeriod Kind = iota + 1
	KindToggleDate
	KindDatesDone
	KindToggleTime
	KindTimesDone
	KindSelectDate
	KindSelectTime
	KindSubmitName
	KindReturnToMenu
	KindBackToDates
	KindBackToPeriod
)

// Имена действий на границе транспорта.
const (
	NameSelectPeriod = "select-period"
	NameToggleDate   = "toggle-date"
	NameDatesDone    = "dates-done"
	NameToggleTime   = "toggle-time"
	NameTimesDone    = "times-done"
	NameSelectDate   = "select-date"
	NameSelectTime   = "select-time"
	NameSubmitName   = "submit-name"
	NameReturnToMenu = "return-to-menu"
	NameBackToDates  = "back-to-dates"
	NameBackToPeriod = "back-to-period"
)

var kindNames = map[Kind]string{
	KindSelectPeriod: NameSelectPeriod,
	KindToggleDate:   NameToggleDate,
	KindDatesDone:    NameDatesDone,
	KindToggleTime:   NameToggleTime,
	KindTimesDone:    NameTimesDone,
	KindSelectDate:   NameSelectDate,
	KindSelectTime:   NameSelectTime,
	KindSubmitName:   NameSubmitName,
	KindReturnToMenu: NameReturnToMenu,
	KindBackToDates:  NameBackToDates,
	KindBackToPeriod: NameBackToPeriod,
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Action — закрытый набор шагов диалога. Реализации есть только в этом пакете.
type Action interface {
	Kind() Kind
	isAction()
}

type SelectPeriod struct{ Days int }
type ToggleDate struct{ Date time.Time }
type DatesDone struct{}
type ToggleTime struct{ Time string }
type TimesDone struct{}
type SelectDate struct{ Date time.Time }
type SelectTime struct{ Time string }

// SubmitName: Handle (ник в чате) подставляет транспорт, а не пользователь.
type SubmitName struct {
	Text   string
	Handle string
}
type ReturnToMenu struct{}
type BackToDates struct{}
type BackToPeriod struct{}

func (SelectPeriod) Kind() Kind { return KindSelectPeriod }
func (ToggleDate) Kind() Kind   { return KindToggleDate }
func (DatesDone) Kind() Kind    { return KindDatesDone }
func (ToggleTime) Kind() Kind   { return KindToggleTime }
func (TimesDone) Kind() Kind    { return KindTimesDone }
func (SelectDate) Kind() Kind   { return KindSelectDate }
func (SelectTime) Kind() Kind   { return KindSelectTime }
func (SubmitName) Kind() Kind   { return KindSubmitName }
func (ReturnToMenu) Kind() Kind { return KindReturnToMenu }
func (BackToDates) Kind() Kind  { return KindBackToDates }
func (BackToPeriod) Kind() Kind { return KindBackToPeriod }

func (SelectPeriod) isAction() {}
func (ToggleDate) isAction()   {}
func (DatesDone) isAction()    {}
func (ToggleTime) isAction()   {}
func (TimesDone) isAction()    {}
func (SelectDate) isAction()   {}
func (SelectTime) isAction()   {}
func (SubmitName) isAction()   {}
func (ReturnToMenu) isAction() {}
func (BackToDates) isAction()  {}
func (BackToPeriod) isAction() {}

// Decode разбирает действие из транспорта. Дальше по коду ходят только типизированные значения.
func Decode(name string, args map[string]string) (Action, error) {
	switch name {
	case NameSelectPeriod:
		raw := strings.TrimSpace(args["days"])
		days, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &calendar.ValidationError{Field: "days", Reason: fmt.Sprintf("%q is not a number", raw)}
		}
		return SelectPeriod{Days: days}, nil
	case NameToggleDate:
		d, err := calendar.ParseDate(args["date"])
		if err != nil {
			return nil, err
		}
		return ToggleDate{Date: d}, nil
	case NameDatesDone:
		return DatesDone{}, nil
	case NameToggleTime:
		t, err := calendar.ParseClock(args["time"])
		if err != nil {
			return nil, err
		}
		return ToggleTime{Time: t}, nil
	case NameTimesDone:
		return TimesDone{}, nil
	case NameSelectDate:
		d, err := calendar.ParseDate(args["date"])
		if err != nil {
			return nil, err
		}
		return SelectDate{Date: d}, nil
	case NameSelectTime:
		t, err := calendar.ParseClock(args["time"])
		if err != nil {
			return nil, err
		}
		return SelectTime{Time: t}, nil
	case NameSubmitName:
		return SubmitName{Text: args["text"]}, nil
	case NameReturnToMenu:
		return ReturnToMenu{}, nil
	case NameBackToDates:
		return BackToDates{}, nil
	case NameBackToPeriod:
		return BackToPeriod{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}
