// Package bot — поверхность команд пользователя чата без привязки к транспорту:
// меню по ролям, диалоги, управление записями оператором.
package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Leganyst/slotbook/internal/calendar"
	"github.com/Leganyst/slotbook/internal/config"
	"github.com/Leganyst/slotbook/internal/inventory"
	"github.com/Leganyst/slotbook/internal/model"
	"github.com/Leganyst/slotbook/internal/notify"
	"github.com/Leganyst/slotbook/internal/session"
)

// Inventory — операции над расписанием, которые нужны командам.
type Inventory interface {
	session.Inventory
	ListDatesWithAnySlot(ctx context.Context) ([]time.Time, error)
	ListBookingsForDate(ctx context.Context, date time.Time) ([]model.Booking, error)
	ListAllBookings(ctx context.Context) ([]model.Booking, error)
	ListClientBookings(ctx context.Context, clientID int64) ([]model.Booking, error)
	CancelBooking(ctx context.Context, date time.Time, clock string) (inventory.CancelResult, error)
	DeleteDay(ctx context.Context, date time.Time) (inventory.DeleteDayResult, error)
}

type Dispatcher struct {
	operatorID int64
	inv        Inventory
	machine    *session.Machine
	sessions   session.Store
	notifier   *notify.Dispatcher
	limiter    *actorLimiter
	log        *zap.Logger

	wg sync.WaitGroup
}

func NewDispatcher(
	operatorID int64,
	inv Inventory,
	machine *session.Machine,
	sessions session.Store,
	notifier *notify.Dispatcher,
	limit config.RateLimitConfig,
	log *zap.Logger,
) *Dispatcher {
	d := &Dispatcher{
		operatorID: operatorID,
		inv:        inv,
		machine:    machine,
		sessions:   sessions,
		notifier:   notifier,
		log:        log,
	}
	if limit.Enabled {
		d.limiter = newActorLimiter(limit.Every, limit.Burst)
	}
	return d
}

// Handle выполняет одну команду. Ошибка возвращается только для некорректного пользователя;
// всё остальное (нет доступа, нет сессии, сбой хранилища) выражается статусом ответа.
func (d *Dispatcher) Handle(ctx context.Context, actor Actor, cmd Command) (Response, error) {
	if cmd == nil {
		return Response{}, session.ErrUnknownAction
	}
	role, err := calendar.ValidateActor(actor.ID, d.operatorID)
	if err != nil {
		return Response{}, err
	}

	log := d.log.With(zap.Int64("actor_id", actor.ID), zap.String("command", cmd.Name()))

	if !d.limiter.Allow(actor.ID) {
		log.Debug("rate limited")
		return Response{Status: StatusRateLimited, Role: role}, nil
	}

	// роль проверяется при каждом вызове, а не только при входе в меню
	if cmd.operatorOnly() && role != calendar.RoleOperator {
		log.Warn("operator-only command denied", zap.Error(calendar.ErrAccessDenied))
		return Response{Status: StatusDenied, Role: role}, nil
	}

	var resp Response
	switch c := cmd.(type) {
	case Start:
		resp = d.start(ctx, actor, role)
	case CRM:
		resp, err = d.crm(ctx, c)
	case MyBookings:
		resp, err = d.myBookings(ctx, actor)
	case BeginPublish:
		resp = d.beginPublish(ctx, actor)
	case BeginBook:
		resp, err = d.beginBook(ctx, actor)
	case ManageCancel:
		resp, err = d.datesWithSlots(ctx, ScreenCancelDates)
	case CancelBookingForDate:
		resp, err = d.bookingsForDate(ctx, c.Date)
	case CancelSpecific:
		resp, err = d.cancelSpecific(ctx, c)
	case ManageDeleteDay:
		resp, err = d.datesWithSlots(ctx, ScreenDeleteDates)
	case DeleteDay:
		resp, err = d.deleteDay(ctx, c.Date)
	case Step:
		resp, err = d.step(ctx, actor, role, c.Action)
	default:
		return Response{}, session.ErrUnknownAction
	}

	if err != nil {
		// хранилище недоступно: сессия не продвинута, пользователь повторит позже
		log.Error("command failed", zap.Error(err))
		return Response{Status: StatusRetryLater, Role: role}, nil
	}

	resp.Role = role
	return resp, nil
}

// Wait дожидается отправки уведомлений, запущенных командами.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) start(ctx context.Context, actor Actor, role calendar.Role) Response {
	d.sessions.Delete(ctx, actor.ID)
	return Response{Status: StatusOK, Screen: ScreenMenu, Menu: menuFor(role)}
}

func (d *Dispatcher) crm(ctx context.Context, c CRM) (Response, error) {
	all, err := d.inv.ListAllBookings(ctx)
	if err != nil {
		return Response{}, err
	}

	page := calendar.Paginate(all, c.Page, c.PageSize)
	return Response{
		Status:   StatusOK,
		Screen:   ScreenCRM,
		Bookings: page.Items,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		HasNext:  page.HasNext,
	}, nil
}

func (d *Dispatcher) myBookings(ctx context.Context, actor Actor) (Response, error) {
	list, err := d.inv.ListClientBookings(ctx, actor.ID)
	if err != nil {
		return Response{}, err
	}
	resp := Response{Status: StatusOK, Screen: ScreenMyBookings, Bookings: list, Total: len(list)}
	if len(list) == 0 {
		resp.Status = StatusNotFound
	}
	return resp, nil
}

func (d *Dispatcher) beginPublish(ctx context.Context, actor Actor) Response {
	out := d.machine.BeginPublish(actor.ID)
	d.sessions.Put(ctx, out.Session)
	return fromOutcome(out)
}

func (d *Dispatcher) beginBook(ctx context.Context, actor Actor) (Response, error) {
	out, err := d.machine.BeginBooking(ctx, actor.ID)
	if err != nil {
		return Response{}, err
	}
	d.save(ctx, actor.ID, out)
	return fromOutcome(out), nil
}

func (d *Dispatcher) datesWithSlots(ctx context.Context, screen Screen) (Response, error) {
	dates, err := d.inv.ListDatesWithAnySlot(ctx)
	if err != nil {
		return Response{}, err
	}
	resp := Response{Status: StatusOK, Screen: screen, Dates: dates}
	if len(dates) == 0 {
		resp.Status = StatusNotFound
	}
	return resp, nil
}

func (d *Dispatcher) bookingsForDate(ctx context.Context, date time.Time) (Response, error) {
	list, err := d.inv.ListBookingsForDate(ctx, date)
	if err != nil {
		return Response{}, err
	}
	resp := Response{Status: StatusOK, Screen: ScreenCancelBookings, Date: date, Bookings: list, Total: len(list)}
	if len(list) == 0 {
		resp.Status = StatusNotFound
	}
	return resp, nil
}

func (d *Dispatcher) cancelSpecific(ctx context.Context, c CancelSpecific) (Response, error) {
	res, err := d.inv.CancelBooking(ctx, c.Date, c.Time)
	if err != nil {
		return Response{}, err
	}
	if res.Cancelled == nil {
		return Response{Status: StatusNotFound, Screen: ScreenNothingToCancel, Date: c.Date, Time: c.Time}, nil
	}

	d.notify(ctx, res.Events)
	return Response{
		Status:  StatusOK,
		Screen:  ScreenCancelled,
		Date:    c.Date,
		Time:    c.Time,
		Booking: res.Cancelled,
	}, nil
}

func (d *Dispatcher) deleteDay(ctx context.Context, date time.Time) (Response, error) {
	res, err := d.inv.DeleteDay(ctx, date)
	if err != nil {
		return Response{}, err
	}

	d.notify(ctx, res.Events)
	resp := Response{
		Status:   StatusOK,
		Screen:   ScreenDayDeleted,
		Date:     res.Date,
		Bookings: res.Removed,
		Removed:  len(res.Removed),
		Total:    int(res.SlotsDeleted),
	}
	if res.SlotsDeleted == 0 && len(res.Removed) == 0 {
		resp.Status = StatusNotFound
	}
	return resp, nil
}

func (d *Dispatcher) step(ctx context.Context, actor Actor, role calendar.Role, a session.Action) (Response, error) {
	s, ok := d.sessions.Get(ctx, actor.ID)
	if !ok {
		if a.Kind() == session.KindReturnToMenu {
			return Response{Status: StatusOK, Screen: ScreenMenu, Menu: menuFor(role)}, nil
		}
		return Response{Status: StatusNoSession}, nil
	}

	if sub, isName := a.(session.SubmitName); isName && sub.Handle == "" {
		sub.Handle = actor.Handle
		a = sub
	}

	out, err := d.machine.Apply(ctx, s, a)
	if errors.Is(err, session.ErrUnexpectedAction) {
		return Response{Status: StatusStale, Step: s.Step}, nil
	}
	if err != nil {
		return Response{}, err
	}

	d.save(ctx, actor.ID, out)
	d.notify(ctx, out.Events)

	resp := fromOutcome(out)
	if out.Kind == session.OutcomeMenu {
		resp.Menu = menuFor(role)
	}
	return resp, nil
}

// save: завершённый диалог удаляется, иначе сохраняется новое состояние.
func (d *Dispatcher) save(ctx context.Context, actorID int64, out session.Outcome) {
	if out.Terminal || out.Session == nil {
		d.sessions.Delete(ctx, actorID)
		return
	}
	d.sessions.Put(ctx, out.Session)
}

// notify отправляет события в фоне: ошибки доставки не влияют на результат команды.
func (d *Dispatcher) notify(ctx context.Context, events []notify.Event) {
	if len(events) == 0 || d.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Go(func() {
		d.notifier.Dispatch(ctx, events...)
	})
}

func menuFor(role calendar.Role) []string {
	if role == calendar.RoleOperator {
		return append([]string(nil), OperatorMenu...)
	}
	return append([]string(nil), ClientMenu...)
}
