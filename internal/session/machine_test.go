package session

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Leganyst/slotbook/internal/calendar"
	"github.com/Leganyst/slotbook/internal/inventory"
	"github.com/Leganyst/slotbook/internal/model"
	"github.com/Leganyst/slotbook/internal/notify"
)

var today = time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2025, 6, 1+offset, 0, 0, 0, 0, time.UTC)
}

type fakeInventory struct {
	dates   []time.Time
	times   map[time.Time][]string
	err     error
	reserve error

	published struct {
		dates []time.Time
		times []string
	}
	reserved []inventory.ClientInfo
}

func (f *fakeInventory) PublishSlots(_ context.Context, dates []time.Time, times []string) (inventory.PublishResult, error) {
	if f.err != nil {
		return inventory.PublishResult{}, f.err
	}
	f.published.dates = dates
	f.published.times = times
	return inventory.PublishResult{Created: len(dates) * len(times), Dates: dates, Times: times}, nil
}

func (f *fakeInventory) ListAvailableDates(context.Context) ([]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.dates, nil
}

func (f *fakeInventory) ListAvailableTimes(_ context.Context, d time.Time) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.times[d], nil
}

func (f *fakeInventory) ReserveSlot(_ context.Context, d time.Time, clock string, info inventory.ClientInfo) (inventory.ReserveResult, error) {
	if f.err != nil {
		return inventory.ReserveResult{}, f.err
	}
	if f.reserve != nil {
		return inventory.ReserveResult{}, f.reserve
	}
	f.reserved = append(f.reserved, info)
	b := model.Booking{ID: 1, ClientName: info.Name, ClientID: info.ClientID, Date: model.DateValue(d), Time: clock}
	return inventory.ReserveResult{Booking: b, Events: []notify.Event{notify.BookingCreated(b, today)}}, nil
}

func newTestMachine(inv Inventory) *Machine {
	return NewMachine(inv, func() time.Time { return today })
}

func mustApply(t *testing.T, m *Machine, s *Session, a Action) Outcome {
	t.Helper()
	out, err := m.Apply(context.Background(), s, a)
	if err != nil {
		t.Fatalf("apply %s at %s: %v", a.Kind(), s.Step, err)
	}
	return out
}

func TestPublishFlow_HappyPath(t *testing.T) {
	inv := &fakeInventory{}
	m := newTestMachine(inv)

	out := m.BeginPublish(42)
	if out.Kind != OutcomePromptPeriod || out.Session.Step != StepChoosingPeriod {
		t.Fatalf("unexpected begin outcome: %+v", out)
	}
	if !reflect.DeepEqual(out.Periods, []int{7, 14}) {
		t.Fatalf("unexpected periods: %v", out.Periods)
	}

	out = mustApply(t, m, out.Session, SelectPeriod{Days: 7})
	if out.Session.Step != StepSelectingDates || len(out.Dates) != 7 {
		t.Fatalf("expected 7 candidate dates, got %+v", out)
	}
	if !out.Dates[0].Equal(day(0)) || !out.Dates[6].Equal(day(6)) {
		t.Fatalf("horizon must start today: %v", out.Dates)
	}

	out = mustApply(t, m, out.Session, ToggleDate{Date: day(2)})
	out = mustApply(t, m, out.Session, ToggleDate{Date: day(0)})
	out = mustApply(t, m, out.Session, DatesDone{})
	if out.Session.Step != StepSelectingTimeSlots || len(out.Times) != 24 {
		t.Fatalf("expected half-hour grid, got %+v", out)
	}

	out = mustApply(t, m, out.Session, ToggleTime{Time: "09:30"})
	out = mustApply(t, m, out.Session, ToggleTime{Time: "09:00"})
	out = mustApply(t, m, out.Session, TimesDone{})

	if out.Kind != OutcomePublished || !out.Terminal || out.Session != nil {
		t.Fatalf("expected terminal publish outcome, got %+v", out)
	}
	if out.Published.Created != 4 {
		t.Fatalf("expected 4 created, got %d", out.Published.Created)
	}
	if !reflect.DeepEqual(inv.published.dates, []time.Time{day(0), day(2)}) {
		t.Fatalf("unexpected published dates: %v", inv.published.dates)
	}
	if !reflect.DeepEqual(inv.published.times, []string{"09:00", "09:30"}) {
		t.Fatalf("unexpected published times: %v", inv.published.times)
	}
}

func TestPublishFlow_ToggleIsXOR(t *testing.T) {
	m := newTestMachine(&fakeInventory{})
	out := mustApply(t, m, m.BeginPublish(42).Session, SelectPeriod{Days: 14})

	out = mustApply(t, m, out.Session, ToggleDate{Date: day(3)})
	before := out.SelectedDates

	out = mustApply(t, m, out.Session, ToggleDate{Date: day(5)})
	out = mustApply(t, m, out.Session, ToggleDate{Date: day(5)})

	if !reflect.DeepEqual(out.SelectedDates, before) {
		t.Fatalf("double toggle must restore selection: %v -> %v", before, out.SelectedDates)
	}
}

func TestPublishFlow_EmptySelectionWarns(t *testing.T) {
	m := newTestMachine(&fakeInventory{})
	s := mustApply(t, m, m.BeginPublish(42).Session, SelectPeriod{Days: 7}).Session

	out := mustApply(t, m, s, DatesDone{})
	if out.Warning == nil || out.Session.Step != StepSelectingDates {
		t.Fatalf("expected warning in SelectingDates, got %+v", out)
	}

	s = mustApply(t, m, mustApply(t, m, s, ToggleDate{Date: day(1)}).Session, DatesDone{}).Session
	out = mustApply(t, m, s, TimesDone{})
	if out.Warning == nil || out.Terminal || out.Session.Step != StepSelectingTimeSlots {
		t.Fatalf("expected warning in SelectingTimeSlots, got %+v", out)
	}
}

func TestPublishFlow_RejectsOutOfRange(t *testing.T) {
	m := newTestMachine(&fakeInventory{})
	s := m.BeginPublish(42).Session

	out := mustApply(t, m, s, SelectPeriod{Days: 30})
	if out.Warning == nil || out.Session.Step != StepChoosingPeriod {
		t.Fatalf("expected period warning, got %+v", out)
	}

	s = mustApply(t, m, s, SelectPeriod{Days: 7}).Session
	out = mustApply(t, m, s, ToggleDate{Date: day(20)})
	if out.Warning == nil || len(out.SelectedDates) != 0 {
		t.Fatalf("date outside the horizon must be rejected, got %+v", out)
	}

	s = mustApply(t, m, mustApply(t, m, s, ToggleDate{Date: day(1)}).Session, DatesDone{}).Session
	out = mustApply(t, m, s, ToggleTime{Time: "21:00"})
	if out.Warning == nil || len(out.SelectedTimes) != 0 {
		t.Fatalf("time outside the grid must be rejected, got %+v", out)
	}
}

// Текущее поведение: возврат от выбора времени к выбору дат сбрасывает выбранные даты.
func TestPublishFlow_BackToPeriodDiscardsDateSelection(t *testing.T) {
	m := newTestMachine(&fakeInventory{})
	s := mustApply(t, m, m.BeginPublish(42).Session, SelectPeriod{Days: 7}).Session
	s = mustApply(t, m, s, ToggleDate{Date: day(1)}).Session
	s = mustApply(t, m, s, DatesDone{}).Session

	out := mustApply(t, m, s, BackToPeriod{})
	if out.Session.Step != StepSelectingDates {
		t.Fatalf("expected SelectingDates, got %s", out.Session.Step)
	}
	if len(out.SelectedDates) != 0 {
		t.Fatalf("expected date selection to be discarded, got %v", out.SelectedDates)
	}
	if len(out.Dates) != 7 {
		t.Fatalf("candidate dates must survive, got %v", out.Dates)
	}
}

func TestApply_StoreErrorKeepsSession(t *testing.T) {
	inv := &fakeInventory{}
	m := newTestMachine(inv)
	s := mustApply(t, m, m.BeginPublish(42).Session, SelectPeriod{Days: 7}).Session
	s = mustApply(t, m, s, ToggleDate{Date: day(1)}).Session
	s = mustApply(t, m, s, DatesDone{}).Session
	s = mustApply(t, m, s, ToggleTime{Time: "10:00"}).Session

	snapshot := s.Clone()
	inv.err = errors.New("database is locked")

	if _, err := m.Apply(context.Background(), s, TimesDone{}); err == nil {
		t.Fatalf("expected store error")
	}
	if !reflect.DeepEqual(s, snapshot) {
		t.Fatalf("session must stay in pre-operation state")
	}
}

func TestApply_UnexpectedAndReturnToMenu(t *testing.T) {
	m := newTestMachine(&fakeInventory{})
	s := m.BeginPublish(42).Session

	if _, err := m.Apply(context.Background(), s, SubmitName{Text: "Ann"}); !errors.Is(err, ErrUnexpectedAction) {
		t.Fatalf("expected ErrUnexpectedAction, got %v", err)
	}

	for _, step := range []Step{StepChoosingPeriod, StepSelectingDates, StepSelectingTimeSlots, StepBookingDate, StepBookingTime, StepBookingName} {
		out := mustApply(t, m, &Session{ActorID: 1, Step: step}, ReturnToMenu{})
		if out.Kind != OutcomeMenu || !out.Terminal {
			t.Fatalf("return-to-menu must abort at %s, got %+v", step, out)
		}
	}
}

func TestBookingFlow_HappyPath(t *testing.T) {
	inv := &fakeInventory{
		dates: []time.Time{day(0), day(1)},
		times: map[time.Time][]string{day(0): {"09:00", "09:30"}},
	}
	m := newTestMachine(inv)

	out, err := m.BeginBooking(context.Background(), 7)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if out.Kind != OutcomePromptBookingDates || len(out.Dates) != 2 {
		t.Fatalf("unexpected begin outcome: %+v", out)
	}

	out = mustApply(t, m, out.Session, SelectDate{Date: day(0)})
	if out.Kind != OutcomePromptBookingTimes || !reflect.DeepEqual(out.Times, []string{"09:00", "09:30"}) {
		t.Fatalf("unexpected times prompt: %+v", out)
	}

	out = mustApply(t, m, out.Session, SelectTime{Time: "09:30"})
	if out.Kind != OutcomePromptName || out.Session.Step != StepBookingName {
		t.Fatalf("expected name prompt, got %+v", out)
	}

	short := mustApply(t, m, out.Session, SubmitName{Text: "  A  "})
	if short.Warning == nil || short.Session.Step != StepBookingName {
		t.Fatalf("short name must re-prompt, got %+v", short)
	}

	out = mustApply(t, m, out.Session, SubmitName{Text: " Ann ", Handle: "ann_k"})
	if out.Kind != OutcomeBooked || !out.Terminal || out.Booking == nil {
		t.Fatalf("expected booked outcome, got %+v", out)
	}
	if len(out.Events) != 1 || out.Events[0].Type != notify.EventBookingCreated {
		t.Fatalf("expected booking_created event, got %+v", out.Events)
	}
	if got := inv.reserved[0]; got.Name != "Ann" || got.Handle != "ann_k" || got.ClientID != 7 {
		t.Fatalf("unexpected client info: %+v", got)
	}
}

func TestBookingFlow_NoAvailability(t *testing.T) {
	m := newTestMachine(&fakeInventory{})

	out, err := m.BeginBooking(context.Background(), 7)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if out.Kind != OutcomeNoAvailability || !out.Terminal || out.Session != nil {
		t.Fatalf("expected terminal no-availability, got %+v", out)
	}
}

func TestBookingFlow_FullyBookedDateStays(t *testing.T) {
	inv := &fakeInventory{
		dates: []time.Time{day(0), day(1)},
		times: map[time.Time][]string{day(1): {"10:00"}},
	}
	m := newTestMachine(inv)
	out, _ := m.BeginBooking(context.Background(), 7)

	inv.dates = []time.Time{day(1)}
	out = mustApply(t, m, out.Session, SelectDate{Date: day(0)})
	if out.Kind != OutcomeFullyBooked || out.Session.Step != StepBookingDate {
		t.Fatalf("expected fully-booked re-prompt, got %+v", out)
	}
	if !reflect.DeepEqual(out.Dates, []time.Time{day(1)}) {
		t.Fatalf("expected refreshed dates, got %v", out.Dates)
	}
}

func TestBookingFlow_SlotTakenEndsFlow(t *testing.T) {
	inv := &fakeInventory{
		dates: []time.Time{day(0)},
		times: map[time.Time][]string{day(0): {"09:00"}},
	}
	m := newTestMachine(inv)
	out, _ := m.BeginBooking(context.Background(), 7)
	out = mustApply(t, m, out.Session, SelectDate{Date: day(0)})
	out = mustApply(t, m, out.Session, SelectTime{Time: "09:00"})

	inv.reserve = calendar.ErrSlotUnavailable
	out = mustApply(t, m, out.Session, SubmitName{Text: "Bob"})
	if out.Kind != OutcomeSlotTaken || !out.Terminal {
		t.Fatalf("expected terminal slot-taken, got %+v", out)
	}
}

func TestBookingFlow_BackToDates(t *testing.T) {
	inv := &fakeInventory{
		dates: []time.Time{day(0), day(1)},
		times: map[time.Time][]string{day(0): {"09:00"}},
	}
	m := newTestMachine(inv)
	out, _ := m.BeginBooking(context.Background(), 7)
	out = mustApply(t, m, out.Session, SelectDate{Date: day(0)})

	out = mustApply(t, m, out.Session, BackToDates{})
	if out.Session.Step != StepBookingDate || !out.Session.Scratch.BookingDate.IsZero() {
		t.Fatalf("expected fresh BookingDate step, got %+v", out.Session)
	}

	if _, err := m.Apply(context.Background(), out.Session, SelectTime{Time: "09:00"}); !errors.Is(err, ErrUnexpectedAction) {
		t.Fatalf("stale time button must be rejected, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	a, err := Decode(NameToggleDate, map[string]string{"date": "2025-06-03"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if td, ok := a.(ToggleDate); !ok || !td.Date.Equal(day(2)) {
		t.Fatalf("unexpected action: %#v", a)
	}

	a, err = Decode(NameSelectPeriod, map[string]string{"days": "14"})
	if err != nil || a.(SelectPeriod).Days != 14 {
		t.Fatalf("unexpected select-period decode: %#v (%v)", a, err)
	}

	if _, err := Decode(NameToggleTime, map[string]string{"time": "9:00"}); !calendar.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := Decode("date_2025-06-01", nil); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestMemoryStore_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := newTestMachine(&fakeInventory{})

	first := m.BeginPublish(42).Session
	second := m.BeginPublish(42).Session
	store.Put(ctx, first)
	store.Put(ctx, second)

	got, ok := store.Get(ctx, 42)
	if !ok || got.FlowID != second.FlowID {
		t.Fatalf("expected the last written session, got %+v", got)
	}

	got.Step = StepSelectingDates
	again, _ := store.Get(ctx, 42)
	if again.Step != StepChoosingPeriod {
		t.Fatalf("store must hand out copies")
	}

	store.Delete(ctx, 42)
	if _, ok := store.Get(ctx, 42); ok || store.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}
