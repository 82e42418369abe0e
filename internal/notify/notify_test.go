package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/slotbook/internal/model"
)

func sampleBooking() model.Booking {
	handle := "ann_k"
	return model.Booking{
		ID:           3,
		ClientName:   "Ann",
		ClientHandle: &handle,
		ClientID:     77,
		Date:         datatypes.Date(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		Time:         "09:00",
	}
}

type recordingNotifier struct {
	operator []Event
	clients  map[int64][]Event
	failFor  int64
}

func (n *recordingNotifier) NotifyOperator(_ context.Context, e Event) error {
	n.operator = append(n.operator, e)
	return nil
}

func (n *recordingNotifier) NotifyClient(_ context.Context, clientID int64, e Event) error {
	if clientID == n.failFor {
		return errors.New("chat unreachable")
	}
	if n.clients == nil {
		n.clients = map[int64][]Event{}
	}
	n.clients[clientID] = append(n.clients[clientID], e)
	return nil
}

func TestEventConstructors(t *testing.T) {
	at := time.Date(2025, 5, 30, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	b := sampleBooking()

	created := BookingCreated(b, at)
	if created.Audience != AudienceOperator || created.ClientID != 0 {
		t.Fatalf("booking_created must go to the operator, got %+v", created)
	}
	if created.Booking.Date != "2025-06-01" || created.Booking.ClientHandle != "ann_k" {
		t.Fatalf("unexpected payload: %+v", created.Booking)
	}
	if created.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", created.OccurredAt)
	}

	cancelled := BookingCancelled(b, at)
	if cancelled.Audience != AudienceClient || cancelled.ClientID != 77 {
		t.Fatalf("booking_cancelled must go to the owner, got %+v", cancelled)
	}
	if cancelled.ID == created.ID {
		t.Fatalf("events must have distinct ids")
	}
}

func TestDispatcher_RoutesAndSwallowsFailures(t *testing.T) {
	rec := &recordingNotifier{failFor: 13}
	d := NewDispatcher(rec, zap.NewNop())

	ok := sampleBooking()
	lost := sampleBooking()
	lost.ClientID = 13

	now := time.Now()
	delivered := d.Dispatch(context.Background(),
		BookingCreated(ok, now),
		DayDeleted(ok, now),
		DayDeleted(lost, now),
		Event{Type: EventDayDeleted, Audience: AudienceClient},
	)

	if delivered != 2 {
		t.Fatalf("expected 2 delivered, got %d", delivered)
	}
	if len(rec.operator) != 1 || len(rec.clients[77]) != 1 {
		t.Fatalf("unexpected routing: operator=%v clients=%v", rec.operator, rec.clients)
	}
}

type fakeChannel struct {
	key  string
	msgs []amqp.Publishing
	err  error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.key = key
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestAMQPNotifier_PublishesPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	n := NewAMQPNotifier(ch, "slotbook.notifications")

	e := BookingCancelled(sampleBooking(), time.Now())
	if err := n.NotifyClient(context.Background(), 77, e); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if ch.key != "slotbook.notifications" || len(ch.msgs) != 1 {
		t.Fatalf("expected one message on the queue, got key=%q msgs=%d", ch.key, len(ch.msgs))
	}
	msg := ch.msgs[0]
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" {
		t.Fatalf("unexpected publishing: %+v", msg)
	}

	var decoded Event
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.ID != e.ID || decoded.ClientID != 77 || decoded.Type != EventBookingCancelled {
		t.Fatalf("unexpected body: %+v", decoded)
	}

	ch.err = errors.New("channel closed")
	if err := n.NotifyOperator(context.Background(), e); err == nil {
		t.Fatalf("expected publish error")
	}
}

type fakeList struct {
	key    string
	values []interface{}
}

func (l *fakeList) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	l.key = key
	l.values = append(l.values, values...)
	return redis.NewIntResult(int64(len(l.values)), nil)
}

func TestRedisNotifier_Push(t *testing.T) {
	list := &fakeList{}
	n := NewRedisNotifier(list, "slotbook:notifications")

	e := BookingCreated(sampleBooking(), time.Now())
	if err := n.NotifyOperator(context.Background(), e); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if list.key != "slotbook:notifications" || len(list.values) != 1 {
		t.Fatalf("unexpected push: key=%q values=%d", list.key, len(list.values))
	}

	body, ok := list.values[0].([]byte)
	if !ok {
		t.Fatalf("expected []byte payload, got %T", list.values[0])
	}
	var decoded Event
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Booking.ClientName != "Ann" || decoded.Audience != AudienceOperator {
		t.Fatalf("unexpected event: %+v", decoded)
	}
}
