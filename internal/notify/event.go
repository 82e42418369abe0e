// Package notify доставляет уведомления оператору и клиентам после изменений в расписании.
// Доставка best-effort: ошибка отправки не откатывает операцию, которая её вызвала.
package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/slotbook/internal/calendar"
	"github.com/Leganyst/slotbook/internal/model"
)

type EventType string

const (
	// Новая запись клиента — уведомление оператору.
	EventBookingCreated EventType = "booking_created"
	// Оператор отменил запись — уведомление её владельцу.
	EventBookingCancelled EventType = "booking_cancelled"
	// Оператор удалил день — по уведомлению на каждую затронутую запись.
	EventDayDeleted EventType = "day_deleted"
)

type Audience string

const (
	AudienceOperator Audience = "operator"
	AudienceClient   Audience = "client"
)

// BookingPayload — снимок записи на момент события.
type BookingPayload struct {
	BookingID    int64  `json:"booking_id"`
	ClientName   string `json:"client_name"`
	ClientHandle string `json:"client_handle,omitempty"`
	ClientID     int64  `json:"client_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	Audience   Audience       `json:"audience"`
	ClientID   int64          `json:"client_id,omitempty"` // получатель, если Audience == client
	Booking    BookingPayload `json:"booking"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func payloadOf(b model.Booking) BookingPayload {
	p := BookingPayload{
		BookingID:  b.ID,
		ClientName: b.ClientName,
		ClientID:   b.ClientID,
		Date:       calendar.FormatDate(b.Day()),
		Time:       b.Time,
	}
	if b.ClientHandle != nil {
		p.ClientHandle = *b.ClientHandle
	}
	return p
}

func newEvent(t EventType, aud Audience, b model.Booking, at time.Time) Event {
	e := Event{
		ID:         uuid.New(),
		Type:       t,
		Audience:   aud,
		Booking:    payloadOf(b),
		OccurredAt: at.UTC(),
	}
	if aud == AudienceClient {
		e.ClientID = b.ClientID
	}
	return e
}

func BookingCreated(b model.Booking, at time.Time) Event {
	return newEvent(EventBookingCreated, AudienceOperator, b, at)
}

func BookingCancelled(b model.Booking, at time.Time) Event {
	return newEvent(EventBookingCancelled, AudienceClient, b, at)
}

func DayDeleted(b model.Booking, at time.Time) Event {
	return newEvent(EventDayDeleted, AudienceClient, b, at)
}
