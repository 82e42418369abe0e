package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var ErrNoRecipient = errors.New("notify: event has no client recipient")

// Notifier — транспорт доставки. Обе операции могут завершиться ошибкой
// (получатель недоступен, брокер лежит): вызывающий код их не пробрасывает.
type Notifier interface {
	NotifyOperator(ctx context.Context, e Event) error
	NotifyClient(ctx context.Context, clientID int64, e Event) error
}

// Dispatcher раскладывает события по получателям и глотает ошибки доставки.
type Dispatcher struct {
	notifier Notifier
	log      *zap.Logger
}

func NewDispatcher(n Notifier, log *zap.Logger) *Dispatcher {
	return &Dispatcher{notifier: n, log: log}
}

// Dispatch возвращает число успешно доставленных событий.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...Event) int {
	delivered := 0
	for _, e := range events {
		var err error
		switch e.Audience {
		case AudienceOperator:
			err = d.notifier.NotifyOperator(ctx, e)
		case AudienceClient:
			if e.ClientID <= 0 {
				err = ErrNoRecipient
				break
			}
			err = d.notifier.NotifyClient(ctx, e.ClientID, e)
		default:
			err = errors.New("notify: unknown audience " + string(e.Audience))
		}

		if err != nil {
			d.log.Warn("notification failed",
				zap.String("event_id", e.ID.String()),
				zap.String("type", string(e.Type)),
				zap.Int64("client_id", e.ClientID),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}
