package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier только пишет события в лог. Используется по умолчанию и в тестах.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyOperator(_ context.Context, e Event) error {
	n.log.Info("operator notification", eventFields(e)...)
	return nil
}

func (n *LogNotifier) NotifyClient(_ context.Context, clientID int64, e Event) error {
	n.log.Info("client notification", append(eventFields(e), zap.Int64("recipient", clientID))...)
	return nil
}

func eventFields(e Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", e.ID.String()),
		zap.String("type", string(e.Type)),
		zap.String("client_name", e.Booking.ClientName),
		zap.String("date", e.Booking.Date),
		zap.String("time", e.Booking.Time),
	}
}
