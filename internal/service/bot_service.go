package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	botpb "github.com/Leganyst/slotbook/internal/api/bot/v1"
	"github.com/Leganyst/slotbook/internal/bot"
	"github.com/Leganyst/slotbook/internal/calendar"
	"github.com/Leganyst/slotbook/internal/model"
	"github.com/Leganyst/slotbook/internal/session"
)

// Handler — то, что умеет выполнять команды бота.
type Handler interface {
	Handle(ctx context.Context, actor bot.Actor, cmd bot.Command) (bot.Response, error)
}

type BotService struct {
	botpb.UnimplementedBotServiceServer

	handler Handler
	log     *zap.Logger
}

func NewBotService(handler Handler, log *zap.Logger) *BotService {
	return &BotService{handler: handler, log: log}
}

// Dispatch — реализация RPC: разбирает команду, выполняет её и кодирует ответ.
func (s *BotService) Dispatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, name, args, err := decodeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	cmd, err := bot.DecodeCommand(name, args)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode %q: %v", name, err)
	}

	resp, err := s.handler.Handle(ctx, actor, cmd)
	switch {
	case err == nil:
	case errors.Is(err, calendar.ErrInvalidActor), errors.Is(err, session.ErrUnknownAction):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	default:
		s.log.Error("dispatch failed", zap.Int64("actor_id", actor.ID), zap.String("action", name), zap.Error(err))
		return nil, status.Errorf(codes.Internal, "dispatch: %v", err)
	}

	out, err := structpb.NewStruct(encodeResponse(resp))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func decodeRequest(req *structpb.Struct) (bot.Actor, string, map[string]string, error) {
	fields := req.GetFields()

	id, err := int64Field(fields["actor_id"])
	if err != nil {
		return bot.Actor{}, "", nil, fmt.Errorf("actor_id: %w", err)
	}
	name := fields["action"].GetStringValue()
	if name == "" {
		return bot.Actor{}, "", nil, errors.New("action is required")
	}

	args := make(map[string]string)
	for k, v := range fields["args"].GetStructValue().GetFields() {
		switch v.GetKind().(type) {
		case *structpb.Value_StringValue:
			args[k] = v.GetStringValue()
		case *structpb.Value_NumberValue:
			args[k] = strconv.FormatFloat(v.GetNumberValue(), 'f', -1, 64)
		case *structpb.Value_BoolValue:
			args[k] = strconv.FormatBool(v.GetBoolValue())
		default:
			return bot.Actor{}, "", nil, fmt.Errorf("args.%s: unsupported value", k)
		}
	}

	actor := bot.Actor{
		ID:     id,
		Handle: fields["handle"].GetStringValue(),
		Name:   fields["name"].GetStringValue(),
	}
	return actor, name, args, nil
}

// int64Field принимает число или строку: идентификаторы больше 2^53 передаются строкой.
func int64Field(v *structpb.Value) (int64, error) {
	switch v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := v.GetNumberValue()
		if n != math.Trunc(n) {
			return 0, errors.New("must be an integer")
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		return strconv.ParseInt(v.GetStringValue(), 10, 64)
	default:
		return 0, errors.New("is required")
	}
}

func encodeResponse(r bot.Response) map[string]any {
	out := map[string]any{
		"status": string(r.Status),
	}
	if r.Screen != "" {
		out["screen"] = string(r.Screen)
	}
	if r.Role != "" {
		out["role"] = string(r.Role)
	}
	if r.Step != session.StepNone {
		out["step"] = r.Step.String()
	}
	if r.Warning != "" {
		out["warning"] = r.Warning
	}
	if r.Menu != nil {
		out["menu"] = stringList(r.Menu)
	}
	if r.Periods != nil {
		periods := make([]any, 0, len(r.Periods))
		for _, p := range r.Periods {
			periods = append(periods, p)
		}
		out["periods"] = periods
	}
	if r.Dates != nil {
		out["dates"] = dateList(r.Dates)
	}
	if r.SelectedDates != nil {
		out["selected_dates"] = dateList(r.SelectedDates)
	}
	if r.Times != nil {
		out["times"] = stringList(r.Times)
	}
	if r.SelectedTimes != nil {
		out["selected_times"] = stringList(r.SelectedTimes)
	}
	if !r.Date.IsZero() {
		out["date"] = calendar.FormatDate(r.Date)
	}
	if r.Time != "" {
		out["time"] = r.Time
	}
	// повторная публикация даёт created = 0, поле должно быть в ответе
	if r.Created > 0 || r.Screen == bot.Screen(session.OutcomePublished.String()) {
		out["created"] = r.Created
	}
	if r.Booking != nil {
		out["booking"] = encodeBooking(*r.Booking)
	}
	if r.Bookings != nil {
		list := make([]any, 0, len(r.Bookings))
		for _, b := range r.Bookings {
			list = append(list, encodeBooking(b))
		}
		out["bookings"] = list
	}
	if r.Removed > 0 {
		out["removed"] = r.Removed
	}
	if r.Page > 0 {
		out["page"] = r.Page
		out["page_size"] = r.PageSize
		out["has_next"] = r.HasNext
	}
	if r.Total > 0 {
		out["total"] = r.Total
	}
	return out
}

func encodeBooking(b model.Booking) map[string]any {
	out := map[string]any{
		"id":          b.ID,
		"client_name": b.ClientName,
		"client_id":   b.ClientID,
		"date":        calendar.FormatDate(b.Day()),
		"time":        b.Time,
	}
	if b.ClientHandle != nil {
		out["client_handle"] = *b.ClientHandle
	}
	if !b.CreatedAt.IsZero() {
		out["created_at"] = b.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func stringList(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

func dateList(in []time.Time) []any {
	out := make([]any, 0, len(in))
	for _, d := range in {
		out = append(out, calendar.FormatDate(d))
	}
	return out
}
