package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/slotbook/internal/calendar"
	"github.com/Leganyst/slotbook/internal/model"
	"github.com/Leganyst/slotbook/internal/notify"
	"github.com/Leganyst/slotbook/internal/repository"
)

// ClientInfo — данные клиента для записи. Name проверяется после TrimSpace.
type ClientInfo struct {
	Name     string `validate:"required,min=2,max=255"`
	Handle   string `validate:"omitempty,max=255"`
	ClientID int64  `validate:"gt=0"`
}

type publishInput struct {
	Dates []time.Time `validate:"required,min=1"`
	Times []string    `validate:"required,min=1,dive,clock"`
}

type PublishResult struct {
	Created int
	Dates   []time.Time
	Times   []string
}

type ReserveResult struct {
	Booking model.Booking
	Events  []notify.Event
}

// CancelResult: Cancelled == nil — отменять было нечего (слот всё равно освобождён).
type CancelResult struct {
	Cancelled *model.Booking
	Events    []notify.Event
}

type DeleteDayResult struct {
	Date         time.Time
	Removed      []model.Booking
	SlotsDeleted int64
	Events       []notify.Event
}

// Service — единственная точка изменения слотов и журнала записей.
type Service struct {
	db          *gorm.DB
	slotRepo    repository.SlotRepository
	bookingRepo repository.BookingRepository
	validate    *validator.Validate
	log         *zap.Logger
	now         func() time.Time
}

func NewService(
	db *gorm.DB,
	slotRepo repository.SlotRepository,
	bookingRepo repository.BookingRepository,
	log *zap.Logger,
) *Service {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseClock(fl.Field().String())
		return err == nil
	})

	return &Service{
		db:          db,
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		validate:    v,
		log:         log,
		now:         time.Now,
	}
}

func (s *Service) PublishSlots(ctx context.Context, dates []time.Time, times []string) (PublishResult, error) {
	in := publishInput{Dates: dates, Times: times}
	if err := s.check(in); err != nil {
		return PublishResult{}, err
	}

	dates = calendar.UniqueDates(dates)
	times = calendar.UniqueClocks(times)

	created, err := s.slotRepo.PublishSlots(ctx, dates, times)
	if err != nil {
		return PublishResult{}, fmt.Errorf("publish slots: %w", err)
	}

	s.log.Info("slots published",
		zap.Int("dates", len(dates)),
		zap.Int("times", len(times)),
		zap.Int("created", created),
	)

	return PublishResult{Created: created, Dates: dates, Times: times}, nil
}

func (s *Service) ListAvailableDates(ctx context.Context) ([]time.Time, error) {
	return s.slotRepo.ListAvailableDates(ctx)
}

func (s *Service) ListAvailableTimes(ctx context.Context, date time.Time) ([]string, error) {
	return s.slotRepo.ListAvailableTimes(ctx, date)
}

func (s *Service) ListDatesWithAnySlot(ctx context.Context) ([]time.Time, error) {
	return s.slotRepo.ListDatesWithAnySlot(ctx)
}

func (s *Service) ListBookingsForDate(ctx context.Context, date time.Time) ([]model.Booking, error) {
	return s.bookingRepo.ListForDate(ctx, date)
}

func (s *Service) ListAllBookings(ctx context.Context) ([]model.Booking, error) {
	return s.bookingRepo.ListAll(ctx)
}

func (s *Service) ListClientBookings(ctx context.Context, clientID int64) ([]model.Booking, error) {
	return s.bookingRepo.ListByClient(ctx, clientID)
}

// ReserveSlot: сначала атомарно занимаем слот, и только при успехе пишем в журнал.
func (s *Service) ReserveSlot(ctx context.Context, date time.Time, clock string, info ClientInfo) (ReserveResult, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Handle = strings.TrimSpace(info.Handle)
	if err := s.check(info); err != nil {
		return ReserveResult{}, err
	}

	booking := model.Booking{
		ClientName: info.Name,
		ClientID:   info.ClientID,
		Time:       clock,
	}
	booking.Date = model.DateValue(date)
	if info.Handle != "" {
		h := info.Handle
		booking.ClientHandle = &h
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.slotRepo.WithTx(tx).MarkBooked(ctx, date, clock)
		if err != nil {
			return err
		}
		if !ok {
			return calendar.ErrSlotUnavailable
		}
		return s.bookingRepo.WithTx(tx).Create(ctx, &booking)
	})
	if err != nil {
		if errors.Is(err, calendar.ErrSlotUnavailable) {
			s.log.Info("reservation lost",
				zap.String("date", calendar.FormatDate(date)),
				zap.String("time", clock),
				zap.Int64("client_id", info.ClientID),
			)
			return ReserveResult{}, err
		}
		return ReserveResult{}, fmt.Errorf("reserve slot: %w", err)
	}

	s.log.Info("slot reserved",
		zap.Int64("booking_id", booking.ID),
		zap.String("date", calendar.FormatDate(date)),
		zap.String("time", clock),
		zap.Int64("client_id", info.ClientID),
	)

	return ReserveResult{
		Booking: booking,
		Events:  []notify.Event{notify.BookingCreated(booking, s.now())},
	}, nil
}

// CancelBooking удаляет запись и освобождает слот. Слот освобождается, даже если записи не было.
func (s *Service) CancelBooking(ctx context.Context, date time.Time, clock string) (CancelResult, error) {
	var cancelled *model.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.bookingRepo.WithTx(tx).Delete(ctx, date, clock)
		if err != nil && !errors.Is(err, calendar.ErrNotFound) {
			return err
		}
		cancelled = b
		return s.slotRepo.WithTx(tx).MarkFree(ctx, date, clock)
	})
	if err != nil {
		return CancelResult{}, fmt.Errorf("cancel booking: %w", err)
	}

	if cancelled == nil {
		s.log.Info("nothing to cancel",
			zap.String("date", calendar.FormatDate(date)),
			zap.String("time", clock),
		)
		return CancelResult{}, nil
	}

	s.log.Info("booking cancelled",
		zap.Int64("booking_id", cancelled.ID),
		zap.String("date", calendar.FormatDate(date)),
		zap.String("time", clock),
	)

	return CancelResult{
		Cancelled: cancelled,
		Events:    []notify.Event{notify.BookingCancelled(*cancelled, s.now())},
	}, nil
}

// DeleteDay удаляет все записи и слоты даты одной транзакцией.
func (s *Service) DeleteDay(ctx context.Context, date time.Time) (DeleteDayResult, error) {
	res := DeleteDayResult{Date: calendar.DateOf(date)}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := s.bookingRepo.WithTx(tx).DeleteForDate(ctx, date)
		if err != nil {
			return err
		}
		n, err := s.slotRepo.WithTx(tx).DeleteSlotsForDate(ctx, date)
		if err != nil {
			return err
		}
		res.Removed = removed
		res.SlotsDeleted = n
		return nil
	})
	if err != nil {
		return DeleteDayResult{}, fmt.Errorf("delete day: %w", err)
	}

	now := s.now()
	for _, b := range res.Removed {
		res.Events = append(res.Events, notify.DayDeleted(b, now))
	}

	s.log.Info("day deleted",
		zap.String("date", calendar.FormatDate(date)),
		zap.Int64("slots", res.SlotsDeleted),
		zap.Int("bookings", len(res.Removed)),
	)

	return res, nil
}

// check переводит ошибки validator в calendar.ValidationError по первому полю.
func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field, _, _ := strings.Cut(fe.StructField(), "[")
		return &calendar.ValidationError{
			Field:  strings.ToLower(field),
			Reason: fmt.Sprintf("failed %q check", fe.Tag()),
		}
	}
	return err
}
