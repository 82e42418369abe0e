package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Leganyst/slotbook/internal/calendar"
	"github.com/Leganyst/slotbook/internal/model"
)

type BookingRepository interface {
	// Создать запись. Слот должен быть уже занят, иначе calendar.ErrConflict.
	Create(ctx context.Context, booking *model.Booking) error
	// Найти запись на слот. calendar.ErrNotFound, если её нет.
	Find(ctx context.Context, date time.Time, clock string) (*model.Booking, error)
	// Записи на дату, по времени.
	ListForDate(ctx context.Context, date time.Time) ([]model.Booking, error)
	// Все записи, по дате и времени.
	ListAll(ctx context.Context) ([]model.Booking, error)
	// Записи клиента, по дате и времени.
	ListByClient(ctx context.Context, clientID int64) ([]model.Booking, error)
	// Удалить запись на слот и вернуть её.
	Delete(ctx context.Context, date time.Time, clock string) (*model.Booking, error)
	// Удалить все записи даты и вернуть их.
	DeleteForDate(ctx context.Context, date time.Time) ([]model.Booking, error)

	WithTx(tx *gorm.DB) BookingRepository
}

// Реализация на GORM.
type GormBookingRepository struct {
	db    *gorm.DB
	slots SlotRepository
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db, slots: NewGormSlotRepository(db)}
}

func (r *GormBookingRepository) WithTx(tx *gorm.DB) BookingRepository {
	return &GormBookingRepository{db: tx, slots: r.slots.WithTx(tx)}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	booked, err := r.slots.IsBooked(ctx, booking.Day(), booking.Time)
	if err != nil && !errors.Is(err, calendar.ErrNotFound) {
		return err
	}
	if !booked {
		return fmt.Errorf("slot %s %s is not booked: %w", calendar.FormatDate(booking.Day()), booking.Time, calendar.ErrConflict)
	}

	booking.Date = model.DateValue(booking.Day())
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("slot %s %s already has a booking: %w", calendar.FormatDate(booking.Day()), booking.Time, calendar.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *GormBookingRepository) Find(ctx context.Context, date time.Time, clock string) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Where("slot_date = ? AND slot_time = ?", model.DateValue(date), clock).
		First(&b).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, calendar.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) ListForDate(ctx context.Context, date time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("slot_date = ?", model.DateValue(date)).
		Order("slot_time ASC").
		Find(&bookings).
		Error
	return bookings, err
}

func (r *GormBookingRepository) ListAll(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Order("slot_date ASC").
		Order("slot_time ASC").
		Find(&bookings).
		Error
	return bookings, err
}

func (r *GormBookingRepository) ListByClient(ctx context.Context, clientID int64) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("slot_date ASC").
		Order("slot_time ASC").
		Find(&bookings).
		Error
	return bookings, err
}

func (r *GormBookingRepository) Delete(ctx context.Context, date time.Time, clock string) (*model.Booking, error) {
	b, err := r.Find(ctx, date, clock)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&model.Booking{}, b.ID).Error; err != nil {
		return nil, err
	}
	return b, nil
}

func (r *GormBookingRepository) DeleteForDate(ctx context.Context, date time.Time) ([]model.Booking, error) {
	bookings, err := r.ListForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}
	err = r.db.WithContext(ctx).
		Where("slot_date = ?", model.DateValue(date)).
		Delete(&model.Booking{}).
		Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
