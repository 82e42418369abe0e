package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/slotbook/internal/calendar"
	"github.com/Leganyst/slotbook/internal/model"
)

type SlotRepository interface {
	// Опубликовать декартово произведение dates × times. Повторная публикация ничего не меняет.
	PublishSlots(ctx context.Context, dates []time.Time, times []string) (int, error)
	// Даты, где есть хотя бы один свободный слот, по возрастанию.
	ListAvailableDates(ctx context.Context) ([]time.Time, error)
	// Свободное время на дату, по возрастанию.
	ListAvailableTimes(ctx context.Context, date time.Time) ([]string, error)
	// Даты, где есть любой слот (свободный или занятый).
	ListDatesWithAnySlot(ctx context.Context) ([]time.Time, error)
	// Атомарно занять слот. false — слота нет или он уже занят.
	MarkBooked(ctx context.Context, date time.Time, clock string) (bool, error)
	// Освободить слот. Идемпотентно.
	MarkFree(ctx context.Context, date time.Time, clock string) error
	// Занят ли слот. calendar.ErrNotFound, если слота нет.
	IsBooked(ctx context.Context, date time.Time, clock string) (bool, error)
	// Удалить все слоты даты.
	DeleteSlotsForDate(ctx context.Context, date time.Time) (int64, error)

	WithTx(tx *gorm.DB) SlotRepository
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) WithTx(tx *gorm.DB) SlotRepository {
	return &GormSlotRepository{db: tx}
}

func (r *GormSlotRepository) PublishSlots(ctx context.Context, dates []time.Time, times []string) (int, error) {
	dates = calendar.UniqueDates(dates)
	times = calendar.UniqueClocks(times)
	if len(dates) == 0 || len(times) == 0 {
		return 0, nil
	}

	created := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range dates {
			for _, t := range times {
				slot := model.Slot{Date: model.DateValue(d), Time: t}
				res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&slot)
				if res.Error != nil {
					return res.Error
				}
				created += int(res.RowsAffected)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

func (r *GormSlotRepository) ListAvailableDates(ctx context.Context) ([]time.Time, error) {
	var dates []datatypes.Date
	err := r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Distinct("slot_date").
		Where("booked = ?", false).
		Order("slot_date ASC").
		Pluck("slot_date", &dates).
		Error
	if err != nil {
		return nil, err
	}
	return toDays(dates), nil
}

func (r *GormSlotRepository) ListAvailableTimes(ctx context.Context, date time.Time) ([]string, error) {
	var times []string
	err := r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("slot_date = ? AND booked = ?", model.DateValue(date), false).
		Order("slot_time ASC").
		Pluck("slot_time", &times).
		Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

func (r *GormSlotRepository) ListDatesWithAnySlot(ctx context.Context) ([]time.Time, error) {
	var dates []datatypes.Date
	err := r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Distinct("slot_date").
		Order("slot_date ASC").
		Pluck("slot_date", &dates).
		Error
	if err != nil {
		return nil, err
	}
	return toDays(dates), nil
}

func (r *GormSlotRepository) MarkBooked(ctx context.Context, date time.Time, clock string) (bool, error) {
	// compare-and-set: выигрывает ровно один из конкурирующих запросов
	res := r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("slot_date = ? AND slot_time = ? AND booked = ?", model.DateValue(date), clock, false).
		Update("booked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormSlotRepository) MarkFree(ctx context.Context, date time.Time, clock string) error {
	return r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("slot_date = ? AND slot_time = ?", model.DateValue(date), clock).
		Update("booked", false).
		Error
}

func (r *GormSlotRepository) IsBooked(ctx context.Context, date time.Time, clock string) (bool, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("slot_date = ? AND slot_time = ?", model.DateValue(date), clock).
		Limit(1).
		Find(&slots).
		Error
	if err != nil {
		return false, err
	}
	if len(slots) == 0 {
		return false, calendar.ErrNotFound
	}
	return slots[0].Booked, nil
}

func (r *GormSlotRepository) DeleteSlotsForDate(ctx context.Context, date time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("slot_date = ?", model.DateValue(date)).
		Delete(&model.Slot{})
	return res.RowsAffected, res.Error
}

func toDays(dates []datatypes.Date) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		out = append(out, calendar.DateOf(time.Time(d)))
	}
	return out
}
