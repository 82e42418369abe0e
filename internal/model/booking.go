package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/Leganyst/slotbook/internal/calendar"
)

// bookings — журнал записей клиентов. На один занятый слот приходится ровно одна запись.
type Booking struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	ClientName   string  `gorm:"type:varchar(255);not null"`
	ClientHandle *string `gorm:"type:varchar(255)"`
	ClientID     int64   `gorm:"not null;index"`

	Date datatypes.Date `gorm:"column:slot_date;type:date;not null;uniqueIndex:idx_booking_slot,priority:1"`
	Time string         `gorm:"column:slot_time;type:varchar(5);not null;uniqueIndex:idx_booking_slot,priority:2"`

	CreatedAt time.Time `gorm:"not null"`
}

// Day возвращает дату записи как time.Time (полночь UTC).
func (b Booking) Day() time.Time {
	return calendar.DateOf(time.Time(b.Date))
}
