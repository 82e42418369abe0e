package model

import (
	"time"

	"gorm.io/datatypes"
)

// slots — опубликованная оператором сетка (дата, время).
// Пара (slot_date, slot_time) уникальна; занятость хранится в booked.
type Slot struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	Date datatypes.Date `gorm:"column:slot_date;type:date;not null;uniqueIndex:idx_slot_date_time,priority:1"`
	Time string         `gorm:"column:slot_time;type:varchar(5);not null;uniqueIndex:idx_slot_date_time,priority:2"`

	Booked bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// DateValue приводит дату к полуночи UTC: запись и поиск по slot_date дают одно и то же значение.
func DateValue(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
