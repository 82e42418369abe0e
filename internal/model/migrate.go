package model

import "gorm.io/gorm"

// AutoMigrate создаёт таблицы слотов и журнала записей. Другого долговременного состояния нет.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Slot{},
		&Booking{},
	)
}
