package calendar

import (
	"errors"
	"fmt"
)

// Ошибки предметной области. Слои выше различают их через errors.Is / errors.As.
var (
	// ErrSlotUnavailable — слот уже занят или не существует (гонка проиграна).
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrNotFound — по дате/времени нет подходящей записи.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied — действие доступно только оператору.
	ErrAccessDenied = errors.New("access denied")
	// ErrConflict — запись в журнал без предварительной брони слота.
	ErrConflict = errors.New("conflict")
)

// ValidationError — некорректный ввод пользователя. Исправляется на месте:
// состояние диалога не меняется, пользователь получает повторный запрос.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation сообщает, является ли err (или обёрнутая в нём ошибка) ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
