package calendar

import "errors"

// ErrInvalidActor — идентификатор пользователя чата не задан или отрицателен.
var ErrInvalidActor = errors.New("invalid actor id")

// Роль пользователя: оператор один, все остальные — клиенты.
type Role string

const (
	RoleOperator Role = "operator"
	RoleClient   Role = "client"
)

// ValidateActor проверяет идентификатор и определяет роль.
// Роль вычисляется при каждом вызове, а не запоминается при входе в меню.
func ValidateActor(actorID, operatorID int64) (Role, error) {
	if actorID <= 0 {
		return "", ErrInvalidActor
	}
	if actorID == operatorID {
		return RoleOperator, nil
	}
	return RoleClient, nil
}
