package coordinator

import (
	"errors"
	"fmt"
)

// Ошибки транспортного уровня
var (
	ErrNoEndpoint    = errors.New("coordinator has no endpoint for requested network and origin")
	ErrEmptyResponse = errors.New("coordinator returned empty response")
)

// BadRequestError - координатор принял запрос, но отклонил его по
// прикладной причине (поле bad_request в теле ответа)
//
// Такая ошибка не повод для retry: повторный запрос с теми же данными
// получит тот же отказ
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("coordinator rejected request: %s", e.Reason)
}

// TransportError - запрос не дошёл до координатора или координатор
// ответил некорректно (сетевая ошибка, 5xx, битый JSON)
//
// Кандидат на retry: Tor-соединения часто флапают
type TransportError struct {
	Coordinator string // short alias координатора
	Op          string // операция (robot, order, reward, ...)
	Err         error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("coordinator %s: %s: %v", e.Coordinator, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsBadRequest проверяет является ли ошибка прикладным отказом координатора
func IsBadRequest(err error) bool {
	var bre *BadRequestError
	return errors.As(err, &bre)
}

// IsTransport проверяет является ли ошибка транспортной (retry имеет смысл)
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
