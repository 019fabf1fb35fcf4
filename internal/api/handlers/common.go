package handlers

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"robofed/internal/coordinator"
	"robofed/internal/federation"
	"robofed/internal/garage"
	"robofed/internal/service"
	"robofed/pkg/crypto"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse стандартный формат ответа об ошибке для всех API endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondJSON сериализует payload и пишет его с указанным статусом
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError пишет ошибку в стандартном формате
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError транслирует ошибку сервисного слоя в HTTP статус.
// Ошибки координаторов отличаются от локальных: отказ координатора по
// содержанию запроса - это 400 с его текстом, сетевой сбой - 502.
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	// Не найдено
	case errors.Is(err, garage.ErrSlotNotFound),
		errors.Is(err, garage.ErrNoCurrentSlot),
		errors.Is(err, federation.ErrUnknownCoordinator),
		errors.Is(err, service.ErrNoActiveOrder):
		return http.StatusNotFound

	// Конфликт состояния
	case errors.Is(err, service.ErrClaimInFlight),
		errors.Is(err, service.ErrRobotNotReady),
		errors.Is(err, garage.ErrInvalidTransition):
		return http.StatusConflict

	// Невалидный запрос
	case errors.Is(err, crypto.ErrInvalidTokenFormat),
		errors.Is(err, service.ErrInvalidNetwork),
		errors.Is(err, service.ErrInvalidOrigin),
		errors.Is(err, service.ErrMissingHostURL),
		errors.Is(err, service.ErrAmountOutOfRange),
		errors.Is(err, service.ErrAlreadyParticipant),
		errors.Is(err, service.ErrOrderPenalized),
		errors.Is(err, service.ErrNoRewards),
		errors.Is(err, service.ErrNoRate),
		errors.Is(err, service.ErrBadInvoice),
		errors.Is(err, garage.ErrMissingShortAlias),
		coordinator.IsBadRequest(err):
		return http.StatusBadRequest

	// Координатор недоступен или ответил мусором
	case coordinator.IsTransport(err),
		errors.Is(err, coordinator.ErrNoEndpoint),
		errors.Is(err, coordinator.ErrEmptyResponse):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
