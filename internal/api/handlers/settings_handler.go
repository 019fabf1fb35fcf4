package handlers

import (
	"net/http"

	"robofed/internal/service"
)

// SettingsHandler отвечает за клиентские настройки
//
// Функции:
// - Получение настроек (GET /api/v1/settings)
// - Частичное обновление (PATCH /api/v1/settings)
// - Сброс к значениям по умолчанию (POST /api/v1/settings/reset)
//
// Смена сети или origin влияет на резолюцию endpoint'ов всех
// координаторов при следующих запросах.
type SettingsHandler struct {
	settings service.SettingsServiceInterface
}

// NewSettingsHandler создает новый SettingsHandler
func NewSettingsHandler(settings service.SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetSettings возвращает текущие настройки
// GET /api/v1/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.settings.Current())
}

// UpdateSettings частично обновляет настройки.
// Непереданные поля не меняются
// PATCH /api/v1/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.settings.Update(&req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// ResetSettings сбрасывает настройки к значениям по умолчанию
// POST /api/v1/settings/reset
func (h *SettingsHandler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	reset, err := h.settings.ResetToDefaults()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reset)
}
