package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"robofed/internal/federation"
)

// FederationHandler отвечает за состояние федерации координаторов
//
// Функции:
// - Снимки всех координаторов (GET /api/v1/federation)
// - Агрегированная сводка биржи (GET /api/v1/federation/exchange)
// - Переключение фокусного координатора (PUT /api/v1/federation/focused)
// - Включение/отключение координатора (PATCH /api/v1/federation/coordinators/{shortAlias})
type FederationHandler struct {
	federation *federation.Federation
}

// NewFederationHandler создает новый FederationHandler
func NewFederationHandler(fed *federation.Federation) *FederationHandler {
	return &FederationHandler{federation: fed}
}

// GetFederation возвращает снимки всех координаторов
// GET /api/v1/federation
func (h *FederationHandler) GetFederation(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.federation.Snapshots())
}

// GetExchange возвращает агрегированную сводку по онлайн-координаторам
// GET /api/v1/federation/exchange
func (h *FederationHandler) GetExchange(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.federation.AggregateInfo())
}

// setFocusedRequest - тело запроса смены фокусного координатора
type setFocusedRequest struct {
	ShortAlias string `json:"short_alias"`
}

// SetFocused переключает фокусный координатор
// PUT /api/v1/federation/focused
func (h *FederationHandler) SetFocused(w http.ResponseWriter, r *http.Request) {
	var req setFocusedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ShortAlias == "" {
		respondError(w, http.StatusBadRequest, "short_alias is required")
		return
	}

	if err := h.federation.SetFocused(req.ShortAlias); err != nil {
		respondServiceError(w, err)
		return
	}

	coord, err := h.federation.Focused()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, coord.GetSnapshot())
}

// setEnabledRequest - тело запроса включения/отключения координатора
type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetEnabled включает или отключает координатор.
// Отключенный координатор не опрашивается и выпадает из агрегации
// PATCH /api/v1/federation/coordinators/{shortAlias}
func (h *FederationHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	shortAlias := mux.Vars(r)["shortAlias"]

	var req setEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.federation.SetEnabled(shortAlias, req.Enabled); err != nil {
		respondServiceError(w, err)
		return
	}

	coord, err := h.federation.Get(shortAlias)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, coord.GetSnapshot())
}
