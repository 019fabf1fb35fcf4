package handlers

import (
	"net/http"

	"robofed/internal/service"
)

// RewardHandler отвечает за вывод наград и настройку stealth-инвойсов
//
// Функции:
// - Вывод заработанных наград (POST /api/v1/garage/slots/{index}/reward)
// - Переключение stealth-инвойсов (PUT /api/v1/garage/slots/{index}/stealth)
type RewardHandler struct {
	rewards service.RewardServiceInterface
}

// NewRewardHandler создает новый RewardHandler
func NewRewardHandler(rewards service.RewardServiceInterface) *RewardHandler {
	return &RewardHandler{rewards: rewards}
}

// claimRewardRequest - тело запроса вывода наград
type claimRewardRequest struct {
	ShortAlias string `json:"short_alias"`
	Invoice    string `json:"invoice"`
}

// ClaimReward подписывает инвойс ключом робота и отправляет
// координатору заявку на вывод наград
// POST /api/v1/garage/slots/{index}/reward
func (h *RewardHandler) ClaimReward(w http.ResponseWriter, r *http.Request) {
	index, ok := slotIndex(w, r)
	if !ok {
		return
	}

	var req claimRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ShortAlias == "" {
		respondError(w, http.StatusBadRequest, "short_alias is required")
		return
	}
	if req.Invoice == "" {
		respondError(w, http.StatusBadRequest, "invoice is required")
		return
	}

	if err := h.rewards.ClaimReward(r.Context(), index, req.ShortAlias, req.Invoice); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"successful_withdrawal": true})
}

// setStealthRequest - тело запроса переключения stealth-инвойсов
type setStealthRequest struct {
	ShortAlias   string `json:"short_alias"`
	WantsStealth bool   `json:"wants_stealth"`
}

// SetStealth переключает режим stealth-инвойсов робота у координатора
// PUT /api/v1/garage/slots/{index}/stealth
func (h *RewardHandler) SetStealth(w http.ResponseWriter, r *http.Request) {
	index, ok := slotIndex(w, r)
	if !ok {
		return
	}

	var req setStealthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ShortAlias == "" {
		respondError(w, http.StatusBadRequest, "short_alias is required")
		return
	}

	if err := h.rewards.SetStealth(r.Context(), index, req.ShortAlias, req.WantsStealth); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"wants_stealth": req.WantsStealth})
}
