package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"robofed/internal/garage"
	"robofed/internal/models"
	"robofed/internal/service"
)

// GarageHandler отвечает за управление слотами гаража
//
// Функции:
// - Список слотов и текущий слот (GET /api/v1/garage)
// - Создание слота (POST /api/v1/garage/slots)
// - Получение/удаление слота (GET/DELETE /api/v1/garage/slots/{index})
// - Восстановление робота по токену (POST /api/v1/garage/slots/{index}/generate)
// - Переключение текущего слота (PUT /api/v1/garage/current)
// - Экспорт гаража (GET /api/v1/garage/export)
// - Полная очистка (DELETE /api/v1/garage)
type GarageHandler struct {
	garage *garage.Garage
	robots service.RobotServiceInterface
}

// NewGarageHandler создает новый GarageHandler
func NewGarageHandler(g *garage.Garage, robots service.RobotServiceInterface) *GarageHandler {
	return &GarageHandler{garage: g, robots: robots}
}

// garageResponse - сводка по гаражу
type garageResponse struct {
	Slots        []models.Slot  `json:"slots"`
	CurrentIndex int            `json:"current_index"` // -1 если слотов нет
	Counts       map[string]int `json:"counts"`
}

// GetGarage возвращает все слоты и индекс текущего
// GET /api/v1/garage
func (h *GarageHandler) GetGarage(w http.ResponseWriter, r *http.Request) {
	current := -1
	if slot, err := h.garage.CurrentSlot(); err == nil {
		current = slot.Index
	}

	respondJSON(w, http.StatusOK, garageResponse{
		Slots:        h.garage.AllSlots(),
		CurrentIndex: current,
		Counts:       h.garage.SlotCounts(),
	})
}

// CreateSlot добавляет пустой слот, он становится текущим
// POST /api/v1/garage/slots
func (h *GarageHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	slot := h.garage.AddSlot()
	respondJSON(w, http.StatusCreated, slot)
}

// GetSlot возвращает слот по индексу
// GET /api/v1/garage/slots/{index}
func (h *GarageHandler) GetSlot(w http.ResponseWriter, r *http.Request) {
	index, ok := slotIndex(w, r)
	if !ok {
		return
	}

	slot, err := h.garage.GetSlot(index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, slot)
}

// DeleteSlot удаляет слот по индексу
// DELETE /api/v1/garage/slots/{index}
func (h *GarageHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	index, ok := slotIndex(w, r)
	if !ok {
		return
	}

	if err := h.garage.DeleteSlot(index); err != nil {
		respondServiceError(w, err)
		return
	}

	// БД догоняет память; ошибка записи не отменяет удаление
	h.robots.PersistGarage()

	w.WriteHeader(http.StatusNoContent)
}

// DeleteGarage удаляет все слоты и сохраненное состояние
// DELETE /api/v1/garage
func (h *GarageHandler) DeleteGarage(w http.ResponseWriter, r *http.Request) {
	if err := h.robots.DeleteGarage(); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// generateRobotRequest - тело запроса восстановления робота
type generateRobotRequest struct {
	Token string `json:"token"`
}

// GenerateRobot восстанавливает робота в слоте по токену
// POST /api/v1/garage/slots/{index}/generate
func (h *GarageHandler) GenerateRobot(w http.ResponseWriter, r *http.Request) {
	index, ok := slotIndex(w, r)
	if !ok {
		return
	}

	var req generateRobotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		respondError(w, http.StatusBadRequest, "token is required")
		return
	}

	slot, err := h.robots.GenerateRobot(r.Context(), index, req.Token)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, slot)
}

// setCurrentRequest - тело запроса переключения текущего слота
type setCurrentRequest struct {
	Index int `json:"index"`
}

// SetCurrent переключает текущий слот
// PUT /api/v1/garage/current
func (h *GarageHandler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	var req setCurrentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.garage.SetCurrentSlot(req.Index); err != nil {
		respondServiceError(w, err)
		return
	}

	slot, err := h.garage.CurrentSlot()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, slot)
}

// ExportGarage возвращает сериализованный гараж вместе с токенами.
// Файл предназначен для переноса между устройствами
// GET /api/v1/garage/export
func (h *GarageHandler) ExportGarage(w http.ResponseWriter, r *http.Request) {
	data, err := h.garage.Export()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="garage.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// slotIndex извлекает индекс слота из URL
func slotIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid slot index")
		return 0, false
	}
	return index, true
}
