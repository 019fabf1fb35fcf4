package handlers

import (
	"net/http"

	"robofed/internal/models"
	"robofed/internal/service"
)

// OrderHandler отвечает за действия над ордерами
//
// Функции:
// - Оценка суммы в сатоши (POST /api/v1/orders/estimate)
// - Взятие ордера роботом слота (POST /api/v1/garage/slots/{index}/order/take)
// - Обновление активного ордера (POST /api/v1/garage/slots/{index}/order/refresh)
// - Пересоздание истекшего ордера (POST /api/v1/garage/slots/{index}/order/renew)
type OrderHandler struct {
	orders service.OrderServiceInterface
}

// NewOrderHandler создает новый OrderHandler
func NewOrderHandler(orders service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// estimateRequest - тело запроса оценки.
// Ордер передается целиком: frontend уже держит публичный вид
// из книги ордеров и не должен перезапрашивать его ради оценки
type estimateRequest struct {
	Order  *models.Order `json:"order"`
	Amount float64       `json:"amount"`
}

// estimateResponse - результат оценки
type estimateResponse struct {
	Satoshis int64 `json:"satoshis"`
}

// EstimateSats считает ожидаемую сумму сделки в сатоши
// с учетом комиссии тейкера и резерва маршрутизации
// POST /api/v1/orders/estimate
func (h *OrderHandler) EstimateSats(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Order == nil {
		respondError(w, http.StatusBadRequest, "order is required")
		return
	}

	sats, err := h.orders.EstimateSats(req.Order, req.Amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, estimateResponse{Satoshis: sats})
}

// takeOrderRequest - тело запроса взятия ордера
type takeOrderRequest struct {
	ShortAlias string  `json:"short_alias"`
	OrderID    int     `json:"order_id"`
	Amount     float64 `json:"amount"`
}

// TakeOrder берет публичный ордер роботом слота
// POST /api/v1/garage/slots/{index}/order/take
func (h *OrderHandler) TakeOrder(w http.ResponseWriter, r *http.Request) {
	index, ok := slotIndex(w, r)
	if !ok {
		return
	}

	var req takeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ShortAlias == "" {
		respondError(w, http.StatusBadRequest, "short_alias is required")
		return
	}
	if req.OrderID <= 0 {
		respondError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	order, err := h.orders.TakeOrder(r.Context(), index, req.ShortAlias, req.OrderID, req.Amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// RefreshOrder перечитывает активный ордер слота у его координатора
// POST /api/v1/garage/slots/{index}/order/refresh
func (h *OrderHandler) RefreshOrder(w http.ResponseWriter, r *http.Request) {
	index, ok := slotIndex(w, r)
	if !ok {
		return
	}

	order, err := h.orders.RefreshOrder(r.Context(), index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// RenewOrder пересоздает истекший ордер слота с теми же параметрами
// POST /api/v1/garage/slots/{index}/order/renew
func (h *OrderHandler) RenewOrder(w http.ResponseWriter, r *http.Request) {
	index, ok := slotIndex(w, r)
	if !ok {
		return
	}

	order, err := h.orders.RenewOrder(r.Context(), index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
