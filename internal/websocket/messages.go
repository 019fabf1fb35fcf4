package websocket

import (
	"time"

	"robofed/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeSlotUpdate - изменение состояния слота гаража
	// Отправляется на каждом переходе EMPTY/GENERATING/FOUND/ERROR
	MessageTypeSlotUpdate MessageType = "slotUpdate"

	// MessageTypeOrderUpdate - обновление ордера, привязанного к слоту
	MessageTypeOrderUpdate MessageType = "orderUpdate"

	// MessageTypeExchangeUpdate - агрегированная статистика федерации
	// Отправляется после каждого цикла опроса координаторов
	MessageTypeExchangeUpdate MessageType = "exchangeUpdate"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// SlotUpdateMessage - сообщение об изменении слота гаража
//
// Токен робота никогда не попадает в сообщение: подключенный
// frontend и так владеет токенами, а канал может слушать кто угодно
// из разрешенных origins.
type SlotUpdateMessage struct {
	BaseMessage
	Data *SlotUpdateData `json:"data"`
}

// SlotUpdateData - публичный вид слота
type SlotUpdateData struct {
	Index int    `json:"index"`
	State string `json:"state"`

	// Поля робота (присутствуют после деривации)
	Nickname      string `json:"nickname,omitempty"`
	Found         bool   `json:"found"`
	ActiveOrderID int    `json:"active_order_id,omitempty"`
	EarnedRewards int64  `json:"earned_rewards,omitempty"`
	LastError     string `json:"last_error,omitempty"`

	// Координатор активного ордера (если есть)
	OrderID         int    `json:"order_id,omitempty"`
	OrderShortAlias string `json:"order_short_alias,omitempty"`
}

// OrderUpdateMessage - сообщение об обновлении ордера
type OrderUpdateMessage struct {
	BaseMessage
	SlotIndex int           `json:"slot_index"`
	Data      *models.Order `json:"data"`
}

// ExchangeUpdateMessage - сообщение со сводкой по федерации
type ExchangeUpdateMessage struct {
	BaseMessage
	Data *models.Exchange `json:"data"`
}

// ============ Фабричные функции для создания сообщений ============

// NewSlotUpdateMessage создает сообщение об изменении слота
func NewSlotUpdateMessage(slot models.Slot) *SlotUpdateMessage {
	data := &SlotUpdateData{
		Index: slot.Index,
		State: slot.State,
	}

	if slot.Robot != nil {
		data.Nickname = slot.Robot.Nickname
		data.Found = slot.Robot.Found
		data.ActiveOrderID = slot.Robot.ActiveOrderID
		data.EarnedRewards = slot.Robot.EarnedRewards
		data.LastError = slot.Robot.LastError
	}
	if slot.Order != nil {
		data.OrderID = slot.Order.ID
		data.OrderShortAlias = slot.Order.ShortAlias
	}

	return &SlotUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeSlotUpdate,
			Timestamp: time.Now(),
		},
		Data: data,
	}
}

// NewOrderUpdateMessage создает сообщение об обновлении ордера
func NewOrderUpdateMessage(slotIndex int, order *models.Order) *OrderUpdateMessage {
	return &OrderUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeOrderUpdate,
			Timestamp: time.Now(),
		},
		SlotIndex: slotIndex,
		Data:      order,
	}
}

// NewExchangeUpdateMessage создает сообщение со сводкой федерации
func NewExchangeUpdateMessage(exchange models.Exchange) *ExchangeUpdateMessage {
	return &ExchangeUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeExchangeUpdate,
			Timestamp: time.Now(),
		},
		Data: &exchange,
	}
}
