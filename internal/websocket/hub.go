package websocket

import (
	"bytes"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"robofed/internal/federation"
	"robofed/internal/garage"
	"robofed/internal/models"
	"robofed/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Hub выступает каналом событий для гаража и поллера федерации
var (
	_ garage.SlotBroadcaster = (*Hub)(nil)
	_ federation.Broadcaster = (*Hub)(nil)
)

// Пул JSON буферов: Broadcast вызывается на каждом переходе слота
// и каждом цикле опроса федерации
var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub управляет всеми активными WebSocket соединениями
//
// Назначение:
// Центральный менеджер для broadcast сообщений всем подключенным клиентам.
// Frontend получает изменения слотов и сводку федерации без polling.
//
// Hub реализует garage.SlotBroadcaster и federation.Broadcaster,
// поэтому гараж и поллер публикуют события не зная про WebSocket.
//
// Использование:
// 1. Создать hub: hub := NewHub()
// 2. Запустить в горутине: go hub.Run()
// 3. Отправлять сообщения: hub.BroadcastSlot(...) / hub.BroadcastExchange(...)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал для отправки сообщений всем клиентам
	broadcast chan []byte

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	// Сигнал остановки для Run
	done chan struct{}

	// Счетчик сообщений, отброшенных из-за переполнения broadcast канала
	dropped atomic.Int64

	// Mutex для потокобезопасного доступа к clients
	mu sync.RWMutex
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
// Обрабатывает регистрацию, отмену регистрации и broadcast.
// Завершается после вызова Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			utils.L().Debug("websocket client connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			utils.L().Debug("websocket client disconnected", zap.Int("total", total))

		case message := <-h.broadcast:
			// Копируем список клиентов под коротким RLock, отправляем
			// без блокировки, чтобы не задерживать register/unregister
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Клиент не успевает читать - отключаем
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				total := len(h.clients)
				h.mu.Unlock()
				utils.L().Warn("removed slow websocket clients",
					zap.Int("removed", len(toRemove)),
					zap.Int("total", total))
			}
		}
	}
}

// Stop останавливает цикл Run и закрывает все соединения
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// Broadcast сериализует сообщение и отправляет его всем клиентам.
// Не блокируется: при переполнении канала сообщение отбрасывается
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		utils.L().Error("failed to marshal broadcast message", zap.Error(err))
		jsonBufferPool.Put(buf)
		return
	}

	// Encode добавляет trailing newline
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	// Буфер вернется в пул, данные нужно скопировать
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	h.BroadcastRaw(msgCopy)
}

// BroadcastRaw отправляет уже сериализованное сообщение
func (h *Hub) BroadcastRaw(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.dropped.Add(1)
	}
}

// BroadcastSlot отправляет изменение слота гаража.
// Реализует garage.SlotBroadcaster
func (h *Hub) BroadcastSlot(slot models.Slot) {
	h.Broadcast(NewSlotUpdateMessage(slot))
}

// BroadcastOrder отправляет обновление ордера слота
func (h *Hub) BroadcastOrder(slotIndex int, order *models.Order) {
	h.Broadcast(NewOrderUpdateMessage(slotIndex, order))
}

// BroadcastExchange отправляет сводку по федерации.
// Реализует federation.Broadcaster
func (h *Hub) BroadcastExchange(exchange models.Exchange) {
	h.Broadcast(NewExchangeUpdateMessage(exchange))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedMessages возвращает количество отброшенных сообщений
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}
