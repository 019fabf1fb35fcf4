// Package garage хранит слоты торговых идентичностей и защищает их
// от гонок между конкурирующими запросами к координаторам.
package garage

import (
	"errors"
	"sort"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"robofed/internal/coordinator"
	"robofed/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Ошибки гаража
var (
	ErrSlotNotFound      = errors.New("garage slot not found")
	ErrNoCurrentSlot     = errors.New("garage has no current slot")
	ErrMissingShortAlias = errors.New("order without coordinator short alias")
	ErrInvalidTransition = errors.New("invalid slot state transition")
)

// SlotBroadcaster рассылает обновления слотов подписчикам
type SlotBroadcaster interface {
	BroadcastSlot(slot models.Slot)
}

// Garage — in-memory хранилище слотов.
//
// Индексы слотов стабильны: удаление слота не перенумеровывает
// остальные. Помимо слотов гараж ведет счетчики поколений для
// подавления устаревших ответов координаторов: если пользователь
// сменил токен слота пока предыдущий запрос был в полете, поздний
// ответ по старому токену молча отбрасывается.
type Garage struct {
	mu          sync.RWMutex
	slots       map[int]*models.Slot
	generations map[int]uint64 // последнее выданное поколение по слоту
	nextIndex   int
	current     int // индекс текущего слота; -1 если слотов нет

	broadcaster SlotBroadcaster
}

// New создает пустой гараж.
// broadcaster может быть nil (без рассылки обновлений)
func New(broadcaster SlotBroadcaster) *Garage {
	return &Garage{
		slots:       make(map[int]*models.Slot),
		generations: make(map[int]uint64),
		current:     -1,
		broadcaster: broadcaster,
	}
}

// AddSlot создает пустой слот и делает его текущим
func (g *Garage) AddSlot() models.Slot {
	g.mu.Lock()

	slot := &models.Slot{
		Index:     g.nextIndex,
		State:     models.SlotStateEmpty,
		UpdatedAt: time.Now(),
	}
	g.slots[slot.Index] = slot
	g.current = slot.Index
	g.nextIndex++

	snapshot := *slot
	g.mu.Unlock()

	g.notify(snapshot)
	return snapshot
}

// GetSlot возвращает копию слота по индексу
func (g *Garage) GetSlot(index int) (models.Slot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	slot, ok := g.slots[index]
	if !ok {
		return models.Slot{}, ErrSlotNotFound
	}
	return *slot, nil
}

// CurrentSlot возвращает копию текущего слота
func (g *Garage) CurrentSlot() (models.Slot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.current < 0 {
		return models.Slot{}, ErrNoCurrentSlot
	}
	slot, ok := g.slots[g.current]
	if !ok {
		return models.Slot{}, ErrNoCurrentSlot
	}
	return *slot, nil
}

// SetCurrentSlot переключает текущий слот
func (g *Garage) SetCurrentSlot(index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.slots[index]; !ok {
		return ErrSlotNotFound
	}
	g.current = index
	return nil
}

// AllSlots возвращает копии всех слотов, отсортированные по индексу
func (g *Garage) AllSlots() []models.Slot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]models.Slot, 0, len(g.slots))
	for _, slot := range g.slots {
		result = append(result, *slot)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result
}

// GetRobot возвращает робота текущего слота
func (g *Garage) GetRobot() (*models.Robot, error) {
	slot, err := g.CurrentSlot()
	if err != nil {
		return nil, err
	}
	if slot.Robot == nil {
		return nil, ErrSlotNotFound
	}
	robot := *slot.Robot
	return &robot, nil
}

// GetRobotAt возвращает робота слота по индексу
func (g *Garage) GetRobotAt(index int) (*models.Robot, error) {
	slot, err := g.GetSlot(index)
	if err != nil {
		return nil, err
	}
	if slot.Robot == nil {
		return nil, ErrSlotNotFound
	}
	robot := *slot.Robot
	return &robot, nil
}

// GetOrder возвращает ордер слота
func (g *Garage) GetOrder(index int) (*models.Order, error) {
	slot, err := g.GetSlot(index)
	if err != nil {
		return nil, err
	}
	if slot.Order == nil {
		return nil, ErrSlotNotFound
	}
	order := *slot.Order
	return &order, nil
}

// UpdateOrder записывает ордер в слот.
// Ордер обязан нести short alias координатора: без него последующие
// действия невозможно маршрутизировать
func (g *Garage) UpdateOrder(index int, order *models.Order) error {
	if order != nil && order.ShortAlias == "" {
		return ErrMissingShortAlias
	}

	g.mu.Lock()
	slot, ok := g.slots[index]
	if !ok {
		g.mu.Unlock()
		return ErrSlotNotFound
	}

	slot.Order = order
	slot.UpdatedAt = time.Now()

	snapshot := *slot
	g.mu.Unlock()

	g.notify(snapshot)
	return nil
}

// UpdateRobot мутирует робота слота вне механизма поколений.
// Для синхронных операций над уже готовым роботом (награды, stealth):
// здесь нет гонки конкурирующих реконструкций
func (g *Garage) UpdateRobot(index int, mutate func(robot *models.Robot)) error {
	g.mu.Lock()

	slot, ok := g.slots[index]
	if !ok {
		g.mu.Unlock()
		return ErrSlotNotFound
	}
	if slot.Robot == nil {
		g.mu.Unlock()
		return ErrSlotNotFound
	}

	mutate(slot.Robot)
	slot.UpdatedAt = time.Now()

	snapshot := *slot
	g.mu.Unlock()

	g.notify(snapshot)
	return nil
}

// DeleteSlot удаляет слот. Если удален текущий, текущим становится
// слот с наименьшим индексом
func (g *Garage) DeleteSlot(index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.slots[index]; !ok {
		return ErrSlotNotFound
	}
	delete(g.slots, index)
	delete(g.generations, index)

	if g.current == index {
		g.current = -1
		for i := range g.slots {
			if g.current < 0 || i < g.current {
				g.current = i
			}
		}
	}
	return nil
}

// DeleteAll очищает гараж полностью
func (g *Garage) DeleteAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.slots = make(map[int]*models.Slot)
	g.generations = make(map[int]uint64)
	g.current = -1
	g.nextIndex = 0
}

// ============================================================
// Поколения: подавление устаревших ответов
// ============================================================

// NextGeneration выдает новое поколение для слота.
// Вызывается перед стартом асинхронного запроса; все ранее выданные
// поколения этого слота с этого момента считаются устаревшими
func (g *Garage) NextGeneration(index int) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.slots[index]; !ok {
		return 0, ErrSlotNotFound
	}
	g.generations[index]++
	return g.generations[index], nil
}

// TryApply применяет мутацию слота, только если поколение ответа
// все еще последнее выданное. Устаревший ответ отбрасывается молча:
// возвращается false без изменения слота
func (g *Garage) TryApply(index int, generation uint64, mutate func(slot *models.Slot)) bool {
	g.mu.Lock()

	slot, ok := g.slots[index]
	if !ok || g.generations[index] != generation {
		g.mu.Unlock()
		if ok {
			coordinator.StaleResponsesDiscarded.Inc()
		}
		return false
	}

	mutate(slot)
	slot.UpdatedAt = time.Now()

	snapshot := *slot
	g.updateMetricsLocked()
	g.mu.Unlock()

	g.notify(snapshot)
	return true
}

// SetState переводит слот в новое состояние с проверкой допустимости
func (g *Garage) SetState(index int, state string) error {
	g.mu.Lock()

	slot, ok := g.slots[index]
	if !ok {
		g.mu.Unlock()
		return ErrSlotNotFound
	}
	if !CanTransition(slot.State, state) {
		g.mu.Unlock()
		return ErrInvalidTransition
	}

	slot.State = state
	slot.UpdatedAt = time.Now()

	snapshot := *slot
	g.updateMetricsLocked()
	g.mu.Unlock()

	g.notify(snapshot)
	return nil
}

// ============================================================
// Экспорт
// ============================================================

// exportView — формат выгрузки гаража (без секретов нет смысла:
// выгрузка и есть перенос токенов на другое устройство)
type exportView struct {
	Version   int           `json:"version"`
	Current   int           `json:"current_slot"`
	Slots     []models.Slot `json:"slots"`
	CreatedAt time.Time     `json:"created_at"`
}

// Export сериализует гараж целиком, включая токены
func (g *Garage) Export() ([]byte, error) {
	g.mu.RLock()
	view := exportView{
		Version:   1,
		Current:   g.current,
		Slots:     make([]models.Slot, 0, len(g.slots)),
		CreatedAt: time.Now(),
	}
	for _, slot := range g.slots {
		view.Slots = append(view.Slots, *slot)
	}
	g.mu.RUnlock()

	sort.Slice(view.Slots, func(i, j int) bool { return view.Slots[i].Index < view.Slots[j].Index })
	return json.Marshal(view)
}

// Restore восстанавливает гараж из сохраненных слотов (загрузка из БД).
// Текущим становится слот с наименьшим индексом
func (g *Garage) Restore(slots []models.Slot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.slots = make(map[int]*models.Slot, len(slots))
	g.generations = make(map[int]uint64)
	g.current = -1
	g.nextIndex = 0

	for i := range slots {
		slot := slots[i]
		// Незавершенные запросы не переживают рестарт
		if slot.State == models.SlotStateGenerating {
			slot.State = models.SlotStateEmpty
		}
		g.slots[slot.Index] = &slot
		if slot.Index >= g.nextIndex {
			g.nextIndex = slot.Index + 1
		}
		if g.current < 0 || slot.Index < g.current {
			g.current = slot.Index
		}
	}
}

// SlotCounts возвращает распределение слотов по состояниям
func (g *Garage) SlotCounts() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	counts := make(map[string]int, 4)
	for _, slot := range g.slots {
		counts[slot.State]++
	}
	return counts
}

// updateMetricsLocked обновляет gauge слотов. Вызывается под lock'ом
func (g *Garage) updateMetricsLocked() {
	counts := make(map[string]int, 4)
	for _, slot := range g.slots {
		counts[slot.State]++
	}
	coordinator.UpdateSlotStates(counts)
}

// notify рассылает снимок слота. Вызывается без lock'а
func (g *Garage) notify(slot models.Slot) {
	if g.broadcaster != nil {
		g.broadcaster.BroadcastSlot(slot)
	}
}
