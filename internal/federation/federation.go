// Package federation управляет набором координаторов: реестр,
// выбор сфокусированного координатора, агрегация статистики и опрос.
package federation

import (
	"errors"
	"sync"

	"robofed/internal/coordinator"
	"robofed/internal/models"
)

// Ошибки реестра федерации
var (
	ErrUnknownCoordinator = errors.New("unknown coordinator short alias")
	ErrNoCoordinators     = errors.New("federation has no coordinators")
)

// SettingsProvider отдает актуальные клиентские настройки.
// Реализуется сервисом настроек; федерации нужны сеть и origin
// для разрешения эндпоинтов при опросе
type SettingsProvider interface {
	Current() *models.Settings
}

// Federation — реестр координаторов.
//
// Состав федерации фиксируется при создании; изменяемое состояние
// (focused, enabled у координаторов) защищено мьютексом.
// Статистика отдельных координаторов живет в них самих
type Federation struct {
	mu           sync.RWMutex
	coordinators map[string]*coordinator.Coordinator
	order        []string // стабильный порядок обхода (порядок регистрации)
	focused      string   // short alias координатора для запросов идентичности
}

// New создает федерацию из определений координаторов.
// Первый координатор становится сфокусированным
func New(defs []Definition, client *coordinator.Client) *Federation {
	f := &Federation{
		coordinators: make(map[string]*coordinator.Coordinator, len(defs)),
		order:        make([]string, 0, len(defs)),
	}

	for _, def := range defs {
		if _, exists := f.coordinators[def.ShortAlias]; exists {
			continue
		}
		f.coordinators[def.ShortAlias] = coordinator.NewCoordinator(
			def.ShortAlias, def.LongAlias, def.Endpoints, client)
		f.order = append(f.order, def.ShortAlias)
	}

	if len(f.order) > 0 {
		f.focused = f.order[0]
	}

	return f
}

// Get возвращает координатора по short alias
func (f *Federation) Get(shortAlias string) (*coordinator.Coordinator, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	coord, ok := f.coordinators[shortAlias]
	if !ok {
		return nil, ErrUnknownCoordinator
	}
	return coord, nil
}

// All возвращает координаторов в стабильном порядке регистрации
func (f *Federation) All() []*coordinator.Coordinator {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]*coordinator.Coordinator, 0, len(f.order))
	for _, alias := range f.order {
		result = append(result, f.coordinators[alias])
	}
	return result
}

// Size возвращает количество координаторов в федерации
func (f *Federation) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.order)
}

// SetFocused переключает сфокусированного координатора.
// Новые роботы запрашиваются именно у него
func (f *Federation) SetFocused(shortAlias string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.coordinators[shortAlias]; !ok {
		return ErrUnknownCoordinator
	}
	f.focused = shortAlias
	return nil
}

// Focused возвращает сфокусированного координатора
func (f *Federation) Focused() (*coordinator.Coordinator, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.focused == "" {
		return nil, ErrNoCoordinators
	}
	return f.coordinators[f.focused], nil
}

// SetEnabled включает или выключает координатора в федерации
func (f *Federation) SetEnabled(shortAlias string, enabled bool) error {
	coord, err := f.Get(shortAlias)
	if err != nil {
		return err
	}
	coord.SetEnabled(enabled)
	return nil
}

// Snapshots возвращает снимки всех координаторов для API
func (f *Federation) Snapshots() []coordinator.Snapshot {
	coords := f.All()
	result := make([]coordinator.Snapshot, 0, len(coords))
	for _, c := range coords {
		result = append(result, c.GetSnapshot())
	}
	return result
}
