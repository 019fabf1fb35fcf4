package coordinator

import (
	"strings"
	"sync"
	"time"

	"robofed/internal/models"
)

// Endpoint — разрешённый адрес координатора для текущих настроек клиента
type Endpoint struct {
	URL      string // схема + хост, без завершающего слеша
	BasePath string // префикс пути; пустой, кроме selfhosted-режима
}

// Base возвращает полный базовый адрес для транспорта
func (e Endpoint) Base() string {
	return e.URL + e.BasePath
}

// Coordinator — один участник федерации.
//
// Хранит справочник эндпоинтов по сетям и способам доступа, последнюю
// известную статистику и флаг enabled. Изменяемое состояние (info,
// enabled) защищено мьютексом: poller пишет, API и агрегатор читают.
type Coordinator struct {
	ShortAlias string
	LongAlias  string

	// Endpoints: сеть -> способ доступа -> URL
	// Пример: endpoints["mainnet"]["onion"] = "http://...onion"
	endpoints map[string]map[string]string

	client *Client

	mu      sync.RWMutex
	enabled bool
	info    *models.CoordinatorInfo
	lastErr error
}

// NewCoordinator создаёт координатора со справочником эндпоинтов.
// Координатор создаётся включенным
func NewCoordinator(shortAlias, longAlias string, endpoints map[string]map[string]string, client *Client) *Coordinator {
	if endpoints == nil {
		endpoints = make(map[string]map[string]string)
	}
	return &Coordinator{
		ShortAlias: shortAlias,
		LongAlias:  longAlias,
		endpoints:  endpoints,
		client:     client,
		enabled:    true,
	}
}

// GetEndpoint возвращает адрес координатора для заданных настроек.
//
// Selfhosted-клиент ходит не напрямую, а через собственный хост,
// который проксирует координаторов по пути /{network}/{shortAlias}.
// Исключение — onion: до него и selfhosted-клиент ходит напрямую.
func (c *Coordinator) GetEndpoint(network, origin string, selfhosted bool, hostURL string) (Endpoint, error) {
	if selfhosted && origin != models.OriginOnion && hostURL != "" {
		return Endpoint{
			URL:      strings.TrimRight(hostURL, "/"),
			BasePath: "/" + network + "/" + c.ShortAlias,
		}, nil
	}

	byOrigin, ok := c.endpoints[network]
	if !ok {
		return Endpoint{}, ErrNoEndpoint
	}

	url, ok := byOrigin[origin]
	if !ok || url == "" {
		// Fallback на clearnet: не у каждого координатора есть i2p
		url, ok = byOrigin[models.OriginClearnet]
		if !ok || url == "" {
			return Endpoint{}, ErrNoEndpoint
		}
	}

	return Endpoint{URL: strings.TrimRight(url, "/")}, nil
}

// IsEnabled возвращает текущий флаг участия в агрегации
func (c *Coordinator) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled включает или выключает координатора.
// Выключенный координатор не опрашивается и не участвует в агрегации
func (c *Coordinator) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Info возвращает последнюю известную статистику (nil если опрос
// еще не успел или координатор недоступен)
func (c *Coordinator) Info() *models.CoordinatorInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// SetInfo заменяет статистику целиком.
// nil означает "координатор недоступен" и выводит его из агрегации
func (c *Coordinator) SetInfo(info *models.CoordinatorInfo, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = info
	c.lastErr = err
}

// LastError возвращает ошибку последнего опроса (nil если опрос успешен)
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Online — координатор включен и последний опрос вернул статистику
func (c *Coordinator) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled && c.info != nil
}

// Snapshot — сериализуемое представление координатора для API
type Snapshot struct {
	ShortAlias string                  `json:"short_alias"`
	LongAlias  string                  `json:"long_alias"`
	Enabled    bool                    `json:"enabled"`
	Online     bool                    `json:"online"`
	Info       *models.CoordinatorInfo `json:"info,omitempty"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// GetSnapshot возвращает консистентный снимок состояния
func (c *Coordinator) GetSnapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		ShortAlias: c.ShortAlias,
		LongAlias:  c.LongAlias,
		Enabled:    c.enabled,
		Online:     c.enabled && c.info != nil,
		Info:       c.info,
		UpdatedAt:  time.Now(),
	}
}
