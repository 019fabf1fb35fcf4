package service

import (
	"errors"
	"sync"

	"robofed/internal/models"
)

// Ошибки сервиса настроек
var (
	ErrInvalidNetwork = errors.New("network must be mainnet or testnet")
	ErrInvalidOrigin  = errors.New("origin must be clearnet, onion or i2p")
	ErrMissingHostURL = errors.New("host_url is required for selfhosted client")
)

// SettingsService предоставляет бизнес-логику клиентских настроек.
//
// Держит настройки в памяти: Current() вызывается на каждый запрос
// к координаторам, ходить за ним в БД было бы расточительно.
// БД — источник истины при старте и приемник при изменениях
type SettingsService struct {
	settingsRepo SettingsRepositoryInterface

	mu      sync.RWMutex
	current *models.Settings
}

// NewSettingsService создает сервис и загружает настройки из БД.
// При недоступной БД стартует с дефолтными настройками
func NewSettingsService(settingsRepo SettingsRepositoryInterface) (*SettingsService, error) {
	s := &SettingsService{settingsRepo: settingsRepo}

	settings, err := settingsRepo.Get()
	if err != nil {
		return nil, err
	}
	s.current = settings

	return s, nil
}

// Current возвращает копию актуальных настроек.
// Реализует federation.SettingsProvider
func (s *SettingsService) Current() *models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := *s.current
	return &settings
}

// UpdateSettingsRequest представляет запрос на обновление настроек.
// Все поля опциональны - обновляются только переданные
type UpdateSettingsRequest struct {
	Network          *string `json:"network,omitempty"`
	Origin           *string `json:"origin,omitempty"`
	SelfhostedClient *bool   `json:"selfhosted_client,omitempty"`
	HostURL          *string `json:"host_url,omitempty"`
}

// Update обновляет настройки с валидацией.
//
// Правила:
//   - network: mainnet или testnet
//   - origin: clearnet, onion или i2p
//   - selfhosted_client=true требует непустого host_url
func (s *SettingsService) Update(req *UpdateSettingsRequest) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Работаем над копией: при ошибке валидации или БД текущие
	// настройки не меняются
	settings := *s.current

	if req.Network != nil {
		if !models.ValidNetwork(*req.Network) {
			return nil, ErrInvalidNetwork
		}
		settings.Network = *req.Network
	}

	if req.Origin != nil {
		if !models.ValidOrigin(*req.Origin) {
			return nil, ErrInvalidOrigin
		}
		settings.Origin = *req.Origin
	}

	if req.SelfhostedClient != nil {
		settings.SelfhostedClient = *req.SelfhostedClient
	}

	if req.HostURL != nil {
		settings.HostURL = *req.HostURL
	}

	if settings.SelfhostedClient && settings.HostURL == "" {
		return nil, ErrMissingHostURL
	}

	if err := s.settingsRepo.Update(&settings); err != nil {
		return nil, err
	}

	s.current = &settings

	result := settings
	return &result, nil
}

// ResetToDefaults сбрасывает настройки к значениям по умолчанию
func (s *SettingsService) ResetToDefaults() (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settingsRepo.ResetToDefaults(); err != nil {
		return nil, err
	}

	s.current = models.DefaultSettings()

	result := *s.current
	return &result, nil
}
