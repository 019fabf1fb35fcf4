// Package service содержит бизнес-логику клиента федерации:
// реконструкция роботов, действия над ордерами, вывод наград, настройки.
package service

import (
	"context"

	"robofed/internal/models"
	"robofed/internal/repository"
)

// SlotRepositoryInterface определяет интерфейс репозитория слотов
type SlotRepositoryInterface interface {
	SaveAll(slots []models.Slot) error
	GetAll() ([]models.Slot, error)
	DeleteAll() error
	Count() (int, error)
}

// SettingsRepositoryInterface определяет интерфейс репозитория настроек
type SettingsRepositoryInterface interface {
	Get() (*models.Settings, error)
	Update(settings *models.Settings) error
	ResetToDefaults() error
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ SlotRepositoryInterface = (*repository.SlotRepository)(nil)
var _ SettingsRepositoryInterface = (*repository.SettingsRepository)(nil)

// ============ Интерфейсы сервисов для Dependency Injection ============

// RobotServiceInterface определяет интерфейс сервиса роботов
type RobotServiceInterface interface {
	GenerateRobot(ctx context.Context, slotIndex int, token string) (models.Slot, error)
	PersistGarage() error
	RestoreGarage() error
	DeleteGarage() error
}

// OrderServiceInterface определяет интерфейс сервиса ордеров
type OrderServiceInterface interface {
	ValidateTake(order *models.Order, amount float64) error
	EstimateSats(order *models.Order, amount float64) (int64, error)
	TakeOrder(ctx context.Context, slotIndex int, shortAlias string, orderID int, amount float64) (*models.Order, error)
	RefreshOrder(ctx context.Context, slotIndex int) (*models.Order, error)
	RenewOrder(ctx context.Context, slotIndex int) (*models.Order, error)
}

// RewardServiceInterface определяет интерфейс сервиса наград
type RewardServiceInterface interface {
	ClaimReward(ctx context.Context, slotIndex int, shortAlias, invoice string) error
	SetStealth(ctx context.Context, slotIndex int, shortAlias string, wantsStealth bool) error
}

// SettingsServiceInterface определяет интерфейс сервиса настроек
type SettingsServiceInterface interface {
	Current() *models.Settings
	Update(req *UpdateSettingsRequest) (*models.Settings, error)
	ResetToDefaults() (*models.Settings, error)
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ RobotServiceInterface = (*RobotService)(nil)
var _ OrderServiceInterface = (*OrderService)(nil)
var _ RewardServiceInterface = (*RewardService)(nil)
var _ SettingsServiceInterface = (*SettingsService)(nil)
