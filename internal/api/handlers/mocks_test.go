package handlers

import (
	"context"
	"errors"

	"robofed/internal/models"
	"robofed/internal/service"
)

// ErrMockDatabase имитирует отказ нижнего слоя
var ErrMockDatabase = errors.New("mock database error")

// ============ Mock RobotService ============

type MockRobotService struct {
	slot        models.Slot
	generateErr error
	deleteErr   error

	generateCalls int
	persistCalls  int
	lastToken     string
	lastIndex     int
}

func NewMockRobotService() *MockRobotService {
	return &MockRobotService{}
}

func (m *MockRobotService) GenerateRobot(ctx context.Context, slotIndex int, token string) (models.Slot, error) {
	m.generateCalls++
	m.lastIndex = slotIndex
	m.lastToken = token
	if m.generateErr != nil {
		return models.Slot{}, m.generateErr
	}
	return m.slot, nil
}

func (m *MockRobotService) PersistGarage() error {
	m.persistCalls++
	return nil
}

func (m *MockRobotService) RestoreGarage() error { return nil }

func (m *MockRobotService) DeleteGarage() error { return m.deleteErr }

// ============ Mock OrderService ============

type MockOrderService struct {
	order       *models.Order
	sats        int64
	validateErr error
	estimateErr error
	takeErr     error
	refreshErr  error
	renewErr    error

	takeCalls  int
	lastAmount float64
}

func NewMockOrderService() *MockOrderService {
	return &MockOrderService{}
}

func (m *MockOrderService) ValidateTake(order *models.Order, amount float64) error {
	return m.validateErr
}

func (m *MockOrderService) EstimateSats(order *models.Order, amount float64) (int64, error) {
	if m.estimateErr != nil {
		return 0, m.estimateErr
	}
	return m.sats, nil
}

func (m *MockOrderService) TakeOrder(ctx context.Context, slotIndex int, shortAlias string, orderID int, amount float64) (*models.Order, error) {
	m.takeCalls++
	m.lastAmount = amount
	if m.takeErr != nil {
		return nil, m.takeErr
	}
	return m.order, nil
}

func (m *MockOrderService) RefreshOrder(ctx context.Context, slotIndex int) (*models.Order, error) {
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return m.order, nil
}

func (m *MockOrderService) RenewOrder(ctx context.Context, slotIndex int) (*models.Order, error) {
	if m.renewErr != nil {
		return nil, m.renewErr
	}
	return m.order, nil
}

// ============ Mock RewardService ============

type MockRewardService struct {
	claimErr   error
	stealthErr error

	claimCalls  int
	lastInvoice string
}

func NewMockRewardService() *MockRewardService {
	return &MockRewardService{}
}

func (m *MockRewardService) ClaimReward(ctx context.Context, slotIndex int, shortAlias, invoice string) error {
	m.claimCalls++
	m.lastInvoice = invoice
	return m.claimErr
}

func (m *MockRewardService) SetStealth(ctx context.Context, slotIndex int, shortAlias string, wantsStealth bool) error {
	return m.stealthErr
}

// ============ Mock SettingsService ============

type MockSettingsService struct {
	settings  *models.Settings
	updateErr error
}

func NewMockSettingsService() *MockSettingsService {
	return &MockSettingsService{settings: models.DefaultSettings()}
}

func (m *MockSettingsService) Current() *models.Settings {
	settings := *m.settings
	return &settings
}

func (m *MockSettingsService) Update(req *service.UpdateSettingsRequest) (*models.Settings, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if req.Network != nil {
		m.settings.Network = *req.Network
	}
	if req.Origin != nil {
		m.settings.Origin = *req.Origin
	}
	return m.Current(), nil
}

func (m *MockSettingsService) ResetToDefaults() (*models.Settings, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.settings = models.DefaultSettings()
	return m.Current(), nil
}

// Мок-сервисы совместимы с интерфейсами сервисного слоя
var (
	_ service.RobotServiceInterface    = (*MockRobotService)(nil)
	_ service.OrderServiceInterface    = (*MockOrderService)(nil)
	_ service.RewardServiceInterface   = (*MockRewardService)(nil)
	_ service.SettingsServiceInterface = (*MockSettingsService)(nil)
)
