package service

import (
	"time"

	"robofed/internal/models"
)

// ============ Mock SettingsRepository ============

type MockSettingsRepository struct {
	settings  *models.Settings
	getErr    error
	updateErr error
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{
		settings: models.DefaultSettings(),
	}
}

func (m *MockSettingsRepository) Get() (*models.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	settings := *m.settings
	return &settings, nil
}

func (m *MockSettingsRepository) Update(settings *models.Settings) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	copied := *settings
	copied.UpdatedAt = time.Now()
	m.settings = &copied
	return nil
}

func (m *MockSettingsRepository) ResetToDefaults() error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.settings = models.DefaultSettings()
	return nil
}

// ============ Mock SlotRepository ============

type MockSlotRepository struct {
	saved     []models.Slot
	saveErr   error
	getErr    error
	deleteErr error
	saveCalls int
}

func NewMockSlotRepository() *MockSlotRepository {
	return &MockSlotRepository{}
}

func (m *MockSlotRepository) SaveAll(slots []models.Slot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append([]models.Slot(nil), slots...)
	m.saveCalls++
	return nil
}

func (m *MockSlotRepository) GetAll() ([]models.Slot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return append([]models.Slot(nil), m.saved...), nil
}

func (m *MockSlotRepository) DeleteAll() error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.saved = nil
	return nil
}

func (m *MockSlotRepository) Count() (int, error) {
	return len(m.saved), nil
}
