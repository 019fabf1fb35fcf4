// Package repository — слой доступа к Postgres: персистентность
// гаража и клиентских настроек.
package repository

import (
	"database/sql"
	"errors"
	"time"

	"robofed/internal/models"
)

// Ошибки репозитория настроек
var (
	ErrSettingsNotFound = errors.New("settings not found")
)

// SettingsRepository - работа с таблицей settings
type SettingsRepository struct {
	db *sql.DB

	// Затравочные значения для первой записи; nil = встроенные дефолты
	defaults *models.Settings
}

// NewSettingsRepository создает новый экземпляр репозитория
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// NewSettingsRepositoryWithDefaults создает репозиторий с затравочными
// настройками из конфигурации. Используются один раз - при пустой таблице
func NewSettingsRepositoryWithDefaults(db *sql.DB, defaults *models.Settings) *SettingsRepository {
	return &SettingsRepository{db: db, defaults: defaults}
}

// Get возвращает клиентские настройки (всегда id=1, одна запись)
func (r *SettingsRepository) Get() (*models.Settings, error) {
	query := `
		SELECT id, network, origin, selfhosted_client, host_url, updated_at
		FROM settings
		WHERE id = 1`

	settings := &models.Settings{}
	err := r.db.QueryRow(query).Scan(
		&settings.ID,
		&settings.Network,
		&settings.Origin,
		&settings.SelfhostedClient,
		&settings.HostURL,
		&settings.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Если записи нет, создаем ее с дефолтными значениями
			return r.createDefault()
		}
		return nil, err
	}

	return settings, nil
}

// Update обновляет настройки
func (r *SettingsRepository) Update(settings *models.Settings) error {
	query := `
		UPDATE settings
		SET network = $1, origin = $2, selfhosted_client = $3, host_url = $4, updated_at = $5
		WHERE id = 1`

	settings.UpdatedAt = time.Now()

	result, err := r.db.Exec(query,
		settings.Network,
		settings.Origin,
		settings.SelfhostedClient,
		settings.HostURL,
		settings.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// ResetToDefaults сбрасывает настройки к значениям по умолчанию
func (r *SettingsRepository) ResetToDefaults() error {
	settings := models.DefaultSettings()
	return r.Update(settings)
}

// createDefault создает запись настроек с дефолтными значениями
func (r *SettingsRepository) createDefault() (*models.Settings, error) {
	settings := models.DefaultSettings()
	if r.defaults != nil {
		copied := *r.defaults
		settings = &copied
		settings.ID = 1
	}
	settings.UpdatedAt = time.Now()

	query := `
		INSERT INTO settings (id, network, origin, selfhosted_client, host_url, updated_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.Exec(query,
		settings.Network,
		settings.Origin,
		settings.SelfhostedClient,
		settings.HostURL,
		settings.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return settings, nil
}
