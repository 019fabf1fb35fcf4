package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"robofed/internal/models"
	"robofed/pkg/crypto"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Ошибки репозитория слотов
var (
	ErrNoEncryptionKey = errors.New("slot repository requires a 32-byte encryption key")
)

// SlotRepository - персистентность гаража в таблице garage_slots.
//
// Токен робота — секрет, эквивалентный деньгам, поэтому в БД он
// попадает только зашифрованным (AES-256-GCM) в отдельной колонке;
// в JSON-снимке робота токен обнуляется перед сериализацией
type SlotRepository struct {
	db  *sql.DB
	key []byte
}

// NewSlotRepository создает репозиторий слотов.
// key - 32-байтный ключ шифрования токенов
func NewSlotRepository(db *sql.DB, key string) (*SlotRepository, error) {
	if len(key) != 32 {
		return nil, ErrNoEncryptionKey
	}
	return &SlotRepository{db: db, key: []byte(key)}, nil
}

// SaveAll атомарно заменяет содержимое таблицы текущим состоянием гаража.
// Выполняется в транзакции: при сбое на любом слоте БД остается прежней
func (r *SlotRepository) SaveAll(slots []models.Slot) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM garage_slots`); err != nil {
		return err
	}

	query := `
		INSERT INTO garage_slots (slot_index, state, enc_token, robot_json, order_json, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, slot := range slots {
		encToken, robotJSON, err := r.encodeRobot(slot.Robot)
		if err != nil {
			return fmt.Errorf("slot %d: %w", slot.Index, err)
		}

		var orderJSON []byte
		if slot.Order != nil {
			orderJSON, err = json.Marshal(slot.Order)
			if err != nil {
				return fmt.Errorf("slot %d: %w", slot.Index, err)
			}
		}

		updatedAt := slot.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now()
		}

		if _, err := tx.Exec(query,
			slot.Index,
			slot.State,
			encToken,
			nullableBytes(robotJSON),
			nullableBytes(orderJSON),
			updatedAt,
		); err != nil {
			return fmt.Errorf("slot %d: %w", slot.Index, err)
		}
	}

	return tx.Commit()
}

// GetAll возвращает сохраненные слоты с расшифрованными токенами
func (r *SlotRepository) GetAll() ([]models.Slot, error) {
	query := `
		SELECT slot_index, state, enc_token, robot_json, order_json, updated_at
		FROM garage_slots
		ORDER BY slot_index`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.Slot
	for rows.Next() {
		var (
			slot      models.Slot
			encToken  sql.NullString
			robotJSON []byte
			orderJSON []byte
		)
		if err := rows.Scan(&slot.Index, &slot.State, &encToken, &robotJSON, &orderJSON, &slot.UpdatedAt); err != nil {
			return nil, err
		}

		if len(robotJSON) > 0 {
			robot := &models.Robot{}
			if err := json.Unmarshal(robotJSON, robot); err != nil {
				return nil, fmt.Errorf("slot %d: %w", slot.Index, err)
			}
			if encToken.Valid && encToken.String != "" {
				token, err := crypto.DecryptString(encToken.String, r.key)
				if err != nil {
					return nil, fmt.Errorf("slot %d: decrypt token: %w", slot.Index, err)
				}
				robot.Token = token
			}
			slot.Robot = robot
		}

		if len(orderJSON) > 0 {
			order := &models.Order{}
			if err := json.Unmarshal(orderJSON, order); err != nil {
				return nil, fmt.Errorf("slot %d: %w", slot.Index, err)
			}
			slot.Order = order
		}

		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// DeleteAll очищает таблицу слотов
func (r *SlotRepository) DeleteAll() error {
	_, err := r.db.Exec(`DELETE FROM garage_slots`)
	return err
}

// Count возвращает количество сохраненных слотов
func (r *SlotRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM garage_slots`).Scan(&count)
	return count, err
}

// encodeRobot шифрует токен и сериализует робота без него
func (r *SlotRepository) encodeRobot(robot *models.Robot) (encToken string, robotJSON []byte, err error) {
	if robot == nil {
		return "", nil, nil
	}

	if robot.Token != "" {
		encToken, err = crypto.EncryptString(robot.Token, r.key)
		if err != nil {
			return "", nil, fmt.Errorf("encrypt token: %w", err)
		}
	}

	// Открытый токен не должен попасть в JSON колонку
	stripped := *robot
	stripped.Token = ""

	robotJSON, err = json.Marshal(&stripped)
	if err != nil {
		return "", nil, err
	}
	return encToken, robotJSON, nil
}

// nullableBytes превращает пустой срез в NULL для jsonb колонок
func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
