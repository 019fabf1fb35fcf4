package repository

import (
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"robofed/internal/models"
	"robofed/pkg/crypto"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

// ============================================================
// SlotRepository Tests
// ============================================================

func TestNewSlotRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	if _, err := NewSlotRepository(db, testEncryptionKey); err != nil {
		t.Fatalf("NewSlotRepository failed: %v", err)
	}

	// Ключ неверной длины отклоняется сразу, а не при первом запросе
	if _, err := NewSlotRepository(db, "short"); !errors.Is(err, ErrNoEncryptionKey) {
		t.Errorf("short key accepted: %v", err)
	}
}

func TestSlotRepositorySaveAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo, err := NewSlotRepository(db, testEncryptionKey)
	if err != nil {
		t.Fatal(err)
	}

	slots := []models.Slot{
		{
			Index: 0,
			State: models.SlotStateFound,
			Robot: &models.Robot{
				Token:    "super-secret-token",
				Nickname: "StoredBot1",
			},
			UpdatedAt: time.Now(),
		},
		{
			Index:     1,
			State:     models.SlotStateEmpty,
			UpdatedAt: time.Now(),
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM garage_slots`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Слот с роботом: enc_token и robot_json непустые
	mock.ExpectExec(`INSERT INTO garage_slots`).
		WithArgs(0, models.SlotStateFound, encTokenArg{t: t}, strippedRobotArg{t: t}, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// Пустой слот: NULL робот и ордер
	mock.ExpectExec(`INSERT INTO garage_slots`).
		WithArgs(1, models.SlotStateEmpty, "", nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	if err := repo.SaveAll(slots); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// encTokenArg проверяет, что токен сохранен зашифрованным
type encTokenArg struct {
	t *testing.T
}

func (a encTokenArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	if s == "super-secret-token" {
		a.t.Error("token stored in plaintext")
		return false
	}
	// Шифртекст должен расшифровываться обратно тем же ключом
	token, err := crypto.DecryptString(s, []byte(testEncryptionKey))
	return err == nil && token == "super-secret-token"
}

// strippedRobotArg проверяет, что открытый токен не попал в JSON
type strippedRobotArg struct {
	t *testing.T
}

func (a strippedRobotArg) Match(v driver.Value) bool {
	b, ok := v.([]byte)
	if !ok || len(b) == 0 {
		return false
	}
	var robot models.Robot
	if err := json.Unmarshal(b, &robot); err != nil {
		return false
	}
	if robot.Token != "" {
		a.t.Error("plaintext token leaked into robot_json")
		return false
	}
	return robot.Nickname == "StoredBot1"
}

func TestSlotRepositorySaveAll_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo, _ := NewSlotRepository(db, testEncryptionKey)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM garage_slots`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO garage_slots`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = repo.SaveAll([]models.Slot{{Index: 0, State: models.SlotStateEmpty}})
	if err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSlotRepositoryGetAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo, _ := NewSlotRepository(db, testEncryptionKey)

	encToken, err := crypto.EncryptString("restored-token", []byte(testEncryptionKey))
	if err != nil {
		t.Fatal(err)
	}
	robotJSON, _ := json.Marshal(&models.Robot{Nickname: "RestoredBot7", EarnedRewards: 1200})
	orderJSON, _ := json.Marshal(&models.Order{ID: 99, ShortAlias: "exp"})

	now := time.Now()
	rows := sqlmock.NewRows([]string{"slot_index", "state", "enc_token", "robot_json", "order_json", "updated_at"}).
		AddRow(0, models.SlotStateFound, encToken, robotJSON, orderJSON, now).
		AddRow(3, models.SlotStateEmpty, "", nil, nil, now)
	mock.ExpectQuery(`SELECT .+ FROM garage_slots`).
		WillReturnRows(rows)

	slots, err := repo.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}

	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}

	first := slots[0]
	if first.Robot == nil || first.Robot.Token != "restored-token" {
		t.Errorf("token not decrypted: %+v", first.Robot)
	}
	if first.Robot.Nickname != "RestoredBot7" || first.Robot.EarnedRewards != 1200 {
		t.Errorf("robot = %+v", first.Robot)
	}
	if first.Order == nil || first.Order.ID != 99 || first.Order.ShortAlias != "exp" {
		t.Errorf("order = %+v", first.Order)
	}

	second := slots[1]
	if second.Index != 3 || second.Robot != nil || second.Order != nil {
		t.Errorf("empty slot = %+v", second)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSlotRepositoryGetAll_WrongKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	// Токен зашифрован другим ключом
	otherKey := []byte("ffffffffffffffffffffffffffffffff")
	encToken, _ := crypto.EncryptString("restored-token", otherKey)
	robotJSON, _ := json.Marshal(&models.Robot{Nickname: "X"})

	rows := sqlmock.NewRows([]string{"slot_index", "state", "enc_token", "robot_json", "order_json", "updated_at"}).
		AddRow(0, models.SlotStateFound, encToken, robotJSON, nil, time.Now())
	mock.ExpectQuery(`SELECT .+ FROM garage_slots`).
		WillReturnRows(rows)

	repo, _ := NewSlotRepository(db, testEncryptionKey)
	if _, err := repo.GetAll(); err == nil {
		t.Fatal("expected decryption error")
	}
}
