package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"robofed/internal/models"
)

// foundSlot добавляет слот с готовым роботом и возвращает его индекс
func foundSlot(t *testing.T, env *testEnv) int {
	t.Helper()

	slot := env.garage.AddSlot()
	gen, err := env.garage.NextGeneration(slot.Index)
	if err != nil {
		t.Fatal(err)
	}
	if !env.garage.TryApply(slot.Index, gen, func(s *models.Slot) {
		s.State = models.SlotStateFound
		s.Robot = &models.Robot{
			Token:       "readyrobottoken1",
			Nickname:    "ReadyRobot1",
			TokenSHA256: "aa11",
		}
	}) {
		t.Fatal("failed to prepare slot")
	}
	return slot.Index
}

// ============================================================
// Тесты ValidateTake
// ============================================================

func TestValidateTake(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	svc := NewOrderService(env.fed, env.garage, env.settings, nil)

	rangeOrder := func(mutate func(o *models.Order)) *models.Order {
		o := &models.Order{
			ID:        1,
			Type:      models.OrderTypeSell,
			Currency:  2,
			HasRange:  true,
			MinAmount: 50,
			MaxAmount: 500,
		}
		if mutate != nil {
			mutate(o)
		}
		return o
	}

	tests := []struct {
		name    string
		order   *models.Order
		amount  float64
		wantErr error
	}{
		{"inside range", rangeOrder(nil), 250, nil},
		{"at min inclusive", rangeOrder(nil), 50, nil},
		{"at max inclusive", rangeOrder(nil), 500, nil},
		{"below min", rangeOrder(nil), 49.99, ErrAmountOutOfRange},
		{"above max", rangeOrder(nil), 500.01, ErrAmountOutOfRange},

		{"fixed amount ignores input", &models.Order{ID: 2, Amount: 100}, 0, nil},

		{"already participant", rangeOrder(func(o *models.Order) {
			o.IsParticipant = true
		}), 250, ErrAlreadyParticipant},

		{"penalized", rangeOrder(func(o *models.Order) {
			o.Penalty = time.Now().Add(time.Minute)
		}), 250, ErrOrderPenalized},

		{"expired penalty", rangeOrder(func(o *models.Order) {
			o.Penalty = time.Now().Add(-time.Minute)
		}), 250, nil},

		// "Валюта" 1000: пользователь вводит сатоши, границы в биткоинах
		{"sats denomination in range", rangeOrder(func(o *models.Order) {
			o.Currency = models.CurrencySats
			o.MinAmount = 0.0001 // 10к сатоши
			o.MaxAmount = 0.01   // 1млн сатоши
		}), 50000, nil},
		{"sats denomination below min", rangeOrder(func(o *models.Order) {
			o.Currency = models.CurrencySats
			o.MinAmount = 0.0001
			o.MaxAmount = 0.01
		}), 5000, ErrAmountOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateTake(tt.order, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTake = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ============================================================
// Тесты EstimateSats
// ============================================================

func TestEstimateSats(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	svc := NewOrderService(env.fed, env.garage, env.settings, nil)

	// Комиссия тейкера координатора "test"
	coord, _ := env.fed.Get("test")
	coord.SetInfo(&models.CoordinatorInfo{TakerFee: 0.0025}, nil)

	// Ордер на продажу 100 единиц фиата, живая оценка 200000 сатоши:
	// курс 100 / 0.002 = 50000
	order := &models.Order{
		ShortAlias:  "test",
		Type:        models.OrderTypeSell,
		Amount:      100,
		SatoshisNow: 200000,
	}

	// Тейкер покупает: комиссия 0.25% и резерв маршрутизации 0.1%
	// 100/50000*1e8 = 200000; *0.9975 = 199500; *0.999 = 199300.5 -> 199301...
	// проверяем через диапазон, чтобы не зависеть от округления float
	sats, err := svc.EstimateSats(order, 100)
	if err != nil {
		t.Fatalf("EstimateSats failed: %v", err)
	}
	if sats < 199300 || sats > 199301 {
		t.Errorf("sats = %d, want ~199300", sats)
	}

	// Ордер на покупку: тейкер продает, резерва маршрутизации нет
	buyOrder := &models.Order{
		ShortAlias:  "test",
		Type:        models.OrderTypeBuy,
		Amount:      100,
		SatoshisNow: 200000,
	}
	sats, err = svc.EstimateSats(buyOrder, 100)
	if err != nil {
		t.Fatal(err)
	}
	if sats != 199500 {
		t.Errorf("seller-side sats = %d, want 199500", sats)
	}
}

func TestEstimateSats_RangeUsesMaxAmount(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	svc := NewOrderService(env.fed, env.garage, env.settings, nil)

	// Диапазонный ордер: курс восстанавливается по max_amount.
	// 500 / (1000000/1e8) = 50000; берем 100 -> 200000 сатоши (без комиссий:
	// статистика координатора не загружена, fee = 0, тейкер продает)
	order := &models.Order{
		ShortAlias:  "test",
		Type:        models.OrderTypeBuy,
		HasRange:    true,
		MinAmount:   50,
		MaxAmount:   500,
		SatoshisNow: 1000000,
	}

	sats, err := svc.EstimateSats(order, 100)
	if err != nil {
		t.Fatal(err)
	}
	if sats != 200000 {
		t.Errorf("sats = %d, want 200000", sats)
	}
}

func TestEstimateSats_NoRate(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	svc := NewOrderService(env.fed, env.garage, env.settings, nil)

	_, err := svc.EstimateSats(&models.Order{ShortAlias: "test", Amount: 100}, 100)
	if !errors.Is(err, ErrNoRate) {
		t.Errorf("err = %v, want ErrNoRate", err)
	}
}

// ============================================================
// Тесты TakeOrder / RefreshOrder / RenewOrder
// ============================================================

func TestTakeOrder(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// Публичный вид ордера для валидации
			w.Write([]byte(`{"id": 42, "type": 1, "currency": 2, "has_range": true,
				"min_amount": 50, "max_amount": 500, "satoshis_now": 1000000}`))
		case http.MethodPost:
			w.Write([]byte(`{"id": 42, "type": 1, "currency": 2, "amount": 100,
				"is_participant": true, "is_buyer": true}`))
		}
	})
	svc := NewOrderService(env.fed, env.garage, env.settings, nil)
	slotIndex := foundSlot(t, env)

	order, err := svc.TakeOrder(context.Background(), slotIndex, "test", 42, 100)
	if err != nil {
		t.Fatalf("TakeOrder failed: %v", err)
	}

	if !order.IsParticipant || order.ShortAlias != "test" {
		t.Errorf("order = %+v", order)
	}

	// Ордер записан в слот
	stored, err := env.garage.GetOrder(slotIndex)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ID != 42 || stored.ShortAlias != "test" {
		t.Errorf("stored order = %+v", stored)
	}
}

func TestTakeOrder_OutOfRange(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("take must not be posted for invalid amount")
		}
		w.Write([]byte(`{"id": 42, "has_range": true, "min_amount": 50, "max_amount": 500}`))
	})
	svc := NewOrderService(env.fed, env.garage, env.settings, nil)
	slotIndex := foundSlot(t, env)

	_, err := svc.TakeOrder(context.Background(), slotIndex, "test", 42, 10)
	if !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("err = %v, want ErrAmountOutOfRange", err)
	}
}

func TestTakeOrder_RobotNotReady(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	svc := NewOrderService(env.fed, env.garage, env.settings, nil)
	slot := env.garage.AddSlot() // EMPTY

	_, err := svc.TakeOrder(context.Background(), slot.Index, "test", 42, 100)
	if !errors.Is(err, ErrRobotNotReady) {
		t.Fatalf("err = %v, want ErrRobotNotReady", err)
	}
}

func TestRefreshOrder_NoActiveOrder(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	svc := NewOrderService(env.fed, env.garage, env.settings, nil)
	slotIndex := foundSlot(t, env)

	_, err := svc.RefreshOrder(context.Background(), slotIndex)
	if !errors.Is(err, ErrNoActiveOrder) {
		t.Fatalf("err = %v, want ErrNoActiveOrder", err)
	}
}

func TestRenewOrder(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/make/" {
			t.Errorf("renew path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"id": 77, "type": 0, "currency": 2, "amount": 100}`))
	})
	svc := NewOrderService(env.fed, env.garage, env.settings, nil)
	slotIndex := foundSlot(t, env)

	expired := &models.Order{ID: 42, ShortAlias: "test", Type: 0, Currency: 2, Amount: 100}
	if err := env.garage.UpdateOrder(slotIndex, expired); err != nil {
		t.Fatal(err)
	}

	renewed, err := svc.RenewOrder(context.Background(), slotIndex)
	if err != nil {
		t.Fatalf("RenewOrder failed: %v", err)
	}
	if renewed.ID != 77 || renewed.ShortAlias != "test" {
		t.Errorf("renewed = %+v", renewed)
	}

	stored, _ := env.garage.GetOrder(slotIndex)
	if stored.ID != 77 {
		t.Errorf("slot keeps old order: %+v", stored)
	}
}
