package coordinator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"robofed/internal/models"
)

// newTestCoordinator создаёт координатора, смотрящего на httptest сервер
func newTestCoordinator(t *testing.T, handler http.HandlerFunc) (*Coordinator, Endpoint, func()) {
	t.Helper()

	server := httptest.NewServer(handler)
	endpoints := map[string]map[string]string{
		models.NetworkMainnet: {models.OriginClearnet: server.URL},
	}

	client := NewClient(NewHTTPClient(DefaultHTTPClientConfig()), nil, nil)
	coord := NewCoordinator("test", "Test Coordinator", endpoints, client)

	ep, err := coord.GetEndpoint(models.NetworkMainnet, models.OriginClearnet, false, "")
	if err != nil {
		t.Fatalf("GetEndpoint failed: %v", err)
	}

	return coord, ep, server.Close
}

// ============================================================
// Тесты GetEndpoint
// ============================================================

func TestGetEndpoint(t *testing.T) {
	endpoints := map[string]map[string]string{
		models.NetworkMainnet: {
			models.OriginClearnet: "https://coord.example.com",
			models.OriginOnion:    "http://coordonion.onion",
		},
		models.NetworkTestnet: {
			models.OriginClearnet: "https://testnet.coord.example.com",
		},
	}
	coord := NewCoordinator("exp", "Experimental", endpoints, nil)

	tests := []struct {
		name       string
		network    string
		origin     string
		selfhosted bool
		hostURL    string
		wantURL    string
		wantBase   string
		wantErr    bool
	}{
		{"mainnet clearnet", models.NetworkMainnet, models.OriginClearnet, false, "", "https://coord.example.com", "", false},
		{"mainnet onion", models.NetworkMainnet, models.OriginOnion, false, "", "http://coordonion.onion", "", false},
		{"testnet clearnet", models.NetworkTestnet, models.OriginClearnet, false, "", "https://testnet.coord.example.com", "", false},

		// i2p не настроен - fallback на clearnet
		{"i2p falls back to clearnet", models.NetworkMainnet, models.OriginI2P, false, "", "https://coord.example.com", "", false},

		// Selfhosted клиент проксирует через свой хост
		{"selfhosted clearnet", models.NetworkMainnet, models.OriginClearnet, true, "http://localhost:12596", "http://localhost:12596", "/mainnet/exp", false},
		{"selfhosted testnet", models.NetworkTestnet, models.OriginClearnet, true, "http://localhost:12596/", "http://localhost:12596", "/testnet/exp", false},

		// Onion идёт напрямую даже у selfhosted клиента
		{"selfhosted onion direct", models.NetworkMainnet, models.OriginOnion, true, "http://localhost:12596", "http://coordonion.onion", "", false},

		{"unknown network", "signet", models.OriginClearnet, false, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := coord.GetEndpoint(tt.network, tt.origin, tt.selfhosted, tt.hostURL)
			if tt.wantErr {
				if !errors.Is(err, ErrNoEndpoint) {
					t.Fatalf("expected ErrNoEndpoint, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ep.URL != tt.wantURL || ep.BasePath != tt.wantBase {
				t.Errorf("GetEndpoint = {%q, %q}, want {%q, %q}",
					ep.URL, ep.BasePath, tt.wantURL, tt.wantBase)
			}
		})
	}
}

// ============================================================
// Тесты удалённых операций
// ============================================================

func TestFetchInfo(t *testing.T) {
	coord, ep, cleanup := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathInfo {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"num_public_buy_orders": 12,
			"num_public_sell_orders": 8,
			"book_liquidity": 25000000,
			"active_robots_today": 140,
			"last_day_nonkyc_btc_premium": 4.5,
			"last_day_volume": 1.25,
			"lifetime_volume": 820.5,
			"version": {"major": 0, "minor": 7, "patch": 3},
			"taker_fee": 0.0025,
			"maker_fee": 0.0002
		}`))
	})
	defer cleanup()

	info, err := coord.FetchInfo(context.Background(), ep)
	if err != nil {
		t.Fatalf("FetchInfo failed: %v", err)
	}

	if info.NumPublicBuyOrders != 12 || info.NumPublicSellOrders != 8 {
		t.Errorf("unexpected order counts: %+v", info)
	}
	if info.BookLiquidity != 25000000 {
		t.Errorf("BookLiquidity = %d, want 25000000", info.BookLiquidity)
	}
	if info.Version != (models.Version{Major: 0, Minor: 7, Patch: 3}) {
		t.Errorf("Version = %+v", info.Version)
	}
	if info.TakerFee != 0.0025 {
		t.Errorf("TakerFee = %v, want 0.0025", info.TakerFee)
	}
}

func TestFetchRobot_SendsAuthHeader(t *testing.T) {
	const tokenHash = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

	coord, ep, cleanup := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token "+tokenHash {
			t.Errorf("Authorization = %q, want token hash header", got)
		}
		w.Write([]byte(`{"nickname": "HeavyPath970", "found": true, "earned_rewards": 5000}`))
	})
	defer cleanup()

	robot, err := coord.FetchRobot(context.Background(), ep, tokenHash, "pubkey", "encprivkey")
	if err != nil {
		t.Fatalf("FetchRobot failed: %v", err)
	}
	if robot.Nickname != "HeavyPath970" || !robot.Found || robot.EarnedRewards != 5000 {
		t.Errorf("unexpected robot data: %+v", robot)
	}
}

func TestFetchRobot_BadRequest(t *testing.T) {
	coord, ep, cleanup := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"bad_request": "Invalid public key"}`))
	})
	defer cleanup()

	_, err := coord.FetchRobot(context.Background(), ep, "hash", "pub", "enc")
	if !IsBadRequest(err) {
		t.Fatalf("expected BadRequestError, got %v", err)
	}

	var bre *BadRequestError
	errors.As(err, &bre)
	if bre.Reason != "Invalid public key" {
		t.Errorf("Reason = %q", bre.Reason)
	}
}

func TestFetchRobot_ServerError(t *testing.T) {
	coord, ep, cleanup := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer cleanup()

	_, err := coord.FetchRobot(context.Background(), ep, "hash", "pub", "enc")
	if !IsTransport(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestTakeOrder_TagsShortAlias(t *testing.T) {
	coord, ep, cleanup := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("order_id"); got != "42" {
			t.Errorf("order_id = %q, want 42", got)
		}
		w.Write([]byte(`{"id": 42, "type": 1, "currency": 2, "amount": 100, "is_participant": true}`))
	})
	defer cleanup()

	order, err := coord.TakeOrder(context.Background(), ep, 42, 100, "hash")
	if err != nil {
		t.Fatalf("TakeOrder failed: %v", err)
	}

	// Инвариант маршрутизации: ордер несёт алиас вернувшего координатора
	if order.ShortAlias != "test" {
		t.Errorf("ShortAlias = %q, want %q", order.ShortAlias, "test")
	}
	if order.ID != 42 || !order.IsParticipant {
		t.Errorf("unexpected order: %+v", order)
	}
}

func TestFetchReward(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		wantSuccess    bool
		wantBadInvoice string
		wantErr        bool
	}{
		{"successful withdrawal", 200, `{"successful_withdrawal": true}`, true, "", false},
		{"bad invoice", 400, `{"bad_request": "Bad invoice", "bad_invoice": "expired invoice"}`, false, "expired invoice", false},
		{"server error", 500, ``, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord, ep, cleanup := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			defer cleanup()

			result, err := coord.FetchReward(context.Background(), ep, "signed invoice", "hash")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchReward failed: %v", err)
			}
			if result.SuccessfulWithdrawal != tt.wantSuccess || result.BadInvoice != tt.wantBadInvoice {
				t.Errorf("result = %+v", result)
			}
		})
	}
}

func TestSetStealth(t *testing.T) {
	coord, ep, cleanup := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"wantsStealth": true}`))
	})
	defer cleanup()

	got, err := coord.SetStealth(context.Background(), ep, true, "hash")
	if err != nil {
		t.Fatalf("SetStealth failed: %v", err)
	}
	if !got {
		t.Error("expected confirmed wantsStealth=true")
	}
}

// ============================================================
// Тесты состояния координатора
// ============================================================

func TestCoordinatorState(t *testing.T) {
	coord := NewCoordinator("exp", "Experimental", nil, nil)

	if !coord.IsEnabled() {
		t.Error("new coordinator must be enabled")
	}
	if coord.Online() {
		t.Error("coordinator without info must not be online")
	}

	coord.SetInfo(&models.CoordinatorInfo{ActiveRobotsToday: 10}, nil)
	if !coord.Online() {
		t.Error("coordinator with info must be online")
	}

	coord.SetEnabled(false)
	if coord.Online() {
		t.Error("disabled coordinator must not be online")
	}

	// nil info выводит координатора из online
	coord.SetEnabled(true)
	coord.SetInfo(nil, errors.New("connection refused"))
	if coord.Online() {
		t.Error("coordinator with failed poll must not be online")
	}
	if coord.LastError() == nil {
		t.Error("LastError must keep the poll error")
	}
}
