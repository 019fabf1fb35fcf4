package federation

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"robofed/internal/coordinator"
	"robofed/internal/models"
)

// testDefs создает минимальную федерацию из трех координаторов
func testDefs() []Definition {
	defs := make([]Definition, 0, 3)
	for _, alias := range []string{"alpha", "beta", "gamma"} {
		defs = append(defs, Definition{
			ShortAlias: alias,
			LongAlias:  "Coordinator " + alias,
			Endpoints: map[string]map[string]string{
				models.NetworkMainnet: {
					models.OriginClearnet: "https://" + alias + ".example.com",
				},
			},
		})
	}
	return defs
}

// staticSettings — провайдер настроек для тестов
type staticSettings struct {
	settings *models.Settings
}

func (s *staticSettings) Current() *models.Settings {
	return s.settings
}

// ============================================================
// Тесты реестра
// ============================================================

func TestFederation_Registry(t *testing.T) {
	fed := New(testDefs(), nil)

	if fed.Size() != 3 {
		t.Fatalf("Size = %d, want 3", fed.Size())
	}

	// Стабильный порядок регистрации
	coords := fed.All()
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if coords[i].ShortAlias != want {
			t.Errorf("All()[%d] = %q, want %q", i, coords[i].ShortAlias, want)
		}
	}

	if _, err := fed.Get("beta"); err != nil {
		t.Errorf("Get(beta) failed: %v", err)
	}
	if _, err := fed.Get("nonexistent"); !errors.Is(err, ErrUnknownCoordinator) {
		t.Errorf("Get(nonexistent) = %v, want ErrUnknownCoordinator", err)
	}
}

func TestFederation_Focused(t *testing.T) {
	fed := New(testDefs(), nil)

	// Первый координатор сфокусирован по умолчанию
	focused, err := fed.Focused()
	if err != nil {
		t.Fatalf("Focused failed: %v", err)
	}
	if focused.ShortAlias != "alpha" {
		t.Errorf("default focused = %q, want alpha", focused.ShortAlias)
	}

	if err := fed.SetFocused("gamma"); err != nil {
		t.Fatalf("SetFocused(gamma) failed: %v", err)
	}
	focused, _ = fed.Focused()
	if focused.ShortAlias != "gamma" {
		t.Errorf("focused = %q, want gamma", focused.ShortAlias)
	}

	// Неизвестный алиас не меняет фокус
	if err := fed.SetFocused("nonexistent"); !errors.Is(err, ErrUnknownCoordinator) {
		t.Errorf("SetFocused(nonexistent) = %v, want ErrUnknownCoordinator", err)
	}
	focused, _ = fed.Focused()
	if focused.ShortAlias != "gamma" {
		t.Errorf("focus changed by invalid SetFocused: %q", focused.ShortAlias)
	}
}

func TestFederation_SetEnabled(t *testing.T) {
	fed := New(testDefs(), nil)

	if err := fed.SetEnabled("beta", false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}

	coord, _ := fed.Get("beta")
	if coord.IsEnabled() {
		t.Error("beta must be disabled")
	}

	if err := fed.SetEnabled("nonexistent", false); !errors.Is(err, ErrUnknownCoordinator) {
		t.Errorf("SetEnabled(nonexistent) = %v, want ErrUnknownCoordinator", err)
	}
}

func TestDefaultCoordinators(t *testing.T) {
	defs := DefaultCoordinators()
	if len(defs) == 0 {
		t.Fatal("empty default federation")
	}

	seen := make(map[string]bool)
	for _, def := range defs {
		if def.ShortAlias == "" || def.LongAlias == "" {
			t.Errorf("coordinator with empty alias: %+v", def)
		}
		if seen[def.ShortAlias] {
			t.Errorf("duplicate short alias %q", def.ShortAlias)
		}
		seen[def.ShortAlias] = true

		// У каждого координатора должен быть mainnet clearnet эндпоинт
		if def.Endpoints[models.NetworkMainnet][models.OriginClearnet] == "" {
			t.Errorf("coordinator %q has no mainnet clearnet endpoint", def.ShortAlias)
		}
	}
}

// ============================================================
// Тесты агрегации
// ============================================================

func TestAggregateInfo(t *testing.T) {
	fed := New(testDefs(), nil)

	setInfo := func(alias string, info *models.CoordinatorInfo) {
		coord, err := fed.Get(alias)
		if err != nil {
			t.Fatalf("Get(%s): %v", alias, err)
		}
		coord.SetInfo(info, nil)
	}

	setInfo("alpha", &models.CoordinatorInfo{
		NumPublicBuyOrders:      10,
		NumPublicSellOrders:     5,
		BookLiquidity:           1000000,
		ActiveRobotsToday:       100,
		LastDayNonkycBtcPremium: 6.0,
		LastDayVolume:           3.0,
		LifetimeVolume:          500,
		Version:                 models.Version{Major: 1, Minor: 2, Patch: 9},
	})
	setInfo("beta", &models.CoordinatorInfo{
		NumPublicBuyOrders:      2,
		NumPublicSellOrders:     8,
		BookLiquidity:           500000,
		ActiveRobotsToday:       40,
		LastDayNonkycBtcPremium: 3.0,
		LastDayVolume:           1.0,
		LifetimeVolume:          200,
		Version:                 models.Version{Major: 1, Minor: 3, Patch: 0},
	})
	setInfo("gamma", &models.CoordinatorInfo{
		NumPublicBuyOrders:      1,
		NumPublicSellOrders:     1,
		BookLiquidity:           100000,
		ActiveRobotsToday:       5,
		LastDayNonkycBtcPremium: 100.0,
		LastDayVolume:           2.0,
		LifetimeVolume:          50,
		Version:                 models.Version{Major: 0, Minor: 9, Patch: 9},
	})

	// gamma выключен: его вклад не должен попасть в агрегат
	if err := fed.SetEnabled("gamma", false); err != nil {
		t.Fatal(err)
	}

	exchange := fed.AggregateInfo()

	if exchange.OnlineCoordinators != 2 || exchange.TotalCoordinators != 3 {
		t.Errorf("online/total = %d/%d, want 2/3",
			exchange.OnlineCoordinators, exchange.TotalCoordinators)
	}

	info := exchange.Info
	if info.NumPublicBuyOrders != 12 || info.NumPublicSellOrders != 13 {
		t.Errorf("order counts = %d/%d, want 12/13",
			info.NumPublicBuyOrders, info.NumPublicSellOrders)
	}
	if info.BookLiquidity != 1500000 {
		t.Errorf("BookLiquidity = %d, want 1500000", info.BookLiquidity)
	}
	if info.ActiveRobotsToday != 140 {
		t.Errorf("ActiveRobotsToday = %d, want 140", info.ActiveRobotsToday)
	}

	// Взвешенная премия: (6*3 + 3*1) / (3+1) = 5.25
	if math.Abs(info.LastDayNonkycBtcPremium-5.25) > 1e-9 {
		t.Errorf("premium = %v, want 5.25", info.LastDayNonkycBtcPremium)
	}

	// Версия — максимальная лексикографически: 1.3.0 > 1.2.9
	want := models.Version{Major: 1, Minor: 3, Patch: 0}
	if info.Version != want {
		t.Errorf("Version = %+v, want %+v", info.Version, want)
	}
}

func TestAggregateInfo_OfflineExcluded(t *testing.T) {
	fed := New(testDefs(), nil)

	alpha, _ := fed.Get("alpha")
	alpha.SetInfo(&models.CoordinatorInfo{NumPublicBuyOrders: 7, LastDayVolume: 1}, nil)

	// beta и gamma не ответили — info == nil

	exchange := fed.AggregateInfo()
	if exchange.OnlineCoordinators != 1 {
		t.Errorf("online = %d, want 1", exchange.OnlineCoordinators)
	}
	if exchange.Info.NumPublicBuyOrders != 7 {
		t.Errorf("NumPublicBuyOrders = %d, want 7", exchange.Info.NumPublicBuyOrders)
	}
}

func TestAggregateInfo_Empty(t *testing.T) {
	fed := New(testDefs(), nil)

	exchange := fed.AggregateInfo()
	if exchange.OnlineCoordinators != 0 {
		t.Errorf("online = %d, want 0", exchange.OnlineCoordinators)
	}
	if exchange.Info.LastDayNonkycBtcPremium != 0 {
		t.Errorf("premium = %v, want 0", exchange.Info.LastDayNonkycBtcPremium)
	}
}

// ============================================================
// Тесты поллера
// ============================================================

// recordingBroadcaster запоминает последнюю рассылку
type recordingBroadcaster struct {
	last *models.Exchange
}

func (b *recordingBroadcaster) BroadcastExchange(exchange models.Exchange) {
	b.last = &exchange
}

func TestPoller_PollOnce(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"num_public_buy_orders": 4, "last_day_volume": 1.5,
			"version": {"major": 0, "minor": 7, "patch": 0}}`))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	defs := []Definition{
		{ShortAlias: "good", LongAlias: "Good", Endpoints: map[string]map[string]string{
			models.NetworkMainnet: {models.OriginClearnet: good.URL},
		}},
		{ShortAlias: "bad", LongAlias: "Bad", Endpoints: map[string]map[string]string{
			models.NetworkMainnet: {models.OriginClearnet: bad.URL},
		}},
	}

	client := coordinator.NewClient(coordinator.NewHTTPClient(coordinator.DefaultHTTPClientConfig()), nil, nil)
	fed := New(defs, client)

	broadcaster := &recordingBroadcaster{}
	poller := NewPoller(fed, &staticSettings{models.DefaultSettings()}, broadcaster, time.Minute, nil)
	// Без долгих retry в тесте
	poller.retryCfg.MaxRetries = 1

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	poller.PollOnce(ctx)

	goodCoord, _ := fed.Get("good")
	if !goodCoord.Online() {
		t.Error("good coordinator must be online after poll")
	}
	if info := goodCoord.Info(); info == nil || info.NumPublicBuyOrders != 4 {
		t.Errorf("unexpected info: %+v", info)
	}

	badCoord, _ := fed.Get("bad")
	if badCoord.Online() {
		t.Error("bad coordinator must be offline after poll")
	}
	if badCoord.LastError() == nil {
		t.Error("bad coordinator must keep poll error")
	}

	if broadcaster.last == nil {
		t.Fatal("poller must broadcast exchange update")
	}
	if broadcaster.last.OnlineCoordinators != 1 {
		t.Errorf("broadcast online = %d, want 1", broadcaster.last.OnlineCoordinators)
	}
}
