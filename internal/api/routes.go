package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"robofed/internal/api/handlers"
	"robofed/internal/api/middleware"
	"robofed/internal/federation"
	"robofed/internal/garage"
	"robofed/internal/service"
	"robofed/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Garage          *garage.Garage
	Federation      *federation.Federation
	RobotService    service.RobotServiceInterface
	OrderService    service.OrderServiceInterface
	RewardService   service.RewardServiceInterface
	SettingsService service.SettingsServiceInterface
	Hub             *websocket.Hub
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /garage
//	│   ├── GET / - слоты и текущий индекс
//	│   ├── DELETE / - удалить все слоты
//	│   ├── POST /slots - создать слот
//	│   ├── GET /slots/{index} - получить слот
//	│   ├── DELETE /slots/{index} - удалить слот
//	│   ├── POST /slots/{index}/generate - восстановить робота по токену
//	│   ├── POST /slots/{index}/order/take - взять ордер
//	│   ├── POST /slots/{index}/order/refresh - обновить активный ордер
//	│   ├── POST /slots/{index}/order/renew - пересоздать истекший ордер
//	│   ├── POST /slots/{index}/reward - вывести награды
//	│   ├── PUT /slots/{index}/stealth - переключить stealth-инвойсы
//	│   ├── PUT /current - переключить текущий слот
//	│   └── GET /export - экспорт гаража
//	├── /federation
//	│   ├── GET / - снимки координаторов
//	│   ├── GET /exchange - агрегированная сводка
//	│   ├── PUT /focused - сменить фокусный координатор
//	│   └── PATCH /coordinators/{shortAlias} - включить/отключить
//	├── /orders
//	│   └── POST /estimate - оценка суммы в сатоши
//	└── /settings
//	    ├── GET / - получить настройки
//	    ├── PATCH / - обновить настройки
//	    └── POST /reset - сброс к умолчаниям
//
// /ws/stream - WebSocket для real-time обновлений
// /metrics - Prometheus метрики
// /health - health check
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Garage routes
	if deps != nil && deps.Garage != nil && deps.RobotService != nil {
		garageHandler := handlers.NewGarageHandler(deps.Garage, deps.RobotService)
		api.HandleFunc("/garage", garageHandler.GetGarage).Methods("GET")
		api.HandleFunc("/garage", garageHandler.DeleteGarage).Methods("DELETE")
		api.HandleFunc("/garage/slots", garageHandler.CreateSlot).Methods("POST")
		api.HandleFunc("/garage/slots/{index}", garageHandler.GetSlot).Methods("GET")
		api.HandleFunc("/garage/slots/{index}", garageHandler.DeleteSlot).Methods("DELETE")
		api.HandleFunc("/garage/slots/{index}/generate", garageHandler.GenerateRobot).Methods("POST")
		api.HandleFunc("/garage/current", garageHandler.SetCurrent).Methods("PUT")
		api.HandleFunc("/garage/export", garageHandler.ExportGarage).Methods("GET")
	}

	// Order routes
	if deps != nil && deps.OrderService != nil {
		orderHandler := handlers.NewOrderHandler(deps.OrderService)
		api.HandleFunc("/orders/estimate", orderHandler.EstimateSats).Methods("POST")
		api.HandleFunc("/garage/slots/{index}/order/take", orderHandler.TakeOrder).Methods("POST")
		api.HandleFunc("/garage/slots/{index}/order/refresh", orderHandler.RefreshOrder).Methods("POST")
		api.HandleFunc("/garage/slots/{index}/order/renew", orderHandler.RenewOrder).Methods("POST")
	}

	// Reward routes
	if deps != nil && deps.RewardService != nil {
		rewardHandler := handlers.NewRewardHandler(deps.RewardService)
		api.HandleFunc("/garage/slots/{index}/reward", rewardHandler.ClaimReward).Methods("POST")
		api.HandleFunc("/garage/slots/{index}/stealth", rewardHandler.SetStealth).Methods("PUT")
	}

	// Federation routes
	if deps != nil && deps.Federation != nil {
		federationHandler := handlers.NewFederationHandler(deps.Federation)
		api.HandleFunc("/federation", federationHandler.GetFederation).Methods("GET")
		api.HandleFunc("/federation/exchange", federationHandler.GetExchange).Methods("GET")
		api.HandleFunc("/federation/focused", federationHandler.SetFocused).Methods("PUT")
		api.HandleFunc("/federation/coordinators/{shortAlias}", federationHandler.SetEnabled).Methods("PATCH")
	}

	// Settings routes
	if deps != nil && deps.SettingsService != nil {
		settingsHandler := handlers.NewSettingsHandler(deps.SettingsService)
		api.HandleFunc("/settings", settingsHandler.GetSettings).Methods("GET")
		api.HandleFunc("/settings", settingsHandler.UpdateSettings).Methods("PATCH")
		api.HandleFunc("/settings/reset", settingsHandler.ResetSettings).Methods("POST")
	}

	// WebSocket route
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
