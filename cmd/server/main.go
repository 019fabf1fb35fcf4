package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"robofed/internal/api"
	"robofed/internal/config"
	"robofed/internal/coordinator"
	"robofed/internal/federation"
	"robofed/internal/garage"
	"robofed/internal/models"
	"robofed/internal/repository"
	"robofed/internal/service"
	"robofed/internal/websocket"
	"robofed/pkg/ratelimit"
	"robofed/pkg/utils"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database",
			zap.String("dsn", cfg.Database.DSNWithoutPassword()),
			zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database", zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозиториев
	settingsRepo := repository.NewSettingsRepositoryWithDefaults(db, &models.Settings{
		Network:          cfg.Client.Network,
		Origin:           cfg.Client.Origin,
		SelfhostedClient: cfg.Client.Selfhosted,
		HostURL:          cfg.Client.HostURL,
	})

	slotRepo, err := repository.NewSlotRepository(db, cfg.Security.EncryptionKey)
	if err != nil {
		logger.Fatal("failed to init slot repository", zap.Error(err))
	}

	// Настройки загружаются из БД один раз и дальше живут в памяти
	settingsService, err := service.NewSettingsService(settingsRepo)
	if err != nil {
		logger.Fatal("failed to load settings", zap.Error(err))
	}

	// WebSocket hub: события гаража и федерации уходят подписчикам
	hub := websocket.NewHub()
	go hub.Run()

	// Гараж слотов с рассылкой изменений в hub
	robotGarage := garage.New(hub)

	// HTTP клиент федерации с общим rate limiter'ом
	httpClient := coordinator.NewHTTPClient(coordinator.DefaultHTTPClientConfig())
	limiter := ratelimit.NewRateLimiter(cfg.Federation.RequestRate, cfg.Federation.RequestBurst)
	client := coordinator.NewClient(httpClient, limiter, logger)

	fed := federation.New(federation.DefaultCoordinators(), client)

	// Инициализация сервисов
	robotService := service.NewRobotService(fed, robotGarage, slotRepo, settingsService, logger)
	orderService := service.NewOrderService(fed, robotGarage, settingsService, logger)
	rewardService := service.NewRewardService(fed, robotGarage, settingsService, logger)

	// Восстановление гаража из БД
	if err := robotService.RestoreGarage(); err != nil {
		logger.Warn("failed to restore garage", zap.Error(err))
	} else {
		logger.Info("garage restored", zap.Int("slots", len(robotGarage.AllSlots())))
	}

	// Фоновые поллеры
	pollCtx, cancelPollers := context.WithCancel(context.Background())

	infoPoller := federation.NewPoller(fed, settingsService, hub, cfg.Federation.InfoPollInterval, logger)
	go infoPoller.Run(pollCtx)

	orderPoller := service.NewOrderPoller(orderService, robotGarage, cfg.Federation.OrderPollFreq, logger)
	go orderPoller.Run(pollCtx)

	// Настройка HTTP роутера
	router := api.SetupRoutes(&api.Dependencies{
		Garage:          robotGarage,
		Federation:      fed,
		RobotService:    robotService,
		OrderService:    orderService,
		RewardService:   rewardService,
		SettingsService: settingsService,
		Hub:             hub,
	})

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	cancelPollers()
	hub.Stop()

	// Последний снимок гаража перед выходом
	if err := robotService.PersistGarage(); err != nil {
		logger.Error("failed to persist garage on shutdown", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	httpClient.Close()

	logger.Info("server exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
