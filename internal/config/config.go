package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"robofed/internal/models"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Security   SecurityConfig
	Client     ClientConfig
	Federation FederationConfig
	Logging    LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	// EncryptionKey шифрует токены роботов при сохранении гаража в БД
	EncryptionKey string
}

// ClientConfig - стартовые клиентские настройки.
// Применяются только при пустой БД; дальше авторитетна таблица settings
type ClientConfig struct {
	Network    string // mainnet, testnet
	Origin     string // clearnet, onion, i2p
	Selfhosted bool
	HostURL    string
}

// FederationConfig - настройки опроса федерации
type FederationConfig struct {
	// Периодические задачи
	InfoPollInterval time.Duration // опрос /api/info координаторов
	OrderPollFreq    time.Duration // обновление активных ордеров гаража

	// Rate limiting исходящих запросов
	RequestRate  float64 // запросов в секунду на федерацию
	RequestBurst float64

	// Retry логика для сетевых операций
	MaxRetries   int
	RetryBackoff time.Duration
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "robofed"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		},
		Client: ClientConfig{
			Network:    getEnv("CLIENT_NETWORK", models.NetworkMainnet),
			Origin:     getEnv("CLIENT_ORIGIN", models.OriginClearnet),
			Selfhosted: getEnvAsBool("CLIENT_SELFHOSTED", false),
			HostURL:    getEnv("CLIENT_HOST_URL", ""),
		},
		Federation: FederationConfig{
			InfoPollInterval: getEnvAsDuration("INFO_POLL_INTERVAL", 60*time.Second),
			OrderPollFreq:    getEnvAsDuration("ORDER_POLL_FREQ", 15*time.Second),

			RequestRate:  getEnvAsFloat("REQUEST_RATE", 2),
			RequestBurst: getEnvAsFloat("REQUEST_BURST", 4),

			MaxRetries:   getEnvAsInt("MAX_RETRIES", 3),
			RetryBackoff: getEnvAsDuration("RETRY_BACKOFF", 1*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}

	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecurity проверяет параметры безопасности
func (c *Config) validateSecurity() error {
	// ENCRYPTION_KEY обязателен: токены роботов - это деньги
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for encrypting robot tokens at rest")
	}

	if len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if !models.ValidNetwork(c.Client.Network) {
		return fmt.Errorf("CLIENT_NETWORK must be mainnet or testnet, got %q", c.Client.Network)
	}

	if !models.ValidOrigin(c.Client.Origin) {
		return fmt.Errorf("CLIENT_ORIGIN must be clearnet, onion or i2p, got %q", c.Client.Origin)
	}

	if c.Client.Selfhosted && c.Client.HostURL == "" {
		return fmt.Errorf("CLIENT_HOST_URL is required when CLIENT_SELFHOSTED is set")
	}

	if c.Federation.InfoPollInterval <= 0 {
		return fmt.Errorf("INFO_POLL_INTERVAL must be positive, got %v", c.Federation.InfoPollInterval)
	}

	if c.Federation.OrderPollFreq <= 0 {
		return fmt.Errorf("ORDER_POLL_FREQ must be positive, got %v", c.Federation.OrderPollFreq)
	}

	if c.Federation.RequestRate <= 0 {
		return fmt.Errorf("REQUEST_RATE must be positive, got %v", c.Federation.RequestRate)
	}

	if c.Federation.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES cannot be negative, got %d", c.Federation.MaxRetries)
	}

	if c.Federation.MaxRetries > 10 {
		return fmt.Errorf("MAX_RETRIES should not exceed 10, got %d", c.Federation.MaxRetries)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
