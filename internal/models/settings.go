package models

import "time"

// Сети биткоина
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// Способы доступа к координатору
const (
	OriginClearnet = "clearnet"
	OriginOnion    = "onion"
	OriginI2P      = "i2p"
)

// Settings — клиентские настройки, влияющие на выбор эндпоинтов федерации.
// Хранятся одной строкой в БД (id всегда 1).
type Settings struct {
	ID               int       `json:"id"`
	Network          string    `json:"network"` // mainnet, testnet
	Origin           string    `json:"origin"`  // clearnet, onion, i2p
	SelfhostedClient bool      `json:"selfhosted_client"`
	HostURL          string    `json:"host_url"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultSettings возвращает настройки по умолчанию
func DefaultSettings() *Settings {
	return &Settings{
		ID:      1,
		Network: NetworkMainnet,
		Origin:  OriginClearnet,
	}
}

// ValidNetwork проверяет допустимость значения сети
func ValidNetwork(n string) bool {
	return n == NetworkMainnet || n == NetworkTestnet
}

// ValidOrigin проверяет допустимость способа доступа
func ValidOrigin(o string) bool {
	return o == OriginClearnet || o == OriginOnion || o == OriginI2P
}
