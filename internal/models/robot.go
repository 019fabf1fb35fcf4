// Package models содержит доменные структуры данных:
// роботы, слоты гаража, ордера, статистика федерации, настройки.
package models

import "time"

// Robot — торговая идентичность, детерминированно выведенная из токена.
//
// Локальные поля (Token, Nickname, AvatarSeed, ключи) заполняются сразу
// при деривации; удаленные поля (ActiveOrderID, EarnedRewards, Tg*)
// приходят от координатора и до его ответа остаются нулевыми.
type Robot struct {
	// Секрет. Никогда не уходит к координатору в открытом виде
	Token string `json:"token,omitempty"`

	Nickname   string `json:"nickname"`
	AvatarSeed string `json:"avatar_seed"`

	// TokenSHA256 — hex SHA-256 хеш токена, идентификатор робота
	// на стороне координатора
	TokenSHA256 string `json:"token_sha256"`

	// Ключевая пара для подписи сообщений (инвойсы наград).
	// Приватный ключ хранится только в зашифрованном виде
	PubKey     string `json:"public_key"`
	EncPrivKey string `json:"encrypted_private_key"`

	// Found — координатор уже видел этого робота раньше
	Found        bool `json:"found"`
	AvatarLoaded bool `json:"avatar_loaded"`

	ActiveOrderID int `json:"active_order_id,omitempty"`
	LastOrderID   int `json:"last_order_id,omitempty"`

	// EarnedRewards — накопленные компенсации в сатоши, доступные к выводу
	EarnedRewards int64 `json:"earned_rewards"`

	// StealthInvoices — просить у координатора инвойсы без описания
	StealthInvoices bool `json:"stealth_invoices"`

	// Телеграм-уведомления на стороне координатора
	TgEnabled bool   `json:"tg_enabled"`
	TgBotName string `json:"tg_bot_name,omitempty"`
	TgToken   string `json:"tg_token,omitempty"`

	// LastError — текст последней ошибки реконструкции (state ERROR)
	LastError string `json:"last_error,omitempty"`
}

// Состояния слота гаража
const (
	SlotStateEmpty      = "EMPTY"      // слот создан, робот не запрошен
	SlotStateGenerating = "GENERATING" // запрос к координатору в полете
	SlotStateFound      = "FOUND"      // координатор ответил, робот готов
	SlotStateError      = "ERROR"      // запрос завершился ошибкой
)

// Slot — ячейка гаража: робот плюс его текущий ордер.
//
// Индекс слота стабилен на все время жизни гаража; удаление слота
// не сдвигает индексы остальных.
type Slot struct {
	Index int    `json:"index"`
	State string `json:"state"`

	Robot *Robot `json:"robot,omitempty"`
	Order *Order `json:"order,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// HasActiveOrder возвращает true если у робота слота есть активный ордер
func (s *Slot) HasActiveOrder() bool {
	return s.Robot != nil && s.Robot.ActiveOrderID != 0
}
