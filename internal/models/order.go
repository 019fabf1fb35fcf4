package models

import "time"

// Order представляет ордер, отслеживаемый слотом гаража.
//
// Инвариант: ShortAlias всегда указывает координатора, который вернул этот
// ордер. Все последующие действия (take, renew, claim) маршрутизируются
// обратно именно к нему — маршрутизация к чужому координатору является
// ошибкой корректности, а не только UX.
type Order struct {
	ID         int    `json:"id"`
	ShortAlias string `json:"short_alias"` // координатор-владелец

	Type     int `json:"type"`     // 0 = покупка, 1 = продажа
	Currency int `json:"currency"` // числовой код валюты; 1000 = сатоши

	// Сумма: либо фиксированная, либо диапазон
	Amount    float64 `json:"amount,omitempty"`
	HasRange  bool    `json:"has_range"`
	MinAmount float64 `json:"min_amount,omitempty"`
	MaxAmount float64 `json:"max_amount,omitempty"`

	PaymentMethod string `json:"payment_method"`

	// Ценообразование: относительная премия или явное количество сатоши
	Premium  float64 `json:"premium,omitempty"`
	Satoshis int64   `json:"satoshis,omitempty"`

	IsParticipant bool   `json:"is_participant"`
	IsBuyer       bool   `json:"is_buyer"`
	MakerStatus   string `json:"maker_status"` // Active, Seen recently, Inactive

	// Penalty — время, до которого взятие ордеров заблокировано штрафом
	Penalty time.Time `json:"penalty,omitempty"`

	// SatoshisNow — текущая оценка ордера в сатоши по живому курсу
	SatoshisNow int64 `json:"satoshis_now"`

	Status    int       `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Типы ордера
const (
	OrderTypeBuy  = 0 // мейкер покупает биткоин
	OrderTypeSell = 1 // мейкер продает биткоин
)

// Статусы мейкера
const (
	MakerStatusActive       = "Active"
	MakerStatusSeenRecently = "Seen recently"
	MakerStatusInactive     = "Inactive"
)

// CurrencySats — код "валюты", означающий деноминацию в сатоши.
// Введенные пользователем суммы в этой валюте конвертируются в целые
// биткоины (деление на 1e8) перед проверкой границ и расчетом.
const CurrencySats = 1000

// IsPenalized возвращает true если взятие ордеров еще заблокировано штрафом
func (o *Order) IsPenalized(now time.Time) bool {
	return !o.Penalty.IsZero() && now.Before(o.Penalty)
}
