package models

// Version — семантическая версия координатора
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// HigherVersion возвращает большую из двух версий.
// Сравнение лексикографическое: major, затем minor, затем patch.
// При полном равенстве возвращается первая (результат идентичен).
func HigherVersion(a, b Version) Version {
	if b.Major != a.Major {
		if b.Major > a.Major {
			return b
		}
		return a
	}
	if b.Minor != a.Minor {
		if b.Minor > a.Minor {
			return b
		}
		return a
	}
	if b.Patch > a.Patch {
		return b
	}
	return a
}

// CoordinatorInfo — публичная статистика одного координатора федерации.
// Обновляется асинхронно и может отсутствовать (координатор недоступен).
type CoordinatorInfo struct {
	NumPublicBuyOrders      int     `json:"num_public_buy_orders"`
	NumPublicSellOrders     int     `json:"num_public_sell_orders"`
	BookLiquidity           int64   `json:"book_liquidity"`       // в сатоши
	ActiveRobotsToday       int     `json:"active_robots_today"`
	LastDayNonkycBtcPremium float64 `json:"last_day_nonkyc_btc_premium"` // %
	LastDayVolume           float64 `json:"last_day_volume"`             // BTC за 24ч
	LifetimeVolume          float64 `json:"lifetime_volume"`             // BTC
	Version                 Version `json:"version"`

	// Комиссии, нужные для расчета суммы при взятии ордера
	TakerFee float64 `json:"taker_fee"`
	MakerFee float64 `json:"maker_fee"`
}

// ExchangeInfo — агрегированная статистика всей федерации.
// Производное значение: пересчитывается заново из состояний координаторов,
// авторитетно нигде не хранится.
type ExchangeInfo struct {
	NumPublicBuyOrders      int     `json:"num_public_buy_orders"`
	NumPublicSellOrders     int     `json:"num_public_sell_orders"`
	BookLiquidity           int64   `json:"book_liquidity"`
	ActiveRobotsToday       int     `json:"active_robots_today"`
	LastDayNonkycBtcPremium float64 `json:"last_day_nonkyc_btc_premium"`
	LastDayVolume           float64 `json:"last_day_volume"`
	LifetimeVolume          float64 `json:"lifetime_volume"`
	Version                 Version `json:"version"`
}

// Exchange — снимок биржи в целом для презентационного слоя
type Exchange struct {
	Info               ExchangeInfo `json:"info"`
	OnlineCoordinators int          `json:"online_coordinators"`
	TotalCoordinators  int          `json:"total_coordinators"`
}
