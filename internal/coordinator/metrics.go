package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики клиента федерации
// ============================================================
//
// Использование:
// - Grafana дашборды: доступность координаторов, латентность Tor
// - Alertmanager: алерты на выпадение координаторов из федерации

// ============ Метрики запросов ============

// RequestsTotal - запросы к координаторам по операциям и результату
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "robofed",
		Subsystem: "coordinator",
		Name:      "requests_total",
		Help:      "Total number of coordinator API requests",
	},
	[]string{"coordinator", "op", "result"}, // result: ok, bad_request, transport_error
)

// RequestLatency - латентность запросов к координаторам
// Buckets рассчитаны на Tor: от сотен миллисекунд до десятков секунд
var RequestLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "robofed",
		Subsystem: "coordinator",
		Name:      "request_latency_seconds",
		Help:      "Coordinator API request latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
	},
	[]string{"coordinator", "op"},
)

// ============ Метрики федерации ============

// CoordinatorsOnline - количество координаторов, ответивших на последний опрос
var CoordinatorsOnline = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "robofed",
		Subsystem: "federation",
		Name:      "coordinators_online",
		Help:      "Number of coordinators that responded to the last poll",
	},
)

// CoordinatorUp - доступность конкретного координатора (1/0)
var CoordinatorUp = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "robofed",
		Subsystem: "federation",
		Name:      "coordinator_up",
		Help:      "Coordinator availability (1=online, 0=offline)",
	},
	[]string{"coordinator"},
)

// BookLiquidity - суммарная ликвидность книги федерации в сатоши
var BookLiquidity = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "robofed",
		Subsystem: "federation",
		Name:      "book_liquidity_sats",
		Help:      "Aggregated federation book liquidity in satoshis",
	},
)

// ============ Метрики гаража ============

// SlotsByState - слоты гаража по состояниям
var SlotsByState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "robofed",
		Subsystem: "garage",
		Name:      "slots",
		Help:      "Number of garage slots by state",
	},
	[]string{"state"}, // EMPTY, GENERATING, FOUND, ERROR
)

// StaleResponsesDiscarded - ответы, отброшенные из-за смены поколения слота
var StaleResponsesDiscarded = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "robofed",
		Subsystem: "garage",
		Name:      "stale_responses_discarded_total",
		Help:      "Robot reconstruction responses discarded as superseded",
	},
)

// RewardsClaimed - выведенные награды в сатоши
var RewardsClaimed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "robofed",
		Subsystem: "garage",
		Name:      "rewards_claimed_sats_total",
		Help:      "Total rewards claimed in satoshis",
	},
)

// ============ Вспомогательные функции ============

// RecordRequest записывает исход запроса к координатору
func RecordRequest(coordinator, op string, err error, latencySeconds float64) {
	result := "ok"
	switch {
	case IsBadRequest(err):
		result = "bad_request"
	case err != nil:
		result = "transport_error"
	}
	RequestsTotal.WithLabelValues(coordinator, op, result).Inc()
	RequestLatency.WithLabelValues(coordinator, op).Observe(latencySeconds)
}

// UpdateCoordinatorStatus обновляет доступность координатора
func UpdateCoordinatorStatus(coordinator string, online bool) {
	if online {
		CoordinatorUp.WithLabelValues(coordinator).Set(1)
	} else {
		CoordinatorUp.WithLabelValues(coordinator).Set(0)
	}
}

// UpdateFederationStats обновляет агрегированные метрики федерации
func UpdateFederationStats(online int, bookLiquidity int64) {
	CoordinatorsOnline.Set(float64(online))
	BookLiquidity.Set(float64(bookLiquidity))
}

// UpdateSlotStates обновляет распределение слотов по состояниям
func UpdateSlotStates(counts map[string]int) {
	for _, state := range []string{"EMPTY", "GENERATING", "FOUND", "ERROR"} {
		SlotsByState.WithLabelValues(state).Set(float64(counts[state]))
	}
}
