package utils

import (
	"math"
	"strconv"
)

// amount.go - расчет суммы в сатоши при взятии ордера
//
// Назначение:
// Чистая арифметика, превращающая введенную пользователем фиатную сумму
// в количество сатоши с учетом курса, комиссии тейкера и бюджета
// маршрутизации Lightning.
//
// Результат попадает напрямую в текст подтверждения для пользователя
// и в тело запроса взятия ордера, поэтому невалидные входы зажимаются
// в 0, а не приводят к ошибке.

// DefaultRoutingBudget - доля суммы, резервируемая покупателем
// на возможную комиссию маршрутизации Lightning
const DefaultRoutingBudget = 0.001

// ComputeSats конвертирует сумму в сатоши.
//
// Параметры:
//   - amount: сумма в фиатной валюте ордера (уже нормализованная:
//     для сатоши-деноминированных ордеров вызывающий делит на 1e8)
//   - routingBudget: доля на маршрутизацию; > 0 только у покупателя
//   - fee: комиссия тейкера в долях (0.0025 = 0.25%)
//   - rate: фиат за один биткоин
//
// Формула:
//
//	sats = amount / rate × 1e8
//	sats = sats × (1 − fee)
//	sats = sats × (1 − routingBudget)
//
// Возвращает 0 для нечисловых, бесконечных и неположительных входов.
// Строго монотонна по amount при фиксированных остальных параметрах.
func ComputeSats(amount, routingBudget, fee, rate float64) int64 {
	if !isFinite(amount) || !isFinite(routingBudget) || !isFinite(fee) || !isFinite(rate) {
		return 0
	}
	if amount <= 0 || rate <= 0 {
		return 0
	}

	sats := amount / rate * 100_000_000
	sats -= sats * fee
	sats -= sats * routingBudget

	if !isFinite(sats) || sats < 0 {
		return 0
	}
	return int64(math.Round(sats))
}

// ParseAmount разбирает введенную пользователем сумму.
// Пустая строка и нечисловые значения невалидны.
func ParseAmount(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || !isFinite(amount) {
		return 0, false
	}
	return amount, true
}

// ValidTakeAmount проверяет сумму взятия против диапазона ордера.
// Обе границы включительны: amount == min и amount == max валидны.
func ValidTakeAmount(amount, minAmount, maxAmount float64) bool {
	if !isFinite(amount) || amount <= 0 {
		return false
	}
	return amount >= minAmount && amount <= maxAmount
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
