package utils

// math.go - математические утилиты агрегации федерации
//
// Назначение:
// Вспомогательные функции для агрегированной статистики биржи.
// Все функции являются чистыми (pure functions) без побочных эффектов.

// WeightedMean вычисляет средневзвешенное значение.
//
// Используется для расчёта премии федерации: премия каждого координатора
// взвешивается его суточным объёмом торгов.
//
// Формула:
//
//	mean = Σ(value_i × weight_i) / Σ(weight_i)
//
// Граничные случаи:
//   - Σ(weight_i) == 0 при непустых данных: невзвешенное среднее
//     (координаторы без объёма всё ещё дают осмысленную премию)
//   - пустые или несогласованные слайсы: 0
//   - отрицательные веса пропускаются
//
// Примеры:
//
//	values  = [2.0, 4.0]
//	weights = [1.0, 3.0]
//	mean = (2*1 + 4*3) / 4 = 3.5
func WeightedMean(values, weights []float64) float64 {
	if len(values) == 0 || len(weights) == 0 {
		return 0
	}
	if len(values) != len(weights) {
		return 0
	}

	var sumWeighted, sumWeights float64
	for i := range values {
		if weights[i] < 0 {
			continue // Пропускаем отрицательные веса
		}
		sumWeighted += values[i] * weights[i]
		sumWeights += weights[i]
	}

	if sumWeights == 0 {
		// Все веса нулевые: fallback на невзвешенное среднее
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
	return sumWeighted / sumWeights
}
