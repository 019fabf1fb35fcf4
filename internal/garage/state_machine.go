package garage

import "robofed/internal/models"

// ValidTransitions определяет допустимые переходы состояний слота
var ValidTransitions = map[string][]string{
	models.SlotStateEmpty:      {models.SlotStateGenerating},
	models.SlotStateGenerating: {models.SlotStateFound, models.SlotStateError, models.SlotStateGenerating}, // повторный запрос поверх незавершенного
	models.SlotStateFound:      {models.SlotStateGenerating},                                               // перегенерация по новому токену
	models.SlotStateError:      {models.SlotStateGenerating},
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// StateInfo возвращает описание состояния для UI
func StateInfo(s string) string {
	switch s {
	case models.SlotStateEmpty:
		return "Слот пуст"
	case models.SlotStateGenerating:
		return "Запрос робота у координатора..."
	case models.SlotStateFound:
		return "Робот готов"
	case models.SlotStateError:
		return "Ошибка! Робот не получен"
	default:
		return "Неизвестное состояние"
	}
}

// IsReady возвращает true если роботом слота можно пользоваться
func IsReady(s string) bool {
	return s == models.SlotStateFound
}
