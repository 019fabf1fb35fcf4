package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"robofed/internal/coordinator"
	"robofed/internal/federation"
	"robofed/internal/garage"
	"robofed/internal/models"
	"robofed/pkg/utils"
)

// Ошибки сервиса ордеров
var (
	ErrRobotNotReady      = errors.New("slot robot is not ready")
	ErrNoActiveOrder      = errors.New("slot has no active order")
	ErrOrderPenalized     = errors.New("taking is blocked by an active penalty")
	ErrAlreadyParticipant = errors.New("robot already participates in this order")
	ErrAmountOutOfRange   = errors.New("amount is outside the order range")
	ErrNoRate             = errors.New("order carries no usable exchange rate")
)

// OrderService — действия над ордерами: взятие, обновление, продление,
// оценка суммы в сатоши.
//
// Маршрутизация строгая: каждое действие идет к координатору, чей
// short alias несет ордер. Сфокусированный координатор здесь не участвует
type OrderService struct {
	federation *federation.Federation
	garage     *garage.Garage
	settings   SettingsServiceInterface
	logger     *utils.Logger
}

// NewOrderService создает сервис ордеров
func NewOrderService(fed *federation.Federation, g *garage.Garage, settings SettingsServiceInterface, logger *utils.Logger) *OrderService {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &OrderService{
		federation: fed,
		garage:     g,
		settings:   settings,
		logger:     logger,
	}
}

// ValidateTake проверяет, можно ли взять ордер на указанную сумму.
//
// Для ордеров с диапазоном сумма обязана попадать в [min, max]
// включительно. Суммы в "валюте" 1000 (сатоши) конвертируются в
// биткоины перед проверкой границ
func (s *OrderService) ValidateTake(order *models.Order, amount float64) error {
	if order.IsParticipant {
		return ErrAlreadyParticipant
	}
	if order.IsPenalized(time.Now()) {
		return ErrOrderPenalized
	}

	if order.HasRange {
		normalized := normalizeAmount(order, amount)
		if !utils.ValidTakeAmount(normalized, order.MinAmount, order.MaxAmount) {
			return ErrAmountOutOfRange
		}
	}

	return nil
}

// EstimateSats оценивает сумму сделки в сатоши с учетом комиссии
// тейкера и резерва на маршрутизацию (только для покупателя).
//
// Курс восстанавливается из живой оценки ордера: номинал ордера
// относительно satoshis_now дает актуальную цену с учетом премии
func (s *OrderService) EstimateSats(order *models.Order, amount float64) (int64, error) {
	rate, err := orderRate(order)
	if err != nil {
		return 0, err
	}

	fee := s.takerFee(order.ShortAlias)

	// Резерв на маршрутизацию платежа нужен только покупателю биткоина:
	// тейкер покупает, когда мейкер продает
	routingBudget := 0.0
	if order.Type == models.OrderTypeSell {
		routingBudget = utils.DefaultRoutingBudget
	}

	normalized := normalizeAmount(order, amount)
	return utils.ComputeSats(normalized, routingBudget, fee, rate), nil
}

// TakeOrder берет публичный ордер от имени робота слота.
//
// Перед взятием ордер запрашивается у координатора и валидируется:
// книги разных координаторов независимы, ордер могли уже забрать
func (s *OrderService) TakeOrder(ctx context.Context, slotIndex int, shortAlias string, orderID int, amount float64) (*models.Order, error) {
	robot, err := s.readyRobot(slotIndex)
	if err != nil {
		return nil, err
	}

	coord, err := s.federation.Get(shortAlias)
	if err != nil {
		return nil, err
	}

	ep, err := s.endpoint(coord)
	if err != nil {
		return nil, err
	}

	order, err := coord.FetchOrder(ctx, ep, orderID, robot.TokenSHA256)
	if err != nil {
		return nil, err
	}

	if err := s.ValidateTake(order, amount); err != nil {
		return nil, err
	}

	takeAmount := 0.0
	if order.HasRange {
		takeAmount = normalizeAmount(order, amount)
	}

	taken, err := coord.TakeOrder(ctx, ep, orderID, takeAmount, robot.TokenSHA256)
	if err != nil {
		return nil, err
	}

	if err := s.garage.UpdateOrder(slotIndex, taken); err != nil {
		return nil, err
	}

	s.logger.Info("order taken",
		zap.Int("slot", slotIndex),
		zap.String("coordinator", shortAlias),
		zap.Int("order_id", taken.ID))

	result := *taken
	return &result, nil
}

// RefreshOrder запрашивает актуальное состояние ордера слота
func (s *OrderService) RefreshOrder(ctx context.Context, slotIndex int) (*models.Order, error) {
	robot, err := s.readyRobot(slotIndex)
	if err != nil {
		return nil, err
	}

	current, err := s.garage.GetOrder(slotIndex)
	if err != nil {
		return nil, ErrNoActiveOrder
	}

	coord, err := s.federation.Get(current.ShortAlias)
	if err != nil {
		return nil, err
	}

	ep, err := s.endpoint(coord)
	if err != nil {
		return nil, err
	}

	fresh, err := coord.FetchOrder(ctx, ep, current.ID, robot.TokenSHA256)
	if err != nil {
		return nil, err
	}

	if err := s.garage.UpdateOrder(slotIndex, fresh); err != nil {
		return nil, err
	}

	result := *fresh
	return &result, nil
}

// RenewOrder пересоздает истекший ордер слота с теми же параметрами
func (s *OrderService) RenewOrder(ctx context.Context, slotIndex int) (*models.Order, error) {
	robot, err := s.readyRobot(slotIndex)
	if err != nil {
		return nil, err
	}

	expired, err := s.garage.GetOrder(slotIndex)
	if err != nil {
		return nil, ErrNoActiveOrder
	}

	coord, err := s.federation.Get(expired.ShortAlias)
	if err != nil {
		return nil, err
	}

	ep, err := s.endpoint(coord)
	if err != nil {
		return nil, err
	}

	req := coordinator.OrderRequest{
		Type:          expired.Type,
		Currency:      expired.Currency,
		Amount:        expired.Amount,
		HasRange:      expired.HasRange,
		MinAmount:     expired.MinAmount,
		MaxAmount:     expired.MaxAmount,
		PaymentMethod: expired.PaymentMethod,
		Premium:       expired.Premium,
		Satoshis:      expired.Satoshis,
	}

	renewed, err := coord.RenewOrder(ctx, ep, req, robot.TokenSHA256)
	if err != nil {
		return nil, err
	}

	if err := s.garage.UpdateOrder(slotIndex, renewed); err != nil {
		return nil, err
	}

	s.logger.Info("order renewed",
		zap.Int("slot", slotIndex),
		zap.String("coordinator", renewed.ShortAlias),
		zap.Int("old_order_id", expired.ID),
		zap.Int("order_id", renewed.ID))

	result := *renewed
	return &result, nil
}

// readyRobot возвращает робота слота в состоянии FOUND
func (s *OrderService) readyRobot(slotIndex int) (*models.Robot, error) {
	slot, err := s.garage.GetSlot(slotIndex)
	if err != nil {
		return nil, err
	}
	if !garage.IsReady(slot.State) || slot.Robot == nil {
		return nil, ErrRobotNotReady
	}
	return slot.Robot, nil
}

// endpoint разрешает адрес координатора по текущим настройкам
func (s *OrderService) endpoint(coord *coordinator.Coordinator) (coordinator.Endpoint, error) {
	settings := s.settings.Current()
	return coord.GetEndpoint(settings.Network, settings.Origin,
		settings.SelfhostedClient, settings.HostURL)
}

// takerFee возвращает комиссию тейкера координатора (0 если статистика
// еще не загружена)
func (s *OrderService) takerFee(shortAlias string) float64 {
	coord, err := s.federation.Get(shortAlias)
	if err != nil {
		return 0
	}
	info := coord.Info()
	if info == nil {
		return 0
	}
	return info.TakerFee
}

// normalizeAmount приводит введенную сумму к единицам ордера.
// "Валюта" 1000 означает деноминацию в сатоши: пользователь вводит
// сатоши, границы ордера выражены в биткоинах
func normalizeAmount(order *models.Order, amount float64) float64 {
	if order.Currency == models.CurrencySats {
		return amount / 1e8
	}
	return amount
}

// orderRate восстанавливает курс фиат/BTC из живой оценки ордера
func orderRate(order *models.Order) (float64, error) {
	if order.SatoshisNow <= 0 {
		return 0, ErrNoRate
	}

	nominal := order.Amount
	if order.HasRange {
		nominal = order.MaxAmount
	}
	if nominal <= 0 {
		return 0, ErrNoRate
	}

	return nominal / (float64(order.SatoshisNow) / 1e8), nil
}
