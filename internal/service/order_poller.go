package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"robofed/internal/garage"
	"robofed/pkg/utils"
)

// OrderPoller периодически обновляет активные ордера слотов гаража.
//
// Статус ордера живет у координатора: пока сделка идет, frontend
// должен видеть смену статусов (взят, эскроу, инвойс, спор) без
// ручного обновления. Каждый ордер опрашивается у своего координатора.
type OrderPoller struct {
	orders   OrderServiceInterface
	garage   *garage.Garage
	interval time.Duration
	logger   *utils.Logger
}

// NewOrderPoller создает поллер активных ордеров
func NewOrderPoller(orders OrderServiceInterface, g *garage.Garage, interval time.Duration, logger *utils.Logger) *OrderPoller {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &OrderPoller{
		orders:   orders,
		garage:   g,
		interval: interval,
		logger:   logger,
	}
}

// Run запускает цикл опроса до отмены контекста
func (p *OrderPoller) Run(ctx context.Context) {
	p.logger.Info("order poller started", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("order poller stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce обновляет активные ордера всех слотов.
// Ордера опрашиваются последовательно: их единицы, а rate limiter
// клиента и так сгладил бы параллельный залп
func (p *OrderPoller) PollOnce(ctx context.Context) {
	for _, slot := range p.garage.AllSlots() {
		// Обновляется только ордер, уже привязанный к слоту:
		// у него известен координатор
		if slot.Order == nil {
			continue
		}

		if _, err := p.orders.RefreshOrder(ctx, slot.Index); err != nil {
			p.logger.Warn("order refresh failed",
				zap.Int("slot", slot.Index),
				zap.Error(err))
		}

		if ctx.Err() != nil {
			return
		}
	}
}
