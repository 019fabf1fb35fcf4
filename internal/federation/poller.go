package federation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"robofed/internal/coordinator"
	"robofed/internal/models"
	"robofed/pkg/retry"
	"robofed/pkg/utils"
)

// Broadcaster рассылает обновления биржи подписчикам (WebSocket hub)
type Broadcaster interface {
	BroadcastExchange(exchange models.Exchange)
}

// Poller периодически опрашивает /api/info всех включенных координаторов
// и пересчитывает агрегированную статистику биржи.
//
// Координаторы опрашиваются параллельно: один зависший onion не должен
// задерживать статистику остальных
type Poller struct {
	federation  *Federation
	settings    SettingsProvider
	broadcaster Broadcaster
	interval    time.Duration
	retryCfg    retry.Config
	logger      *utils.Logger
}

// NewPoller создает поллер статистики федерации.
// broadcaster может быть nil (без рассылки обновлений)
func NewPoller(fed *Federation, settings SettingsProvider, broadcaster Broadcaster, interval time.Duration, logger *utils.Logger) *Poller {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &Poller{
		federation:  fed,
		settings:    settings,
		broadcaster: broadcaster,
		interval:    interval,
		retryCfg:    retry.NetworkConfig(),
		logger:      logger,
	}
}

// Run запускает цикл опроса до отмены контекста.
// Первый раунд выполняется сразу, не дожидаясь первого тика
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("federation poller started",
		zap.Duration("interval", p.interval),
		zap.Int("coordinators", p.federation.Size()))

	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("federation poller stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce выполняет один раунд опроса всех координаторов
func (p *Poller) PollOnce(ctx context.Context) {
	settings := p.settings.Current()

	var wg sync.WaitGroup
	for _, coord := range p.federation.All() {
		if !coord.IsEnabled() {
			continue
		}

		wg.Add(1)
		go func(c *coordinator.Coordinator) {
			defer wg.Done()
			p.pollCoordinator(ctx, c, settings)
		}(coord)
	}
	wg.Wait()

	exchange := p.federation.AggregateInfo()
	coordinator.UpdateFederationStats(exchange.OnlineCoordinators, exchange.Info.BookLiquidity)

	if p.broadcaster != nil {
		p.broadcaster.BroadcastExchange(exchange)
	}
}

// pollCoordinator опрашивает одного координатора с retry
func (p *Poller) pollCoordinator(ctx context.Context, coord *coordinator.Coordinator, settings *models.Settings) {
	ep, err := coord.GetEndpoint(settings.Network, settings.Origin,
		settings.SelfhostedClient, settings.HostURL)
	if err != nil {
		coord.SetInfo(nil, err)
		coordinator.UpdateCoordinatorStatus(coord.ShortAlias, false)
		return
	}

	var info *models.CoordinatorInfo
	err = retry.Do(ctx, func() error {
		var ferr error
		info, ferr = coord.FetchInfo(ctx, ep)
		return ferr
	}, p.retryCfg)

	coord.SetInfo(info, err)
	coordinator.UpdateCoordinatorStatus(coord.ShortAlias, err == nil)

	if err != nil {
		p.logger.Warn("coordinator poll failed",
			zap.String("coordinator", coord.ShortAlias),
			zap.Error(err))
		return
	}

	p.logger.Debug("coordinator poll ok",
		zap.String("coordinator", coord.ShortAlias),
		zap.Int("buy_orders", info.NumPublicBuyOrders),
		zap.Int("sell_orders", info.NumPublicSellOrders))
}
