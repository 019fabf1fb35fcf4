package federation

import (
	"robofed/internal/models"
	"robofed/pkg/utils"
)

// AggregateInfo пересчитывает статистику биржи из состояний координаторов.
//
// Правила агрегации:
//   - счетчики и объемы суммируются
//   - премия — среднее, взвешенное по суточному объему координатора;
//     при нулевом суммарном объеме — невзвешенное среднее
//   - версия — максимальная из версий (major, minor, patch)
//
// Участвуют только включенные координаторы с успешным последним опросом.
// Результат производный: нигде не хранится, каждый вызов считает заново
func (f *Federation) AggregateInfo() models.Exchange {
	coords := f.All()

	var info models.ExchangeInfo
	online := 0

	premiums := make([]float64, 0, len(coords))
	weights := make([]float64, 0, len(coords))

	for _, coord := range coords {
		if !coord.IsEnabled() {
			continue
		}
		ci := coord.Info()
		if ci == nil {
			continue
		}

		online++

		info.NumPublicBuyOrders += ci.NumPublicBuyOrders
		info.NumPublicSellOrders += ci.NumPublicSellOrders
		info.BookLiquidity += ci.BookLiquidity
		info.ActiveRobotsToday += ci.ActiveRobotsToday
		info.LastDayVolume += ci.LastDayVolume
		info.LifetimeVolume += ci.LifetimeVolume

		info.Version = models.HigherVersion(info.Version, ci.Version)

		premiums = append(premiums, ci.LastDayNonkycBtcPremium)
		weights = append(weights, ci.LastDayVolume)
	}

	info.LastDayNonkycBtcPremium = utils.WeightedMean(premiums, weights)

	return models.Exchange{
		Info:               info,
		OnlineCoordinators: online,
		TotalCoordinators:  len(coords),
	}
}
