package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"robofed/internal/coordinator"
	"robofed/internal/federation"
	"robofed/internal/garage"
	"robofed/internal/models"
	"robofed/pkg/crypto"
	"robofed/pkg/utils"
)

// Ошибки сервиса наград
var (
	ErrNoRewards     = errors.New("robot has no earned rewards")
	ErrClaimInFlight = errors.New("reward claim already in flight for this slot")
	ErrBadInvoice    = errors.New("coordinator rejected the invoice")
)

// RewardService — вывод накопленных компенсаций.
//
// Инвойс подписывается ключом робота (координатор проверяет подпись
// против сохраненного публичного ключа), поэтому токен слота нужен
// для расшифровки приватного ключа. Один слот — не более одной
// заявки в полете: двойная подача одного баланса исключена
type RewardService struct {
	federation *federation.Federation
	garage     *garage.Garage
	settings   SettingsServiceInterface
	logger     *utils.Logger

	mu       sync.Mutex
	inFlight map[int]bool // слоты с активной заявкой
}

// NewRewardService создает сервис наград
func NewRewardService(fed *federation.Federation, g *garage.Garage, settings SettingsServiceInterface, logger *utils.Logger) *RewardService {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &RewardService{
		federation: fed,
		garage:     g,
		settings:   settings,
		logger:     logger,
		inFlight:   make(map[int]bool),
	}
}

// ClaimReward подает lightning-инвойс на вывод наград робота слота.
//
// При успехе баланс наград слота обнуляется. Отказ координатора по
// инвойсу возвращается как ErrBadInvoice с причиной в цепочке ошибки
func (s *RewardService) ClaimReward(ctx context.Context, slotIndex int, shortAlias, invoice string) error {
	robot, err := s.readyRobot(slotIndex)
	if err != nil {
		return err
	}
	if robot.EarnedRewards <= 0 {
		return ErrNoRewards
	}

	if !s.acquire(slotIndex) {
		return ErrClaimInFlight
	}
	defer s.release(slotIndex)

	coord, err := s.federation.Get(shortAlias)
	if err != nil {
		return err
	}

	ep, err := s.endpoint(coord)
	if err != nil {
		return err
	}

	signed, err := crypto.SignCleartext(invoice, robot.EncPrivKey, robot.Token)
	if err != nil {
		return err
	}

	amount := robot.EarnedRewards
	result, err := coord.FetchReward(ctx, ep, signed, robot.TokenSHA256)
	if err != nil {
		return err
	}

	if !result.SuccessfulWithdrawal {
		if result.BadInvoice != "" {
			return &InvoiceError{Reason: result.BadInvoice}
		}
		return ErrBadInvoice
	}

	if err := s.garage.UpdateRobot(slotIndex, func(r *models.Robot) {
		r.EarnedRewards = 0
	}); err != nil {
		return err
	}

	coordinator.RewardsClaimed.Add(float64(amount))
	s.logger.Info("reward claimed",
		zap.Int("slot", slotIndex),
		zap.String("coordinator", shortAlias),
		zap.Int64("amount_sats", amount))

	return nil
}

// SetStealth переключает режим инвойсов без описания для робота слота
func (s *RewardService) SetStealth(ctx context.Context, slotIndex int, shortAlias string, wantsStealth bool) error {
	robot, err := s.readyRobot(slotIndex)
	if err != nil {
		return err
	}

	coord, err := s.federation.Get(shortAlias)
	if err != nil {
		return err
	}

	ep, err := s.endpoint(coord)
	if err != nil {
		return err
	}

	confirmed, err := coord.SetStealth(ctx, ep, wantsStealth, robot.TokenSHA256)
	if err != nil {
		return err
	}

	return s.garage.UpdateRobot(slotIndex, func(r *models.Robot) {
		r.StealthInvoices = confirmed
	})
}

// InvoiceError — отказ координатора по конкретному инвойсу
type InvoiceError struct {
	Reason string
}

func (e *InvoiceError) Error() string {
	return "coordinator rejected the invoice: " + e.Reason
}

// Is позволяет матчить InvoiceError через errors.Is(err, ErrBadInvoice)
func (e *InvoiceError) Is(target error) bool {
	return target == ErrBadInvoice
}

func (s *RewardService) acquire(slotIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[slotIndex] {
		return false
	}
	s.inFlight[slotIndex] = true
	return true
}

func (s *RewardService) release(slotIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, slotIndex)
}

func (s *RewardService) readyRobot(slotIndex int) (*models.Robot, error) {
	slot, err := s.garage.GetSlot(slotIndex)
	if err != nil {
		return nil, err
	}
	if !garage.IsReady(slot.State) || slot.Robot == nil {
		return nil, ErrRobotNotReady
	}
	return slot.Robot, nil
}

func (s *RewardService) endpoint(coord *coordinator.Coordinator) (coordinator.Endpoint, error) {
	settings := s.settings.Current()
	return coord.GetEndpoint(settings.Network, settings.Origin,
		settings.SelfhostedClient, settings.HostURL)
}
