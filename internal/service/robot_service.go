package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"robofed/internal/coordinator"
	"robofed/internal/federation"
	"robofed/internal/garage"
	"robofed/internal/models"
	"robofed/pkg/crypto"
	"robofed/pkg/retry"
	"robofed/pkg/utils"
)

// RobotService реконструирует торговые идентичности по токенам.
//
// Поток GenerateRobot:
//  1. локальная деривация (никнейм, ключи) — мгновенно и детерминированно
//  2. слот переходит в GENERATING, выдается новое поколение
//  3. запрос к сфокусированному координатору (с retry на транспортных ошибках)
//  4. ответ применяется через поколение: если за время полета слот
//     перегенерировали новым токеном, устаревший ответ отбрасывается молча
type RobotService struct {
	federation *federation.Federation
	garage     *garage.Garage
	slotRepo   SlotRepositoryInterface
	settings   SettingsServiceInterface
	retryCfg   retry.Config
	logger     *utils.Logger
}

// NewRobotService создает сервис роботов.
// slotRepo может быть nil - гараж тогда живет только в памяти
func NewRobotService(fed *federation.Federation, g *garage.Garage, slotRepo SlotRepositoryInterface, settings SettingsServiceInterface, logger *utils.Logger) *RobotService {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}

	cfg := retry.DefaultConfig()
	// BadRequest координатора не лечится повтором
	cfg.RetryIf = coordinator.IsTransport

	return &RobotService{
		federation: fed,
		garage:     g,
		slotRepo:   slotRepo,
		settings:   settings,
		retryCfg:   cfg,
		logger:     logger,
	}
}

// GenerateRobot реконструирует робота слота по токену.
//
// Возвращает снимок слота после применения результата. Если за время
// запроса слот был перегенерирован (supersession), результат этого
// вызова отброшен и возвращается актуальное состояние слота
func (s *RobotService) GenerateRobot(ctx context.Context, slotIndex int, token string) (models.Slot, error) {
	if err := crypto.ValidateToken(token); err != nil {
		return models.Slot{}, err
	}

	identity, err := crypto.DeriveIdentity(token)
	if err != nil {
		return models.Slot{}, err
	}

	generation, err := s.garage.NextGeneration(slotIndex)
	if err != nil {
		return models.Slot{}, err
	}

	// Локальная часть идентичности видна сразу, до ответа координатора
	s.garage.TryApply(slotIndex, generation, func(slot *models.Slot) {
		slot.State = models.SlotStateGenerating
		slot.Robot = &models.Robot{
			Token:       token,
			Nickname:    identity.Nickname,
			AvatarSeed:  identity.AvatarSeed,
			TokenSHA256: identity.TokenSHA256,
			PubKey:      identity.PubKey,
			EncPrivKey:  identity.EncPrivKey,
		}
		slot.Order = nil
	})

	remote, err := s.fetchRemote(ctx, identity)
	if err != nil {
		s.garage.TryApply(slotIndex, generation, func(slot *models.Slot) {
			slot.State = models.SlotStateError
			slot.Robot.LastError = err.Error()
		})
		current, getErr := s.garage.GetSlot(slotIndex)
		if getErr != nil {
			return models.Slot{}, getErr
		}
		return current, err
	}

	applied := s.garage.TryApply(slotIndex, generation, func(slot *models.Slot) {
		slot.State = models.SlotStateFound
		robot := slot.Robot
		robot.Found = remote.Found
		robot.ActiveOrderID = remote.ActiveOrderID
		robot.LastOrderID = remote.LastOrderID
		robot.EarnedRewards = remote.EarnedRewards
		robot.StealthInvoices = remote.WantsStealth
		robot.TgEnabled = remote.TgEnabled
		robot.TgBotName = remote.TgBotName
		robot.TgToken = remote.TgToken
		robot.LastError = ""
	})

	if applied {
		s.logger.Info("robot generated",
			zap.Int("slot", slotIndex),
			zap.String("nickname", identity.Nickname),
			zap.Bool("found", remote.Found))
		s.persistBestEffort()
	} else {
		s.logger.Debug("robot response superseded",
			zap.Int("slot", slotIndex),
			zap.String("nickname", identity.Nickname))
	}

	return s.garage.GetSlot(slotIndex)
}

// fetchRemote запрашивает робота у сфокусированного координатора
func (s *RobotService) fetchRemote(ctx context.Context, identity *crypto.Identity) (*coordinator.RobotData, error) {
	coord, err := s.federation.Focused()
	if err != nil {
		return nil, err
	}

	settings := s.settings.Current()
	ep, err := coord.GetEndpoint(settings.Network, settings.Origin,
		settings.SelfhostedClient, settings.HostURL)
	if err != nil {
		return nil, err
	}

	var remote *coordinator.RobotData
	err = retry.Do(ctx, func() error {
		var ferr error
		remote, ferr = coord.FetchRobot(ctx, ep, identity.TokenSHA256, identity.PubKey, identity.EncPrivKey)
		return ferr
	}, s.retryCfg)
	if err != nil {
		return nil, err
	}
	return remote, nil
}

// PersistGarage сохраняет все слоты в БД
func (s *RobotService) PersistGarage() error {
	if s.slotRepo == nil {
		return nil
	}
	return s.slotRepo.SaveAll(s.garage.AllSlots())
}

// RestoreGarage загружает слоты из БД в память
func (s *RobotService) RestoreGarage() error {
	if s.slotRepo == nil {
		return nil
	}
	slots, err := s.slotRepo.GetAll()
	if err != nil {
		return err
	}
	s.garage.Restore(slots)
	return nil
}

// DeleteGarage очищает гараж в памяти и в БД
func (s *RobotService) DeleteGarage() error {
	s.garage.DeleteAll()
	if s.slotRepo == nil {
		return nil
	}
	if err := s.slotRepo.DeleteAll(); err != nil {
		return fmt.Errorf("delete persisted garage: %w", err)
	}
	return nil
}

// persistBestEffort сохраняет гараж, не прерывая основной поток при ошибке БД
func (s *RobotService) persistBestEffort() {
	if err := s.PersistGarage(); err != nil {
		s.logger.Warn("garage persist failed", zap.Error(err))
	}
}
