package coordinator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"robofed/internal/models"
)

// Пути REST API координатора
const (
	pathInfo    = "/api/info/"
	pathRobot   = "/api/robot/"
	pathOrder   = "/api/order/"
	pathMake    = "/api/make/"
	pathReward  = "/api/reward/"
	pathStealth = "/api/stealth/"
)

// RobotData — ответ координатора на запрос идентичности.
// Found=false означает что координатор видит робота впервые
type RobotData struct {
	Nickname      string `json:"nickname"`
	PubKey        string `json:"public_key"`
	EncPrivKey    string `json:"encrypted_private_key"`
	Found         bool   `json:"found"`
	ActiveOrderID int    `json:"active_order_id"`
	LastOrderID   int    `json:"last_order_id"`
	EarnedRewards int64  `json:"earned_rewards"`
	WantsStealth  bool   `json:"wants_stealth"`
	TgEnabled     bool   `json:"tg_enabled"`
	TgBotName     string `json:"tg_bot_name"`
	TgToken       string `json:"tg_token"`
	LastLogin     string `json:"last_login"`
}

// RewardResult — исход заявки на вывод наград
type RewardResult struct {
	SuccessfulWithdrawal bool   `json:"successful_withdrawal"`
	BadInvoice           string `json:"bad_invoice,omitempty"`
}

// OrderRequest — параметры создания ордера (используется при продлении)
type OrderRequest struct {
	Type          int     `json:"type"`
	Currency      int     `json:"currency"`
	Amount        float64 `json:"amount,omitempty"`
	HasRange      bool    `json:"has_range"`
	MinAmount     float64 `json:"min_amount,omitempty"`
	MaxAmount     float64 `json:"max_amount,omitempty"`
	PaymentMethod string  `json:"payment_method"`
	Premium       float64 `json:"premium,omitempty"`
	Satoshis      int64   `json:"satoshis,omitempty"`
}

// FetchInfo запрашивает публичную статистику координатора
func (c *Coordinator) FetchInfo(ctx context.Context, ep Endpoint) (_ *models.CoordinatorInfo, err error) {
	defer c.observe("info", time.Now(), &err)

	data, err := c.client.Get(ctx, ep.Base(), pathInfo, "")
	if err != nil {
		return nil, c.wrap("info", err)
	}

	var info models.CoordinatorInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, c.wrap("info", fmt.Errorf("decode response: %w", err))
	}
	return &info, nil
}

// FetchRobot запрашивает (или регистрирует) робота у координатора.
//
// Токен идентифицирует робота своим SHA-256 хешем в заголовке
// авторизации; публичный и зашифрованный приватный ключи передаются
// в теле, чтобы координатор сохранил их при первой встрече
func (c *Coordinator) FetchRobot(ctx context.Context, ep Endpoint, tokenHash, pubKey, encPrivKey string) (_ *RobotData, err error) {
	defer c.observe("robot", time.Now(), &err)

	payload := map[string]string{
		"public_key":            pubKey,
		"encrypted_private_key": encPrivKey,
	}

	data, err := c.client.Post(ctx, ep.Base(), pathRobot, payload, tokenHash)
	if err != nil {
		if IsBadRequest(err) {
			return nil, err
		}
		return nil, c.wrap("robot", err)
	}

	var robot RobotData
	if err := json.Unmarshal(data, &robot); err != nil {
		return nil, c.wrap("robot", fmt.Errorf("decode response: %w", err))
	}
	return &robot, nil
}

// FetchOrder запрашивает текущее состояние ордера
func (c *Coordinator) FetchOrder(ctx context.Context, ep Endpoint, orderID int, tokenHash string) (_ *models.Order, err error) {
	defer c.observe("order", time.Now(), &err)

	path := pathOrder + "?order_id=" + strconv.Itoa(orderID)
	data, err := c.client.Get(ctx, ep.Base(), path, tokenHash)
	if err != nil {
		if IsBadRequest(err) {
			return nil, err
		}
		return nil, c.wrap("order", err)
	}
	return c.decodeOrder(data, orderID)
}

// TakeOrder берет публичный ордер.
// amount передается только для ордеров с диапазоном
func (c *Coordinator) TakeOrder(ctx context.Context, ep Endpoint, orderID int, amount float64, tokenHash string) (_ *models.Order, err error) {
	defer c.observe("take", time.Now(), &err)

	payload := map[string]interface{}{
		"action": "take",
	}
	if amount > 0 {
		payload["amount"] = strconv.FormatFloat(amount, 'f', -1, 64)
	}

	path := pathOrder + "?order_id=" + strconv.Itoa(orderID)
	data, err := c.client.Post(ctx, ep.Base(), path, payload, tokenHash)
	if err != nil {
		if IsBadRequest(err) {
			return nil, err
		}
		return nil, c.wrap("take", err)
	}
	return c.decodeOrder(data, orderID)
}

// RenewOrder создает новый ордер с параметрами истекшего
func (c *Coordinator) RenewOrder(ctx context.Context, ep Endpoint, req OrderRequest, tokenHash string) (_ *models.Order, err error) {
	defer c.observe("renew", time.Now(), &err)

	data, err := c.client.Post(ctx, ep.Base(), pathMake, req, tokenHash)
	if err != nil {
		if IsBadRequest(err) {
			return nil, err
		}
		return nil, c.wrap("renew", err)
	}
	return c.decodeOrder(data, 0)
}

// FetchReward подает подписанный инвойс на вывод накопленных наград
func (c *Coordinator) FetchReward(ctx context.Context, ep Endpoint, signedInvoice, tokenHash string) (_ *RewardResult, err error) {
	defer c.observe("reward", time.Now(), &err)

	payload := map[string]string{"invoice": signedInvoice}

	data, err := c.client.Post(ctx, ep.Base(), pathReward, payload, tokenHash)
	if err != nil && !IsBadRequest(err) {
		return nil, c.wrap("reward", err)
	}
	// bad_request здесь не ошибка транспорта: тело все равно содержит
	// bad_invoice с причиной отказа

	var result RewardResult
	if len(data) > 0 {
		if derr := json.Unmarshal(data, &result); derr != nil {
			return nil, c.wrap("reward", fmt.Errorf("decode response: %w", derr))
		}
	}
	if err != nil && result.BadInvoice == "" {
		return nil, err
	}
	return &result, nil
}

// SetStealth переключает режим инвойсов без описания.
// Возвращает подтвержденное координатором значение
func (c *Coordinator) SetStealth(ctx context.Context, ep Endpoint, wantsStealth bool, tokenHash string) (_ bool, err error) {
	defer c.observe("stealth", time.Now(), &err)

	payload := map[string]bool{"wantsStealth": wantsStealth}

	data, err := c.client.Post(ctx, ep.Base(), pathStealth, payload, tokenHash)
	if err != nil {
		if IsBadRequest(err) {
			return false, err
		}
		return false, c.wrap("stealth", err)
	}

	var resp struct {
		WantsStealth bool `json:"wantsStealth"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, c.wrap("stealth", fmt.Errorf("decode response: %w", err))
	}
	return resp.WantsStealth, nil
}

// decodeOrder разбирает ордер и помечает его алиасом координатора.
// Инвариант: ордер всегда несет short alias вернувшего его координатора
func (c *Coordinator) decodeOrder(data []byte, fallbackID int) (*models.Order, error) {
	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, c.wrap("order", fmt.Errorf("decode response: %w", err))
	}
	if order.ID == 0 {
		order.ID = fallbackID
	}
	order.ShortAlias = c.ShortAlias
	return &order, nil
}

func (c *Coordinator) wrap(op string, err error) error {
	return &TransportError{Coordinator: c.ShortAlias, Op: op, Err: err}
}

// observe записывает метрики операции (вызывается через defer)
func (c *Coordinator) observe(op string, start time.Time, err *error) {
	RecordRequest(c.ShortAlias, op, *err, time.Since(start).Seconds())
}

