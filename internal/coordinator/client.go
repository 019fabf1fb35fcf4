package coordinator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"robofed/pkg/ratelimit"
	"robofed/pkg/utils"
)

// json - быстрый codec, совместимый с encoding/json
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxResponseSize ограничивает размер ответа координатора (1 MB)
// Книга ордеров больших координаторов не превышает сотен килобайт
const maxResponseSize = 1 << 20

// Client - низкоуровневый транспорт к REST API координаторов
//
// Отвечает за:
//   - rate limiting исходящих запросов
//   - заголовок авторизации (SHA-256 хеш токена робота)
//   - декодирование прикладных отказов (bad_request)
//
// Привязки к конкретному координатору нет: базовый URL передаётся
// в каждый вызов, что позволяет одному клиенту (и одному connection
// pool) обслуживать всю федерацию
type Client struct {
	httpClient *HTTPClient
	limiter    *ratelimit.RateLimiter
	logger     *utils.Logger
}

// NewClient создаёт транспортный клиент
//
// limiter и logger могут быть nil: без лимитера запросы идут без
// ограничений, без логгера используется глобальный
func NewClient(httpClient *HTTPClient, limiter *ratelimit.RateLimiter, logger *utils.Logger) *Client {
	if httpClient == nil {
		httpClient = GetGlobalHTTPClient()
	}
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}
}

// Get выполняет GET запрос к координатору
//
// tokenHash - SHA-256 хеш токена робота (hex) для заголовка
// Authorization; пустая строка = запрос без авторизации
func (c *Client) Get(ctx context.Context, baseURL, path, tokenHash string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, baseURL, path, nil, tokenHash)
}

// Post выполняет POST запрос с JSON телом
func (c *Client) Post(ctx context.Context, baseURL, path string, payload interface{}, tokenHash string) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}
	return c.do(ctx, http.MethodPost, baseURL, path, body, tokenHash)
}

func (c *Client) do(ctx context.Context, method, baseURL, path string, body []byte, tokenHash string) ([]byte, error) {
	if baseURL == "" {
		return nil, ErrNoEndpoint
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tokenHash != "" {
		req.Header.Set("Authorization", "Token "+tokenHash)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug("coordinator request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("coordinator returned HTTP %d", resp.StatusCode)
	}

	// Координаторы сообщают прикладные отказы полем bad_request,
	// обычно вместе с HTTP 400, но иногда и с 200
	var probe struct {
		BadRequest string `json:"bad_request"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &probe); err == nil && probe.BadRequest != "" {
			return data, &BadRequestError{Reason: probe.BadRequest}
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("coordinator returned HTTP %d", resp.StatusCode)
	}

	if len(data) == 0 {
		return nil, ErrEmptyResponse
	}

	return data, nil
}
