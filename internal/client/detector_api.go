package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"traffic-counter-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// Статусы ответа сервиса детекции
const (
	statusSuccess     = "success"
	statusEndOfStream = "end_of_stream"
)

// DetectorAPIClient клиент для взаимодействия с сервисом детекции и трекинга.
// Сервис сам декодирует видео и прогоняет кадры через модель, сюда приходят только детекции.
type DetectorAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewDetectorAPIClient создает новый клиент для сервиса детекции
func NewDetectorAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *DetectorAPIClient {
	return &DetectorAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// NextFrame запрашивает детекции следующего кадра потока.
// Когда кадры закончились, возвращает io.EOF.
func (c *DetectorAPIClient) NextFrame(ctx context.Context, streamID string) (*models.DetectorFrameResponse, error) {
	endpoint := fmt.Sprintf("%s/streams/%s/next", c.baseURL, url.PathEscape(streamID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	c.logger.Debugf("Отправка GET запроса на %s", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	// Пустой ответ означает конец потока
	if resp.StatusCode == http.StatusNoContent {
		return nil, io.EOF
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервис детекции вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var frame models.DetectorFrameResponse
	if err := json.Unmarshal(respBody, &frame); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	switch frame.Status {
	case statusSuccess, "":
		return &frame, nil
	case statusEndOfStream:
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("сервис детекции вернул ошибку: %s", frame.Message)
	}
}

// CheckHealth проверяет состояние сервиса детекции
func (c *DetectorAPIClient) CheckHealth(ctx context.Context) (*models.HealthResponse, error) {
	c.logger.Debug("Проверка здоровья сервиса детекции")

	endpoint := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервис детекции вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var healthResponse models.HealthResponse
	if err := json.Unmarshal(respBody, &healthResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	return &healthResponse, nil
}
