package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"traffic-counter-go/pkg/models"
)

func main() {
	baseURL := "http://localhost:8080"
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}
	client := &http.Client{Timeout: 30 * time.Second}

	// Проверяем health endpoint
	fmt.Println("Проверяем health endpoint...")
	status, body, err := do(client, http.MethodGet, baseURL+"/api/v1/health", nil)
	if err != nil {
		fmt.Printf("Ошибка при обращении к health endpoint: %v\n", err)
		return
	}
	fmt.Printf("Health check ответ (статус %d):\n%s\n\n", status, body)

	if err := testCounting(client, baseURL); err != nil {
		fmt.Printf("Ошибка при тестировании подсчета: %v\n", err)
	}
}

// testCounting открывает сессию, отправляет машину, проезжающую линию сверху вниз,
// и печатает итоговые счетчики
func testCounting(client *http.Client, baseURL string) error {
	status, body, err := do(client, http.MethodPost, baseURL+"/api/v1/sessions", map[string]any{
		"name":                 "test client",
		"confidence_threshold": 0.1,
		"line_ratio":           0.6,
	})
	if err != nil {
		return fmt.Errorf("ошибка открытия сессии: %w", err)
	}
	if status != http.StatusCreated {
		return fmt.Errorf("сессия не открыта (статус %d): %s", status, body)
	}

	var session struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return fmt.Errorf("ошибка разбора ответа: %w", err)
	}
	fmt.Printf("Открыта сессия %s\n", session.ID)

	// Линия на высоте 432 для кадра 1280x720
	for _, bottom := range []float64{380, 420, 440, 470} {
		frame := models.FrameBatch{
			Width:  1280,
			Height: 720,
			Detections: []models.Detection{
				{Box: [4]float64{100, bottom - 40, 200, bottom}, TrackID: 7, ClassID: 2, Confidence: 0.9},
			},
		}

		status, body, err := do(client, http.MethodPost, baseURL+"/api/v1/sessions/"+session.ID+"/frames", frame)
		if err != nil {
			return fmt.Errorf("ошибка отправки кадра: %w", err)
		}
		fmt.Printf("Кадр (низ рамки %.0f), статус %d:\n%s\n", bottom, status, body)
	}

	status, body, err = do(client, http.MethodPost, baseURL+"/api/v1/sessions/"+session.ID+"/stop", nil)
	if err != nil {
		return fmt.Errorf("ошибка остановки сессии: %w", err)
	}
	fmt.Printf("Итоги сессии (статус %d):\n%s\n", status, body)
	return nil
}

func do(client *http.Client, method, url string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	return resp.StatusCode, body, nil
}
