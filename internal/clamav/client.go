// Пакет clamav — HTTP-клиент антивирусного сканера (ClamAV REST).
// Файл отправляется multipart/form-data на endpoint сканера; результат
// определяется статус-кодом ответа: 200 — чистый, 406 — найден вирус.
package clamav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
)

// Client — HTTP-клиент ClamAV REST.
type Client struct {
	httpClient *http.Client
	scanURL    string
	logger     *slog.Logger
}

// New создаёт клиент сканера.
// scanURL — полный URL endpoint сканирования (TDP_AV_SCAN_URL).
func New(scanURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		scanURL:    scanURL,
		logger:     logger.With(slog.String("component", "clamav_client")),
	}
}

// Scan отправляет содержимое файла на проверку.
// Возвращает ScanResultError вместе с ошибкой, если сканер недоступен
// или вернул неожиданный статус: файл при этом считается непроверенным.
func (c *Client) Scan(ctx context.Context, content io.Reader, filename string) (model.ScanResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return model.ScanResultError, fmt.Errorf("ошибка создания multipart-формы: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return model.ScanResultError, fmt.Errorf("ошибка записи файла в форму: %w", err)
	}
	if err := writer.Close(); err != nil {
		return model.ScanResultError, fmt.Errorf("ошибка завершения multipart-формы: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scanURL, body)
	if err != nil {
		return model.ScanResultError, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.ScanResultError, fmt.Errorf("сканер недоступен: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return model.ScanResultClean, nil
	case http.StatusNotAcceptable:
		c.logger.Warn("Сканер обнаружил вирус",
			slog.String("file_name", filename),
		)
		return model.ScanResultInfected, nil
	default:
		return model.ScanResultError, fmt.Errorf("сканер вернул неожиданный статус %d", resp.StatusCode)
	}
}

// CheckReady проверяет доступность сканера для health endpoint.
func (c *Client) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.scanURL, http.NoBody)
	if err != nil {
		return "fail", "ошибка создания запроса: " + err.Error()
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "fail", fmt.Sprintf("сканер недоступен: %v", err)
	}
	defer resp.Body.Close()

	// Любой ответ означает, что процесс сканера жив
	return "ok", fmt.Sprintf("сканер отвечает, статус %d", resp.StatusCode)
}
