// scan.go — антивирусная проверка загруженных файлов с обязательной
// записью результата и следа в журнале аудита.
package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
	"github.com/George-Hudson/TANF-app/internal/repository"
)

// Scanner — антивирусный сканер. Реализуется clamav.Client.
type Scanner interface {
	Scan(ctx context.Context, content io.Reader, filename string) (model.ScanResult, error)
}

// ScanService — проверка файлов и запись результатов.
// Результат записывается ВСЕГДА, включая сбои сканера: непроверенный
// файл должен оставлять след так же, как заражённый.
type ScanService struct {
	scanner Scanner
	scans   repository.ClamAVScanRepository
	logger  *slog.Logger
}

// NewScanService создаёт сервис проверки файлов.
func NewScanService(scanner Scanner, scans repository.ClamAVScanRepository, logger *slog.Logger) *ScanService {
	return &ScanService{
		scanner: scanner,
		scans:   scans,
		logger:  logger.With(slog.String("component", "scan_service")),
	}
}

// ComputeShasum возвращает SHA-256 содержимого в hex.
// Если содержимое прочитать не удалось — sentinel "INVALID":
// отсутствие хеша не должно блокировать запись результата проверки.
func ComputeShasum(content io.Reader) string {
	h := sha256.New()
	if _, err := io.Copy(h, content); err != nil {
		return model.InvalidShasum
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ScanFile проверяет содержимое файла и атомарно записывает результат
// вместе с записью аудита. Ошибка сканера не прерывает запись:
// фиксируется результат ERROR.
func (s *ScanService) ScanFile(ctx context.Context, content []byte, fileName string, uploadedByID *string) (*model.ClamAVFileScan, error) {
	result, scanErr := s.scanner.Scan(ctx, bytes.NewReader(content), fileName)
	if scanErr != nil {
		s.logger.Error("Сканирование не выполнено",
			slog.String("file_name", fileName),
			slog.String("error", scanErr.Error()),
		)
		result = model.ScanResultError
	}

	scan := &model.ClamAVFileScan{
		FileName:     fileName,
		FileSize:     int64(len(content)),
		FileShasum:   ComputeShasum(bytes.NewReader(content)),
		Result:       result,
		UploadedByID: uploadedByID,
	}

	entry := &model.LogEntry{
		UserID:        uploadedByID,
		ContentType:   "clamavfilescan",
		ActionFlag:    model.LogActionAddition,
		ChangeMessage: fmt.Sprintf("Uploaded file scanned with result %s", result),
	}

	if err := s.scans.RecordScan(ctx, scan, entry); err != nil {
		return nil, fmt.Errorf("ошибка записи результата сканирования: %w", err)
	}

	s.logger.Info("Файл проверен",
		slog.Int64("scan_id", scan.ID),
		slog.String("file_name", fileName),
		slog.String("result", string(result)),
	)
	return scan, nil
}

// LinkDataFile привязывает выполненный скан к сохранённому файлу данных.
func (s *ScanService) LinkDataFile(ctx context.Context, scanID int64, dataFileID string) error {
	return s.scans.LinkDataFile(ctx, scanID, dataFileID)
}

// ListScans возвращает результаты сканирований с фильтрацией.
func (s *ScanService) ListScans(ctx context.Context, filters repository.ScanListFilters, limit, offset int) ([]*model.ClamAVFileScan, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	scans, err := s.scans.List(ctx, filters, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.scans.Count(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	return scans, total, nil
}
