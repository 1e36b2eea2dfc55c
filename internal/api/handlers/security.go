// security.go — обработчики /v1/security: журнал антивирусных проверок.
// Доступ только для staff (RequireStaff в роутере).
package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/George-Hudson/TANF-app/internal/api/errors"
	"github.com/George-Hudson/TANF-app/internal/domain/model"
	"github.com/George-Hudson/TANF-app/internal/repository"
)

// scanResponse — представление записи сканирования в API.
type scanResponse struct {
	ID           int64     `json:"id"`
	ScannedAt    time.Time `json:"scanned_at"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	FileShasum   string    `json:"file_shasum"`
	Result       string    `json:"result"`
	UploadedByID *string   `json:"uploaded_by_id,omitempty"`
	DataFileID   *string   `json:"data_file_id,omitempty"`
}

func mapScan(s *model.ClamAVFileScan) scanResponse {
	return scanResponse{
		ID:           s.ID,
		ScannedAt:    s.ScannedAt,
		FileName:     s.FileName,
		FileSize:     s.FileSize,
		FileShasum:   s.FileShasum,
		Result:       string(s.Result),
		UploadedByID: s.UploadedByID,
		DataFileID:   s.DataFileID,
	}
}

// ListScans — GET /v1/security/scans.
// Журнал антивирусных проверок с фильтрацией по результату и
// загрузившему пользователю.
func (h *APIHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	filters := repository.ScanListFilters{}
	if v := r.URL.Query().Get("result"); v != "" {
		result := model.ScanResult(v)
		if !result.IsValid() {
			apierrors.BadRequest(w, "Недопустимое значение result: ожидается CLEAN, INFECTED или ERROR")
			return
		}
		filters.Result = &result
	}
	if v := r.URL.Query().Get("uploaded_by"); v != "" {
		filters.UploadedByID = &v
	}

	scans, total, err := h.scans.ListScans(r.Context(), filters, limit, offset)
	if err != nil {
		h.logger.Error("Ошибка получения журнала сканирований", "error", err)
		apierrors.InternalError(w, "Ошибка получения журнала сканирований")
		return
	}

	items := make([]scanResponse, len(scans))
	for i, s := range scans {
		items[i] = mapScan(s)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":    items,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": offset+limit < total,
	})
}
