// data_files.go — обработчики /v1/data_files.
// Загрузка файлов данных с антивирусной проверкой и листинг своих файлов.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/George-Hudson/TANF-app/internal/api/errors"
	"github.com/George-Hudson/TANF-app/internal/api/middleware"
	"github.com/George-Hudson/TANF-app/internal/domain/model"
	"github.com/George-Hudson/TANF-app/internal/service"
)

// maxUploadSize — предел размера загружаемого файла (64 MiB).
const maxUploadSize = 64 << 20

// dataFileResponse — представление файла данных в API.
type dataFileResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	Extension        string    `json:"extension"`
	Slug             string    `json:"slug"`
	Year             int       `json:"year"`
	Quarter          string    `json:"quarter"`
	Section          string    `json:"section"`
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
}

func mapDataFile(f *model.DataFile) dataFileResponse {
	return dataFileResponse{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		Extension:        f.Extension,
		Slug:             f.Slug,
		Year:             f.Year,
		Quarter:          f.Quarter,
		Section:          f.Section,
		Version:          f.Version,
		CreatedAt:        f.CreatedAt,
	}
}

// UploadDataFile — POST /v1/data_files (multipart/form-data).
// Поля: file, year, quarter, section. Файл проверяется антивирусом;
// заражённый или непроверенный файл отклоняется, но результат проверки
// записывается в любом случае.
func (h *APIHandler) UploadDataFile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Authentication credentials were not provided.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		apierrors.BadRequest(w, "Некорректный multipart запрос: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.BadRequest(w, "Поле file обязательно")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Ошибка чтения загружаемого файла", "error", err)
		apierrors.InternalError(w, "Ошибка чтения загружаемого файла")
		return
	}

	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil {
		apierrors.BadRequest(w, "Поле year должно быть числом")
		return
	}

	req := &service.UploadRequest{
		FileName: header.Filename,
		Content:  content,
		Year:     year,
		Quarter:  r.FormValue("quarter"),
		Section:  r.FormValue("section"),
	}

	dataFile, scan, err := h.dataFiles.Upload(r.Context(), req, user)
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.BadRequest(w, err.Error())
		return
	case errors.Is(err, service.ErrInfectedFile):
		h.logger.Warn("Загрузка заражённого файла отклонена",
			"file_name", header.Filename,
			"user_id", user.ID,
			"scan_id", scan.ID,
		)
		apierrors.BadRequest(w, "Файл не прошёл антивирусную проверку")
		return
	case errors.Is(err, service.ErrScanUnavailable):
		apierrors.WriteError(w, http.StatusServiceUnavailable, "Антивирусная проверка недоступна, повторите позже")
		return
	case err != nil:
		h.logger.Error("Ошибка загрузки файла данных",
			"file_name", header.Filename,
			"user_id", user.ID,
			"error", err,
		)
		apierrors.InternalError(w, "Ошибка загрузки файла данных")
		return
	}

	writeJSON(w, http.StatusCreated, mapDataFile(dataFile))
}

// GetDataFile — GET /v1/data_files/{id}.
// Метаданные файла. Обычный пользователь видит только свои файлы.
func (h *APIHandler) GetDataFile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Authentication credentials were not provided.")
		return
	}

	id := chi.URLParam(r, "id")
	f, err := h.dataFiles.Get(r.Context(), id, user)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Файл данных не найден")
			return
		}
		h.logger.Error("Ошибка получения файла данных", "data_file_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка получения файла данных")
		return
	}

	writeJSON(w, http.StatusOK, mapDataFile(f))
}

// ListDataFiles — GET /v1/data_files.
// Список файлов текущего пользователя.
func (h *APIHandler) ListDataFiles(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Authentication credentials were not provided.")
		return
	}

	limit, offset := paginationParams(r)
	files, err := h.dataFiles.ListByUser(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.logger.Error("Ошибка получения списка файлов данных", "user_id", user.ID, "error", err)
		apierrors.InternalError(w, "Ошибка получения списка файлов данных")
		return
	}

	items := make([]dataFileResponse, len(files))
	for i, f := range files {
		items[i] = mapDataFile(f)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}
