// datafiles.go — загрузка файлов данных: проверка антивирусом,
// сохранение в S3 и регистрация версии.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
	"github.com/George-Hudson/TANF-app/internal/repository"
	"github.com/George-Hudson/TANF-app/internal/storage"
)

// Кварталы отчётных периодов.
var validQuarters = map[string]bool{"Q1": true, "Q2": true, "Q3": true, "Q4": true}

// validSections — допустимые секции файлов данных.
var validSections = map[string]bool{
	model.SectionActiveCase:    true,
	model.SectionClosedCase:    true,
	model.SectionAggregateData: true,
	model.SectionStratumData:   true,
}

// DataFilesService — бизнес-логика файлов данных.
type DataFilesService struct {
	scans  *ScanService
	files  repository.DataFileRepository
	store  storage.ObjectStore
	logger *slog.Logger
}

// NewDataFilesService создаёт сервис файлов данных.
func NewDataFilesService(scans *ScanService, files repository.DataFileRepository, store storage.ObjectStore, logger *slog.Logger) *DataFilesService {
	return &DataFilesService{
		scans:  scans,
		files:  files,
		store:  store,
		logger: logger.With(slog.String("component", "datafiles_service")),
	}
}

// UploadRequest — параметры загрузки файла данных.
type UploadRequest struct {
	// FileName — исходное имя загруженного файла.
	FileName string
	// Content — содержимое файла.
	Content []byte
	// Year — отчётный год.
	Year int
	// Quarter — отчётный квартал (Q1..Q4).
	Quarter string
	// Section — секция данных.
	Section string
}

// Validate проверяет параметры загрузки.
func (r *UploadRequest) Validate() error {
	if r.FileName == "" {
		return fmt.Errorf("%w: имя файла не задано", ErrValidation)
	}
	if len(r.Content) == 0 {
		return fmt.Errorf("%w: пустой файл", ErrValidation)
	}
	if r.Year < 1998 {
		return fmt.Errorf("%w: некорректный отчётный год %d", ErrValidation, r.Year)
	}
	if !validQuarters[r.Quarter] {
		return fmt.Errorf("%w: некорректный квартал %q", ErrValidation, r.Quarter)
	}
	if !validSections[r.Section] {
		return fmt.Errorf("%w: некорректная секция %q", ErrValidation, r.Section)
	}
	return nil
}

// Upload проверяет файл антивирусом и при чистом результате сохраняет
// его в хранилище и регистрирует новую версию для отчётного периода.
// Результат проверки записывается в любом случае; заражённый или
// непроверенный файл в хранилище не попадает.
func (d *DataFilesService) Upload(ctx context.Context, req *UploadRequest, user *model.User) (*model.DataFile, *model.ClamAVFileScan, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	scan, err := d.scans.ScanFile(ctx, req.Content, req.FileName, &user.ID)
	if err != nil {
		return nil, nil, err
	}

	switch scan.Result {
	case model.ScanResultInfected:
		return nil, scan, ErrInfectedFile
	case model.ScanResultError:
		return nil, scan, ErrScanUnavailable
	}

	file := &model.DataFile{
		OriginalFilename: req.FileName,
		Extension:        fileExtension(req.FileName),
		Slug:             buildSlug(req.Year, req.Quarter, req.FileName),
		Quarter:          req.Quarter,
		Year:             req.Year,
		Section:          req.Section,
		UserID:           &user.ID,
	}
	if err := d.files.Create(ctx, file); err != nil {
		return nil, scan, fmt.Errorf("ошибка регистрации файла данных: %w", err)
	}

	if err := d.scans.LinkDataFile(ctx, scan.ID, file.ID); err != nil {
		// Привязка не влияет на доступность файла, вход в аудит уже есть
		d.logger.Warn("Не удалось привязать скан к файлу данных",
			slog.Int64("scan_id", scan.ID),
			slog.String("data_file_id", file.ID),
			slog.String("error", err.Error()),
		)
	} else {
		scan.DataFileID = &file.ID
	}

	if err := d.store.Put(ctx, file.Slug, bytes.NewReader(req.Content)); err != nil {
		return nil, scan, fmt.Errorf("ошибка сохранения файла в хранилище: %w", err)
	}

	d.logger.Info("Файл данных загружен",
		slog.String("data_file_id", file.ID),
		slog.String("slug", file.Slug),
		slog.Int("version", file.Version),
		slog.String("user_id", user.ID),
	)
	return file, scan, nil
}

// Get возвращает файл данных по ID. Обычный пользователь видит только
// свои файлы, staff — любые.
func (d *DataFilesService) Get(ctx context.Context, id string, user *model.User) (*model.DataFile, error) {
	file, err := d.files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !user.IsStaff && !user.IsSuperuser {
		if file.UserID == nil || *file.UserID != user.ID {
			// Чужой файл неотличим от несуществующего
			return nil, ErrNotFound
		}
	}
	return file, nil
}

// ListByUser возвращает файлы, загруженные пользователем.
func (d *DataFilesService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.DataFile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return d.files.ListByUser(ctx, userID, limit, offset)
}

// buildSlug формирует ключ объекта в хранилище.
// Уникальность обеспечивает UUID: имена загружаемых файлов повторяются
// между версиями одного периода.
func buildSlug(year int, quarter, fileName string) string {
	return fmt.Sprintf("data_files/%d/%s/%s_%s", year, quarter, uuid.NewString(), path.Base(fileName))
}

// fileExtension возвращает расширение файла без точки ("txt" по умолчанию).
func fileExtension(fileName string) string {
	ext := strings.TrimPrefix(path.Ext(fileName), ".")
	if ext == "" {
		return "txt"
	}
	return strings.ToLower(ext)
}
