package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
)

// DataFileRepository — доступ к таблице data_files.
type DataFileRepository interface {
	// Create создаёт запись файла данных. Версия вычисляется
	// автоматически: следующая для пары (год, квартал, секция).
	Create(ctx context.Context, f *model.DataFile) error
	// GetByID возвращает файл данных по UUID.
	GetByID(ctx context.Context, id string) (*model.DataFile, error)
	// ListByUser возвращает файлы, загруженные пользователем.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.DataFile, error)
}

// dataFileRepo — реализация DataFileRepository.
type dataFileRepo struct {
	db DBTX
}

// NewDataFileRepository создаёт репозиторий файлов данных.
func NewDataFileRepository(db DBTX) DataFileRepository {
	return &dataFileRepo{db: db}
}

func (r *dataFileRepo) Create(ctx context.Context, f *model.DataFile) error {
	// Версия назначается внутри INSERT, чтобы конкурентные загрузки
	// одного периода упирались в уникальный индекс, а не затирали друг друга
	query := `
		INSERT INTO data_files (original_filename, extension, slug, quarter, year,
			section, version, user_id)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(version), 0) + 1
			 FROM data_files
			 WHERE year = $5 AND quarter = $4 AND section = $6),
			$7)
		RETURNING id, version, created_at`

	err := r.db.QueryRow(ctx, query,
		f.OriginalFilename, f.Extension, f.Slug, f.Quarter, f.Year,
		f.Section, f.UserID,
	).Scan(&f.ID, &f.Version, &f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: версия файла данных для этого периода уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания файла данных: %w", err)
	}
	return nil
}

func (r *dataFileRepo) GetByID(ctx context.Context, id string) (*model.DataFile, error) {
	query := `
		SELECT id, original_filename, extension, slug, quarter, year,
			section, version, user_id, created_at
		FROM data_files
		WHERE id = $1`

	f := &model.DataFile{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.OriginalFilename, &f.Extension, &f.Slug, &f.Quarter, &f.Year,
		&f.Section, &f.Version, &f.UserID, &f.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла данных: %w", err)
	}
	return f, nil
}

func (r *dataFileRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.DataFile, error) {
	query := `
		SELECT id, original_filename, extension, slug, quarter, year,
			section, version, user_id, created_at
		FROM data_files
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка файлов данных: %w", err)
	}
	defer rows.Close()

	var result []*model.DataFile
	for rows.Next() {
		f := &model.DataFile{}
		if err := rows.Scan(
			&f.ID, &f.OriginalFilename, &f.Extension, &f.Slug, &f.Quarter, &f.Year,
			&f.Section, &f.Version, &f.UserID, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла данных: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}
