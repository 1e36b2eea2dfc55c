package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
)

// ClamAVScanRepository — доступ к таблицам clamav_file_scans и log_entries.
type ClamAVScanRepository interface {
	// RecordScan атомарно сохраняет результат сканирования и запись аудита.
	// Обе вставки выполняются в одной транзакции: либо сохраняются обе,
	// либо ни одна.
	RecordScan(ctx context.Context, scan *model.ClamAVFileScan, entry *model.LogEntry) error
	// List возвращает результаты сканирований с фильтрацией.
	List(ctx context.Context, filters ScanListFilters, limit, offset int) ([]*model.ClamAVFileScan, error)
	// Count возвращает количество сканирований с фильтрацией.
	Count(ctx context.Context, filters ScanListFilters) (int, error)
	// LinkDataFile привязывает скан к сохранённому файлу данных.
	LinkDataFile(ctx context.Context, scanID int64, dataFileID string) error
}

// ScanListFilters — фильтры для списка сканирований.
type ScanListFilters struct {
	Result       *model.ScanResult
	UploadedByID *string
}

// clamavScanRepo — реализация ClamAVScanRepository.
// Держит пул напрямую: RecordScan открывает собственную транзакцию.
type clamavScanRepo struct {
	db DBTX
	tx *TxRunner
}

// NewClamAVScanRepository создаёт репозиторий результатов сканирования.
func NewClamAVScanRepository(pool *pgxpool.Pool) ClamAVScanRepository {
	return &clamavScanRepo{db: pool, tx: NewTxRunner(pool)}
}

func (r *clamavScanRepo) RecordScan(ctx context.Context, scan *model.ClamAVFileScan, entry *model.LogEntry) error {
	return r.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		scanQuery := `
			INSERT INTO clamav_file_scans (file_name, file_size, file_shasum, result,
				uploaded_by_id, data_file_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, scanned_at`

		err := tx.QueryRow(ctx, scanQuery,
			scan.FileName, scan.FileSize, scan.FileShasum, scan.Result,
			scan.UploadedByID, scan.DataFileID,
		).Scan(&scan.ID, &scan.ScannedAt)
		if err != nil {
			return fmt.Errorf("ошибка сохранения результата сканирования: %w", err)
		}

		// Запись аудита ссылается на только что созданный скан
		entry.ObjectID = fmt.Sprintf("%d", scan.ID)
		entry.ObjectRepr = scan.String()

		entryQuery := `
			INSERT INTO log_entries (user_id, content_type, object_id, object_repr,
				action_flag, change_message)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, action_time`

		err = tx.QueryRow(ctx, entryQuery,
			entry.UserID, entry.ContentType, entry.ObjectID, entry.ObjectRepr,
			entry.ActionFlag, entry.ChangeMessage,
		).Scan(&entry.ID, &entry.ActionTime)
		if err != nil {
			return fmt.Errorf("ошибка сохранения записи аудита: %w", err)
		}
		return nil
	})
}

func (r *clamavScanRepo) LinkDataFile(ctx context.Context, scanID int64, dataFileID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE clamav_file_scans SET data_file_id = $2 WHERE id = $1`,
		scanID, dataFileID,
	)
	if err != nil {
		return fmt.Errorf("ошибка привязки скана к файлу данных: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildScanWhere строит WHERE-условие и аргументы для фильтрации сканирований.
func buildScanWhere(filters ScanListFilters, startArg int) (string, []any) {
	var conditions []string
	var args []any
	argNum := startArg

	if filters.Result != nil {
		conditions = append(conditions, fmt.Sprintf("result = $%d", argNum))
		args = append(args, *filters.Result)
		argNum++
	}
	if filters.UploadedByID != nil {
		conditions = append(conditions, fmt.Sprintf("uploaded_by_id = $%d", argNum))
		args = append(args, *filters.UploadedByID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

func (r *clamavScanRepo) List(ctx context.Context, filters ScanListFilters, limit, offset int) ([]*model.ClamAVFileScan, error) {
	where, args := buildScanWhere(filters, 1)
	argNum := len(args) + 1

	query := fmt.Sprintf(`
		SELECT id, scanned_at, file_name, file_size, file_shasum, result,
			uploaded_by_id, data_file_id
		FROM clamav_file_scans
		%s
		ORDER BY scanned_at DESC
		LIMIT $%d OFFSET $%d`, where, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка сканирований: %w", err)
	}
	defer rows.Close()

	var result []*model.ClamAVFileScan
	for rows.Next() {
		s := &model.ClamAVFileScan{}
		if err := rows.Scan(
			&s.ID, &s.ScannedAt, &s.FileName, &s.FileSize, &s.FileShasum, &s.Result,
			&s.UploadedByID, &s.DataFileID,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *clamavScanRepo) Count(ctx context.Context, filters ScanListFilters) (int, error) {
	where, args := buildScanWhere(filters, 1)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM clamav_file_scans %s`, where)

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта сканирований: %w", err)
	}
	return count, nil
}
