package model

import (
	"fmt"
	"time"
)

// ScanResult — результат антивирусной проверки файла.
type ScanResult string

const (
	// ScanResultClean — файл чистый.
	ScanResultClean ScanResult = "CLEAN"
	// ScanResultInfected — найден вирус.
	ScanResultInfected ScanResult = "INFECTED"
	// ScanResultError — сканер вернул ошибку.
	ScanResultError ScanResult = "ERROR"
)

// IsValid проверяет, является ли значение допустимым результатом сканирования.
func (r ScanResult) IsValid() bool {
	switch r {
	case ScanResultClean, ScanResultInfected, ScanResultError:
		return true
	}
	return false
}

// Sentinel-значение file_shasum для файлов, хеш которых вычислить не удалось.
const InvalidShasum = "INVALID"

// ClamAVFileScan — запись о выполненной антивирусной проверке загруженного
// файла. Создаётся ровно один раз на проверку, после создания неизменяема.
type ClamAVFileScan struct {
	// ID — последовательный идентификатор записи
	ID int64
	// ScannedAt — время проверки
	ScannedAt time.Time
	// FileName — имя загруженного файла
	FileName string
	// FileSize — размер файла в байтах
	FileSize int64
	// FileShasum — SHA-256 файла (hex) либо sentinel "INVALID"
	FileShasum string
	// Result — результат проверки (CLEAN, INFECTED, ERROR)
	Result ScanResult
	// UploadedByID — пользователь, загрузивший файл (nil после удаления пользователя)
	UploadedByID *string
	// DataFileID — ссылка на сохранённый DataFile; заполняется только при CLEAN
	DataFileID *string
}

// String возвращает представление записи для журнала аудита.
func (s *ClamAVFileScan) String() string {
	return fmt.Sprintf("%s (%s) - %s", s.FileName, s.FileSizeHumanized(), s.Result)
}

// FileSizeHumanized конвертирует размер файла в наибольшую читаемую единицу.
func (s *ClamAVFileScan) FileSizeHumanized() string {
	size := float64(s.FileSize)
	unit := "B"
	for _, u := range []string{"B", "KB", "MB", "GB", "TB"} {
		unit = u
		if size < 1024.0 {
			break
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.2f%s", size, unit)
}
