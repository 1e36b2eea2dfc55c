package model

import "time"

// Разделы отчётности TANF.
const (
	SectionActiveCase    = "Active Case Data"
	SectionClosedCase    = "Closed Case Data"
	SectionAggregateData = "Aggregate Data"
	SectionStratumData   = "Stratum Data"
)

// DataFile — сохранённый файл данных отчётности. Создаётся только для
// файлов, прошедших антивирусную проверку с результатом CLEAN.
type DataFile struct {
	// ID — UUID записи
	ID string
	// OriginalFilename — имя файла при загрузке
	OriginalFilename string
	// Extension — расширение файла (по умолчанию "txt")
	Extension string
	// Slug — ключ объекта в S3
	Slug string
	// Quarter — квартал отчётности (Q1..Q4)
	Quarter string
	// Year — год отчётности
	Year int
	// Section — раздел отчётности
	Section string
	// Version — версия файла в рамках (year, quarter, section); повторная
	// загрузка того же периода создаёт новую версию
	Version int
	// UserID — пользователь, загрузивший файл (nil после удаления пользователя)
	UserID *string
	// CreatedAt — время создания записи
	CreatedAt time.Time
}
