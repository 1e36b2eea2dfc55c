// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrInfectedFile — антивирус обнаружил вирус в загруженном файле.
	ErrInfectedFile = errors.New("в загруженном файле обнаружен вирус")
	// ErrScanUnavailable — антивирусная проверка не выполнена (сканер недоступен).
	ErrScanUnavailable = errors.New("антивирусная проверка не выполнена")
)
