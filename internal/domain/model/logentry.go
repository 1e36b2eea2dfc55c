package model

import "time"

// LogAction — тип действия в журнале аудита.
type LogAction int16

const (
	// LogActionAddition — создание объекта.
	LogActionAddition LogAction = 1
	// LogActionChange — изменение объекта.
	LogActionChange LogAction = 2
	// LogActionDeletion — удаление объекта.
	LogActionDeletion LogAction = 3
)

// LogEntry — запись журнала аудита. Для антивирусных проверок создаётся
// строго в одной транзакции с ClamAVFileScan: запись о проверке без записи
// аудита (и наоборот) существовать не должна.
type LogEntry struct {
	// ID — последовательный идентификатор записи
	ID int64
	// ActionTime — время действия
	ActionTime time.Time
	// UserID — пользователь, выполнивший действие (nil после удаления пользователя)
	UserID *string
	// ContentType — тип объекта, к которому относится запись (например "clamavfilescan")
	ContentType string
	// ObjectID — идентификатор объекта
	ObjectID string
	// ObjectRepr — строковое представление объекта на момент действия
	ObjectRepr string
	// ActionFlag — тип действия
	ActionFlag LogAction
	// ChangeMessage — сообщение, описывающее действие
	ChangeMessage string
}
