// Пакет model — доменные модели TDP Backend.
package model

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"time"
)

// Префикс непригодного пароля. Пароль с таким префиксом никогда не пройдёт
// проверку — аутентификация выполняется только через Login.gov (OIDC).
const UnusablePasswordPrefix = "!"

// User — пользователь системы. Создаётся при первом успешном входе через
// OIDC (username = подтверждённый email) либо предзасеивается миграцией
// для начального суперпользователя.
type User struct {
	// ID — UUID пользователя
	ID string
	// Username — имя пользователя (= подтверждённый email из Login.gov)
	Username string
	// Email — адрес электронной почты
	Email string
	// FirstName — имя
	FirstName string
	// LastName — фамилия
	LastName string
	// Password — хеш пароля. Всегда непригодный sentinel ("!<random>"):
	// локальный вход по паролю отключён навсегда.
	Password string
	// IsActive — активен ли аккаунт
	IsActive bool
	// IsStaff — доступ к служебным endpoints
	IsStaff bool
	// IsSuperuser — полные права
	IsSuperuser bool
	// LoginGovUUID — sub из id_token Login.gov (nil до первого входа)
	LoginGovUUID *string
	// DateJoined — время создания записи
	DateJoined time.Time
	// LastLogin — время последнего входа (nil — ещё не входил)
	LastLogin *time.Time
}

// HasUsablePassword сообщает, пригоден ли пароль для локального входа.
// Для всех пользователей TDP возвращает false.
func (u *User) HasUsablePassword() bool {
	return u.Password != "" && !strings.HasPrefix(u.Password, UnusablePasswordPrefix)
}

// MakeUnusablePassword генерирует sentinel-значение пароля, которое
// гарантированно не совпадёт ни с одним введённым паролем.
func MakeUnusablePassword() string {
	raw := make([]byte, 24)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		// crypto/rand недоступен — деградируем до фиксированного sentinel,
		// он так же непригоден для входа
		return UnusablePasswordPrefix
	}
	return UnusablePasswordPrefix + base64.RawURLEncoding.EncodeToString(raw)
}
