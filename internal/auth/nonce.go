// Пакет auth — аутентификация через Login.gov OIDC.
// Генерация nonce/state, client assertion (private_key_jwt),
// шифрованные сессии AES-256-GCM и резолвинг пользователей.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"
)

// LoginAttempt — незавершённая попытка входа, хранится в сессии
// между redirect на провайдера и callback. Повторная инициация входа
// затирает предыдущую попытку (last-writer-wins).
type LoginAttempt struct {
	// Nonce — одноразовое значение, возвращается внутри id_token.
	Nonce string `json:"nonce"`
	// State — CSRF state parameter, возвращается в query callback.
	State string `json:"state"`
	// AddedOn — время создания попытки.
	AddedOn time.Time `json:"added_on"`
}

// IsExpired проверяет, истекла ли попытка входа.
func (a *LoginAttempt) IsExpired(maxAge time.Duration) bool {
	return time.Since(a.AddedOn) > maxAge
}

// SuspiciousOperationError — нарушение безопасности при валидации
// nonce/state: расхождение значений или истёкшая попытка. Признак
// возможного replay или подделки callback, поэтому не конвертируется
// в обычный 400-ответ, а обрабатывается отдельно верхним уровнем.
type SuspiciousOperationError struct {
	// Reason — причина срабатывания.
	Reason string
}

func (e *SuspiciousOperationError) Error() string {
	return fmt.Sprintf("подозрительная операция: %s", e.Reason)
}

// NewLoginAttempt создаёт попытку входа со свежей парой nonce/state.
func NewLoginAttempt() (*LoginAttempt, error) {
	nonce, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации nonce: %w", err)
	}
	state, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации state: %w", err)
	}
	return &LoginAttempt{
		Nonce:   nonce,
		State:   state,
		AddedOn: time.Now(),
	}, nil
}

// ValidateNonceAndState сравнивает сохранённую пару nonce/state
// с полученной от провайдера. Возвращает true только при точном
// совпадении обоих значений; совпадения одного поля недостаточно.
func ValidateNonceAndState(expectedNonce, expectedState, receivedNonce, receivedState string) bool {
	return expectedNonce == receivedNonce && expectedState == receivedState
}

// generateToken генерирует случайную base64url-строку (32 байта энтропии).
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
