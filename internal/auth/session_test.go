package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestSessionEncryptDecryptRoundTrip проверяет шифрование и дешифрование SessionData.
func TestSessionEncryptDecryptRoundTrip(t *testing.T) {
	sm, err := NewSessionManager("", false)
	if err != nil {
		t.Fatalf("Ошибка создания SessionManager: %v", err)
	}

	original := &SessionData{
		UserID:  "8b6f3f57-6dcb-4b8a-91a1-5f8f0a1e0b90",
		Email:   "analyst@example.gov",
		IDToken: "header.payload.signature",
		LoginAttempt: &LoginAttempt{
			Nonce:   "nonce-value",
			State:   "state-value",
			AddedOn: time.Now().Truncate(time.Second),
		},
	}

	encrypted, err := sm.Encrypt(original)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	if encrypted == "" {
		t.Fatal("Зашифрованная строка пустая")
	}

	decrypted, err := sm.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}

	if decrypted.UserID != original.UserID {
		t.Errorf("UserID: want %q, got %q", original.UserID, decrypted.UserID)
	}
	if decrypted.Email != original.Email {
		t.Errorf("Email: want %q, got %q", original.Email, decrypted.Email)
	}
	if decrypted.IDToken != original.IDToken {
		t.Errorf("IDToken: want %q, got %q", original.IDToken, decrypted.IDToken)
	}
	if decrypted.LoginAttempt == nil {
		t.Fatal("LoginAttempt потерялся при round trip")
	}
	if decrypted.LoginAttempt.Nonce != original.LoginAttempt.Nonce {
		t.Errorf("Nonce: want %q, got %q", original.LoginAttempt.Nonce, decrypted.LoginAttempt.Nonce)
	}
	if decrypted.LoginAttempt.State != original.LoginAttempt.State {
		t.Errorf("State: want %q, got %q", original.LoginAttempt.State, decrypted.LoginAttempt.State)
	}
}

// TestSessionManagerWithStringKey проверяет инициализацию с произвольной строкой-ключом.
func TestSessionManagerWithStringKey(t *testing.T) {
	sm, err := NewSessionManager("my-secret-key-for-testing", false)
	if err != nil {
		t.Fatalf("Ошибка создания SessionManager с string-ключом: %v", err)
	}

	data := &SessionData{Email: "user@example.gov"}

	encrypted, err := sm.Encrypt(data)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}

	decrypted, err := sm.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}
	if decrypted.Email != data.Email {
		t.Errorf("Email: want %q, got %q", data.Email, decrypted.Email)
	}
}

// TestSessionDecryptTampered проверяет, что подделанный ciphertext отклоняется.
func TestSessionDecryptTampered(t *testing.T) {
	sm, err := NewSessionManager("", false)
	if err != nil {
		t.Fatalf("Ошибка создания SessionManager: %v", err)
	}

	encrypted, err := sm.Encrypt(&SessionData{Email: "user@example.gov"})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}

	// Портим последний символ
	tampered := encrypted[:len(encrypted)-2] + "AA"
	if _, err := sm.Decrypt(tampered); err == nil {
		t.Error("дешифрование подделанных данных должно вернуть ошибку")
	}

	if _, err := sm.Decrypt("not-base64!!!"); err == nil {
		t.Error("дешифрование мусора должно вернуть ошибку")
	}
}

// TestSessionDecryptWrongKey проверяет, что сессия другого ключа отклоняется.
func TestSessionDecryptWrongKey(t *testing.T) {
	sm1, _ := NewSessionManager("key-one", false)
	sm2, _ := NewSessionManager("key-two", false)

	encrypted, err := sm1.Encrypt(&SessionData{Email: "user@example.gov"})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}

	if _, err := sm2.Decrypt(encrypted); err == nil {
		t.Error("дешифрование чужим ключом должно вернуть ошибку")
	}
}

// TestSessionCookieLifecycle проверяет установку, чтение и очистку cookie.
func TestSessionCookieLifecycle(t *testing.T) {
	sm, err := NewSessionManager("", false)
	if err != nil {
		t.Fatalf("Ошибка создания SessionManager: %v", err)
	}

	// Cookie отсутствует — nil, nil
	req := httptest.NewRequest(http.MethodGet, "/v1/login", nil)
	data, err := sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("GetSessionFromRequest() без cookie вернул ошибку: %v", err)
	}
	if data != nil {
		t.Error("без cookie ожидается nil сессия")
	}

	// Установка cookie
	rec := httptest.NewRecorder()
	original := &SessionData{UserID: "user-1", Email: "user@example.gov"}
	if err := sm.SetSessionCookie(rec, original); err != nil {
		t.Fatalf("SetSessionCookie() вернул ошибку: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName {
		t.Fatalf("ожидается один cookie %s, получено: %v", SessionCookieName, cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie должен быть HttpOnly")
	}

	// Чтение cookie обратно
	req = httptest.NewRequest(http.MethodGet, "/v1/login", nil)
	req.AddCookie(cookies[0])
	data, err = sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("GetSessionFromRequest() вернул ошибку: %v", err)
	}
	if data == nil || data.UserID != "user-1" {
		t.Errorf("сессия из cookie = %+v, ожидается UserID user-1", data)
	}
	if !data.IsAuthenticated() {
		t.Error("сессия с UserID должна быть аутентифицированной")
	}

	// Очистка cookie
	rec = httptest.NewRecorder()
	sm.ClearSessionCookie(rec)
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge != -1 {
		t.Error("ClearSessionCookie() должен установить cookie с MaxAge = -1")
	}
}
