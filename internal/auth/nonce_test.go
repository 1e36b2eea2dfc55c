package auth

import (
	"errors"
	"testing"
	"time"
)

func TestValidateNonceAndState(t *testing.T) {
	tests := []struct {
		name          string
		expectedNonce string
		expectedState string
		receivedNonce string
		receivedState string
		want          bool
	}{
		{"оба совпадают", "x", "y", "x", "y", true},
		{"state не совпадает", "x", "z", "x", "y", false},
		{"значения переставлены", "x", "y", "y", "x", false},
		{"ничего не совпадает", "x", "z", "y", "y", false},
		{"nonce не совпадает", "a", "y", "b", "y", false},
		{"пустые значения совпадают", "", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateNonceAndState(tt.expectedNonce, tt.expectedState, tt.receivedNonce, tt.receivedState)
			if got != tt.want {
				t.Errorf("ValidateNonceAndState(%q, %q, %q, %q) = %v, ожидается %v",
					tt.expectedNonce, tt.expectedState, tt.receivedNonce, tt.receivedState, got, tt.want)
			}
		})
	}
}

func TestNewLoginAttempt(t *testing.T) {
	a, err := NewLoginAttempt()
	if err != nil {
		t.Fatalf("NewLoginAttempt() вернул ошибку: %v", err)
	}
	if a.Nonce == "" || a.State == "" {
		t.Error("nonce и state не должны быть пустыми")
	}
	if a.Nonce == a.State {
		t.Error("nonce и state должны различаться")
	}

	// Две попытки не должны совпадать
	b, err := NewLoginAttempt()
	if err != nil {
		t.Fatalf("NewLoginAttempt() вернул ошибку: %v", err)
	}
	if a.Nonce == b.Nonce || a.State == b.State {
		t.Error("повторные попытки входа не должны переиспользовать значения")
	}
}

func TestLoginAttempt_IsExpired(t *testing.T) {
	fresh := &LoginAttempt{AddedOn: time.Now()}
	if fresh.IsExpired(15 * time.Minute) {
		t.Error("свежая попытка не должна считаться истёкшей")
	}

	stale := &LoginAttempt{AddedOn: time.Now().Add(-16 * time.Minute)}
	if !stale.IsExpired(15 * time.Minute) {
		t.Error("попытка старше maxAge должна считаться истёкшей")
	}
}

func TestSuspiciousOperationError(t *testing.T) {
	err := error(&SuspiciousOperationError{Reason: "nonce mismatch"})

	var suspicious *SuspiciousOperationError
	if !errors.As(err, &suspicious) {
		t.Fatal("ошибка должна распознаваться через errors.As")
	}
	if suspicious.Reason != "nonce mismatch" {
		t.Errorf("Reason = %q, ожидается %q", suspicious.Reason, "nonce mismatch")
	}
}
