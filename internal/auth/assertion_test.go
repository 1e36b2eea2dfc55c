package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// generateTestKey создаёт RSA-ключ и его base64-PEM представление.
func generateTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("ошибка генерации RSA-ключа: %v", err)
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return key, base64.StdEncoding.EncodeToString(pemBytes)
}

func TestParseSigningKey(t *testing.T) {
	key, encoded := generateTestKey(t)

	parsed, err := ParseSigningKey(encoded)
	if err != nil {
		t.Fatalf("ParseSigningKey() вернул ошибку: %v", err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Error("распарсенный ключ не совпадает с исходным")
	}
}

func TestParseSigningKey_PKCS8(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("ошибка генерации RSA-ключа: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("ошибка сериализации PKCS#8: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	parsed, err := ParseSigningKey(base64.StdEncoding.EncodeToString(pemBytes))
	if err != nil {
		t.Fatalf("ParseSigningKey(PKCS#8) вернул ошибку: %v", err)
	}
	if parsed.N.Cmp(key.N) != 0 {
		t.Error("распарсенный ключ не совпадает с исходным")
	}
}

func TestParseSigningKey_Errors(t *testing.T) {
	if _, err := ParseSigningKey(""); !errors.Is(err, ErrNoSigningKey) {
		t.Errorf("ParseSigningKey(\"\") = %v, ожидается ErrNoSigningKey", err)
	}
	if _, err := ParseSigningKey("not-a-key"); err == nil {
		t.Error("ParseSigningKey(мусор) должен вернуть ошибку")
	}
}

func TestGenerateClientAssertion(t *testing.T) {
	key, _ := generateTestKey(t)
	now := time.Now()

	signed, err := GenerateClientAssertion(key, "urn:gov:tdp", "https://idp.example.gov/api/openid_connect/token", now)
	if err != nil {
		t.Fatalf("GenerateClientAssertion() вернул ошибку: %v", err)
	}

	// Проверяем подпись и claims собственным публичным ключом
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		t.Fatalf("парсинг assertion вернул ошибку: %v", err)
	}
	if !token.Valid {
		t.Fatal("подпись assertion невалидна")
	}

	if claims["iss"] != "urn:gov:tdp" || claims["sub"] != "urn:gov:tdp" {
		t.Errorf("iss/sub = %v/%v, ожидается client_id в обоих", claims["iss"], claims["sub"])
	}
	if claims["aud"] != "https://idp.example.gov/api/openid_connect/token" {
		t.Errorf("aud = %v, ожидается token endpoint", claims["aud"])
	}
	if claims["jti"] == "" || claims["jti"] == nil {
		t.Error("jti должен быть заполнен")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		t.Fatal("exp отсутствует или имеет неверный тип")
	}
	wantExp := now.Add(5 * time.Minute).Unix()
	if int64(exp) != wantExp {
		t.Errorf("exp = %d, ожидается %d (now + 5m)", int64(exp), wantExp)
	}
}

func TestGenerateClientAssertion_NoKey(t *testing.T) {
	_, err := GenerateClientAssertion(nil, "urn:gov:tdp", "https://idp.example.gov/token", time.Now())
	if !errors.Is(err, ErrNoSigningKey) {
		t.Errorf("GenerateClientAssertion(nil) = %v, ожидается ErrNoSigningKey", err)
	}
}

func TestGenerateTokenEndpointParameters(t *testing.T) {
	params := GenerateTokenEndpointParameters("auth-code-123", "signed.assertion.jwt")

	if params.Get("grant_type") != "authorization_code" {
		t.Errorf("grant_type = %q", params.Get("grant_type"))
	}
	if params.Get("code") != "auth-code-123" {
		t.Errorf("code = %q", params.Get("code"))
	}
	if params.Get("client_assertion") != "signed.assertion.jwt" {
		t.Errorf("client_assertion = %q", params.Get("client_assertion"))
	}
	if params.Get("client_assertion_type") != "urn:ietf:params:oauth:client-assertion-type:jwt-bearer" {
		t.Errorf("client_assertion_type = %q", params.Get("client_assertion_type"))
	}
}
