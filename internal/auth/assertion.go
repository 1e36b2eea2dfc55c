// assertion.go — client assertion (private_key_jwt) для token endpoint
// Login.gov. Система подтверждает свою идентичность подписанным JWT
// вместо client_secret.
package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNoSigningKey — ключ подписи client assertion не сконфигурирован.
// Дефект деплоя, не ошибка пользователя.
var ErrNoSigningKey = errors.New("ключ подписи JWT не сконфигурирован")

// Тип client assertion по RFC 7523.
const clientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// Срок жизни client assertion.
const assertionLifetime = 5 * time.Minute

// ParseSigningKey декодирует приватный ключ RSA из base64-кодированного PEM.
// Принимает ключи в форматах PKCS#1 и PKCS#8.
func ParseSigningKey(encoded string) (*rsa.PrivateKey, error) {
	if encoded == "" {
		return nil, ErrNoSigningKey
	}

	pemBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Ключ мог быть передан как raw PEM без base64-обёртки
		pemBytes = []byte(encoded)
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("ключ подписи JWT: не удалось декодировать PEM")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("ключ подписи JWT: %w", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("ключ подписи JWT: ожидается RSA-ключ")
	}
	return rsaKey, nil
}

// GenerateClientAssertion создаёт подписанный JWT (RS256), идентифицирующий
// систему перед token endpoint провайдера.
// issuer — client_id, audience — URL token endpoint.
func GenerateClientAssertion(key *rsa.PrivateKey, issuer, audience string, now time.Time) (string, error) {
	if key == nil {
		return "", ErrNoSigningKey
	}

	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": issuer,
		"aud": audience,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(assertionLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи client assertion: %w", err)
	}
	return signed, nil
}

// GenerateTokenEndpointParameters формирует тело POST-запроса обмена
// authorization code на токены.
func GenerateTokenEndpointParameters(code, clientAssertion string) url.Values {
	return url.Values{
		"grant_type":            {"authorization_code"},
		"code":                  {code},
		"client_assertion":      {clientAssertion},
		"client_assertion_type": {clientAssertionType},
	}
}
