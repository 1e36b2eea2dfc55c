// oidc.go — клиент Login.gov OIDC (Authorization Code + private_key_jwt).
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Уровень доверия идентичности, запрашиваемый у Login.gov (IAL1).
const acrValue = "http://idp.login.gov/ns/assurance/ial/1"

// OIDCClient — клиент для взаимодействия с endpoints Login.gov.
// Конфиденциальный клиент: вместо client_secret подписывает
// client assertion приватным ключом.
type OIDCClient struct {
	clientID     string
	authorizeURL string
	tokenURL     string
	logoutURL    string
	issuer       string
	// redirectURI — callback этого бэкенда (GET /v1/login).
	redirectURI string
	// signingKey — приватный ключ для client assertion.
	signingKey *rsa.PrivateKey
	// jwks — keyfunc для валидации подписи id_token. Может быть nil,
	// если JWKS недоступен: тогда claims извлекаются без проверки подписи.
	jwks       keyfunc.Keyfunc
	httpClient *http.Client
}

// OIDCConfig — конфигурация клиента Login.gov.
type OIDCConfig struct {
	// ClientID — issuer, зарегистрированный у Login.gov.
	ClientID string
	// AuthorizeURL — endpoint авторизации провайдера.
	AuthorizeURL string
	// TokenURL — endpoint обмена code → tokens.
	TokenURL string
	// LogoutURL — endpoint выхода провайдера.
	LogoutURL string
	// Issuer — issuer провайдера для валидации id_token.
	Issuer string
	// RedirectURI — callback бэкенда, зарегистрированный у провайдера.
	RedirectURI string
	// SigningKey — приватный ключ client assertion.
	SigningKey *rsa.PrivateKey
	// JWKS — keyfunc для валидации id_token (nil — без проверки подписи).
	JWKS keyfunc.Keyfunc
	// Timeout — таймаут HTTP-запросов к провайдеру.
	Timeout time.Duration
}

// NewOIDCClient создаёт клиент Login.gov на основе конфигурации.
func NewOIDCClient(cfg OIDCConfig) *OIDCClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OIDCClient{
		clientID:     cfg.ClientID,
		authorizeURL: cfg.AuthorizeURL,
		tokenURL:     cfg.TokenURL,
		logoutURL:    cfg.LogoutURL,
		issuer:       cfg.Issuer,
		redirectURI:  cfg.RedirectURI,
		signingKey:   cfg.SigningKey,
		jwks:         cfg.JWKS,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// AuthorizeURL формирует URL для redirect пользователя на Login.gov.
// nonce и state берутся из сохранённой попытки входа.
func (c *OIDCClient) AuthorizeURL(attempt *LoginAttempt) string {
	params := url.Values{
		"acr_values":    {acrValue},
		"client_id":     {c.clientID},
		"nonce":         {attempt.Nonce},
		"prompt":        {"select_account"},
		"redirect_uri":  {c.redirectURI},
		"response_type": {"code"},
		"scope":         {"openid email"},
		"state":         {attempt.State},
	}
	return c.authorizeURL + "?" + params.Encode()
}

// TokenResponse — ответ token endpoint Login.gov.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token"`
}

// ProviderError — провайдер отклонил обмен authorization code.
type ProviderError struct {
	// StatusCode — HTTP-статус ответа провайдера.
	StatusCode int
	// Body — тело ответа для логирования.
	Body string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("token endpoint вернул статус %d: %s", e.StatusCode, e.Body)
}

// ExchangeCode обменивает authorization code на токены.
// Идентичность системы подтверждается подписанным client assertion.
func (c *OIDCClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	assertion, err := GenerateClientAssertion(c.signingKey, c.clientID, c.tokenURL, time.Now())
	if err != nil {
		return nil, err
	}

	data := GenerateTokenEndpointParameters(code, assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("ошибка парсинга token response: %w", err)
	}
	return &tokenResp, nil
}

// LogoutURL формирует URL для redirect пользователя на logout Login.gov.
func (c *OIDCClient) LogoutURL(idTokenHint, postLogoutRedirectURI, state string) string {
	params := url.Values{
		"client_id":                {c.clientID},
		"post_logout_redirect_uri": {postLogoutRedirectURI},
		"state":                    {state},
	}
	if idTokenHint != "" {
		params.Set("id_token_hint", idTokenHint)
	}
	return c.logoutURL + "?" + params.Encode()
}

// IdentityClaims — claims из id_token, нужные для резолвинга пользователя.
// Токен целиком не сохраняется.
type IdentityClaims struct {
	jwt.RegisteredClaims
	// Email — подтверждённый email пользователя.
	Email string `json:"email"`
	// EmailVerified — подтверждён ли email у провайдера.
	EmailVerified bool `json:"email_verified"`
	// Nonce — значение, переданное в authorize URL.
	Nonce string `json:"nonce"`
}

// DecodeIDToken извлекает claims из id_token. При наличии JWKS подпись
// валидируется (RS256, issuer, audience); без JWKS claims извлекаются
// из payload без проверки подписи — сам токен получен напрямую от
// провайдера по TLS в рамках этого же запроса.
func (c *OIDCClient) DecodeIDToken(ctx context.Context, idToken string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}

	if c.jwks != nil {
		_, err := jwt.ParseWithClaims(idToken, claims, c.jwks.KeyfuncCtx(ctx),
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithIssuer(c.issuer),
			jwt.WithAudience(c.clientID),
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка валидации id_token: %w", err)
		}
		return claims, nil
	}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("ошибка декодирования id_token: %w", err)
	}
	return claims, nil
}
