// jwks.go — загрузка публичных ключей Login.gov для валидации id_token.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
)

// NewJWKSKeyfunc создаёт keyfunc с фоновым обновлением ключей из JWKS
// endpoint провайдера. Недоступность провайдера на старте не фатальна
// (NoErrorReturnFirstHTTPReq): валидация откладывается до появления
// ключей, ошибки обновления логируются.
func NewJWKSKeyfunc(jwksURL string, refreshInterval, clientTimeout time.Duration, logger *slog.Logger) (keyfunc.Keyfunc, error) {
	httpClient := &http.Client{Timeout: clientTimeout}

	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    httpClient,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, err
	}

	return keyfunc.New(keyfunc.Options{Storage: storage})
}
