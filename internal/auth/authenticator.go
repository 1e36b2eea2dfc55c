// authenticator.go — резолвинг локального пользователя по идентичности
// из Login.gov.
package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
	"github.com/George-Hudson/TANF-app/internal/repository"
)

// Authenticator находит локального пользователя по подтверждённому email.
// Пароли не проверяются никогда: единственный способ входа — OIDC.
// Все методы возвращают nil вместо ошибки: отсутствие пользователя и
// сбой БД для вызывающего кода неразличимы, детали уходят в лог.
type Authenticator struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewAuthenticator создаёт Authenticator.
func NewAuthenticator(users repository.UserRepository, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		users:  users,
		logger: logger.With(slog.String("component", "authenticator")),
	}
}

// Authenticate возвращает пользователя по username (= email) либо nil.
func (a *Authenticator) Authenticate(ctx context.Context, username string) *model.User {
	if username == "" {
		return nil
	}

	user, err := a.users.GetByEmail(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			a.logger.Error("Ошибка поиска пользователя",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return user
}

// GetUser возвращает пользователя по UUID либо nil.
func (a *Authenticator) GetUser(ctx context.Context, id string) *model.User {
	if id == "" {
		return nil
	}

	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			a.logger.Error("Ошибка получения пользователя",
				slog.String("user_id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return user
}
