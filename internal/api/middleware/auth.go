// auth.go — middleware аутентификации по зашифрованному session cookie.
// Извлекает сессию, резолвит пользователя из БД и помещает его в контекст
// запроса. Проверки доступа (RequireAuth, RequireStaff) выполняются
// отдельными middleware поверх SessionAuth.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/George-Hudson/TANF-app/internal/api/errors"
	"github.com/George-Hudson/TANF-app/internal/auth"
	"github.com/George-Hudson/TANF-app/internal/domain/model"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyUser — аутентифицированный пользователь в контексте запроса.
	ContextKeyUser contextKey = "user"
	// ContextKeySession — расшифрованная сессия в контексте запроса.
	ContextKeySession contextKey = "session"
)

// SessionAuth — middleware аутентификации через session cookie.
type SessionAuth struct {
	sessions      *auth.SessionManager
	authenticator *auth.Authenticator
	logger        *slog.Logger
}

// NewSessionAuth создаёт middleware аутентификации.
func NewSessionAuth(sessions *auth.SessionManager, authenticator *auth.Authenticator, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		sessions:      sessions,
		authenticator: authenticator,
		logger:        logger.With(slog.String("component", "session_auth")),
	}
}

// Middleware извлекает сессию из cookie и помещает пользователя в контекст.
// Отсутствие или невалидность сессии не является ошибкой: запрос идёт
// дальше неаутентифицированным, решение принимают Require*-middleware.
func (s *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := s.sessions.GetSessionFromRequest(r)
			if err != nil {
				s.logger.Debug("Невалидный session cookie",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				next.ServeHTTP(w, r)
				return
			}
			if session == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)

			if session.IsAuthenticated() {
				if user := s.authenticator.GetUser(ctx, session.UserID); user != nil && user.IsActive {
					ctx = context.WithValue(ctx, ContextKeyUser, user)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth возвращает middleware, требующий аутентифицированного
// пользователя. Должен использоваться ПОСЛЕ SessionAuth.Middleware().
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				apierrors.Unauthorized(w, "Authentication credentials were not provided.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff возвращает middleware, требующий staff-пользователя.
// Должен использоваться ПОСЛЕ SessionAuth.Middleware().
func RequireStaff() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				apierrors.Unauthorized(w, "Authentication credentials were not provided.")
				return
			}
			if !user.IsStaff && !user.IsSuperuser {
				apierrors.Forbidden(w, "You do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Context helpers ---

// UserFromContext извлекает пользователя из контекста запроса.
// Возвращает nil, если пользователь не аутентифицирован.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(ContextKeyUser).(*model.User)
	return user
}

// SessionFromContext извлекает сессию из контекста запроса.
// Возвращает nil, если сессии нет.
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, _ := ctx.Value(ContextKeySession).(*auth.SessionData)
	return session
}
