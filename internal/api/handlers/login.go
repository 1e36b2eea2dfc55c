// login.go — аутентификация через Login.gov OIDC (Authorization Code +
// private_key_jwt client assertion).
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/George-Hudson/TANF-app/internal/api/errors"
	"github.com/George-Hudson/TANF-app/internal/api/middleware"
	"github.com/George-Hudson/TANF-app/internal/auth"
	"github.com/George-Hudson/TANF-app/internal/service"
)

// LoginHandler — обработчики аутентификации TDP Backend.
type LoginHandler struct {
	oidc     *auth.OIDCClient
	sessions *auth.SessionManager
	users    *service.UsersService
	// frontendURL — адрес фронтенда для redirect после входа/выхода.
	frontendURL string
	// attemptMaxAge — максимальный возраст незавершённой попытки входа.
	attemptMaxAge time.Duration
	logger        *slog.Logger
}

// NewLoginHandler создаёт обработчик аутентификации.
func NewLoginHandler(
	oidc *auth.OIDCClient,
	sessions *auth.SessionManager,
	users *service.UsersService,
	frontendURL string,
	attemptMaxAge time.Duration,
	logger *slog.Logger,
) *LoginHandler {
	return &LoginHandler{
		oidc:          oidc,
		sessions:      sessions,
		users:         users,
		frontendURL:   frontendURL,
		attemptMaxAge: attemptMaxAge,
		logger:        logger.With(slog.String("component", "login_handler")),
	}
}

// HandleLoginInitiate — GET /v1/login/oidc
// Генерирует nonce и state, сохраняет попытку входа в зашифрованном
// session cookie и перенаправляет на authorize endpoint Login.gov.
// Повторная инициация затирает предыдущую попытку (last-writer-wins).
func (h *LoginHandler) HandleLoginInitiate(w http.ResponseWriter, r *http.Request) {
	attempt, err := auth.NewLoginAttempt()
	if err != nil {
		h.logger.Error("Ошибка генерации попытки входа", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Internal server error")
		return
	}

	session := sessionUser(h.sessions, r)
	if session == nil {
		session = &auth.SessionData{}
	}
	session.LoginAttempt = attempt

	if err := h.sessions.SetSessionCookie(w, session); err != nil {
		h.logger.Error("Ошибка установки session cookie", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Internal server error")
		return
	}

	http.Redirect(w, r, h.oidc.AuthorizeURL(attempt), http.StatusFound)
}

// HandleLoginCallback — GET /v1/login?code&state
// Callback от Login.gov. SuspiciousOperation (несовпадение nonce/state,
// протухшая или отсутствующая попытка) логируется отдельно и отвечает
// голым 400 без JSON-тела: подробности атакующему не сообщаются.
func (h *LoginHandler) HandleLoginCallback(w http.ResponseWriter, r *http.Request) {
	err := h.loginCallback(w, r)
	if err == nil {
		return
	}

	var suspicious *auth.SuspiciousOperationError
	if errors.As(err, &suspicious) {
		h.logger.Warn("Подозрительная попытка входа",
			slog.String("reason", suspicious.Reason),
			slog.String("remote_addr", r.RemoteAddr),
		)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	h.logger.Error("Ошибка обработки callback", slog.String("error", err.Error()))
	http.Error(w, "Bad Request", http.StatusBadRequest)
}

// loginCallback — машина состояний входа. Ответ клиенту пишет сама;
// ошибка возвращается только для случаев, требующих спец-обработки
// транспортным адаптером.
func (h *LoginHandler) loginCallback(w http.ResponseWriter, r *http.Request) error {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	// Без code или state входить нечем: начинаем заново
	if code == "" || state == "" {
		http.Redirect(w, r, "/v1/login/oidc", http.StatusFound)
		return nil
	}

	session := sessionUser(h.sessions, r)
	if session == nil || session.LoginAttempt == nil {
		return &auth.SuspiciousOperationError{Reason: "callback без сохранённой попытки входа"}
	}
	attempt := session.LoginAttempt
	if attempt.IsExpired(h.attemptMaxAge) {
		return &auth.SuspiciousOperationError{Reason: "попытка входа протухла"}
	}

	tokenResp, err := h.oidc.ExchangeCode(r.Context(), code)
	if err != nil {
		var providerErr *auth.ProviderError
		if errors.As(err, &providerErr) {
			h.logger.Warn("Login.gov отклонил обмен кода",
				slog.Int("status_code", providerErr.StatusCode),
			)
		} else {
			h.logger.Error("Token endpoint недоступен", slog.String("error", err.Error()))
		}
		apierrors.BadRequest(w, apierrors.MsgInvalidCode)
		return nil
	}

	claims, err := h.oidc.DecodeIDToken(r.Context(), tokenResp.IDToken)
	if err != nil {
		h.logger.Error("Ошибка декодирования id_token", slog.String("error", err.Error()))
		apierrors.BadRequest(w, apierrors.MsgInvalidCode)
		return nil
	}

	if !auth.ValidateNonceAndState(attempt.Nonce, attempt.State, claims.Nonce, state) {
		return &auth.SuspiciousOperationError{Reason: "nonce или state не совпадают"}
	}

	if !claims.EmailVerified {
		apierrors.BadRequest(w, apierrors.MsgUnverifiedEmail)
		return nil
	}

	user, created, err := h.users.GetOrCreateByEmail(r.Context(), claims.Email, claims.Subject)
	if err != nil {
		h.logger.Error("Ошибка резолвинга пользователя",
			slog.String("email", claims.Email),
			slog.String("error", err.Error()),
		)
		apierrors.BadRequest(w, apierrors.MsgInternalLoginIssue)
		return nil
	}

	if !user.IsActive {
		h.logger.Warn("Вход деактивированного пользователя отклонён",
			slog.String("user_id", user.ID),
		)
		apierrors.BadRequest(w, apierrors.MsgInternalLoginIssue)
		return nil
	}

	// Флаг staff и момент входа — best effort: их отказ не должен
	// ломать уже подтверждённую аутентификацию
	if err := h.users.SyncGroupFlags(r.Context(), user); err != nil {
		h.logger.Error("Ошибка синхронизации групп", slog.String("error", err.Error()))
	}
	if err := h.users.RecordLogin(r.Context(), user.ID); err != nil {
		h.logger.Error("Ошибка фиксации входа", slog.String("error", err.Error()))
	}

	newSession := &auth.SessionData{
		UserID:  user.ID,
		Email:   user.Email,
		IDToken: tokenResp.IDToken,
	}
	if err := h.sessions.SetSessionCookie(w, newSession); err != nil {
		h.logger.Error("Ошибка установки session cookie", slog.String("error", err.Error()))
		apierrors.BadRequest(w, apierrors.MsgInternalLoginIssue)
		return nil
	}

	h.logger.Info("Пользователь аутентифицирован",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.Bool("created", created),
	)

	http.Redirect(w, r, h.frontendURL, http.StatusFound)
	return nil
}

// HandleLogout — GET /v1/logout
// Очищает локальную сессию и перенаправляет на фронтенд. Идемпотентен:
// без сессии делает то же самое.
func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSessionCookie(w)
	http.Redirect(w, r, h.frontendURL, http.StatusFound)
}

// HandleLogoutOIDC — GET /v1/logout/oidc
// Очищает локальную сессию и перенаправляет на logout endpoint
// Login.gov c id_token hint, если он сохранён в сессии.
func (h *LoginHandler) HandleLogoutOIDC(w http.ResponseWriter, r *http.Request) {
	var idTokenHint string
	if session := sessionUser(h.sessions, r); session != nil {
		idTokenHint = session.IDToken
	}

	h.sessions.ClearSessionCookie(w)

	attempt, err := auth.NewLoginAttempt()
	if err != nil {
		// Без state провайдер logout всё равно выполнит
		h.logger.Error("Ошибка генерации state для logout", slog.String("error", err.Error()))
		http.Redirect(w, r, h.frontendURL, http.StatusFound)
		return
	}

	http.Redirect(w, r, h.oidc.LogoutURL(idTokenHint, h.frontendURL, attempt.State), http.StatusFound)
}

// authCheckResponse — ответ /v1/auth_check.
type authCheckResponse struct {
	Authenticated bool     `json:"authenticated"`
	UserID        string   `json:"user_id,omitempty"`
	Email         string   `json:"email,omitempty"`
	IsStaff       bool     `json:"is_staff,omitempty"`
	IsSuperuser   bool     `json:"is_superuser,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
}

// HandleAuthCheck — GET /v1/auth_check
// Сообщает фронтенду состояние сессии. 200 в обоих случаях.
func (h *LoginHandler) HandleAuthCheck(w http.ResponseWriter, r *http.Request) {
	resp := authCheckResponse{}
	if user := middleware.UserFromContext(r.Context()); user != nil {
		resp.Authenticated = true
		resp.UserID = user.ID
		resp.Email = user.Email
		resp.IsStaff = user.IsStaff
		resp.IsSuperuser = user.IsSuperuser

		perms, err := h.users.Permissions(r.Context(), user)
		if err != nil {
			h.logger.Warn("Не удалось получить разрешения пользователя",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		resp.Permissions = perms
	}
	writeJSON(w, http.StatusOK, resp)
}
