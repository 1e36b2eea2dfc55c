// Точка входа TDP Backend — бэкенд портала отчётности TANF.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует клиентов Login.gov, ClamAV и S3, создаёт сервисный слой
// и API handlers, запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/George-Hudson/TANF-app/internal/api/handlers"
	"github.com/George-Hudson/TANF-app/internal/api/middleware"
	"github.com/George-Hudson/TANF-app/internal/auth"
	"github.com/George-Hudson/TANF-app/internal/clamav"
	"github.com/George-Hudson/TANF-app/internal/config"
	"github.com/George-Hudson/TANF-app/internal/database"
	"github.com/George-Hudson/TANF-app/internal/repository"
	"github.com/George-Hudson/TANF-app/internal/server"
	"github.com/George-Hudson/TANF-app/internal/service"
	"github.com/George-Hudson/TANF-app/internal/storage"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("TDP Backend запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("TDP_DEPHEALTH_GROUP") == "" {
		logger.Warn("TDP_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Ключ подписи client assertion. Отсутствие ключа — дефект
	// деплоя: вход не заработает, падаем сразу
	signingKey, err := auth.ParseSigningKey(cfg.JWTKey)
	if err != nil {
		logger.Error("Ошибка загрузки ключа подписи JWT", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 6. Repositories
	userRepo := repository.NewUserRepository(pool)
	scanRepo := repository.NewClamAVScanRepository(pool)
	fileRepo := repository.NewDataFileRepository(pool)
	permRepo := repository.NewPermissionRepository(pool)

	// 7. JWKS Login.gov. Недоступность JWKS не блокирует старт:
	// подпись id_token тогда не проверяется, claims извлекаются напрямую
	jwks, err := auth.NewJWKSKeyfunc(cfg.OIDCJWKSURL, cfg.JWKSRefreshInterval, cfg.OIDCClientTimeout, logger)
	if err != nil {
		logger.Warn("JWKS Login.gov недоступен, подпись id_token не проверяется",
			slog.String("jwks_url", cfg.OIDCJWKSURL),
			slog.String("error", err.Error()),
		)
		jwks = nil
	}

	// 8. OIDC-клиент Login.gov (private_key_jwt)
	oidcClient := auth.NewOIDCClient(auth.OIDCConfig{
		ClientID:     cfg.OIDCClientID,
		AuthorizeURL: cfg.OIDCAuthorizeURL,
		TokenURL:     cfg.OIDCTokenURL,
		LogoutURL:    cfg.OIDCLogoutURL,
		Issuer:       cfg.OIDCIssuer,
		RedirectURI:  strings.TrimRight(cfg.BaseURL, "/") + "/v1/login",
		SigningKey:   signingKey,
		JWKS:         jwks,
		Timeout:      cfg.OIDCClientTimeout,
	})
	logger.Info("OIDC-клиент Login.gov создан", slog.String("issuer", cfg.OIDCIssuer))

	// 9. Session Manager (AES-256-GCM cookie)
	secureCookie := strings.HasPrefix(cfg.BaseURL, "https")
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, secureCookie)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("TDP_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}

	// 10. ClamAV и S3
	avClient := clamav.New(cfg.AVScanURL, cfg.AVScanTimeout, logger)
	store, err := storage.NewS3Store(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка создания S3-клиента", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. Services
	usersSvc := service.NewUsersService(userRepo, permRepo, logger)
	scanSvc := service.NewScanService(avClient, scanRepo, logger)
	dataFilesSvc := service.NewDataFilesService(scanSvc, fileRepo, store, logger)

	// 12. Начальный суперпользователь (TDP_SU_EMAIL)
	if err := usersSvc.EnsureSuperuser(ctx, cfg.SuperuserEmail); err != nil {
		logger.Error("Ошибка назначения суперпользователя", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. Readiness checkers + health handler
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker, avClient)

	// 14. Обработчики и middleware сессий
	loginHandler := handlers.NewLoginHandler(
		oidcClient, sessionMgr, usersSvc,
		cfg.FrontendURL, cfg.LoginAttemptMaxAge,
		logger,
	)
	apiHandler := handlers.NewAPIHandler(healthHandler, loginHandler, dataFilesSvc, scanSvc, logger)

	authenticator := auth.NewAuthenticator(userRepo, logger)
	sessionAuth := middleware.NewSessionAuth(sessionMgr, authenticator, logger)

	// 15. topologymetrics — мониторинг зависимостей
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"tdp-backend",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.OIDCJWKSURL,
		cfg.AVScanURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 16. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, sessionAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 17. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("TDP Backend остановлен")
}
