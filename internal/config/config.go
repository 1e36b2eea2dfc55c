// Пакет config — загрузка и валидация конфигурации TDP Backend
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации TDP Backend.
// Разрешается один раз при старте процесса и передаётся коллабораторам
// явно, а не читается из глобального состояния.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
	// Разрешённые хосты (заголовок Host); пусто — любые
	AllowedHosts []string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- OIDC (Login.gov) ---

	// Issuer OIDC-провайдера (например, https://idp.int.identitysandbox.gov)
	OIDCIssuer string
	// Client ID, зарегистрированный у провайдера
	OIDCClientID string
	// URL authorize endpoint (авто-вычисляется из OIDCIssuer, если не задан)
	OIDCAuthorizeURL string
	// URL token endpoint (авто-вычисляется из OIDCIssuer, если не задан)
	OIDCTokenURL string
	// URL logout endpoint (авто-вычисляется из OIDCIssuer, если не задан)
	OIDCLogoutURL string
	// URL JWKS endpoint (авто-вычисляется из OIDCIssuer, если не задан)
	OIDCJWKSURL string
	// Таймаут HTTP-запросов к провайдеру
	OIDCClientTimeout time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Приватный ключ подписи client assertion (base64-кодированный PEM).
	// Отсутствие ключа — дефект деплоя: процесс не стартует.
	JWTKey string

	// --- Сессии ---

	// Ключ шифрования session cookie (base64 или произвольная строка)
	SessionSecret string
	// Максимальный возраст незавершённой попытки входа (nonce/state)
	LoginAttemptMaxAge time.Duration

	// --- Приложение ---

	// Внешний URL этого бэкенда (для redirect_uri OIDC)
	BaseURL string
	// URL фронтенда для redirect после входа/выхода
	FrontendURL string
	// Email начального суперпользователя (предзасеивается миграцией)
	SuperuserEmail string

	// --- ClamAV ---

	// URL REST-endpoint антивирусного сканера (например, http://clamav-rest:9000/scan)
	AVScanURL string
	// Таймаут запросов к сканеру
	AVScanTimeout time.Duration

	// --- S3 (хранилище файлов данных) ---

	// Endpoint S3-совместимого хранилища
	S3Endpoint string
	// Регион S3
	S3Region string
	// Ключ доступа S3
	S3AccessKey string
	// Секретный ключ S3
	S3SecretKey string
	// Бакет для файлов данных
	S3Bucket string

	// --- Мониторинг зависимостей ---

	// Имя группы topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// TDP_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("TDP_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("TDP_PORT: %w", err)
	}

	// TDP_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("TDP_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("TDP_LOG_LEVEL: %w", err)
	}

	// TDP_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("TDP_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("TDP_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// TDP_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("TDP_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TDP_SHUTDOWN_TIMEOUT: %w", err)
	}

	// TDP_ALLOWED_HOSTS — разрешённые хосты через запятую (опционально)
	cfg.AllowedHosts = parseCSV(getEnvDefault("TDP_ALLOWED_HOSTS", ""))

	// --- PostgreSQL ---

	// TDP_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("TDP_DB_HOST")
	if err != nil {
		return nil, err
	}

	// TDP_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("TDP_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("TDP_DB_PORT: %w", err)
	}

	// TDP_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("TDP_DB_NAME")
	if err != nil {
		return nil, err
	}

	// TDP_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("TDP_DB_USER")
	if err != nil {
		return nil, err
	}

	// TDP_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("TDP_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// TDP_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("TDP_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("TDP_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- OIDC ---

	// TDP_OIDC_ISSUER — обязательный
	cfg.OIDCIssuer, err = getEnvRequired("TDP_OIDC_ISSUER")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.OIDCIssuer = strings.TrimRight(cfg.OIDCIssuer, "/")

	// TDP_OIDC_CLIENT_ID — обязательный
	cfg.OIDCClientID, err = getEnvRequired("TDP_OIDC_CLIENT_ID")
	if err != nil {
		return nil, err
	}

	// Endpoints провайдера — авто-вычисляются из issuer (пути Login.gov),
	// могут быть переопределены явно
	cfg.OIDCAuthorizeURL = getEnvDefault("TDP_OIDC_AUTHORIZE_URL", cfg.OIDCIssuer+"/openid_connect/authorize")
	cfg.OIDCTokenURL = getEnvDefault("TDP_OIDC_TOKEN_URL", cfg.OIDCIssuer+"/api/openid_connect/token")
	cfg.OIDCLogoutURL = getEnvDefault("TDP_OIDC_LOGOUT_URL", cfg.OIDCIssuer+"/openid_connect/logout")
	cfg.OIDCJWKSURL = getEnvDefault("TDP_OIDC_JWKS_URL", cfg.OIDCIssuer+"/api/openid_connect/certs")

	// TDP_OIDC_CLIENT_TIMEOUT — таймаут запросов к провайдеру (по умолчанию 30s)
	cfg.OIDCClientTimeout, err = getEnvDuration("TDP_OIDC_CLIENT_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TDP_OIDC_CLIENT_TIMEOUT: %w", err)
	}

	// TDP_JWKS_REFRESH_INTERVAL — интервал обновления JWKS (по умолчанию 1h)
	cfg.JWKSRefreshInterval, err = getEnvDuration("TDP_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("TDP_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// TDP_JWT_KEY — обязательный (base64 PEM приватного ключа)
	cfg.JWTKey, err = getEnvRequired("TDP_JWT_KEY")
	if err != nil {
		return nil, err
	}

	// --- Сессии ---

	// TDP_SESSION_SECRET — ключ шифрования сессий (опционально; пустой —
	// генерируется случайный, сессии не переживают рестарт)
	cfg.SessionSecret = getEnvDefault("TDP_SESSION_SECRET", "")

	// TDP_LOGIN_ATTEMPT_MAX_AGE — максимальный возраст попытки входа (по умолчанию 15m)
	cfg.LoginAttemptMaxAge, err = getEnvDuration("TDP_LOGIN_ATTEMPT_MAX_AGE", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("TDP_LOGIN_ATTEMPT_MAX_AGE: %w", err)
	}

	// --- Приложение ---

	// TDP_BASE_URL — внешний URL бэкенда (по умолчанию http://localhost:8080)
	cfg.BaseURL = strings.TrimRight(getEnvDefault("TDP_BASE_URL", "http://localhost:8080"), "/")

	// TDP_FRONTEND_URL — URL фронтенда (по умолчанию http://localhost:3000)
	cfg.FrontendURL = getEnvDefault("TDP_FRONTEND_URL", "http://localhost:3000")

	// TDP_SU_EMAIL — email начального суперпользователя (опционально)
	cfg.SuperuserEmail = getEnvDefault("TDP_SU_EMAIL", "")

	// --- ClamAV ---

	// TDP_AV_SCAN_URL — обязательный
	cfg.AVScanURL, err = getEnvRequired("TDP_AV_SCAN_URL")
	if err != nil {
		return nil, err
	}

	// TDP_AV_SCAN_TIMEOUT — таймаут запросов к сканеру (по умолчанию 30s)
	cfg.AVScanTimeout, err = getEnvDuration("TDP_AV_SCAN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TDP_AV_SCAN_TIMEOUT: %w", err)
	}

	// --- S3 ---

	// TDP_S3_ENDPOINT — endpoint хранилища (пустой — стандартный AWS)
	cfg.S3Endpoint = getEnvDefault("TDP_S3_ENDPOINT", "")
	// TDP_S3_REGION — регион (по умолчанию us-gov-west-1)
	cfg.S3Region = getEnvDefault("TDP_S3_REGION", "us-gov-west-1")
	// TDP_S3_ACCESS_KEY / TDP_S3_SECRET_KEY — учётные данные (опциональны
	// при использовании IAM-ролей)
	cfg.S3AccessKey = getEnvDefault("TDP_S3_ACCESS_KEY", "")
	cfg.S3SecretKey = getEnvDefault("TDP_S3_SECRET_KEY", "")
	// TDP_S3_BUCKET — бакет файлов данных (по умолчанию tdp-datafiles)
	cfg.S3Bucket = getEnvDefault("TDP_S3_BUCKET", "tdp-datafiles")

	// --- Мониторинг зависимостей ---

	// TDP_DEPHEALTH_GROUP — группа topologymetrics (по умолчанию tdp)
	cfg.DephealthGroup = getEnvDefault("TDP_DEPHEALTH_GROUP", "tdp")

	// TDP_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("TDP_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TDP_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL (для миграций и метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
