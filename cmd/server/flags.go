package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// config хранит конфигурацию сервера.
// Значения по умолчанию и переменные окружения читаются envconfig, флаги их переопределяют.
type config struct {
	Address  string `envconfig:"SERVER_ADDRESS" default:":8080"`
	CertFile string `envconfig:"TLS_CERT_FILE"`
	KeyFile  string `envconfig:"TLS_KEY_FILE"`

	DatabaseDSN string `envconfig:"DATABASE_DSN"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	MinioEndpoint string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	MinioUser     string `envconfig:"MINIO_USER" default:"minioadmin"`
	MinioPassword string `envconfig:"MINIO_PASSWORD" default:"minioadmin"`
	MinioBucket   string `envconfig:"MINIO_BUCKET" default:"bookstore-covers"`
	MinioUseSSL   bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	AuthRateLimit  int           `envconfig:"AUTH_RATE_LIMIT" default:"20"` // Запросов в минуту с одного IP
}

// tlsEnabled сообщает, нужно ли запускать HTTPS-сервер.
func (c *config) tlsEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// parseFlags читает переменные окружения и флаги, возвращает config или ошибку.
func parseFlags(args []string) (*config, error) {
	cfg := &config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "address", cfg.Address, "Адрес HTTP-сервера (env: SERVER_ADDRESS)")
	fs.StringVar(&cfg.CertFile, "cert-file", cfg.CertFile, "Путь к файлу TLS-сертификата (env: TLS_CERT_FILE)")
	fs.StringVar(&cfg.KeyFile, "key-file", cfg.KeyFile, "Путь к файлу TLS-ключа (env: TLS_KEY_FILE)")
	fs.StringVar(&cfg.DatabaseDSN, "database-dsn", cfg.DatabaseDSN, "Строка подключения к базе данных (env: DATABASE_DSN)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Секрет для подписи JWT (env: JWT_SECRET)")
	fs.DurationVar(&cfg.JWTTTL, "jwt-ttl", cfg.JWTTTL, "Время жизни токена (env: JWT_TTL)")
	fs.StringVar(&cfg.MinioEndpoint, "minio-endpoint", cfg.MinioEndpoint, "Адрес MinIO (env: MINIO_ENDPOINT)")
	fs.StringVar(&cfg.MinioBucket, "minio-bucket", cfg.MinioBucket, "Бакет для обложек (env: MINIO_BUCKET)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Уровень логирования: debug, info, warn, error (env: LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Формат логов: text или json (env: LOG_FORMAT)")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout,
		"Таймаут обработки запроса (env: REQUEST_TIMEOUT)")
	fs.IntVar(&cfg.AuthRateLimit, "auth-rate-limit", cfg.AuthRateLimit,
		"Лимит запросов к /auth в минуту с одного IP (env: AUTH_RATE_LIMIT)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("ошибка разбора флагов: %w", err)
	}

	// Проверяем обязательные параметры
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("не указана строка подключения к БД (--database-dsn или DATABASE_DSN)")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("не указан секрет JWT (--jwt-secret или JWT_SECRET)")
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("для HTTPS нужно указать и сертификат, и ключ (--cert-file и --key-file)")
	}
	if cfg.AuthRateLimit <= 0 {
		return nil, errors.New("лимит запросов к /auth должен быть положительным")
	}

	return cfg, nil
}
