package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/jmoiron/sqlx"
	"github.com/maynagashev/bookstore/internal/handlers"
	appmiddleware "github.com/maynagashev/bookstore/internal/middleware"
	"github.com/maynagashev/bookstore/internal/repository"
	"github.com/maynagashev/bookstore/internal/services"
	"github.com/maynagashev/bookstore/internal/storage"
	"github.com/maynagashev/bookstore/internal/tokens"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	startupTimeout         = 30 * time.Second // На подключение к БД, миграции и MinIO
)

// Подменяются в тестах.
var (
	newPostgresDB = repository.NewPostgresDB
	migrateDB     = repository.Migrate
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db          *sqlx.DB
	fileStorage storage.FileStorage
	issuer      *tokens.Issuer
	authHandler *handlers.AuthHandler
	bookHandler *handlers.BookHandler
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		slog.Error("Ошибка выполнения сервера", slog.Any("error", err))
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Info("Запуск сервера Bookstore...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setupDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer func() {
		if closeErr := deps.db.Close(); closeErr != nil {
			logger.Error("Ошибка закрытия соединения с БД", slog.Any("error", closeErr))
		}
	}()

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      setupRouter(cfg, deps, appmiddleware.NewMetrics(), logger),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		if cfg.tlsEnabled() {
			logger.Info("Запуск HTTPS-сервера",
				slog.String("address", cfg.Address),
				slog.String("cert", cfg.CertFile),
				slog.String("key", cfg.KeyFile))
			serveErr <- server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
			return
		}
		logger.Info("Запуск HTTP-сервера", slog.String("address", cfg.Address))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Получен сигнал остановки, завершаем работу")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	logger.Info("Сервер остановлен")
	return nil
}

// newLogger создает slog-логгер с нужным уровнем и форматом.
func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("неизвестный уровень логирования %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	default:
		return nil, fmt.Errorf("неизвестный формат логов %q", format)
	}
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(ctx context.Context, cfg *config, logger *slog.Logger) (*dependencies, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	deps := &dependencies{}
	var err error

	// 1. Подключение к БД и миграции
	deps.db, err = newPostgresDB(cfg.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}
	closeDB := func() {
		if dbCloseErr := deps.db.Close(); dbCloseErr != nil {
			logger.Error("Ошибка закрытия соединения с БД", slog.Any("error", dbCloseErr))
		}
	}
	if err = migrateDB(ctx, deps.db, logger); err != nil {
		closeDB()
		return nil, fmt.Errorf("ошибка миграции БД: %w", err)
	}

	// 2. Инициализация клиента MinIO
	minioCfg := storage.MinioConfig{
		Endpoint:        cfg.MinioEndpoint,
		AccessKeyID:     cfg.MinioUser,
		SecretAccessKey: cfg.MinioPassword,
		UseSSL:          cfg.MinioUseSSL,
		BucketName:      cfg.MinioBucket,
	}
	deps.fileStorage, err = storage.NewMinioClient(ctx, minioCfg, logger)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	// 3. Репозитории
	userRepo := repository.NewPostgresUserRepository(deps.db, logger)
	bookRepo := repository.NewPostgresBookRepository(deps.db, logger)

	// 4. Сервисы
	deps.issuer = tokens.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authService := services.NewAuthService(userRepo, deps.issuer, logger)
	bookService := services.NewBookService(bookRepo, deps.fileStorage, logger)

	// 5. Обработчики
	deps.authHandler = handlers.NewAuthHandler(authService, logger)
	deps.bookHandler = handlers.NewBookHandler(bookService, logger)

	return deps, nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(cfg *config, deps *dependencies, metrics *appmiddleware.Metrics, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(appmiddleware.SecureHeaders(cfg.tlsEnabled(), logger))
	r.Use(metrics.Middleware)

	// --- Маршруты --- //
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	authenticator := appmiddleware.Authenticator(deps.issuer, logger)

	// Публичные маршруты (регистрация, вход) с ограничением частоты запросов
	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.AuthRateLimit, time.Minute))
		r.Post("/signup", deps.authHandler.SignUp)
		r.Get("/login", deps.authHandler.Login)
		r.Post("/login", deps.authHandler.Login)
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", deps.bookHandler.List)
		r.Get("/{id}", deps.bookHandler.Get)
		r.Patch("/{id}", deps.bookHandler.Update)
		r.Delete("/{id}", deps.bookHandler.Delete)
		r.Get("/{id}/cover", deps.bookHandler.DownloadCover)

		// Приватные маршруты (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/", deps.bookHandler.Create)
			r.Put("/{id}/cover", deps.bookHandler.UploadCover)
		})
	})
	return r
}
