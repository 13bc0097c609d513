package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maynagashev/bookstore/models"
)

// UserRepository определяет методы для работы с данными пользователей в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (uuid.UUID, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// postgresUserRepository реализует UserRepository для PostgreSQL.
type postgresUserRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresUserRepository создает новый экземпляр репозитория пользователей для PostgreSQL.
func NewPostgresUserRepository(db *sqlx.DB, logger *slog.Logger) UserRepository {
	return &postgresUserRepository{db: db, logger: logger.With(slog.String("component", "UserRepo"))}
}

// CreateUser создает нового пользователя в базе данных.
// Уникальность email обеспечивается ограничением БД: при гонке двух
// регистраций проигравшая вставка получает ErrEmailTaken.
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) (uuid.UUID, error) {
	query := `INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`
	id := uuid.New()

	err := r.db.QueryRowxContext(ctx, query, id, user.Name, user.Email, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			r.logger.InfoContext(ctx, "Email уже занят", slog.String("email", user.Email))
			return uuid.Nil, ErrEmailTaken
		}
		r.logger.ErrorContext(ctx, "Ошибка создания пользователя", slog.String("email", user.Email), slog.Any("error", err))
		return uuid.Nil, fmt.Errorf("ошибка выполнения запроса на создание пользователя: %w", err)
	}

	user.ID = id
	r.logger.InfoContext(ctx, "Пользователь создан", slog.String("id", id.String()))
	return id, nil
}

// GetUserByEmail находит пользователя по email (с учетом регистра).
func (r *postgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, name, email, password_hash, created_at, updated_at FROM users WHERE email=$1`
	var user models.User

	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		r.logger.ErrorContext(ctx, "Ошибка поиска пользователя", slog.Any("error", err))
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}

	return &user, nil
}
