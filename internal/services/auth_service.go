package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maynagashev/bookstore/internal/repository"
	"github.com/maynagashev/bookstore/models"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost - стоимость bcrypt при хешировании паролей.
const PasswordCost = bcrypt.DefaultCost

// AuthService определяет интерфейс для сервиса аутентификации.
type AuthService interface {
	SignUp(ctx context.Context, name, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error) // Возвращает JWT токен или ошибку
}

// TokenIssuer выдает подписанный токен для пользователя.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo repository.UserRepository
	issuer   TokenIssuer
	logger   *slog.Logger
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(userRepo repository.UserRepository, issuer TokenIssuer, logger *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		issuer:   issuer,
		logger:   logger.With(slog.String("component", "AuthService")),
	}
}

// SignUp регистрирует пользователя и возвращает токен.
// Наличие email заранее не проверяется: дубликат отклоняет ограничение БД.
func (s *authService) SignUp(ctx context.Context, name, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return "", err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	userID, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			s.logger.InfoContext(ctx, "Попытка регистрации с занятым email", slog.String("email", email))
			return "", ErrDuplicateEmail
		}
		return "", fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	token, err := s.issuer.Issue(userID)
	if err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}

	s.logger.InfoContext(ctx, "Пользователь зарегистрирован", slog.String("user_id", userID.String()))
	return token, nil
}

// Login проверяет учетные данные и возвращает токен.
// Несуществующий email и неверный пароль неразличимы для клиента.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.InfoContext(ctx, "Вход с несуществующим email", slog.String("email", email))
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return "", err
	}
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	// Запрос отменен во время сравнения: результат уже никому не нужен.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		s.logger.InfoContext(ctx, "Неверный пароль", slog.String("user_id", user.ID.String()))
		return "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}

	s.logger.InfoContext(ctx, "Пользователь аутентифицирован", slog.String("user_id", user.ID.String()))
	return token, nil
}
