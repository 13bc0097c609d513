package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Тип для ключа контекста.
type contextKey string

// UserIDKey - ключ для хранения ID пользователя в контексте.
const UserIDKey contextKey = "userID"

// TokenParser проверяет токен и возвращает ID пользователя.
type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

// Authenticator возвращает middleware, пропускающее только запросы с валидным Bearer токеном.
func Authenticator(parser TokenParser, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "AuthMiddleware"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Требуется аутентификация", http.StatusUnauthorized)
				return
			}

			// Проверяем формат "Bearer token"
			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") || headerParts[1] == "" {
				logger.InfoContext(r.Context(), "Неверный формат заголовка Authorization")
				http.Error(w, "Неверный формат токена", http.StatusUnauthorized)
				return
			}

			userID, err := parser.Parse(headerParts[1])
			if err != nil {
				logger.InfoContext(r.Context(), "Токен не прошел проверку", slog.Any("error", err))
				http.Error(w, "Невалидный токен", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext извлекает ID пользователя из контекста запроса.
// Возвращает ID и true, если он найден, иначе uuid.Nil и false.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
