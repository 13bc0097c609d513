package models

import (
	"time"

	"github.com/google/uuid"
)

// User представляет зарегистрированного пользователя магазина.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
// Тэги `json` используются для (де)сериализации JSON.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Не отправляем хеш пароля в JSON
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SignUpRequest представляет тело запроса на регистрацию.
type SignUpRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,max=255,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest представляет тело запроса на вход.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=255,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse представляет тело ответа с выданным токеном.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}
