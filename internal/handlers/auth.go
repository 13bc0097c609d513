package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/maynagashev/bookstore/internal/services"
	"github.com/maynagashev/bookstore/models"
)

// AuthHandler обрабатывает HTTP-запросы, связанные с аутентификацией.
type AuthHandler struct {
	service  services.AuthService // Зависимость от интерфейса, а не конкретной реализации
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(s services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  s,
		validate: newValidator(),
		logger:   logger.With(slog.String("component", "AuthHandler")),
	}
}

// SignUp обрабатывает запрос на регистрацию нового пользователя.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	token, err := h.service.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, models.TokenResponse{AccessToken: token})
}

// Login обрабатывает запрос на вход пользователя.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, models.TokenResponse{AccessToken: token})
}
