package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maynagashev/bookstore/internal/services"
)

// ErrValidation - входные данные не прошли проверку.
var ErrValidation = errors.New("ошибка валидации")

// maxBodyBytes ограничивает размер JSON-тела запроса.
const maxBodyBytes = 1 << 20

// newValidator создает валидатор, который называет поля по их JSON-именам.
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// decodeAndValidate читает JSON из тела запроса и проверяет его тэгами validate.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: неверный формат запроса", ErrValidation)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, describeValidation(err))
	}
	return nil
}

// describeValidation превращает ошибки validator в короткое сообщение для клиента.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+": обязательное поле")
		case "max":
			msgs = append(msgs, field+": не длиннее "+fe.Param()+" символов")
		case "min":
			msgs = append(msgs, field+": не короче "+fe.Param()+" символов")
		case "email":
			msgs = append(msgs, field+": некорректный email")
		case "oneof":
			msgs = append(msgs, field+": допустимые значения "+strings.ReplaceAll(fe.Param(), " ", ", "))
		default:
			msgs = append(msgs, field+": некорректное значение")
		}
	}
	return strings.Join(msgs, "; ")
}

// writeJSON отправляет ответ в формате JSON.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Клиент уже получил статус, сложно что-то изменить
		logger.Error("Ошибка кодирования ответа", slog.Any("error", err))
	}
}

// writeServiceError сопоставляет ошибки сервисов с HTTP-статусами.
// Детали внутренних ошибок только логируются.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrDuplicateEmail):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, services.ErrBookNotFound), errors.Is(err, services.ErrCoverNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logger.ErrorContext(r.Context(), "Внутренняя ошибка", slog.String("path", r.URL.Path), slog.Any("error", err))
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}
