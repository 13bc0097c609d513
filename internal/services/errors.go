package services

import "errors"

// Кастомные ошибки сервисов. Все они терминальны и видны клиенту.
var (
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrDuplicateEmail     = errors.New("email уже зарегистрирован")
	ErrInvalidID          = errors.New("некорректный идентификатор")
	ErrBookNotFound       = errors.New("книга не найдена")
	ErrCoverNotFound      = errors.New("обложка не найдена")
)
