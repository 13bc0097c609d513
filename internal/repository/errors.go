package repository

import "errors"

// Коды ошибок PostgreSQL.
const (
	pgUniqueViolationCode = "23505"
)

// Кастомные ошибки репозитория.
var (
	ErrUserNotFound = errors.New("пользователь не найден")
	ErrEmailTaken   = errors.New("email уже занят")
	ErrBookNotFound = errors.New("книга не найдена")
)
