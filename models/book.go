package models

import (
	"time"

	"github.com/google/uuid"
)

// Category - жанр книги.
type Category string

// Допустимые жанры.
const (
	CategoryAdventure Category = "adventure"
	CategoryClassics  Category = "classics"
	CategoryCrime     Category = "crime"
	CategoryFantasy   Category = "fantasy"
)

// Book представляет запись каталога.
// UserID заполняется, если книга создана аутентифицированным пользователем.
type Book struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      *uuid.UUID `db:"user_id" json:"user,omitempty"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Author      *string    `db:"author" json:"author,omitempty"`
	Price       *float64   `db:"price" json:"price,omitempty"`
	Category    *Category  `db:"category" json:"category,omitempty"`
	CoverKey    *string    `db:"cover_key" json:"-"` // Ключ объекта обложки в хранилище
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// HasCover сообщает, загружена ли для книги обложка.
func (b *Book) HasCover() bool {
	return b.CoverKey != nil && *b.CoverKey != ""
}

// CreateBookRequest представляет тело запроса на создание книги.
type CreateBookRequest struct {
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description" validate:"required,max=500"`
	Author      *string   `json:"author,omitempty" validate:"omitempty"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty"`
	Category    *Category `json:"category,omitempty" validate:"omitempty,oneof=adventure classics crime fantasy"`
}

// UpdateBookRequest представляет тело запроса на частичное обновление книги.
// Category валидируется, но не применяется: жанр после создания не меняется.
type UpdateBookRequest struct {
	Description *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Author      *string   `json:"author,omitempty" validate:"omitempty"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty"`
	Category    *Category `json:"category,omitempty" validate:"omitempty,oneof=adventure classics crime fantasy"`
}

// BookUpdate - набор изменяемых полей книги. nil означает "оставить как есть".
type BookUpdate struct {
	Description *string
	Author      *string
	Price       *float64
}

// DeleteBookResponse представляет тело ответа на удаление книги.
type DeleteBookResponse struct {
	Deleted bool `json:"deleted"`
}
