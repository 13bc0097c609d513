package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/maynagashev/bookstore/models"
)

const bookColumns = `id, user_id, title, description, author, price, category, cover_key, created_at, updated_at`

// likeEscaper экранирует спецсимволы LIKE, чтобы ключевое слово искалось как подстрока.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// BookFilter задает параметры выборки списка книг.
type BookFilter struct {
	Keyword string // Подстрока названия, без учета регистра. Пустая - без фильтра.
	Limit   int
	Offset  int
}

// BookRepository определяет методы для работы с книгами в хранилище.
type BookRepository interface {
	ListBooks(ctx context.Context, filter BookFilter) ([]models.Book, error)
	GetBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	CreateBook(ctx context.Context, book *models.Book) error
	UpdateBook(ctx context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	SetCoverKey(ctx context.Context, id uuid.UUID, coverKey string) (*models.Book, error)
}

type postgresBookRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresBookRepository создает репозиторий книг для PostgreSQL.
func NewPostgresBookRepository(db *sqlx.DB, logger *slog.Logger) BookRepository {
	return &postgresBookRepository{db: db, logger: logger.With(slog.String("component", "BookRepo"))}
}

// ListBooks возвращает страницу книг, отсортированных по времени создания.
func (r *postgresBookRepository) ListBooks(ctx context.Context, filter BookFilter) ([]models.Book, error) {
	var (
		query string
		args  []any
	)
	if filter.Keyword != "" {
		query = `SELECT ` + bookColumns + ` FROM books WHERE title ILIKE $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`
		args = []any{"%" + likeEscaper.Replace(filter.Keyword) + "%", filter.Limit, filter.Offset}
	} else {
		query = `SELECT ` + bookColumns + ` FROM books ORDER BY created_at, id LIMIT $1 OFFSET $2`
		args = []any{filter.Limit, filter.Offset}
	}

	books := []models.Book{}
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		r.logger.ErrorContext(ctx, "Ошибка получения списка книг", slog.Any("error", err))
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка книг: %w", err)
	}
	return books, nil
}

// GetBookByID находит книгу по ID.
func (r *postgresBookRepository) GetBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id=$1`
	var book models.Book

	if err := r.db.GetContext(ctx, &book, query, id); err != nil {
		return nil, r.mapError(ctx, err, "получение книги")
	}
	return &book, nil
}

// CreateBook сохраняет новую книгу. ID генерируется здесь же, временные метки - БД.
func (r *postgresBookRepository) CreateBook(ctx context.Context, book *models.Book) error {
	query := `INSERT INTO books (id, user_id, title, description, author, price, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`
	book.ID = uuid.New()

	err := r.db.QueryRowxContext(ctx, query,
		book.ID, book.UserID, book.Title, book.Description, book.Author, book.Price, book.Category,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Ошибка создания книги", slog.Any("error", err))
		return fmt.Errorf("ошибка выполнения запроса на создание книги: %w", err)
	}

	r.logger.InfoContext(ctx, "Книга создана", slog.String("id", book.ID.String()))
	return nil
}

// UpdateBook обновляет описание, автора и цену. nil-поля сохраняют текущее значение.
func (r *postgresBookRepository) UpdateBook(
	ctx context.Context,
	id uuid.UUID,
	upd models.BookUpdate,
) (*models.Book, error) {
	query := `UPDATE books SET
		description = COALESCE($2, description),
		author = COALESCE($3, author),
		price = COALESCE($4, price),
		updated_at = NOW()
		WHERE id=$1 RETURNING ` + bookColumns
	var book models.Book

	if err := r.db.GetContext(ctx, &book, query, id, upd.Description, upd.Author, upd.Price); err != nil {
		return nil, r.mapError(ctx, err, "обновление книги")
	}
	return &book, nil
}

// DeleteBook удаляет книгу и возвращает удаленную запись.
func (r *postgresBookRepository) DeleteBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	query := `DELETE FROM books WHERE id=$1 RETURNING ` + bookColumns
	var book models.Book

	if err := r.db.GetContext(ctx, &book, query, id); err != nil {
		return nil, r.mapError(ctx, err, "удаление книги")
	}

	r.logger.InfoContext(ctx, "Книга удалена", slog.String("id", id.String()))
	return &book, nil
}

// SetCoverKey сохраняет ключ объекта обложки.
func (r *postgresBookRepository) SetCoverKey(ctx context.Context, id uuid.UUID, coverKey string) (*models.Book, error) {
	query := `UPDATE books SET cover_key=$2, updated_at = NOW() WHERE id=$1 RETURNING ` + bookColumns
	var book models.Book

	if err := r.db.GetContext(ctx, &book, query, id, coverKey); err != nil {
		return nil, r.mapError(ctx, err, "сохранение обложки")
	}
	return &book, nil
}

func (r *postgresBookRepository) mapError(ctx context.Context, err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookNotFound
	}
	r.logger.ErrorContext(ctx, "Ошибка запроса к таблице книг", slog.String("op", op), slog.Any("error", err))
	return fmt.Errorf("ошибка выполнения запроса (%s): %w", op, err)
}
