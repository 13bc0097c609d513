package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/maynagashev/bookstore/internal/repository"
	"github.com/maynagashev/bookstore/internal/storage"
	"github.com/maynagashev/bookstore/models"
)

// BooksPerPage - фиксированный размер страницы списка книг.
const BooksPerPage = 2

// BookService определяет интерфейс для сервиса работы с книгами.
type BookService interface {
	ListBooks(ctx context.Context, keyword string, page int) ([]models.Book, error)
	GetBook(ctx context.Context, id string) (*models.Book, error)
	CreateBook(ctx context.Context, req models.CreateBookRequest, ownerID *uuid.UUID) (*models.Book, error)
	UpdateBook(ctx context.Context, id string, upd models.BookUpdate) (*models.Book, error)
	DeleteBook(ctx context.Context, id string) (*models.Book, error)
	UploadCover(ctx context.Context, id string, reader io.Reader, size int64, contentType string) (*models.Book, error)
	DownloadCover(ctx context.Context, id string) (io.ReadCloser, *models.Book, error)
}

var _ BookService = (*bookService)(nil) // Проверка соответствия интерфейсу

type bookService struct {
	bookRepo repository.BookRepository
	covers   storage.FileStorage
	logger   *slog.Logger
}

// NewBookService создает новый экземпляр сервиса книг.
func NewBookService(bookRepo repository.BookRepository, covers storage.FileStorage, logger *slog.Logger) BookService {
	return &bookService{
		bookRepo: bookRepo,
		covers:   covers,
		logger:   logger.With(slog.String("component", "BookService")),
	}
}

// ListBooks возвращает страницу книг. Номера страниц меньше 1 приводятся к 1.
func (s *bookService) ListBooks(ctx context.Context, keyword string, page int) ([]models.Book, error) {
	if page < 1 {
		page = 1
	}
	// Смещение такой страницы не помещается в int: книг на ней заведомо нет.
	if page-1 > math.MaxInt/BooksPerPage {
		return []models.Book{}, nil
	}

	books, err := s.bookRepo.ListBooks(ctx, repository.BookFilter{
		Keyword: keyword,
		Limit:   BooksPerPage,
		Offset:  BooksPerPage * (page - 1),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка книг: %w", err)
	}
	return books, nil
}

// GetBook возвращает книгу по ID.
func (s *bookService) GetBook(ctx context.Context, id string) (*models.Book, error) {
	bookID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	book, err := s.bookRepo.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, mapBookError(err, "получения книги")
	}
	return book, nil
}

// CreateBook сохраняет книгу. Поля уже провалидированы вызывающей стороной.
func (s *bookService) CreateBook(
	ctx context.Context,
	req models.CreateBookRequest,
	ownerID *uuid.UUID,
) (*models.Book, error) {
	book := &models.Book{
		UserID:      ownerID,
		Title:       req.Title,
		Description: req.Description,
		Author:      req.Author,
		Price:       req.Price,
		Category:    req.Category,
	}

	if err := s.bookRepo.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("ошибка создания книги: %w", err)
	}

	s.logger.InfoContext(ctx, "Книга создана", slog.String("book_id", book.ID.String()))
	return book, nil
}

// UpdateBook применяет описание, автора и цену. Название и жанр не меняются.
func (s *bookService) UpdateBook(ctx context.Context, id string, upd models.BookUpdate) (*models.Book, error) {
	bookID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	book, err := s.bookRepo.UpdateBook(ctx, bookID, upd)
	if err != nil {
		return nil, mapBookError(err, "обновления книги")
	}
	return book, nil
}

// DeleteBook удаляет книгу и возвращает удаленную запись.
// Обложка удаляется из хранилища по возможности: ошибка только логируется.
func (s *bookService) DeleteBook(ctx context.Context, id string) (*models.Book, error) {
	bookID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	book, err := s.bookRepo.DeleteBook(ctx, bookID)
	if err != nil {
		return nil, mapBookError(err, "удаления книги")
	}

	if book.HasCover() && s.covers != nil {
		if delErr := s.covers.DeleteFile(ctx, *book.CoverKey); delErr != nil {
			s.logger.WarnContext(ctx, "Не удалось удалить обложку",
				slog.String("book_id", id), slog.Any("error", delErr))
		}
	}

	s.logger.InfoContext(ctx, "Книга удалена", slog.String("book_id", id))
	return book, nil
}

// UploadCover загружает обложку книги и сохраняет ключ объекта.
func (s *bookService) UploadCover(
	ctx context.Context,
	id string,
	reader io.Reader,
	size int64,
	contentType string,
) (*models.Book, error) {
	bookID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	// Проверяем книгу до загрузки, чтобы не оставлять в хранилище сирот.
	if _, err = s.bookRepo.GetBookByID(ctx, bookID); err != nil {
		return nil, mapBookError(err, "получения книги")
	}

	key := coverKey(bookID)
	if err = s.covers.UploadFile(ctx, key, reader, size, contentType); err != nil {
		return nil, fmt.Errorf("ошибка загрузки обложки: %w", err)
	}

	book, err := s.bookRepo.SetCoverKey(ctx, bookID, key)
	if err != nil {
		return nil, mapBookError(err, "сохранения обложки")
	}

	s.logger.InfoContext(ctx, "Обложка загружена", slog.String("book_id", id), slog.Int64("size", size))
	return book, nil
}

// DownloadCover возвращает содержимое обложки. Вызывающий закрывает ReadCloser.
func (s *bookService) DownloadCover(ctx context.Context, id string) (io.ReadCloser, *models.Book, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !book.HasCover() {
		return nil, nil, ErrCoverNotFound
	}

	reader, err := s.covers.DownloadFile(ctx, *book.CoverKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrCoverNotFound
		}
		return nil, nil, fmt.Errorf("ошибка скачивания обложки: %w", err)
	}
	return reader, book, nil
}

func coverKey(bookID uuid.UUID) string {
	return "covers/" + bookID.String()
}

// parseID проверяет, что id - корректный UUID.
func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return parsed, nil
}

func mapBookError(err error, op string) error {
	if errors.Is(err, repository.ErrBookNotFound) {
		return ErrBookNotFound
	}
	return fmt.Errorf("ошибка %s: %w", op, err)
}
