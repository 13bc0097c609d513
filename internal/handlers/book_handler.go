package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/maynagashev/bookstore/internal/middleware"
	"github.com/maynagashev/bookstore/internal/services"
	"github.com/maynagashev/bookstore/models"
)

const (
	maxCoverBytes = 5 << 20 // Максимальный размер обложки
	sniffLen      = 512     // Сколько байт нужно http.DetectContentType
)

// BookHandler обрабатывает HTTP-запросы, связанные с книгами.
type BookHandler struct {
	service  services.BookService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewBookHandler создает новый экземпляр BookHandler.
func NewBookHandler(s services.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		service:  s,
		validate: newValidator(),
		logger:   logger.With(slog.String("component", "BookHandler")),
	}
}

// List обрабатывает GET /books?keyword=&page=.
// Нечисловая страница трактуется как первая.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	keyword := query.Get("keyword")
	if !utf8.ValidString(keyword) {
		writeServiceError(w, r, h.logger, fmt.Errorf("%w: keyword: некорректная кодировка", ErrValidation))
		return
	}

	books, err := h.service.ListBooks(r.Context(), keyword, page)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, books)
}

// Get обрабатывает GET /books/{id}.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, book)
}

// Create обрабатывает POST /books. Требует аутентификации: книга помечается ID владельца.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	// Без пользователя в контексте книга сохраняется без владельца.
	var ownerID *uuid.UUID
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		ownerID = &userID
	}

	book, err := h.service.CreateBook(r.Context(), req, ownerID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, book)
}

// Update обрабатывает PATCH /books/{id}.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateBookRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), chi.URLParam(r, "id"), models.BookUpdate{
		Description: req.Description,
		Author:      req.Author,
		Price:       req.Price,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, book)
}

// Delete обрабатывает DELETE /books/{id}.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.DeleteBook(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.DeleteBookResponse{Deleted: true})
}

// UploadCover обрабатывает PUT /books/{id}/cover. Тело запроса - байты изображения.
func (h *BookHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	size := r.ContentLength
	if size <= 0 {
		http.Error(w, "Неверный или отсутствующий заголовок Content-Length", http.StatusBadRequest)
		return
	}
	if size > maxCoverBytes {
		http.Error(w, "Файл слишком большой", http.StatusRequestEntityTooLarge)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := http.MaxBytesReader(w, r.Body, maxCoverBytes)
	book, err := h.service.UploadCover(r.Context(), chi.URLParam(r, "id"), body, size, contentType)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Файл слишком большой", http.StatusRequestEntityTooLarge)
			return
		}
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, book)
}

// DownloadCover обрабатывает GET /books/{id}/cover.
func (h *BookHandler) DownloadCover(w http.ResponseWriter, r *http.Request) {
	reader, book, err := h.service.DownloadCover(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			h.logger.WarnContext(r.Context(), "Ошибка закрытия обложки", slog.Any("error", closeErr))
		}
	}()

	// Тип содержимого определяем по первым байтам изображения.
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeServiceError(w, r, h.logger, err)
		return
	}
	head = head[:n]

	w.Header().Set("Content-Type", http.DetectContentType(head))
	w.Header().Set("Content-Disposition", `inline; filename="`+book.ID.String()+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(head); err == nil {
		_, err = io.Copy(w, reader)
	}
	if err != nil {
		h.logger.WarnContext(r.Context(), "Ошибка отправки обложки", slog.Any("error", err))
	}
}
