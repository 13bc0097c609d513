package handlers_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maynagashev/bookstore/models"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock AuthService --- //

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, name, email, password string) (string, error) {
	args := m.Called(ctx, name, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

// --- Mock BookService --- //

type MockBookService struct {
	mock.Mock
}

func (m *MockBookService) ListBooks(ctx context.Context, keyword string, page int) ([]models.Book, error) {
	args := m.Called(ctx, keyword, page)
	books, _ := args.Get(0).([]models.Book)
	return books, args.Error(1)
}

func (m *MockBookService) GetBook(ctx context.Context, id string) (*models.Book, error) {
	args := m.Called(ctx, id)
	book, _ := args.Get(0).(*models.Book)
	return book, args.Error(1)
}

func (m *MockBookService) CreateBook(
	ctx context.Context, req models.CreateBookRequest, ownerID *uuid.UUID,
) (*models.Book, error) {
	args := m.Called(ctx, req, ownerID)
	book, _ := args.Get(0).(*models.Book)
	return book, args.Error(1)
}

func (m *MockBookService) UpdateBook(ctx context.Context, id string, upd models.BookUpdate) (*models.Book, error) {
	args := m.Called(ctx, id, upd)
	book, _ := args.Get(0).(*models.Book)
	return book, args.Error(1)
}

func (m *MockBookService) DeleteBook(ctx context.Context, id string) (*models.Book, error) {
	args := m.Called(ctx, id)
	book, _ := args.Get(0).(*models.Book)
	return book, args.Error(1)
}

func (m *MockBookService) UploadCover(
	ctx context.Context, id string, reader io.Reader, size int64, contentType string,
) (*models.Book, error) {
	args := m.Called(ctx, id, reader, size, contentType)
	book, _ := args.Get(0).(*models.Book)
	return book, args.Error(1)
}

func (m *MockBookService) DownloadCover(ctx context.Context, id string) (io.ReadCloser, *models.Book, error) {
	args := m.Called(ctx, id)
	rc, _ := args.Get(0).(io.ReadCloser)
	book, _ := args.Get(1).(*models.Book)
	return rc, book, args.Error(2)
}
