package services_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maynagashev/bookstore/internal/repository"
	"github.com/maynagashev/bookstore/models"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock UserRepository --- //

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) (uuid.UUID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

// --- Mock FileStorage --- //

type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) UploadFile(
	ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string,
) error {
	args := m.Called(ctx, objectKey, reader, size, contentType)
	return args.Error(0)
}

func (m *MockFileStorage) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	args := m.Called(ctx, objectKey)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockFileStorage) DeleteFile(ctx context.Context, objectKey string) error {
	args := m.Called(ctx, objectKey)
	return args.Error(0)
}

// --- In-memory BookRepository --- //

// memoryBookRepository - потокобезопасная реализация BookRepository в памяти.
type memoryBookRepository struct {
	mu    sync.Mutex
	books   map[uuid.UUID]models.Book
	clock   time.Time
	filters []repository.BookFilter // Все фильтры, с которыми вызывался ListBooks
}

func newMemoryBookRepository() *memoryBookRepository {
	return &memoryBookRepository{
		books: make(map[uuid.UUID]models.Book),
		clock: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
	}
}

func (r *memoryBookRepository) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memoryBookRepository) ListBooks(_ context.Context, filter repository.BookFilter) ([]models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filters = append(r.filters, filter)
	matched := []models.Book{}
	keyword := strings.ToLower(filter.Keyword)
	for _, b := range r.books {
		if keyword == "" || strings.Contains(strings.ToLower(b.Title), keyword) {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })

	if filter.Offset >= len(matched) {
		return []models.Book{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

func (r *memoryBookRepository) GetBookByID(_ context.Context, id uuid.UUID) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	return &b, nil
}

func (r *memoryBookRepository) CreateBook(_ context.Context, book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	book.ID = uuid.New()
	book.CreatedAt = r.tick()
	book.UpdatedAt = book.CreatedAt
	r.books[book.ID] = *book
	return nil
}

func (r *memoryBookRepository) UpdateBook(_ context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	if upd.Description != nil {
		b.Description = *upd.Description
	}
	if upd.Author != nil {
		b.Author = upd.Author
	}
	if upd.Price != nil {
		b.Price = upd.Price
	}
	b.UpdatedAt = r.tick()
	r.books[id] = b
	return &b, nil
}

func (r *memoryBookRepository) DeleteBook(_ context.Context, id uuid.UUID) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	delete(r.books, id)
	return &b, nil
}

func (r *memoryBookRepository) SetCoverKey(_ context.Context, id uuid.UUID, coverKey string) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	b.CoverKey = &coverKey
	r.books[id] = b
	return &b, nil
}
