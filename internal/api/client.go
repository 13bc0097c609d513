package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maynagashev/bookstore/models"
)

const defaultTimeout = 30 * time.Second

// Ошибки, которые клиент возвращает по HTTP-статусу ответа.
var (
	ErrAuthorization = errors.New("ошибка авторизации")
	ErrBadRequest    = errors.New("некорректный запрос")
	ErrNotFound      = errors.New("не найдено")
	ErrConflict      = errors.New("конфликт")
)

// Client определяет интерфейс для взаимодействия с API сервера Bookstore.
type Client interface {
	// SignUp регистрирует пользователя и сохраняет полученный токен.
	SignUp(ctx context.Context, name, email, password string) (string, error)
	// Login аутентифицирует пользователя и сохраняет полученный токен.
	Login(ctx context.Context, email, password string) (string, error)
	ListBooks(ctx context.Context, keyword string, page int) ([]models.Book, error)
	GetBook(ctx context.Context, id string) (*models.Book, error)
	// CreateBook требует токен.
	CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.Book, error)
	UpdateBook(ctx context.Context, id string, req models.UpdateBookRequest) (*models.Book, error)
	DeleteBook(ctx context.Context, id string) error
	// UploadCover требует токен.
	UploadCover(ctx context.Context, id string, data io.Reader, size int64, contentType string) (*models.Book, error)
	// DownloadCover возвращает тело ответа, его закрывает вызывающая сторона.
	DownloadCover(ctx context.Context, id string) (io.ReadCloser, string, error)
	// SetAuthToken устанавливает JWT токен для аутентифицированных запросов.
	SetAuthToken(token string)
}

// httpClient реализует интерфейс Client для взаимодействия с сервером по HTTP.
type httpClient struct {
	baseURL    string // Базовый URL сервера, например "http://localhost:8080"
	httpClient *http.Client
	authToken  string
}

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *httpClient) SetAuthToken(token string) {
	c.authToken = token
}

func (c *httpClient) SignUp(ctx context.Context, name, email, password string) (string, error) {
	body := models.SignUpRequest{Name: name, Email: email, Password: password}
	var resp models.TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", nil, body, false, http.StatusCreated, &resp); err != nil {
		return "", fmt.Errorf("ошибка регистрации: %w", err)
	}
	return c.storeToken(resp)
}

func (c *httpClient) Login(ctx context.Context, email, password string) (string, error) {
	body := models.LoginRequest{Email: email, Password: password}
	var resp models.TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, body, false, http.StatusOK, &resp); err != nil {
		return "", fmt.Errorf("ошибка входа: %w", err)
	}
	return c.storeToken(resp)
}

func (c *httpClient) storeToken(resp models.TokenResponse) (string, error) {
	if resp.AccessToken == "" {
		return "", errors.New("сервер вернул пустой токен")
	}
	c.authToken = resp.AccessToken
	return resp.AccessToken, nil
}

func (c *httpClient) ListBooks(ctx context.Context, keyword string, page int) ([]models.Book, error) {
	query := url.Values{}
	if keyword != "" {
		query.Set("keyword", keyword)
	}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}

	var books []models.Book
	if err := c.doJSON(ctx, http.MethodGet, "/books", query, nil, false, http.StatusOK, &books); err != nil {
		return nil, fmt.Errorf("ошибка получения списка книг: %w", err)
	}
	return books, nil
}

func (c *httpClient) GetBook(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := c.doJSON(ctx, http.MethodGet, "/books/"+url.PathEscape(id), nil, nil, false, http.StatusOK, &book); err != nil {
		return nil, fmt.Errorf("ошибка получения книги: %w", err)
	}
	return &book, nil
}

func (c *httpClient) CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.Book, error) {
	var book models.Book
	if err := c.doJSON(ctx, http.MethodPost, "/books", nil, req, true, http.StatusCreated, &book); err != nil {
		return nil, fmt.Errorf("ошибка создания книги: %w", err)
	}
	return &book, nil
}

func (c *httpClient) UpdateBook(ctx context.Context, id string, req models.UpdateBookRequest) (*models.Book, error) {
	var book models.Book
	path := "/books/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, req, false, http.StatusOK, &book); err != nil {
		return nil, fmt.Errorf("ошибка обновления книги: %w", err)
	}
	return &book, nil
}

func (c *httpClient) DeleteBook(ctx context.Context, id string) error {
	var resp models.DeleteBookResponse
	path := "/books/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, false, http.StatusOK, &resp); err != nil {
		return fmt.Errorf("ошибка удаления книги: %w", err)
	}
	if !resp.Deleted {
		return errors.New("сервер не подтвердил удаление")
	}
	return nil
}

func (c *httpClient) UploadCover(
	ctx context.Context, id string, data io.Reader, size int64, contentType string,
) (*models.Book, error) {
	req, err := c.newRequest(ctx, http.MethodPut, "/books/"+url.PathEscape(id)+"/cover", nil, data)
	if err != nil {
		return nil, err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)
	if err = c.setAuthHeader(req); err != nil {
		return nil, err
	}

	var book models.Book
	if err = c.do(req, http.StatusOK, &book); err != nil {
		return nil, fmt.Errorf("ошибка загрузки обложки: %w", err)
	}
	return &book, nil
}

func (c *httpClient) DownloadCover(ctx context.Context, id string) (io.ReadCloser, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/books/"+url.PathEscape(id)+"/cover", nil, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка выполнения запроса на скачивание обложки: %w", err)
	}
	// НЕ закрываем resp.Body при успехе, вызывающая сторона должна это сделать
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, "", fmt.Errorf("ошибка скачивания обложки: %w", statusError(resp))
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// setAuthHeader добавляет заголовок авторизации.
func (c *httpClient) setAuthHeader(req *http.Request) error {
	if c.authToken == "" {
		return errors.New("токен аутентификации отсутствует")
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	return nil
}

func (c *httpClient) newRequest(
	ctx context.Context, method, path string, query url.Values, body io.Reader,
) (*http.Request, error) {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования URL: %w", err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	return req, nil
}

// doJSON кодирует payload в JSON (если он задан), выполняет запрос и декодирует ответ в dst.
func (c *httpClient) doJSON(
	ctx context.Context, method, path string, query url.Values, payload any, auth bool, wantStatus int, dst any,
) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("ошибка кодирования запроса: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if err = c.setAuthHeader(req); err != nil {
			return err
		}
	}
	return c.do(req, wantStatus, dst)
}

func (c *httpClient) do(req *http.Request, wantStatus int, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return statusError(resp)
	}
	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("ошибка декодирования ответа: %w", err)
	}
	return nil
}

// statusError превращает неуспешный ответ в ошибку с текстом от сервера.
func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	detail := strings.TrimSpace(string(msg))

	var kind error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = ErrAuthorization
	case http.StatusBadRequest:
		kind = ErrBadRequest
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusConflict:
		kind = ErrConflict
	default:
		return fmt.Errorf("статус %d: %s", resp.StatusCode, detail)
	}
	if detail == "" {
		return kind
	}
	return fmt.Errorf("%w: %s", kind, detail)
}
