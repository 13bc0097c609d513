package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/maynagashev/bookstore/internal/repository"
	"github.com/maynagashev/bookstore/internal/services"
	"github.com/maynagashev/bookstore/internal/tokens"
	"github.com/maynagashev/bookstore/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func TestNewAuthService(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), tokens.NewIssuer(testSecret, time.Hour), discardLogger())
	require.NotNil(t, authService)
}

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()
	issuer := tokens.NewIssuer(testSecret, time.Hour)
	newUserID := uuid.New()

	tests := []struct {
		name          string
		mockSetup     func(repo *MockUserRepository)
		expectedError error
	}{
		{
			name: "Успешная регистрация",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
					// Пароль хранится только в виде bcrypt-хеша
					cost, err := bcrypt.Cost([]byte(u.PasswordHash))
					return u.Name == "Kiriakos" && u.Email == "email@gmail.com" &&
						err == nil && cost == services.PasswordCost &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password")) == nil
				})).Return(newUserID, nil).Once()
			},
		},
		{
			name: "Email уже занят",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("CreateUser", ctx, mock.AnythingOfType("*models.User")).
					Return(uuid.Nil, repository.ErrEmailTaken).Once()
			},
			expectedError: services.ErrDuplicateEmail,
		},
		{
			name: "Ошибка репозитория при создании",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("CreateUser", ctx, mock.AnythingOfType("*models.User")).
					Return(uuid.Nil, errors.New("some db error")).Once()
			},
			expectedError: errors.New("ошибка создания пользователя"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)

			authService := services.NewAuthService(repo, issuer, discardLogger())
			token, err := authService.SignUp(ctx, "Kiriakos", "email@gmail.com", "password")

			switch {
			case tt.expectedError == nil:
				require.NoError(t, err)
				subject, parseErr := issuer.Parse(token)
				require.NoError(t, parseErr)
				assert.Equal(t, newUserID, subject, "Токен должен содержать ID нового пользователя")
			case errors.Is(tt.expectedError, services.ErrDuplicateEmail):
				require.ErrorIs(t, err, services.ErrDuplicateEmail)
				assert.Empty(t, token)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				assert.NotErrorIs(t, err, services.ErrDuplicateEmail)
				assert.Empty(t, token)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	issuer := tokens.NewIssuer(testSecret, time.Hour)
	password := "password123"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err, "Не удалось сгенерировать хеш пароля для тестов")

	user := &models.User{
		ID:           uuid.New(),
		Name:         "siluok3",
		Email:        "ksks@gmail.com",
		PasswordHash: string(hashed),
	}

	tests := []struct {
		name          string
		password      string
		mockSetup     func(repo *MockUserRepository)
		expectedError error
	}{
		{
			name:     "Успешный вход",
			password: password,
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetUserByEmail", ctx, user.Email).Return(user, nil).Once()
			},
		},
		{
			name:     "Пользователь не найден",
			password: password,
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetUserByEmail", ctx, user.Email).Return(nil, repository.ErrUserNotFound).Once()
			},
			expectedError: services.ErrInvalidCredentials,
		},
		{
			name:     "Неверный пароль",
			password: "wrongpassword",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetUserByEmail", ctx, user.Email).Return(user, nil).Once()
			},
			expectedError: services.ErrInvalidCredentials,
		},
		{
			name:     "Ошибка репозитория при поиске",
			password: password,
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetUserByEmail", ctx, user.Email).Return(nil, errors.New("some db error")).Once()
			},
			expectedError: errors.New("ошибка поиска пользователя"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)

			authService := services.NewAuthService(repo, issuer, discardLogger())
			token, loginErr := authService.Login(ctx, user.Email, tt.password)

			switch {
			case tt.expectedError == nil:
				require.NoError(t, loginErr)
				subject, parseErr := issuer.Parse(token)
				require.NoError(t, parseErr)
				assert.Equal(t, user.ID, subject)
			case errors.Is(tt.expectedError, services.ErrInvalidCredentials):
				require.ErrorIs(t, loginErr, services.ErrInvalidCredentials)
				// Сообщение одинаково для обеих причин
				assert.Equal(t, services.ErrInvalidCredentials.Error(), loginErr.Error())
				assert.Empty(t, token)
			default:
				require.Error(t, loginErr)
				assert.Contains(t, loginErr.Error(), tt.expectedError.Error())
				assert.Empty(t, token)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_SignUp_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := new(MockUserRepository)
	authService := services.NewAuthService(repo, tokens.NewIssuer(testSecret, time.Hour), discardLogger())

	token, err := authService.SignUp(ctx, "Kiriakos", "email@gmail.com", "password")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, token)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestAuthService_Login_CanceledContext(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: uuid.New(), Email: "ksks@gmail.com", PasswordHash: string(hashed)}

	for _, password := range []string{"password123", "wrongpassword"} {
		t.Run(password, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			repo := new(MockUserRepository)
			// Запрос отменяется, пока сервис получает пользователя
			repo.On("GetUserByEmail", mock.Anything, user.Email).
				Run(func(mock.Arguments) { cancel() }).
				Return(user, nil).Once()

			authService := services.NewAuthService(repo, tokens.NewIssuer(testSecret, time.Hour), discardLogger())
			token, loginErr := authService.Login(ctx, user.Email, password)

			require.ErrorIs(t, loginErr, context.Canceled)
			assert.NotErrorIs(t, loginErr, services.ErrInvalidCredentials)
			assert.Empty(t, token)
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_CanceledBeforeLookup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := new(MockUserRepository)
	repo.On("GetUserByEmail", ctx, "ksks@gmail.com").Return(nil, context.Canceled).Once()
	authService := services.NewAuthService(repo, tokens.NewIssuer(testSecret, time.Hour), discardLogger())

	token, err := authService.Login(ctx, "ksks@gmail.com", "password123")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, token)
}
