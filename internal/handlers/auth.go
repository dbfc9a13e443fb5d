package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/shopping-planner/backend/internal/auth"
	"example.com/shopping-planner/backend/internal/models"
	"example.com/shopping-planner/backend/internal/repository"
)

// UserStore хранит учетные записи пользователей.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, name *string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

type AuthHandler struct {
	Users        UserStore
	TokenManager *auth.TokenManager
	Admins       AdminSet
}

// NewAuthHandler создает обработчик регистрации, входа и профиля.
func NewAuthHandler(users UserStore, manager *auth.TokenManager, admins AdminSet) *AuthHandler {
	return &AuthHandler{Users: users, TokenManager: manager, Admins: admins}
}

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AccountResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        AccountResponse `json:"user"`
}

// Register регистрирует пользователя и сразу выдает access-токен.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	switch {
	case errors.Is(err, auth.ErrPasswordTooLong):
		return badRequest(c, err.Error())
	case err != nil:
		return serverError(c)
	}

	user, err := h.Users.Create(c.Request().Context(), normalizeEmail(req.Email), hash, normalizeName(req.Name))
	switch {
	case errors.Is(err, repository.ErrConflict):
		return conflict(c, "email already registered")
	case err != nil:
		return serverError(c)
	}

	return h.issue(c, http.StatusCreated, user)
}

// Login проверяет пароль и выдает access-токен.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.Users.GetByEmail(c.Request().Context(), normalizeEmail(req.Email))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return unauthorized(c)
	case err != nil:
		return serverError(c)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return unauthorized(c)
	}

	return h.issue(c, http.StatusOK, user)
}

// Me возвращает профиль текущего пользователя.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.Users.GetByID(c.Request().Context(), userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, "user not found")
	case err != nil:
		return serverError(c)
	}

	return c.JSON(http.StatusOK, h.account(user))
}

func (h *AuthHandler) issue(c echo.Context, status int, user models.User) error {
	token, err := h.TokenManager.Issue(user.ID, user.Email)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(status, TokenResponse{
		AccessToken: token.Token,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
		User:        h.account(user),
	})
}

func (h *AuthHandler) account(user models.User) AccountResponse {
	return AccountResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		IsAdmin:   h.Admins.Contains(user.Email),
		CreatedAt: user.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
