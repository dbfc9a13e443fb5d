package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/shopping-planner/backend/internal/auth"
	"example.com/shopping-planner/backend/internal/models"
	"example.com/shopping-planner/backend/internal/repository"
)

type fakeUserStore struct {
	byEmail map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]models.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, email, passwordHash string, name *string) (models.User, error) {
	if _, ok := s.byEmail[email]; ok {
		return models.User{}, repository.ErrConflict
	}
	user := models.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, Name: name, CreatedAt: time.Now().UTC()}
	s.byEmail[email] = user
	return user, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (models.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

func newTestAuthHandler(store UserStore) *AuthHandler {
	manager := auth.NewTokenManager("test-secret", "shopping-planner", time.Hour)
	return NewAuthHandler(store, manager, NewAdminSet([]string{" Admin@Example.com "}))
}

func postAuth(t *testing.T, handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

// TestRegisterAndLogin проверяет регистрацию, повторный email и вход.
func TestRegisterAndLogin(t *testing.T) {
	handler := newTestAuthHandler(newFakeUserStore())

	rec := postAuth(t, handler.Register, `{"email":"Admin@Example.com","password":"password123","name":" Ann "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var token TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &token); err != nil {
		t.Fatalf("expected json body, got %v", err)
	}
	if token.AccessToken == "" || token.TokenType != "Bearer" {
		t.Fatalf("unexpected token response: %+v", token)
	}
	if token.User.Email != "admin@example.com" || !token.User.IsAdmin || token.User.Name == nil || *token.User.Name != "Ann" {
		t.Fatalf("unexpected account: %+v", token.User)
	}

	if rec := postAuth(t, handler.Register, `{"email":"admin@example.com","password":"password123"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}

	if rec := postAuth(t, handler.Login, `{"email":"ADMIN@example.com","password":"password123"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d", rec.Code)
	}
	if rec := postAuth(t, handler.Login, `{"email":"admin@example.com","password":"wrong-password"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
	if rec := postAuth(t, handler.Login, `{"email":"nobody@example.com","password":"password123"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", rec.Code)
	}
}

// TestRegisterValidation проверяет отказ при коротком пароле и плохом email.
func TestRegisterValidation(t *testing.T) {
	handler := newTestAuthHandler(newFakeUserStore())

	for _, body := range []string{
		`{"email":"user@example.com","password":"short"}`,
		`{"email":"not-an-email","password":"password123"}`,
		`{"email":`,
	} {
		if rec := postAuth(t, handler.Register, body); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
}

// TestAdminMiddleware проверяет доступ администратора и отказ обычному пользователю.
func TestAdminMiddleware(t *testing.T) {
	store := newFakeUserStore()
	admin, _ := store.Create(context.Background(), "admin@example.com", "x", nil)
	user, _ := store.Create(context.Background(), "user@example.com", "x", nil)

	middleware := AdminMiddleware(store, NewAdminSet([]string{"admin@example.com"}))
	next := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	cases := map[uuid.UUID]int{
		admin.ID:   http.StatusNoContent,
		user.ID:    http.StatusForbidden,
		uuid.New(): http.StatusForbidden,
	}
	for id, want := range cases {
		e := newTestEcho()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/admin/usage", nil), rec)
		c.Set(auth.ContextUserIDKey, id)

		if err := middleware(next)(c); err != nil {
			t.Fatalf("middleware returned error: %v", err)
		}
		if rec.Code != want {
			t.Fatalf("expected %d, got %d", want, rec.Code)
		}
	}
}
