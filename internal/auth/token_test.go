package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TestIssueAndParse проверяет выпуск и разбор access-токена.
func TestIssueAndParse(t *testing.T) {
	manager := NewTokenManager("secret", "shopping-planner", time.Hour)
	userID := uuid.New()

	token, err := manager.Issue(userID, "user@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	parsed, err := manager.Parse(token.Token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if parsed != userID {
		t.Fatalf("expected %s, got %s", userID, parsed)
	}
}

// TestParseRejectsForeignToken проверяет подпись и издателя.
func TestParseRejectsForeignToken(t *testing.T) {
	issuer := NewTokenManager("other-secret", "shopping-planner", time.Hour)
	token, err := issuer.Issue(uuid.New(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := NewTokenManager("secret", "shopping-planner", time.Hour).Parse(token.Token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := NewTokenManager("other-secret", "another-issuer", time.Hour).Parse(token.Token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}
}

// TestParseRejectsExpiredToken проверяет срок действия токена.
func TestParseRejectsExpiredToken(t *testing.T) {
	manager := NewTokenManager("secret", "shopping-planner", time.Minute)
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := manager.Issue(uuid.New(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	manager.now = time.Now
	if _, err := manager.Parse(token.Token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

// TestStreamMiddlewareQueryToken проверяет авторизацию SSE через query-параметр.
func TestStreamMiddlewareQueryToken(t *testing.T) {
	manager := NewTokenManager("secret", "shopping-planner", time.Hour)
	userID := uuid.New()
	token, err := manager.Issue(userID, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	e := echo.New()
	handler := StreamMiddleware(manager)(func(c echo.Context) error {
		got, ok := UserIDFromContext(c)
		if !ok || got != userID {
			t.Fatalf("expected user %s in context, got %s", userID, got)
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/stream?access_token="+token.Token, nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/stream", nil)
	rec = httptest.NewRecorder()
	err = handler(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}
}

// TestHashPassword проверяет хэширование и сравнение пароля.
func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !CheckPassword(hash, "correct horse") {
		t.Fatal("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("expected wrong password to be rejected")
	}

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := HashPassword(string(long)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}
