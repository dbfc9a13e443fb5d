package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	ContextUserIDKey = "user_id"
	// EventSource в браузере не умеет передавать заголовки, поэтому SSE принимает токен из query.
	queryTokenParam = "access_token"
)

// JWTMiddleware проверяет access-токен и сохраняет user_id в контексте.
func JWTMiddleware(manager *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}

			userID, parseErr := manager.Parse(tokenString)
			if parseErr != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextUserIDKey, userID)
			return next(c)
		}
	}
}

// StreamMiddleware работает как JWTMiddleware, но дополнительно читает токен из query-параметра.
func StreamMiddleware(manager *TokenManager) echo.MiddlewareFunc {
	headerAuth := JWTMiddleware(manager)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withHeader := headerAuth(next)
		return func(c echo.Context) error {
			queryToken := strings.TrimSpace(c.QueryParam(queryTokenParam))
			if queryToken == "" || c.Request().Header.Get(echo.HeaderAuthorization) != "" {
				return withHeader(c)
			}

			userID, err := manager.Parse(queryToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextUserIDKey, userID)
			return next(c)
		}
	}
}

// UserIDFromContext извлекает идентификатор пользователя из контекста.
func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(ContextUserIDKey).(uuid.UUID)
	return userID, ok
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	return token, nil
}
