package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	errInvalidPayload = errors.New("invalid payload")
	errValidation     = errors.New("validation failed")
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// bindAndValidate читает тело запроса и проверяет его теги validate.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return errInvalidPayload
	}
	if err := c.Validate(dst); err != nil {
		return errValidation
	}
	return nil
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorResponse{Error: message})
}

func badRequest(c echo.Context, message string) error {
	return respondError(c, http.StatusBadRequest, message)
}

func unauthorized(c echo.Context) error {
	return respondError(c, http.StatusUnauthorized, "invalid credentials")
}

func forbidden(c echo.Context) error {
	return respondError(c, http.StatusForbidden, "access denied")
}

func notFound(c echo.Context, message string) error {
	return respondError(c, http.StatusNotFound, message)
}

func conflict(c echo.Context, message string) error {
	return respondError(c, http.StatusConflict, message)
}

func unavailable(c echo.Context, message string) error {
	return respondError(c, http.StatusServiceUnavailable, message)
}

func serverError(c echo.Context) error {
	return respondError(c, http.StatusInternalServerError, "internal server error")
}
