package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt учитывает только первые 72 байта пароля.
const maxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password is too long")

// HashPassword хэширует пароль с использованием bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword сообщает, совпадает ли пароль с хэшем.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
