package repository

import (
	"errors"

	"example.com/shopping-planner/backend/internal/shopping"
)

var (
	// ErrNotFound совпадает с shopping.ErrNotFound, чтобы каталог удовлетворял контракту CatalogLookup.
	ErrNotFound = shopping.ErrNotFound
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid input")
)
