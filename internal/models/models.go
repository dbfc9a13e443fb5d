package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         *string   `json:"name,omitempty" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Product struct {
	ID              int64           `json:"id"`
	ReferenceCode   string          `json:"reference_code"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	Discount        decimal.Decimal `json:"discount"`
	Stock           int             `json:"stock"`
	IsActive        bool            `json:"is_active"`
	Keywords        []string        `json:"keywords"`
	PrimaryImageURL *string         `json:"primary_image_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type AIRequest struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	RequestType     string    `json:"request_type"`
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	Source          string    `json:"source"`
	Prompt          *string   `json:"prompt,omitempty"`
	RequestPayload  []byte    `json:"-"`
	ResponsePayload []byte    `json:"-"`
	RawResponse     *string   `json:"raw_response,omitempty"`
	Success         bool      `json:"success"`
	ErrorMessage    *string   `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
