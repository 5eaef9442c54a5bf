package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/canti/internal/index"
	"github.com/starford/canti/internal/models"
)

// LoginRequest is the request body for POST /api/login.
type LoginRequest struct {
	Username string `json:"username" example:"admin" validate:"required"`
	Password string `json:"password" example:"secret" validate:"required"`
}

// Validate validates the login request.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token" validate:"required"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}

// Catalog is the weekly song document.
type Catalog = models.Catalog

// HistoryResponse wraps the recorded revisions, newest first.
type HistoryResponse struct {
	Revisions []models.Revision `json:"revisions" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// CreateLyricsResponse names the written lyrics sheet.
type CreateLyricsResponse struct {
	Filename string `json:"filename" example:"ave-maria.txt" validate:"required"`
}
