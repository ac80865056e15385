package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
)

var (
	ErrNotFound      = apperr.New(apperr.KindNotFound, "User not found")
	ErrUsernameTaken = apperr.New(apperr.KindConflict, "User already exists")
)

// User is a credential record. PasswordHash is a bcrypt hash and never leaves the server.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
