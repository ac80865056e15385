package category

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
)

var (
	ErrNotFound     = apperr.New(apperr.KindNotFound, "Category not found")
	ErrNameTaken    = apperr.New(apperr.KindConflict, "Category already exists")
	ErrNameRequired = apperr.Validation("name is required")
)

// Category groups sales for reporting. Names are unique.
type Category struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
