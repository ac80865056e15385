package sale

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/category"
)

var (
	ErrNotFound         = apperr.New(apperr.KindNotFound, "Sale not found")
	ErrItemNameRequired = apperr.Validation("itemName is required")
	ErrQuantityInvalid  = apperr.Validation("quantity must be greater than zero")
	ErrPriceInvalid     = apperr.Validation("price must not be negative")
	ErrUnknownCategory  = apperr.Validation("category does not exist")
	ErrOutOfRange       = apperr.Validation("quantity and price must have at most 18 integer digits and 8 decimals")
)

const (
	maxIntegerDigits = 18
	maxScale         = 8
)

// InRange reports whether d has at most 18 integer digits and 8 decimal places.
// Quantities and prices outside this range are rejected before any arithmetic.
func InRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if exp < -maxScale && !d.IsZero() {
		return false
	}

	return int64(d.NumDigits())+exp <= maxIntegerDigits
}

// Sale is one recorded transaction. Total is always Quantity * Price.
type Sale struct {
	ID         uuid.UUID
	ItemName   string
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Total      decimal.Decimal
	Date       time.Time
	PictureURL string
	CategoryID *uuid.UUID
	Category   *category.Category // Loaded via JOIN, nil when the reference dangles
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s *Sale) recompute() {
	s.Total = s.Quantity.Mul(s.Price)
}

func validate(itemName string, quantity, price decimal.Decimal) error {
	if itemName == "" {
		return ErrItemNameRequired
	}

	if !InRange(quantity) || !InRange(price) {
		return ErrOutOfRange
	}

	if !quantity.IsPositive() {
		return ErrQuantityInvalid
	}

	if price.IsNegative() {
		return ErrPriceInvalid
	}

	return nil
}
