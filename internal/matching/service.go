// Package matching suggests categories for item names from learned rules.
package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/category"
)

var (
	ErrPatternRequired = apperr.Validation("pattern is required")
	ErrUnknownCategory = apperr.Validation("category does not exist")
)

// Rule maps every item name containing Pattern (case-insensitive) to a category.
type Rule struct {
	ID         uuid.UUID
	Pattern    string
	CategoryID uuid.UUID
	CreatedAt  time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	// FindMatch returns the category of the longest matching pattern, or nil.
	FindMatch(ctx context.Context, itemName string) (*uuid.UUID, error)
	CreateRule(ctx context.Context, r *Rule) error
}

type CategoryLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*category.Category, error)
}

type Service struct {
	repo       Repository
	categories CategoryLookup
}

func NewService(repo Repository, categories CategoryLookup) *Service {
	return &Service{repo: repo, categories: categories}
}

// Suggest returns the category for itemName, or nil when no rule matches.
// Rules pointing at deleted categories are ignored.
func (s *Service) Suggest(ctx context.Context, itemName string) (*category.Category, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return nil, nil
	}

	id, err := s.repo.FindMatch(ctx, itemName)
	if err != nil || id == nil {
		return nil, err
	}

	cat, err := s.categories.Get(ctx, *id)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("loading suggested category: %w", err)
	}

	return cat, nil
}

// Learn remembers that item names containing pattern belong to categoryID.
func (s *Service) Learn(ctx context.Context, pattern string, categoryID uuid.UUID) (*Rule, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, ErrPatternRequired
	}

	if _, err := s.categories.Get(ctx, categoryID); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return nil, ErrUnknownCategory
		}

		return nil, fmt.Errorf("checking category: %w", err)
	}

	r := &Rule{Pattern: pattern, CategoryID: categoryID}
	if err := s.repo.CreateRule(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}
