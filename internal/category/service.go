package category

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=category
type Repository interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	c := &Category{Name: name}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// List returns every category, newest first.
func (s *Service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) GetByName(ctx context.Context, name string) (*Category, error) {
	return s.repo.GetCategoryByName(ctx, strings.TrimSpace(name))
}

// Rename changes the name of an existing category.
func (s *Service) Rename(ctx context.Context, id uuid.UUID, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Name = name
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// Delete removes the category. Sales that reference it keep the dangling id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, id)
}

// Ensure returns the category with the given name, creating it when missing.
func (s *Service) Ensure(ctx context.Context, name string) (*Category, bool, error) {
	c, err := s.GetByName(ctx, name)
	if err == nil {
		return c, false, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	c, err = s.Create(ctx, name)
	if errors.Is(err, ErrNameTaken) {
		c, err = s.GetByName(ctx, name)
		return c, false, err
	}

	if err != nil {
		return nil, false, err
	}

	return c, true, nil
}
