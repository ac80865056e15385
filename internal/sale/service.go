package sale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/category"
	"github.com/MrJamesThe3rd/tally/internal/picture"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=sale
type Repository interface {
	CreateSale(ctx context.Context, s *Sale) error
	GetSale(ctx context.Context, id uuid.UUID) (*Sale, error)
	ListSales(ctx context.Context, filter ListFilter) ([]*Sale, error)
	UpdateSale(ctx context.Context, s *Sale) error
	DeleteSale(ctx context.Context, id uuid.UUID) error

	BeginImport(ctx context.Context) (ImportTx, error)
}

type ImportTx interface {
	CreateSales(ctx context.Context, sales []*Sale) error
	Commit() error
	Rollback() error
}

type CategoryLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*category.Category, error)
}

type Pictures interface {
	Save(ctx context.Context, up picture.Upload) (string, error)
	Delete(ctx context.Context, url string) error
}

type Service struct {
	repo       Repository
	categories CategoryLookup
	pictures   Pictures
	now        func() time.Time
}

func NewService(repo Repository, categories CategoryLookup, pictures Pictures) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		pictures:   pictures,
		now:        time.Now,
	}
}

type CreateParams struct {
	ItemName   string
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Date       *time.Time
	CategoryID *uuid.UUID
	Picture    *picture.Upload
}

// UpdateParams carries the fields to change. Nil fields keep their value.
type UpdateParams struct {
	ItemName      *string
	Quantity      *decimal.Decimal
	Price         *decimal.Decimal
	Date          *time.Time
	CategoryID    *uuid.UUID
	ClearCategory bool
	Picture       *picture.Upload
}

type ListFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Sale, error) {
	sale := &Sale{
		ItemName:   strings.TrimSpace(params.ItemName),
		Quantity:   params.Quantity,
		Price:      params.Price,
		Date:       s.now(),
		CategoryID: params.CategoryID,
	}
	if params.Date != nil {
		sale.Date = *params.Date
	}

	if err := validate(sale.ItemName, sale.Quantity, sale.Price); err != nil {
		return nil, err
	}

	cat, err := s.resolveCategory(ctx, sale.CategoryID)
	if err != nil {
		return nil, err
	}

	sale.Category = cat
	sale.recompute()

	if params.Picture != nil {
		url, err := s.pictures.Save(ctx, *params.Picture)
		if err != nil {
			return nil, err
		}

		sale.PictureURL = url
	}

	if err := s.repo.CreateSale(ctx, sale); err != nil {
		s.discardPicture(ctx, sale.PictureURL)
		return nil, err
	}

	return sale, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// List returns sales newest first, with their categories resolved.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Sale, error) {
	return s.repo.ListSales(ctx, filter)
}

// Update merges params into the stored sale and recomputes its total.
// A superseded picture is removed after the write succeeds.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.ItemName != nil {
		sale.ItemName = strings.TrimSpace(*params.ItemName)
	}

	if params.Quantity != nil {
		sale.Quantity = *params.Quantity
	}

	if params.Price != nil {
		sale.Price = *params.Price
	}

	if params.Date != nil {
		sale.Date = *params.Date
	}

	if err := validate(sale.ItemName, sale.Quantity, sale.Price); err != nil {
		return nil, err
	}

	switch {
	case params.ClearCategory:
		sale.CategoryID = nil
		sale.Category = nil
	case params.CategoryID != nil:
		cat, err := s.resolveCategory(ctx, params.CategoryID)
		if err != nil {
			return nil, err
		}

		sale.CategoryID = params.CategoryID
		sale.Category = cat
	}

	sale.recompute()

	previous := sale.PictureURL
	if params.Picture != nil {
		url, err := s.pictures.Save(ctx, *params.Picture)
		if err != nil {
			return nil, err
		}

		sale.PictureURL = url
	}

	if err := s.repo.UpdateSale(ctx, sale); err != nil {
		if sale.PictureURL != previous {
			s.discardPicture(ctx, sale.PictureURL)
		}

		return nil, err
	}

	if sale.PictureURL != previous {
		s.discardPicture(ctx, previous)
	}

	return sale, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteSale(ctx, id); err != nil {
		return err
	}

	s.discardPicture(ctx, sale.PictureURL)

	return nil
}

// CreateBatch inserts all sales in one transaction. Pictures are not supported.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams) ([]*Sale, error) {
	if len(params) == 0 {
		return nil, nil
	}

	sales := make([]*Sale, len(params))
	known := make(map[uuid.UUID]*category.Category)

	for i, p := range params {
		if p.Picture != nil {
			return nil, fmt.Errorf("row %d: pictures cannot be imported", i+1)
		}

		sale := &Sale{
			ItemName:   strings.TrimSpace(p.ItemName),
			Quantity:   p.Quantity,
			Price:      p.Price,
			Date:       s.now(),
			CategoryID: p.CategoryID,
		}
		if p.Date != nil {
			sale.Date = *p.Date
		}

		if err := validate(sale.ItemName, sale.Quantity, sale.Price); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		if p.CategoryID != nil {
			cat, ok := known[*p.CategoryID]
			if !ok {
				var err error
				if cat, err = s.resolveCategory(ctx, p.CategoryID); err != nil {
					return nil, fmt.Errorf("row %d: %w", i+1, err)
				}

				known[*p.CategoryID] = cat
			}

			sale.Category = cat
		}

		sale.recompute()
		sales[i] = sale
	}

	itx, err := s.repo.BeginImport(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	if err := itx.CreateSales(ctx, sales); err != nil {
		return nil, fmt.Errorf("create sales: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return sales, nil
}

// Stats aggregates every stored sale.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	sales, err := s.repo.ListSales(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}

	return ComputeStats(sales), nil
}

// resolveCategory checks that a referenced category exists. The check is not
// transactional with the following write.
func (s *Service) resolveCategory(ctx context.Context, id *uuid.UUID) (*category.Category, error) {
	if id == nil {
		return nil, nil
	}

	cat, err := s.categories.Get(ctx, *id)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return nil, ErrUnknownCategory
		}

		return nil, fmt.Errorf("checking category: %w", err)
	}

	return cat, nil
}

func (s *Service) discardPicture(ctx context.Context, url string) {
	if url == "" {
		return
	}

	if err := s.pictures.Delete(ctx, url); err != nil {
		slog.Warn("failed to delete picture", "url", url, "error", err)
	}
}
