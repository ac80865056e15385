package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/category"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=importer
type SaleCreator interface {
	CreateBatch(ctx context.Context, params []sale.CreateParams) ([]*sale.Sale, error)
}

type CategoryResolver interface {
	Ensure(ctx context.Context, name string) (*category.Category, bool, error)
}

type Suggester interface {
	Suggest(ctx context.Context, itemName string) (*category.Category, error)
}

type Service struct {
	parser     Importer
	sales      SaleCreator
	categories CategoryResolver
	suggester  Suggester
}

func NewService(parser Importer, sales SaleCreator, categories CategoryResolver, suggester Suggester) *Service {
	return &Service{
		parser:     parser,
		sales:      sales,
		categories: categories,
		suggester:  suggester,
	}
}

type Result struct {
	Profile           string
	Charset           string
	Sales             []*sale.Sale
	CreatedCategories []string
}

// Import parses r and stores every row as a sale in one transaction.
// Named categories are created when missing; rows without one get a suggestion.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Result, error) {
	parsed, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	res := &Result{Profile: parsed.Profile, Charset: string(parsed.Charset)}

	resolved := make(map[string]uuid.UUID)
	params := make([]sale.CreateParams, 0, len(parsed.Rows))

	for _, row := range parsed.Rows {
		p := sale.CreateParams{
			ItemName: row.ItemName,
			Quantity: row.Quantity,
			Price:    row.Price,
			Date:     row.Date,
		}

		id, ok, err := s.categoryFor(ctx, row, resolved, res)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row.Line, err)
		}

		if ok {
			p.CategoryID = &id
		}

		params = append(params, p)
	}

	sales, err := s.sales.CreateBatch(ctx, params)
	if err != nil {
		return nil, err
	}

	res.Sales = sales

	return res, nil
}

func (s *Service) categoryFor(ctx context.Context, row Row, resolved map[string]uuid.UUID, res *Result) (uuid.UUID, bool, error) {
	if row.Category == "" {
		if s.suggester == nil {
			return uuid.Nil, false, nil
		}

		cat, err := s.suggester.Suggest(ctx, row.ItemName)
		if err != nil || cat == nil {
			return uuid.Nil, false, err
		}

		return cat.ID, true, nil
	}

	key := strings.ToLower(row.Category)
	if id, ok := resolved[key]; ok {
		return id, true, nil
	}

	cat, created, err := s.categories.Ensure(ctx, row.Category)
	if err != nil {
		return uuid.Nil, false, err
	}

	if created {
		res.CreatedCategories = append(res.CreatedCategories, cat.Name)
	}

	resolved[key] = cat.ID

	return cat.ID, true, nil
}
