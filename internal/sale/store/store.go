package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/category"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanSale reads a sale row joined with its category.
// Expected column order: id, item_name, quantity, price, total, date, picture_url, category_id,
// created_at, updated_at, category name, category created_at
func scanSale(s scanner) (*sale.Sale, error) {
	var (
		sl         sale.Sale
		catName    sql.NullString
		catCreated sql.NullTime
	)

	if err := s.Scan(
		&sl.ID, &sl.ItemName, &sl.Quantity, &sl.Price, &sl.Total, &sl.Date, &sl.PictureURL,
		&sl.CategoryID, &sl.CreatedAt, &sl.UpdatedAt,
		&catName, &catCreated,
	); err != nil {
		return nil, err
	}

	if sl.CategoryID != nil && catName.Valid {
		sl.Category = &category.Category{
			ID:        *sl.CategoryID,
			Name:      catName.String,
			CreatedAt: catCreated.Time,
		}
	}

	return &sl, nil
}

const selectSaleColumns = `
	s.id, s.item_name, s.quantity, s.price, s.total, s.date, s.picture_url, s.category_id,
	s.created_at, s.updated_at, c.name AS category_name, c.created_at AS category_created_at
`

const insertSale = `
	INSERT INTO sales (item_name, quantity, price, total, date, picture_url, category_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	RETURNING id, created_at, updated_at
`

func createSale(ctx context.Context, q execer, s *sale.Sale) error {
	err := q.QueryRowContext(ctx, insertSale,
		s.ItemName,
		s.Quantity,
		s.Price,
		s.Total,
		s.Date,
		s.PictureURL,
		s.CategoryID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating sale: %w", err)
	}

	return nil
}

func (s *Store) CreateSale(ctx context.Context, sl *sale.Sale) error {
	return createSale(ctx, s.db, sl)
}

func (s *Store) GetSale(ctx context.Context, id uuid.UUID) (*sale.Sale, error) {
	query := `SELECT ` + selectSaleColumns + `
		FROM sales s
		LEFT JOIN categories c ON s.category_id = c.id
		WHERE s.id = $1`

	sl, err := scanSale(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sale.ErrNotFound
		}

		return nil, fmt.Errorf("getting sale: %w", err)
	}

	return sl, nil
}

func (s *Store) ListSales(ctx context.Context, filter sale.ListFilter) ([]*sale.Sale, error) {
	query := `SELECT ` + selectSaleColumns + `
		FROM sales s
		LEFT JOIN categories c ON s.category_id = c.id`

	var (
		conds []string
		args  []any
	)

	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conds = append(conds, fmt.Sprintf("s.date >= $%d", len(args)))
	}

	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conds = append(conds, fmt.Sprintf("s.date <= $%d", len(args)))
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY s.created_at DESC, s.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	defer rows.Close()

	var sales []*sale.Sale

	for rows.Next() {
		sl, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}

		sales = append(sales, sl)
	}

	return sales, rows.Err()
}

func (s *Store) UpdateSale(ctx context.Context, sl *sale.Sale) error {
	query := `
		UPDATE sales
		SET item_name = $1, quantity = $2, price = $3, total = $4, date = $5,
		    picture_url = $6, category_id = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		sl.ItemName,
		sl.Quantity,
		sl.Price,
		sl.Total,
		sl.Date,
		sl.PictureURL,
		sl.CategoryID,
		sl.ID,
	).Scan(&sl.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sale.ErrNotFound
		}

		return fmt.Errorf("updating sale: %w", err)
	}

	return nil
}

func (s *Store) DeleteSale(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting sale: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting sale: %w", err)
	}

	if n == 0 {
		return sale.ErrNotFound
	}

	return nil
}

type importTx struct {
	tx *sql.Tx
}

func (s *Store) BeginImport(ctx context.Context) (sale.ImportTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import: %w", err)
	}

	return &importTx{tx: tx}, nil
}

func (t *importTx) CreateSales(ctx context.Context, sales []*sale.Sale) error {
	for _, sl := range sales {
		if err := createSale(ctx, t.tx, sl); err != nil {
			return err
		}
	}

	return nil
}

func (t *importTx) Commit() error {
	return t.tx.Commit()
}

func (t *importTx) Rollback() error {
	return t.tx.Rollback()
}
