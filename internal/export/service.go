package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/importer/salescsv"
	"github.com/MrJamesThe3rd/tally/internal/picture"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

const (
	CSVFile     = "sales.csv"
	SummaryFile = "summary.txt"
	PicturesDir = "pictures"
)

// Item represents a single exported sale with its local picture path.
type Item struct {
	Sale     *sale.Sale
	FilePath string
}

type SaleLister interface {
	List(ctx context.Context, filter sale.ListFilter) ([]*sale.Sale, error)
}

type PictureOpener interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// Service writes sales, their pictures and a summary to a directory.
type Service struct {
	sales    SaleLister
	pictures PictureOpener
}

func NewService(sales SaleLister, pictures PictureOpener) *Service {
	return &Service{sales: sales, pictures: pictures}
}

// Export writes sales.csv, summary.txt and the pictures of sales matching
// the filter into outputDir. A picture that cannot be read is skipped.
func (s *Service) Export(ctx context.Context, filter sale.ListFilter, outputDir string) ([]Item, error) {
	sales, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(outputDir, PicturesDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(sales))

	for _, sl := range sales {
		item := Item{Sale: sl}

		if sl.PictureURL != "" {
			path, err := s.copyPicture(ctx, sl, outputDir)
			if err != nil {
				slog.Warn("skipping picture", "sale_id", sl.ID, "url", sl.PictureURL, "error", err)
			} else {
				item.FilePath = path
			}
		}

		items = append(items, item)
	}

	f, err := os.Create(filepath.Join(outputDir, CSVFile))
	if err != nil {
		return nil, fmt.Errorf("creating csv: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, items); err != nil {
		return nil, err
	}

	summary := s.GenerateSummary(items)
	if err := os.WriteFile(filepath.Join(outputDir, SummaryFile), []byte(summary), 0o644); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}

	return items, nil
}

func (s *Service) copyPicture(ctx context.Context, sl *sale.Sale, dir string) (string, error) {
	rc, err := s.pictures.Open(ctx, sl.PictureURL)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	path := filepath.Join(dir, PicturesDir, pictureFilename(sl))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

// pictureFilename builds YYYYMMDD_Item_<id prefix>.ext.
func pictureFilename(sl *sale.Sale) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, sl.ItemName)

	return fmt.Sprintf("%s_%s_%s%s",
		sl.Date.Format("20060102"), safe, sl.ID.String()[:8], filepath.Ext(picture.Name(sl.PictureURL)))
}

// WriteCSV writes items in the layout the importer reads back.
func WriteCSV(w io.Writer, items []Item) error {
	p := salescsv.Tally

	cw := csv.NewWriter(w)
	cw.Comma = p.Comma

	if err := cw.Write([]string{p.ItemCol, p.QuantityCol, p.PriceCol, p.CategoryCol, p.DateCol}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, item := range items {
		sl := item.Sale

		category := ""
		if sl.Category != nil {
			category = sl.Category.Name
		}

		record := []string{
			sl.ItemName,
			sl.Quantity.String(),
			sl.Price.String(),
			category,
			sl.Date.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// GenerateSummary creates a plain-text report of the exported items.
func (s *Service) GenerateSummary(items []Item) string {
	var sb strings.Builder

	sales := make([]*sale.Sale, 0, len(items))

	for _, item := range items {
		sl := item.Sale
		sales = append(sales, sl)

		category := "Uncategorized"
		if sl.Category != nil {
			category = sl.Category.Name
		}

		fileStatus := "No picture"
		if item.FilePath != "" {
			fileStatus = filepath.Base(item.FilePath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s x %s = %s | %s | %s\n",
			sl.Date.Format(time.DateOnly), sl.ItemName,
			sl.Quantity.String(), sl.Price.StringFixed(2), sl.Total.StringFixed(2),
			category, fileStatus)
	}

	st := sale.ComputeStats(sales)

	fmt.Fprintf(&sb, "\nSales: %d\nRevenue: %s\nAverage sale: %s\n",
		st.TotalSales, st.TotalRevenue.StringFixed(2), st.AverageSale.StringFixed(2))

	for _, c := range st.ByCategory {
		fmt.Fprintf(&sb, "  %s: %s (%d)\n", c.Name, c.Total.StringFixed(2), c.Count)
	}

	return sb.String()
}
