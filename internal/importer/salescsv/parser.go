package salescsv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	enc "github.com/MrJamesThe3rd/tally/internal/encoding"
	"github.com/MrJamesThe3rd/tally/internal/importer"
)

var ErrUnknownLayout = apperr.Validation(
	"unrecognised CSV layout: expected itemName,quantity,price or Item;Qty;Price columns",
)

// Parser reads sales CSV files. It auto-detects the layout by matching the
// header row against known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) (*importer.Parsed, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	for i := range profiles {
		rows, ok := readWith(&profiles[i], data)
		if !ok {
			continue
		}

		cols, headerIdx, found := findHeader(&profiles[i], rows)
		if !found {
			continue
		}

		parsed, err := parseRows(&profiles[i], cols, rows[headerIdx+1:], headerIdx+1)
		if err != nil {
			return nil, err
		}

		return &importer.Parsed{Profile: profiles[i].Name, Charset: charset, Rows: parsed}, nil
	}

	return nil, ErrUnknownLayout
}

func readWith(p *Profile, data []byte) ([][]string, bool) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = p.Comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, false
	}

	return rows, true
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// findHeader returns the first row carrying every required column of p.
func findHeader(p *Profile, rows [][]string) (colIndex, int, bool) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[strings.ToLower(name)] = i
			}
		}

		matched := true

		for _, name := range p.requiredCols() {
			if _, ok := cols[strings.ToLower(name)]; !ok {
				matched = false
				break
			}
		}

		if matched {
			return cols, rowIdx, true
		}
	}

	return nil, 0, false
}

func (c colIndex) index(name string) int {
	if name == "" {
		return -1
	}

	if i, ok := c[strings.ToLower(name)]; ok {
		return i
	}

	return -1
}

// parseRows extracts sale rows. headerRowNum is the 0-based index of the
// header in the file, so reported line numbers are 1-based file lines.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]importer.Row, error) {
	itemIdx := cols.index(p.ItemCol)
	qtyIdx := cols.index(p.QuantityCol)
	priceIdx := cols.index(p.PriceCol)
	catIdx := cols.index(p.CategoryCol)
	dateIdx := cols.index(p.DateCol)

	var out []importer.Row

	for i, row := range rows {
		line := headerRowNum + i + 1

		if isBlank(row) {
			continue
		}

		item := cellValue(row, itemIdx)
		if item == "" {
			return nil, rowError(line, "missing item name")
		}

		qty, err := parseAmount(cellValue(row, qtyIdx), p.DecimalSep)
		if err != nil {
			return nil, rowError(line, fmt.Sprintf("invalid quantity %q", cellValue(row, qtyIdx)))
		}

		price, err := parseAmount(cellValue(row, priceIdx), p.DecimalSep)
		if err != nil {
			return nil, rowError(line, fmt.Sprintf("invalid price %q", cellValue(row, priceIdx)))
		}

		r := importer.Row{
			Line:     line + 1,
			ItemName: item,
			Quantity: qty,
			Price:    price,
			Category: cellValue(row, catIdx),
		}

		if s := cellValue(row, dateIdx); s != "" {
			d, ok := parseDate(p, s)
			if !ok {
				return nil, rowError(line, fmt.Sprintf("invalid date %q", s))
			}

			r.Date = &d
		}

		out = append(out, r)
	}

	return out, nil
}

func rowError(line int, msg string) error {
	return apperr.Validation(fmt.Sprintf("row %d: %s", line+1, msg))
}

func parseDate(p *Profile, s string) (time.Time, bool) {
	for _, layout := range p.DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
