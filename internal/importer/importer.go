// Package importer turns spreadsheet exports into sales.
package importer

import (
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/encoding"
)

// Row is one parsed sale line. Category is a name, resolved by the Service.
type Row struct {
	Line     int
	ItemName string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Category string
	Date     *time.Time
}

// Parsed is the outcome of reading one file.
type Parsed struct {
	Profile string
	Charset encoding.Charset
	Rows    []Row
}

type Importer interface {
	Parse(r io.Reader) (*Parsed, error)
}
