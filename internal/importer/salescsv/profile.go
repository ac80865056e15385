package salescsv

// Profile describes the column layout of a supported sales CSV.
// Adding a new layout is just adding a new Profile to the profiles slice.
type Profile struct {
	Name        string
	Comma       rune
	DecimalSep  byte
	ItemCol     string
	QuantityCol string
	PriceCol    string
	CategoryCol string
	DateCol     string
	DateLayouts []string
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.ItemCol, p.QuantityCol, p.PriceCol}
}

var (
	// Tally is the layout written by the export.
	Tally = Profile{
		Name:        "tally",
		Comma:       ',',
		DecimalSep:  '.',
		ItemCol:     "itemName",
		QuantityCol: "quantity",
		PriceCol:    "price",
		CategoryCol: "category",
		DateCol:     "date",
		DateLayouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"},
	}

	// Sheet is a spreadsheet layout with European decimals.
	Sheet = Profile{
		Name:        "sheet",
		Comma:       ';',
		DecimalSep:  ',',
		ItemCol:     "Item",
		QuantityCol: "Qty",
		PriceCol:    "Price",
		CategoryCol: "Category",
		DateCol:     "Date",
		DateLayouts: []string{"02-01-2006", "02/01/2006", "2006-01-02"},
	}
)

// profiles is the ordered list of layouts tried during auto-detection.
var profiles = []Profile{Tally, Sheet}
