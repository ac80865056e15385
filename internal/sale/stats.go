package sale

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	statsDays   = 30
	statsMonths = 6

	uncategorized = "Uncategorized"
	monthLayout   = "2006-01"
)

type Stats struct {
	TotalRevenue decimal.Decimal
	TotalSales   int
	AverageSale  decimal.Decimal
	ByDate       []DayTotal
	ByCategory   []CategoryTotal
	Monthly      []MonthTotal
}

type DayTotal struct {
	Date  string
	Total decimal.Decimal
	Count int
}

type CategoryTotal struct {
	Name  string
	Total decimal.Decimal
	Count int
}

type MonthTotal struct {
	Month   string
	Revenue decimal.Decimal
	Sales   int
}

// ComputeStats aggregates sales for the dashboard. ByDate keeps the last 30
// days that have sales and Monthly the last 6 months, both oldest first.
func ComputeStats(sales []*Sale) *Stats {
	st := &Stats{
		TotalRevenue: decimal.Zero,
		AverageSale:  decimal.Zero,
		ByDate:       []DayTotal{},
		ByCategory:   []CategoryTotal{},
		Monthly:      []MonthTotal{},
	}

	days := make(map[string]*DayTotal)
	cats := make(map[string]*CategoryTotal)
	months := make(map[string]*MonthTotal)

	for _, s := range sales {
		st.TotalRevenue = st.TotalRevenue.Add(s.Total)
		st.TotalSales++

		dayKey := s.Date.UTC().Format(time.DateOnly)
		d, ok := days[dayKey]
		if !ok {
			d = &DayTotal{Date: dayKey}
			days[dayKey] = d
		}

		d.Total = d.Total.Add(s.Total)
		d.Count++

		name := uncategorized
		if s.Category != nil {
			name = s.Category.Name
		}

		c, ok := cats[name]
		if !ok {
			c = &CategoryTotal{Name: name}
			cats[name] = c
		}

		c.Total = c.Total.Add(s.Total)
		c.Count++

		monthKey := s.Date.UTC().Format(monthLayout)
		m, ok := months[monthKey]
		if !ok {
			m = &MonthTotal{Month: monthKey}
			months[monthKey] = m
		}

		m.Revenue = m.Revenue.Add(s.Total)
		m.Sales++
	}

	if st.TotalSales > 0 {
		st.AverageSale = st.TotalRevenue.Div(decimal.NewFromInt(int64(st.TotalSales)))
	}

	for _, d := range days {
		st.ByDate = append(st.ByDate, *d)
	}

	sort.Slice(st.ByDate, func(i, j int) bool { return st.ByDate[i].Date < st.ByDate[j].Date })
	st.ByDate = lastN(st.ByDate, statsDays)

	for _, c := range cats {
		st.ByCategory = append(st.ByCategory, *c)
	}

	sort.Slice(st.ByCategory, func(i, j int) bool {
		if cmp := st.ByCategory[i].Total.Cmp(st.ByCategory[j].Total); cmp != 0 {
			return cmp > 0
		}

		return st.ByCategory[i].Name < st.ByCategory[j].Name
	})

	for _, m := range months {
		st.Monthly = append(st.Monthly, *m)
	}

	sort.Slice(st.Monthly, func(i, j int) bool { return st.Monthly[i].Month < st.Monthly[j].Month })
	st.Monthly = lastN(st.Monthly, statsMonths)

	return st
}

func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}

	return items[len(items)-n:]
}
