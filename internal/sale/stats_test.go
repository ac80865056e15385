package sale_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/category"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

func TestComputeStats(t *testing.T) {
	yarn := &category.Category{ID: uuid.New(), Name: "Yarn"}
	hooks := &category.Category{ID: uuid.New(), Name: "Hooks"}

	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 12, 0, 0, 0, time.UTC) }

	sales := []*sale.Sale{
		{Total: dec("300"), Date: day(3, 1), Category: yarn},
		{Total: dec("100"), Date: day(3, 1), Category: hooks},
		{Total: dec("50.5"), Date: day(4, 2), Category: yarn},
		{Total: dec("10"), Date: day(4, 3)},
	}

	st := sale.ComputeStats(sales)

	assert.True(t, dec("460.5").Equal(st.TotalRevenue))
	assert.Equal(t, 4, st.TotalSales)
	assert.True(t, dec("115.125").Equal(st.AverageSale))

	require.Len(t, st.ByDate, 3)
	assert.Equal(t, "2024-03-01", st.ByDate[0].Date)
	assert.Equal(t, 2, st.ByDate[0].Count)
	assert.True(t, dec("400").Equal(st.ByDate[0].Total))

	require.Len(t, st.ByCategory, 3)
	assert.Equal(t, "Yarn", st.ByCategory[0].Name)
	assert.True(t, dec("350.5").Equal(st.ByCategory[0].Total))
	assert.Equal(t, "Hooks", st.ByCategory[1].Name)
	assert.Equal(t, "Uncategorized", st.ByCategory[2].Name)

	require.Len(t, st.Monthly, 2)
	assert.Equal(t, "2024-03", st.Monthly[0].Month)
	assert.Equal(t, 2, st.Monthly[1].Sales)
}

func TestComputeStats_Empty(t *testing.T) {
	st := sale.ComputeStats(nil)

	assert.True(t, st.TotalRevenue.IsZero())
	assert.True(t, st.AverageSale.IsZero())
	assert.Empty(t, st.ByDate)
	assert.NotNil(t, st.ByDate)
}

func TestComputeStats_KeepsRecentWindow(t *testing.T) {
	var sales []*sale.Sale

	for m := 1; m <= 9; m++ {
		sales = append(sales, &sale.Sale{Total: dec("1"), Date: time.Date(2024, time.Month(m), 1, 0, 0, 0, 0, time.UTC)})
	}

	st := sale.ComputeStats(sales)

	require.Len(t, st.Monthly, 6)
	assert.Equal(t, "2024-04", st.Monthly[0].Month)
	assert.Equal(t, fmt.Sprintf("2024-%02d", 9), st.Monthly[5].Month)
}
