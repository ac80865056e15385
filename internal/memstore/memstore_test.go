package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/category"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/memstore"
	"github.com/MrJamesThe3rd/tally/internal/sale"
	"github.com/MrJamesThe3rd/tally/internal/user"
)

var (
	_ auth.Repository     = (*memstore.Store)(nil)
	_ category.Repository = (*memstore.Store)(nil)
	_ sale.Repository     = (*memstore.Store)(nil)
	_ matching.Repository = (*memstore.Store)(nil)
)

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	u := &user.User{Username: "admin", PasswordHash: "h1"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)

	err := s.CreateUser(ctx, &user.User{Username: "admin", PasswordHash: "h2"})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)

	require.NoError(t, s.UpdatePasswordHash(ctx, u.ID, "h3"))

	got, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "h3", got.PasswordHash)

	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, uuid.New(), "x"), user.ErrNotFound)
}

func TestStore_SalesNewestFirstWithCategory(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	yarn := &category.Category{Name: "Yarn"}
	require.NoError(t, s.CreateCategory(ctx, yarn))

	first := &sale.Sale{ItemName: "first", Quantity: decimal.NewFromInt(1), CategoryID: &yarn.ID}
	second := &sale.Sale{ItemName: "second", Quantity: decimal.NewFromInt(1)}
	require.NoError(t, s.CreateSale(ctx, first))
	require.NoError(t, s.CreateSale(ctx, second))

	list, err := s.ListSales(ctx, sale.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].ItemName)
	assert.Equal(t, "Yarn", list[1].Category.Name)

	// Deleting the category leaves a dangling reference.
	require.NoError(t, s.DeleteCategory(ctx, yarn.ID))

	got, err := s.GetSale(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, yarn.ID, *got.CategoryID)
	assert.Nil(t, got.Category)
}

func TestStore_DeleteMissingLeavesCount(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, s.CreateSale(ctx, &sale.Sale{ItemName: "kept"}))
	require.NoError(t, s.CreateCategory(ctx, &category.Category{Name: "kept"}))

	assert.ErrorIs(t, s.DeleteSale(ctx, uuid.New()), sale.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, uuid.New()), category.ErrNotFound)

	sales, _ := s.ListSales(ctx, sale.ListFilter{})
	cats, _ := s.ListCategories(ctx)
	assert.Len(t, sales, 1)
	assert.Len(t, cats, 1)
}

func TestStore_CategoryNameUnique(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	yarn := &category.Category{Name: "Yarn"}
	hooks := &category.Category{Name: "Hooks"}
	require.NoError(t, s.CreateCategory(ctx, yarn))
	require.NoError(t, s.CreateCategory(ctx, hooks))

	assert.ErrorIs(t, s.CreateCategory(ctx, &category.Category{Name: "Yarn"}), category.ErrNameTaken)

	hooks.Name = "Yarn"
	assert.ErrorIs(t, s.UpdateCategory(ctx, hooks), category.ErrNameTaken)

	yarn.Name = "Yarn"
	assert.NoError(t, s.UpdateCategory(ctx, yarn), "renaming to its own name is allowed")
}

func TestStore_GetCategoryByNameIgnoresCase(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	yarn := &category.Category{Name: "Yarn"}
	require.NoError(t, s.CreateCategory(ctx, yarn))

	got, err := s.GetCategoryByName(ctx, "YARN")
	require.NoError(t, err)
	assert.Equal(t, yarn.ID, got.ID)

	lower := &category.Category{Name: "yarn"}
	require.NoError(t, s.CreateCategory(ctx, lower))

	got, err = s.GetCategoryByName(ctx, "yarn")
	require.NoError(t, err)
	assert.Equal(t, lower.ID, got.ID, "an exact match wins")

	_, err = s.GetCategoryByName(ctx, "Hooks")
	assert.ErrorIs(t, err, category.ErrNotFound)
}

func TestStore_ImportIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	itx, err := s.BeginImport(ctx)
	require.NoError(t, err)
	require.NoError(t, itx.CreateSales(ctx, []*sale.Sale{{ItemName: "a"}, {ItemName: "b"}}))

	list, _ := s.ListSales(ctx, sale.ListFilter{})
	assert.Empty(t, list, "nothing visible before commit")

	require.NoError(t, itx.Rollback())

	list, _ = s.ListSales(ctx, sale.ListFilter{})
	assert.Empty(t, list)

	itx, err = s.BeginImport(ctx)
	require.NoError(t, err)
	require.NoError(t, itx.CreateSales(ctx, []*sale.Sale{{ItemName: "a"}, {ItemName: "b"}}))
	require.NoError(t, itx.Commit())
	_ = itx.Rollback()

	list, _ = s.ListSales(ctx, sale.ListFilter{})
	assert.Len(t, list, 2)
}

func TestStore_ListSalesDateFilter(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	for d := 1; d <= 5; d++ {
		require.NoError(t, s.CreateSale(ctx, &sale.Sale{ItemName: "x", Date: day(d)}))
	}

	start, end := day(2), day(4)

	list, err := s.ListSales(ctx, sale.ListFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestStore_FindMatchPrefersLongestPattern(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	yarn, wool := uuid.New(), uuid.New()
	require.NoError(t, s.CreateRule(ctx, &matching.Rule{Pattern: "yarn", CategoryID: yarn}))
	require.NoError(t, s.CreateRule(ctx, &matching.Rule{Pattern: "wool yarn", CategoryID: wool}))

	got, err := s.FindMatch(ctx, "Merino WOOL YARN 50g")
	require.NoError(t, err)
	assert.Equal(t, wool, *got)

	got, err = s.FindMatch(ctx, "Cotton yarn")
	require.NoError(t, err)
	assert.Equal(t, yarn, *got)

	got, err = s.FindMatch(ctx, "Hook")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_FindMatchTreatsPatternLiterally(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	sale50 := uuid.New()
	require.NoError(t, s.CreateRule(ctx, &matching.Rule{Pattern: "50%", CategoryID: sale50}))
	require.NoError(t, s.CreateRule(ctx, &matching.Rule{Pattern: "a_b", CategoryID: uuid.New()}))

	got, err := s.FindMatch(ctx, "Yarn 50% off")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sale50, *got)

	for _, item := range []string{"Yarn 50 off", "axb hook", "500 beads"} {
		got, err = s.FindMatch(ctx, item)
		require.NoError(t, err)
		assert.Nil(t, got, item)
	}
}
