package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/category"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/importer/salescsv"
	"github.com/MrJamesThe3rd/tally/internal/memstore"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

const file = `itemName,quantity,price,category
Crochet Hat,2,150,Yarn
Beanie,1,80,yarn
Hook 5mm,3,4.5,
Gift card,1,20,
`

func TestService_Import(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sales := importer.NewMockSaleCreator(ctrl)
	cats := importer.NewMockCategoryResolver(ctrl)
	suggester := importer.NewMockSuggester(ctrl)

	yarn := &category.Category{ID: uuid.New(), Name: "Yarn"}
	hooks := &category.Category{ID: uuid.New(), Name: "Hooks"}

	cats.EXPECT().Ensure(gomock.Any(), "Yarn").Return(yarn, true, nil).Times(1)
	suggester.EXPECT().Suggest(gomock.Any(), "Hook 5mm").Return(hooks, nil)
	suggester.EXPECT().Suggest(gomock.Any(), "Gift card").Return(nil, nil)
	sales.EXPECT().
		CreateBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params []sale.CreateParams) ([]*sale.Sale, error) {
			require.Len(t, params, 4)
			assert.Equal(t, yarn.ID, *params[0].CategoryID)
			assert.Equal(t, yarn.ID, *params[1].CategoryID)
			assert.Equal(t, hooks.ID, *params[2].CategoryID)
			assert.Nil(t, params[3].CategoryID)

			out := make([]*sale.Sale, len(params))
			for i, p := range params {
				out[i] = &sale.Sale{ID: uuid.New(), ItemName: p.ItemName, Total: p.Quantity.Mul(p.Price)}
			}

			return out, nil
		})

	svc := importer.NewService(salescsv.NewParser(), sales, cats, suggester)

	res, err := svc.Import(context.Background(), strings.NewReader(file))
	require.NoError(t, err)

	assert.Equal(t, "tally", res.Profile)
	assert.Equal(t, "utf-8", res.Charset)
	assert.Len(t, res.Sales, 4)
	assert.Equal(t, []string{"Yarn"}, res.CreatedCategories)
}

func TestService_Import_ReusesCategoryRegardlessOfCase(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	cats := category.NewService(memstore.New())

	yarn, err := cats.Create(ctx, "Yarn")
	require.NoError(t, err)

	sales := importer.NewMockSaleCreator(ctrl)
	sales.EXPECT().
		CreateBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params []sale.CreateParams) ([]*sale.Sale, error) {
			require.Len(t, params, 2)
			assert.Equal(t, yarn.ID, *params[0].CategoryID)
			assert.Equal(t, yarn.ID, *params[1].CategoryID)

			return []*sale.Sale{{ID: uuid.New()}, {ID: uuid.New()}}, nil
		})

	svc := importer.NewService(salescsv.NewParser(), sales, cats, nil)

	res, err := svc.Import(ctx, strings.NewReader("itemName,quantity,price,category\nHat,1,1,yarn\nScarf,1,2,YARN\n"))
	require.NoError(t, err)
	assert.Empty(t, res.CreatedCategories)

	all, err := cats.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_Import_ParseErrorStoresNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := importer.NewService(
		salescsv.NewParser(),
		importer.NewMockSaleCreator(ctrl),
		importer.NewMockCategoryResolver(ctrl),
		importer.NewMockSuggester(ctrl),
	)

	_, err := svc.Import(context.Background(), strings.NewReader("itemName,quantity,price\nHat,x,1\n"))
	assert.Error(t, err)
}

func TestService_Import_CategoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cats := importer.NewMockCategoryResolver(ctrl)
	cats.EXPECT().Ensure(gomock.Any(), "Yarn").Return(nil, false, errors.New("db error"))

	svc := importer.NewService(salescsv.NewParser(), importer.NewMockSaleCreator(ctrl), cats, nil)

	_, err := svc.Import(context.Background(), strings.NewReader("itemName,quantity,price,category\nHat,1,1,Yarn\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
