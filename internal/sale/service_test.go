package sale_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/category"
	"github.com/MrJamesThe3rd/tally/internal/picture"
	"github.com/MrJamesThe3rd/tally/internal/sale"
)

type mocks struct {
	repo       *sale.MockRepository
	categories *sale.MockCategoryLookup
	pictures   *sale.MockPictures
}

func newService(t *testing.T) (*sale.Service, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := mocks{
		repo:       sale.NewMockRepository(ctrl),
		categories: sale.NewMockCategoryLookup(ctrl),
		pictures:   sale.NewMockPictures(ctrl),
	}

	return sale.NewService(m.repo, m.categories, m.pictures), m
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestService_Create(t *testing.T) {
	yarn := &category.Category{ID: uuid.New(), Name: "Yarn"}
	png := &picture.Upload{Filename: "hat.png", Data: []byte("png")}

	type testCase struct {
		name      string
		params    sale.CreateParams
		setupMock func(m mocks)
		wantErr   error
		wantTotal string
	}

	tests := []testCase{
		{
			name:   "Success",
			params: sale.CreateParams{ItemName: "Crochet Hat", Quantity: dec("2"), Price: dec("150"), CategoryID: &yarn.ID},
			setupMock: func(m mocks) {
				m.categories.EXPECT().Get(gomock.Any(), yarn.ID).Return(yarn, nil)
				m.repo.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, s *sale.Sale) error {
						s.ID = uuid.New()
						return nil
					})
			},
			wantTotal: "300",
		},
		{
			name:   "FractionalAmountsAreExact",
			params: sale.CreateParams{ItemName: "Yarn ball", Quantity: dec("3"), Price: dec("0.1")},
			setupMock: func(m mocks) {
				m.repo.EXPECT().CreateSale(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantTotal: "0.3",
		},
		{
			name:   "WithPicture",
			params: sale.CreateParams{ItemName: "Hat", Quantity: dec("1"), Price: dec("10"), Picture: png},
			setupMock: func(m mocks) {
				m.pictures.EXPECT().Save(gomock.Any(), *png).Return("/uploads/a.png", nil)
				m.repo.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, s *sale.Sale) error {
						assert.Equal(t, "/uploads/a.png", s.PictureURL)
						return nil
					})
			},
			wantTotal: "10",
		},
		{
			name:   "StoreFailureDiscardsPicture",
			params: sale.CreateParams{ItemName: "Hat", Quantity: dec("1"), Price: dec("10"), Picture: png},
			setupMock: func(m mocks) {
				m.pictures.EXPECT().Save(gomock.Any(), *png).Return("/uploads/a.png", nil)
				m.repo.EXPECT().CreateSale(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
				m.pictures.EXPECT().Delete(gomock.Any(), "/uploads/a.png").Return(nil)
			},
			wantErr: errors.New("db error"),
		},
		{
			name:    "MissingItemName",
			params:  sale.CreateParams{ItemName: "  ", Quantity: dec("1"), Price: dec("1")},
			wantErr: sale.ErrItemNameRequired,
		},
		{
			name:    "ZeroQuantity",
			params:  sale.CreateParams{ItemName: "Hat", Price: dec("1")},
			wantErr: sale.ErrQuantityInvalid,
		},
		{
			name:    "NegativePrice",
			params:  sale.CreateParams{ItemName: "Hat", Quantity: dec("1"), Price: dec("-1")},
			wantErr: sale.ErrPriceInvalid,
		},
		{
			name:    "HugeExponent",
			params:  sale.CreateParams{ItemName: "Hat", Quantity: dec("1e2000000000"), Price: dec("1e2000000000")},
			wantErr: sale.ErrOutOfRange,
		},
		{
			name:    "TooManyDecimals",
			params:  sale.CreateParams{ItemName: "Hat", Quantity: dec("1"), Price: dec("0.000000001")},
			wantErr: sale.ErrOutOfRange,
		},
		{
			name:   "UnknownCategory",
			params: sale.CreateParams{ItemName: "Hat", Quantity: dec("1"), Price: dec("1"), CategoryID: &yarn.ID},
			setupMock: func(m mocks) {
				m.categories.EXPECT().Get(gomock.Any(), yarn.ID).Return(nil, category.ErrNotFound)
			},
			wantErr: sale.ErrUnknownCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			got, err := svc.Create(context.Background(), tt.params)

			if tt.wantErr != nil {
				require.Error(t, err)
				if apperr.KindOf(tt.wantErr) != apperr.KindInternal {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.True(t, dec(tt.wantTotal).Equal(got.Total), "total = %s", got.Total)
			assert.False(t, got.Date.IsZero())
		})
	}
}

func TestService_Update_RecomputesTotal(t *testing.T) {
	svc, m := newService(t)
	id := uuid.New()

	stored := &sale.Sale{ID: id, ItemName: "Crochet Hat", Quantity: dec("2"), Price: dec("150"), Total: dec("300")}
	m.repo.EXPECT().GetSale(gomock.Any(), id).Return(stored, nil)
	m.repo.EXPECT().UpdateSale(gomock.Any(), gomock.Any()).Return(nil)

	qty := dec("3")
	got, err := svc.Update(context.Background(), id, sale.UpdateParams{Quantity: &qty})
	require.NoError(t, err)
	assert.True(t, dec("450").Equal(got.Total))
	assert.Equal(t, "Crochet Hat", got.ItemName)
}

func TestService_Update_ReplacesPicture(t *testing.T) {
	svc, m := newService(t)
	id := uuid.New()
	up := picture.Upload{Filename: "new.png", Data: []byte("png")}

	stored := &sale.Sale{ID: id, ItemName: "Hat", Quantity: dec("1"), Price: dec("5"), PictureURL: "/uploads/old.png"}

	gomock.InOrder(
		m.repo.EXPECT().GetSale(gomock.Any(), id).Return(stored, nil),
		m.pictures.EXPECT().Save(gomock.Any(), up).Return("/uploads/new.png", nil),
		m.repo.EXPECT().UpdateSale(gomock.Any(), gomock.Any()).Return(nil),
		m.pictures.EXPECT().Delete(gomock.Any(), "/uploads/old.png").Return(errors.New("gone")),
	)

	got, err := svc.Update(context.Background(), id, sale.UpdateParams{Picture: &up})
	require.NoError(t, err, "cleanup failures are not surfaced")
	assert.Equal(t, "/uploads/new.png", got.PictureURL)
}

func TestService_Update_KeepsPictureWithoutUpload(t *testing.T) {
	svc, m := newService(t)
	id := uuid.New()

	stored := &sale.Sale{ID: id, ItemName: "Hat", Quantity: dec("1"), Price: dec("5"), PictureURL: "/uploads/old.png"}
	m.repo.EXPECT().GetSale(gomock.Any(), id).Return(stored, nil)
	m.repo.EXPECT().UpdateSale(gomock.Any(), gomock.Any()).Return(nil)

	name := "Beanie"
	got, err := svc.Update(context.Background(), id, sale.UpdateParams{ItemName: &name})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/old.png", got.PictureURL)
}

func TestService_Update_Category(t *testing.T) {
	id := uuid.New()
	yarn := &category.Category{ID: uuid.New(), Name: "Yarn"}

	t.Run("Clear", func(t *testing.T) {
		svc, m := newService(t)

		stored := &sale.Sale{ID: id, ItemName: "Hat", Quantity: dec("1"), Price: dec("5"), CategoryID: &yarn.ID, Category: yarn}
		m.repo.EXPECT().GetSale(gomock.Any(), id).Return(stored, nil)
		m.repo.EXPECT().UpdateSale(gomock.Any(), gomock.Any()).Return(nil)

		got, err := svc.Update(context.Background(), id, sale.UpdateParams{ClearCategory: true})
		require.NoError(t, err)
		assert.Nil(t, got.CategoryID)
		assert.Nil(t, got.Category)
	})

	t.Run("Unknown", func(t *testing.T) {
		svc, m := newService(t)

		stored := &sale.Sale{ID: id, ItemName: "Hat", Quantity: dec("1"), Price: dec("5")}
		m.repo.EXPECT().GetSale(gomock.Any(), id).Return(stored, nil)
		m.categories.EXPECT().Get(gomock.Any(), yarn.ID).Return(nil, category.ErrNotFound)

		_, err := svc.Update(context.Background(), id, sale.UpdateParams{CategoryID: &yarn.ID})
		assert.ErrorIs(t, err, sale.ErrUnknownCategory)
	})
}

func TestService_Update_NotFound(t *testing.T) {
	svc, m := newService(t)
	id := uuid.New()

	m.repo.EXPECT().GetSale(gomock.Any(), id).Return(nil, sale.ErrNotFound)

	_, err := svc.Update(context.Background(), id, sale.UpdateParams{})
	assert.ErrorIs(t, err, sale.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	id := uuid.New()

	t.Run("RemovesPicture", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetSale(gomock.Any(), id).Return(&sale.Sale{ID: id, PictureURL: "/uploads/a.png"}, nil)
		m.repo.EXPECT().DeleteSale(gomock.Any(), id).Return(nil)
		m.pictures.EXPECT().Delete(gomock.Any(), "/uploads/a.png").Return(nil)

		require.NoError(t, svc.Delete(context.Background(), id))
	})

	t.Run("NoPicture", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetSale(gomock.Any(), id).Return(&sale.Sale{ID: id}, nil)
		m.repo.EXPECT().DeleteSale(gomock.Any(), id).Return(nil)

		require.NoError(t, svc.Delete(context.Background(), id))
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetSale(gomock.Any(), id).Return(nil, sale.ErrNotFound)

		assert.ErrorIs(t, svc.Delete(context.Background(), id), sale.ErrNotFound)
	})
}

func TestService_CreateBatch(t *testing.T) {
	yarn := &category.Category{ID: uuid.New(), Name: "Yarn"}
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	params := []sale.CreateParams{
		{ItemName: "Hat", Quantity: dec("2"), Price: dec("7.5"), CategoryID: &yarn.ID, Date: &date},
		{ItemName: "Scarf", Quantity: dec("1"), Price: dec("20"), CategoryID: &yarn.ID},
	}

	t.Run("Success", func(t *testing.T) {
		svc, m := newService(t)
		itx := sale.NewMockImportTx(gomock.NewController(t))

		m.categories.EXPECT().Get(gomock.Any(), yarn.ID).Return(yarn, nil).Times(1)
		m.repo.EXPECT().BeginImport(gomock.Any()).Return(itx, nil)
		itx.EXPECT().CreateSales(gomock.Any(), gomock.Len(2)).Return(nil)
		itx.EXPECT().Commit().Return(nil)
		itx.EXPECT().Rollback().Return(nil)

		got, err := svc.CreateBatch(context.Background(), params)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, dec("15").Equal(got[0].Total))
		assert.Equal(t, date, got[0].Date)
		assert.Equal(t, "Yarn", got[1].Category.Name)
	})

	t.Run("InvalidRowAbortsBeforeWriting", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.CreateBatch(context.Background(), []sale.CreateParams{
			{ItemName: "Hat", Quantity: dec("1"), Price: dec("1")},
			{ItemName: "Hat", Quantity: dec("0"), Price: dec("1")},
		})
		require.ErrorIs(t, err, sale.ErrQuantityInvalid)
		assert.Contains(t, err.Error(), "row 2")
	})

	t.Run("InsertFailureRollsBack", func(t *testing.T) {
		svc, m := newService(t)
		itx := sale.NewMockImportTx(gomock.NewController(t))

		m.categories.EXPECT().Get(gomock.Any(), yarn.ID).Return(yarn, nil)
		m.repo.EXPECT().BeginImport(gomock.Any()).Return(itx, nil)
		itx.EXPECT().CreateSales(gomock.Any(), gomock.Any()).Return(errors.New("constraint"))
		itx.EXPECT().Rollback().Return(nil)

		_, err := svc.CreateBatch(context.Background(), params)
		assert.Error(t, err)
	})
}

func TestInRange(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "0", want: true},
		{in: "0.00000000000", want: true},
		{in: "150.5", want: true},
		{in: "999999999999999999", want: true},
		{in: "0.00000001", want: true},
		{in: "-12.5", want: true},
		{in: "1000000000000000000", want: false},
		{in: "0.000000001", want: false},
		{in: "1e50000000", want: false},
		{in: "1e-50000000", want: false},
		{in: "1e2000000000", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sale.InRange(dec(tt.in)))
		})
	}
}
