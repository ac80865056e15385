package category_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/category"
)

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		input     string
		setupMock func(m *category.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:  "Success",
			input: "  Yarn ",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().
					CreateCategory(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c *category.Category) error {
						assert.Equal(t, "Yarn", c.Name)
						c.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:    "BlankName",
			input:   "   ",
			wantErr: category.ErrNameRequired,
		},
		{
			name:  "Duplicate",
			input: "Yarn",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().CreateCategory(gomock.Any(), gomock.Any()).Return(category.ErrNameTaken)
			},
			wantErr: category.ErrNameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := category.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := category.NewService(repo)
			got, err := svc.Create(context.Background(), tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
		})
	}
}

func TestService_Rename(t *testing.T) {
	id := uuid.New()

	type testCase struct {
		name      string
		input     string
		setupMock func(m *category.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:  "Success",
			input: "Hooks",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().GetCategory(gomock.Any(), id).Return(&category.Category{ID: id, Name: "Old"}, nil)
				m.EXPECT().
					UpdateCategory(gomock.Any(), &category.Category{ID: id, Name: "Hooks"}).
					Return(nil)
			},
		},
		{
			name:  "NotFound",
			input: "Hooks",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().GetCategory(gomock.Any(), id).Return(nil, category.ErrNotFound)
			},
			wantErr: category.ErrNotFound,
		},
		{
			name:  "NameTaken",
			input: "Yarn",
			setupMock: func(m *category.MockRepository) {
				m.EXPECT().GetCategory(gomock.Any(), id).Return(&category.Category{ID: id, Name: "Old"}, nil)
				m.EXPECT().UpdateCategory(gomock.Any(), gomock.Any()).Return(category.ErrNameTaken)
			},
			wantErr: category.ErrNameTaken,
		},
		{
			name:    "EmptyName",
			input:   "",
			wantErr: category.ErrNameRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := category.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := category.NewService(repo).Rename(context.Background(), id, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.input, got.Name)
		})
	}
}

func TestService_Ensure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)
	svc := category.NewService(repo)

	existing := &category.Category{ID: uuid.New(), Name: "Yarn"}

	gomock.InOrder(
		repo.EXPECT().GetCategoryByName(gomock.Any(), "Yarn").Return(existing, nil),
		repo.EXPECT().GetCategoryByName(gomock.Any(), "Hooks").Return(nil, category.ErrNotFound),
		repo.EXPECT().CreateCategory(gomock.Any(), gomock.Any()).Return(nil),
		repo.EXPECT().GetCategoryByName(gomock.Any(), "Patterns").Return(nil, errors.New("db down")),
	)

	got, created, err := svc.Ensure(context.Background(), "Yarn")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing, got)

	got, created, err = svc.Ensure(context.Background(), "Hooks")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Hooks", got.Name)

	_, _, err = svc.Ensure(context.Background(), "Patterns")
	assert.Error(t, err)
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := category.NewMockRepository(ctrl)
	id := uuid.New()

	repo.EXPECT().DeleteCategory(gomock.Any(), id).Return(category.ErrNotFound)

	err := category.NewService(repo).Delete(context.Background(), id)
	assert.ErrorIs(t, err, category.ErrNotFound)
}
