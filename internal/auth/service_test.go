package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
	"github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/user"
)

const testSecret = "test-secret"

func newService(t *testing.T, repo auth.Repository) (*auth.Service, *auth.TokenIssuer) {
	t.Helper()

	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	tokens := auth.NewTokenIssuer(testSecret, 24*time.Hour)

	return auth.NewService(repo, tokens, hasher), tokens
}

func hashOf(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return string(hash)
}

func TestService_Register(t *testing.T) {
	type testCase struct {
		name      string
		username  string
		password  string
		setupMock func(m *auth.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:     "Success",
			username: "admin",
			password: "secret1",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetUserByUsername(gomock.Any(), "admin").Return(nil, user.ErrNotFound)
				m.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *user.User) error {
						assert.NotEqual(t, "secret1", u.PasswordHash)
						assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
						u.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:     "UsernameTaken",
			username: "admin",
			password: "secret1",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetUserByUsername(gomock.Any(), "admin").Return(&user.User{ID: uuid.New()}, nil)
			},
			wantErr: user.ErrUsernameTaken,
		},
		{
			name:     "UniqueViolationRace",
			username: "admin",
			password: "secret1",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetUserByUsername(gomock.Any(), "admin").Return(nil, user.ErrNotFound)
				m.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(user.ErrUsernameTaken)
			},
			wantErr: user.ErrUsernameTaken,
		},
		{
			name:     "MissingPassword",
			username: "admin",
			wantErr:  auth.ErrCredentialsRequired,
		},
		{
			name:     "BlankUsername",
			username: "   ",
			password: "secret1",
			wantErr:  auth.ErrCredentialsRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := auth.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc, tokens := newService(t, repo)
			got, err := svc.Register(context.Background(), tt.username, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "admin", got.Username)
			assert.NotEmpty(t, got.Token)

			id, err := tokens.Parse(got.Token)
			require.NoError(t, err)
			assert.Equal(t, got.UserID, id)
		})
	}
}

func TestService_Login_EnumerationResistance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	svc, _ := newService(t, repo)

	existing := &user.User{ID: uuid.New(), Username: "admin", PasswordHash: hashOf(t, "secret1")}

	repo.EXPECT().GetUserByUsername(gomock.Any(), "admin").Return(existing, nil)
	repo.EXPECT().GetUserByUsername(gomock.Any(), "ghost").Return(nil, user.ErrNotFound)

	_, wrongPassword := svc.Login(context.Background(), "admin", "nope")
	_, unknownUser := svc.Login(context.Background(), "ghost", "secret1")

	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)
	assert.Equal(t, wrongPassword, unknownUser)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(unknownUser))
	assert.Equal(t, apperr.MessageOf(wrongPassword), apperr.MessageOf(unknownUser))
}

func TestService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	svc, tokens := newService(t, repo)

	existing := &user.User{ID: uuid.New(), Username: "admin", PasswordHash: hashOf(t, "secret1")}
	repo.EXPECT().GetUserByUsername(gomock.Any(), "admin").Return(existing, nil)

	session, err := svc.Login(context.Background(), "admin", "secret1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, session.UserID)

	id, err := tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, id)
}

func TestService_Login_StoreFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	svc, _ := newService(t, repo)

	repo.EXPECT().GetUserByUsername(gomock.Any(), "admin").Return(nil, errors.New("connection reset"))

	_, err := svc.Login(context.Background(), "admin", "secret1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestService_VerifyToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	svc, tokens := newService(t, repo)

	known := &user.User{ID: uuid.New(), Username: "admin"}
	goneID := uuid.New()

	knownToken, _, err := tokens.Issue(known.ID)
	require.NoError(t, err)

	goneToken, _, err := tokens.Issue(goneID)
	require.NoError(t, err)

	foreignToken, _, err := auth.NewTokenIssuer("other-secret", time.Hour).Issue(known.ID)
	require.NoError(t, err)

	repo.EXPECT().GetUser(gomock.Any(), known.ID).Return(known, nil)
	repo.EXPECT().GetUser(gomock.Any(), goneID).Return(nil, user.ErrNotFound)

	got, err := svc.VerifyToken(context.Background(), knownToken)
	require.NoError(t, err)
	assert.Equal(t, known, got)

	_, err = svc.VerifyToken(context.Background(), goneToken)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = svc.VerifyToken(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrTokenMissing)

	_, err = svc.VerifyToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)

	_, err = svc.VerifyToken(context.Background(), foreignToken)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestService_ResetPassword_Rejections(t *testing.T) {
	userID := uuid.New()

	type testCase struct {
		name      string
		current   string
		next      string
		setupMock func(m *auth.MockRepository)
		wantErr   error
	}

	stored := func(m *auth.MockRepository) {
		m.EXPECT().
			GetUser(gomock.Any(), userID).
			Return(&user.User{ID: userID, PasswordHash: hashOf(t, "secret1")}, nil)
	}

	tests := []testCase{
		{name: "EmptyCurrent", current: "", next: "secret2", wantErr: auth.ErrPasswordsRequired},
		{name: "EmptyNew", current: "secret1", next: "", wantErr: auth.ErrPasswordsRequired},
		{name: "TooShort", current: "secret1", next: "abc", wantErr: auth.ErrPasswordTooShort},
		{name: "TooShortMultibyte", current: "secret1", next: "ééé", wantErr: auth.ErrPasswordTooShort},
		{
			name:    "UserGone",
			current: "secret1",
			next:    "secret2",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetUser(gomock.Any(), userID).Return(nil, user.ErrNotFound)
			},
			wantErr: user.ErrNotFound,
		},
		{name: "WrongCurrent", current: "wrong!", next: "secret2", setupMock: stored, wantErr: auth.ErrIncorrectPassword},
		{name: "Unchanged", current: "secret1", next: "secret1", setupMock: stored, wantErr: auth.ErrPasswordUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No UpdatePasswordHash expectation: any call fails the test.
			repo := auth.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc, _ := newService(t, repo)
			err := svc.ResetPassword(context.Background(), userID, tt.current, tt.next)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_ResetPassword_DistinctMessages(t *testing.T) {
	errs := []error{
		auth.ErrPasswordsRequired,
		auth.ErrPasswordTooShort,
		auth.ErrIncorrectPassword,
		auth.ErrPasswordUnchanged,
	}

	seen := make(map[string]bool)
	for _, err := range errs {
		msg := apperr.MessageOf(err)
		assert.False(t, seen[msg], "duplicate message %q", msg)
		seen[msg] = true
	}
}

func TestService_ResetPassword_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	svc, _ := newService(t, repo)

	userID := uuid.New()
	repo.EXPECT().
		GetUser(gomock.Any(), userID).
		Return(&user.User{ID: userID, PasswordHash: hashOf(t, "secret1")}, nil)
	repo.EXPECT().
		UpdatePasswordHash(gomock.Any(), userID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, hash string) error {
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret2")))
			return nil
		})

	require.NoError(t, svc.ResetPassword(context.Background(), userID, "secret1", "secret2"))
}
