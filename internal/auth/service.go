package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/user"
)

const minPasswordLength = 6

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=auth
type Repository interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type Service struct {
	repo   Repository
	tokens *TokenIssuer
	hasher *Hasher
}

func NewService(repo Repository, tokens *TokenIssuer, hasher *Hasher) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
	}
}

// Session is the result of a successful register or login.
type Session struct {
	UserID    uuid.UUID
	Username  string
	Token     string
	ExpiresAt time.Time
}

// Register creates a user and returns a session for it.
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	_, err := s.repo.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, user.ErrUsernameTaken
	case !errors.Is(err, user.ErrNotFound):
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u := &user.User{Username: username, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return s.session(u)
}

// Login verifies credentials. Unknown usernames and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	u, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.burn(password)
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !s.hasher.Matches(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.session(u)
}

// VerifyToken resolves a bearer token to its user.
func (s *Service) VerifyToken(ctx context.Context, token string) (*user.User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("loading token user: %w", err)
	}

	return u, nil
}

// ResetPassword replaces the password of an already authenticated user.
// Outstanding tokens stay valid until they expire.
func (s *Service) ResetPassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrPasswordsRequired
	}

	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}

		return fmt.Errorf("loading user: %w", err)
	}

	if !s.hasher.Matches(u.PasswordHash, currentPassword) {
		return ErrIncorrectPassword
	}

	if currentPassword == newPassword {
		return ErrPasswordUnchanged
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return s.repo.UpdatePasswordHash(ctx, u.ID, hash)
}

func (s *Service) session(u *user.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}

	return &Session{
		UserID:    u.ID,
		Username:  u.Username,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
