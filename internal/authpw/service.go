// Package authpw provides username/password authentication and account
// management over the credential table.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"civicvoice/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
	MinFullNameLength = 3
)

// Service provides username/password authentication
type Service struct {
	store UserStore
	cost  int
}

// UserStore defines the storage interface for auth
type UserStore interface {
	UserByUsername(ctx context.Context, username string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) (store.User, error)
	DeleteUser(ctx context.Context, username string) (store.User, error)
	Users(ctx context.Context) ([]store.User, error)
}

// NewService creates a new auth service. A cost of zero uses bcrypt.DefaultCost.
func NewService(users UserStore, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: users, cost: cost}
}

// Hash returns the bcrypt hash stored for password.
func (s *Service) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// RegisterRequest contains registration parameters
type RegisterRequest struct {
	Username string
	Password string
	FullName string
}

// Register validates and creates a non-admin account. Checks run in a fixed
// order so the first failing rule is reported.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (store.Identity, error) {
	username := store.FoldUsername(req.Username)
	fullName := strings.TrimSpace(req.FullName)

	if utf8.RuneCountInString(username) < MinUsernameLength {
		return store.Identity{}, store.ErrUsernameTooShort
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		return store.Identity{}, store.ErrPasswordTooShort
	}
	if _, err := s.store.UserByUsername(ctx, username); err == nil {
		return store.Identity{}, store.ErrUsernameTaken
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return store.Identity{}, fmt.Errorf("lookup user: %w", err)
	}
	if utf8.RuneCountInString(fullName) < MinFullNameLength {
		return store.Identity{}, store.ErrFullNameTooShort
	}

	hash, err := s.Hash(req.Password)
	if err != nil {
		return store.Identity{}, err
	}

	user, err := s.store.CreateUser(ctx, store.User{
		Username:     username,
		DisplayName:  fullName,
		PasswordHash: hash,
	})
	if err != nil {
		return store.Identity{}, fmt.Errorf("create user: %w", err)
	}
	return user.Identity(), nil
}

// Authenticate checks credentials. Unknown users and wrong passwords fail
// with the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (store.Identity, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return store.Identity{}, store.ErrInvalidCredentials
		}
		return store.Identity{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.Identity{}, store.ErrInvalidCredentials
	}
	return user.Identity(), nil
}

// DeleteUser removes an account. The reserved admin account is refused
// whoever asks.
func (s *Service) DeleteUser(ctx context.Context, username string) (store.Identity, error) {
	if store.FoldUsername(username) == store.ReservedAdmin {
		return store.Identity{}, store.ErrCannotDeleteAdmin
	}
	user, err := s.store.DeleteUser(ctx, username)
	if err != nil {
		return store.Identity{}, err
	}
	return user.Identity(), nil
}

// ListUsers returns every account without password material.
func (s *Service) ListUsers(ctx context.Context) ([]store.Identity, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	items := make([]store.Identity, 0, len(users))
	for _, user := range users {
		items = append(items, user.Identity())
	}
	return items, nil
}
