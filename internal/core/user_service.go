package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserService provides login and user lookup operations.
type UserService interface {
	// Authenticate verifies a username/password pair. Unknown users, inactive users
	// and wrong passwords all yield ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	// CreateUser adds a login to a store. storeID may be nil only for super admins.
	CreateUser(ctx context.Context, storeID *uuid.UUID, username, password string, role Role) (*User, error)
}

type userService struct {
	repo Repository
}

// NewUserService constructs a UserService backed by the repository.
func NewUserService(repo Repository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *userService) CreateUser(ctx context.Context, storeID *uuid.UUID, username, password string, role Role) (*User, error) {
	var u *User
	err := s.repo.InTx(ctx, func(q Queries) error {
		var err error
		u, err = createUserTx(ctx, q, storeID, username, password, role)
		return err
	})
	return u, err
}

func createUserTx(ctx context.Context, q Queries, storeID *uuid.UUID, username, password string, role Role) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, invalidf("username is required")
	}
	if len(password) < minPasswordLength {
		return nil, invalidf("password must be at least %d characters", minPasswordLength)
	}
	if !role.Valid() {
		return nil, invalidf("unknown role %q", role)
	}
	if (storeID == nil) != (role == RoleSuperAdmin) {
		return nil, invalidf("only super admins exist outside a store")
	}

	if _, err := q.GetUserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &User{
		ID:           uuid.New(),
		StoreID:      storeID,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now(),
	}
	if err := q.InsertUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}
