package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"csecv/internal/auth"
	"csecv/internal/domain"
	"csecv/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists is returned when registering with an email that is already taken.
	ErrEmailExists = errors.New("email already registered")
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole is returned for role strings outside the assignable set.
	ErrInvalidRole = errors.New("invalid role")
)

// UserService describes user lifecycle and role operations.
type UserService interface {
	Register(ctx context.Context, email, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateUsername(ctx context.Context, id, username string) (*domain.User, error)
	ChangePassword(ctx context.Context, id, current, next string) error
	AssignRole(ctx context.Context, id, role string) (*domain.User, error)
	EffectiveRole(user *domain.User) domain.Role
}

type userService struct {
	users  repository.UserRepository
	owners domain.OwnerList
}

func NewUserService(users repository.UserRepository, owners domain.OwnerList) UserService {
	return &userService{
		users:  users,
		owners: owners,
	}
}

func (s *userService) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	salt, hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := domain.RoleUser
	if s.owners.Contains(email) {
		role = domain.RoleOwner
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordSalt: salt,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	sanitized := make([]domain.User, len(users))
	for i := range users {
		sanitized[i] = *sanitizeUser(&users[i])
	}
	return sanitized, nil
}

func (s *userService) UpdateUsername(ctx context.Context, id, username string) (*domain.User, error) {
	if err := s.users.UpdateUsername(ctx, id, strings.TrimSpace(username)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *userService) ChangePassword(ctx context.Context, id, current, next string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !auth.VerifyPassword(current, user.PasswordSalt, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	salt, hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, salt, hash)
}

// AssignRole changes a stored role. Owner is derived from the allow-list
// only and is never assignable here.
func (s *userService) AssignRole(ctx context.Context, id, role string) (*domain.User, error) {
	parsed, ok := domain.ParseRole(role)
	if !ok || parsed == domain.RoleOwner {
		return nil, ErrInvalidRole
	}
	if err := s.users.UpdateRole(ctx, id, parsed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *userService) EffectiveRole(user *domain.User) domain.Role {
	if user == nil {
		return domain.RoleUser
	}
	return s.owners.Effective(user.Email, user.Role)
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
