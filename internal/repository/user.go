package repository

import (
	"context"

	"csecv/internal/domain"
)

// UserRepository defines persistence operations for User entities. Email
// lookups are case-insensitive.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateUsername(ctx context.Context, id, username string) error
	UpdatePassword(ctx context.Context, id, salt, hash string) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
}
