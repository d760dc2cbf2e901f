package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned by lookups that match no record.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when email or username is already taken.
	ErrDuplicate = errors.New("is already taken")
	// ErrInvalidID is returned when an id is not in the store's key format.
	ErrInvalidID = errors.New("invalid id")
)

// UserFilter selects records for listing. A nil Deleted matches every record.
type UserFilter struct {
	Deleted *bool
}

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	List(ctx context.Context, f UserFilter, skip, limit int64) ([]*entity.User, error)
	Count(ctx context.Context, f UserFilter) (int64, error)
}
