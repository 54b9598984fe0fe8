package repository

import (
	"context"
	"errors"

	"storefront-accounts/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no account matches the lookup key.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by Create when the email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// ListFilter narrows the admin account listing.
type ListFilter struct {
	Page   int
	Size   int
	Search string // matches first or last name, case-insensitive
	City   string
	Role   entity.Role
}

// AccountRepository defines the durable account store consumed by the
// lifecycle service. Implementations must enforce email uniqueness so that
// concurrent registrations for the same address cannot both succeed.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByActivationToken(ctx context.Context, token string) (*entity.Account, error)
	Save(ctx context.Context, a *entity.Account) error
	List(ctx context.Context, f ListFilter) ([]*entity.Account, int, error)
	Delete(ctx context.Context, id string) error
}
