package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jobkeep/go-reminders/pkg/domain"
)

// ErrNotFound is returned when a record cannot be located.
var ErrNotFound = errors.New("store: not found")

// ListOptions capture pagination and filtering knobs common to repositories.
type ListOptions struct {
	Limit              int
	Offset             int
	Since              time.Time
	Until              time.Time
	IncludeSoftDeleted bool
}

// ListResult bundles records and totals.
type ListResult[T any] struct {
	Items []T
	Total int
}

// Repository defines base CRUD helpers reused by entity-specific interfaces.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, opts ListOptions) (ListResult[T], error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// JobRepository stores tracked applications and their interview rounds.
type JobRepository interface {
	Repository[domain.Job]
	ListByOwner(ctx context.Context, ownerUserID string, opts ListOptions) (ListResult[domain.Job], error)
}

// UserRepository stores profile records with notification preferences.
type UserRepository interface {
	Repository[domain.User]
	GetByUserID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
