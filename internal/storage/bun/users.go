package bunrepo

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/jobkeep/go-reminders/pkg/domain"
	"github.com/jobkeep/go-reminders/pkg/interfaces/store"
)

type UserRepository struct {
	base baseRepository[domain.User]
}

func NewUserRepository(db *bun.DB) *UserRepository {
	handlers := repository.ModelHandlers[*domain.User]{
		NewRecord:          func() *domain.User { return &domain.User{} },
		GetID:              func(u *domain.User) uuid.UUID { return u.ID },
		SetID:              func(u *domain.User, id uuid.UUID) { u.ID = id },
		GetIdentifier:      func() string { return "user_id" },
		GetIdentifierValue: func(u *domain.User) string { return u.UserID },
	}
	return &UserRepository{
		base: newBaseRepository[domain.User](db, handlers, func(u *domain.User) *domain.RecordMeta { return &u.RecordMeta }),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.base.create(ctx, user)
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.base.update(ctx, user)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *UserRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.User], error) {
	return r.base.list(ctx, opts)
}

func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	record, err := r.base.repo.Get(ctx, withoutDeleted(), func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	record, err := r.base.repo.Get(ctx, withoutDeleted(), func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", email)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}
