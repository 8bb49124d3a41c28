package bunrepo

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/jobkeep/go-reminders/pkg/domain"
	"github.com/jobkeep/go-reminders/pkg/interfaces/store"
)

type JobRepository struct {
	base baseRepository[domain.Job]
}

func NewJobRepository(db *bun.DB) *JobRepository {
	handlers := repository.ModelHandlers[*domain.Job]{
		NewRecord:          func() *domain.Job { return &domain.Job{} },
		GetID:              func(j *domain.Job) uuid.UUID { return j.ID },
		SetID:              func(j *domain.Job, id uuid.UUID) { j.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(j *domain.Job) string { return j.ID.String() },
	}
	return &JobRepository{
		base: newBaseRepository[domain.Job](db, handlers, func(j *domain.Job) *domain.RecordMeta { return &j.RecordMeta }),
	}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	if job.Status == "" {
		job.Status = "applied"
	}
	return r.base.create(ctx, job)
}

func (r *JobRepository) Update(ctx context.Context, job *domain.Job) error {
	return r.base.update(ctx, job)
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *JobRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Job], error) {
	return r.base.list(ctx, opts)
}

func (r *JobRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *JobRepository) ListByOwner(ctx context.Context, ownerUserID string, opts store.ListOptions) (store.ListResult[domain.Job], error) {
	criteria := []repository.SelectCriteria{
		withListOptions(opts),
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("owner_user_id = ?", ownerUserID)
		},
	}
	records, total, err := r.base.repo.List(ctx, criteria...)
	if err != nil {
		return store.ListResult[domain.Job]{}, mapError(err)
	}
	items := make([]domain.Job, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[domain.Job]{Items: items, Total: total}, nil
}
