package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jobkeep/go-reminders/pkg/domain"
	"github.com/jobkeep/go-reminders/pkg/interfaces/store"
)

type JobRepository struct {
	base baseMemoryRepo[domain.Job]
}

func NewJobRepository() *JobRepository {
	return &JobRepository{
		base: newBaseMemoryRepo[domain.Job](func(j *domain.Job) *domain.RecordMeta { return &j.RecordMeta }),
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
	r.base.mu.RLock()
	defer r.base.mu.RUnlock()

	filtered := r.base.filter(opts, func(j *domain.Job) bool {
		return j.OwnerUserID == ownerUserID
	})
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})
	return store.ListResult[domain.Job]{Items: filtered, Total: len(filtered)}, nil
}
