package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ats-backend/internal/domain"
)

type ApplicationRepo struct{ db *gorm.DB }

func NewApplicationRepo(db *gorm.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

var _ domain.ApplicationRepository = (*ApplicationRepo)(nil)

func (r *ApplicationRepo) Create(ctx context.Context, a *domain.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApplicationRepo) Find(ctx context.Context, jobID, id string) (*domain.Application, error) {
	return first[domain.Application](r.db.WithContext(ctx), "id = ? AND job_id = ?", id, jobID)
}

func (r *ApplicationRepo) List(ctx context.Context, f domain.ApplicationFilter) ([]domain.Application, error) {
	q := r.db.WithContext(ctx).Where("job_id = ?", f.JobID)
	if f.Search != "" {
		name, arg := regexMatch(r.db, "name", f.Search)
		email, _ := regexMatch(r.db, "email", f.Search)
		phone, _ := regexMatch(r.db, "phone", f.Search)
		q = q.Where(r.db.Where(name, arg).Or(email, arg).Or(phone, arg))
	}
	if f.Stage != "" {
		q = q.Where("stage = ?", f.Stage)
	}
	apps := []domain.Application{}
	err := q.Order("created_at ASC").Order("id ASC").Find(&apps).Error
	return apps, err
}

func (r *ApplicationRepo) ListByJob(ctx context.Context, jobID string) ([]domain.Application, error) {
	return r.List(ctx, domain.ApplicationFilter{JobID: jobID})
}

func (r *ApplicationRepo) UpdateStage(ctx context.Context, jobID, id string, stage domain.Stage, now time.Time) (*domain.Application, error) {
	res := r.db.WithContext(ctx).Model(&domain.Application{}).
		Where("id = ? AND job_id = ?", id, jobID).
		Updates(map[string]any{"stage": stage, "updated_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	// mysql 在值未变化时 RowsAffected 为 0，这里统一再查一次
	return r.Find(ctx, jobID, id)
}

func (r *ApplicationRepo) Delete(ctx context.Context, jobID, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND job_id = ?", id, jobID).Delete(&domain.Application{})
	return res.RowsAffected, res.Error
}

func (r *ApplicationRepo) DeleteByJob(ctx context.Context, jobID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("job_id = ?", jobID).Delete(&domain.Application{})
	return res.RowsAffected, res.Error
}
