package repo

import (
	"context"

	"gorm.io/gorm"

	"ats-backend/internal/domain"
)

type JobRepo struct{ db *gorm.DB }

func NewJobRepo(db *gorm.DB) *JobRepo { return &JobRepo{db: db} }

var _ domain.JobRepository = (*JobRepo)(nil)

func (r *JobRepo) Create(ctx context.Context, j *domain.Job) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *JobRepo) FindByID(ctx context.Context, id string) (*domain.Job, error) {
	return first[domain.Job](r.db.WithContext(ctx), "id = ?", id)
}

// ListOpen returns one page of open jobs, newest first, and the total number
// of matching jobs.
func (r *JobRepo) ListOpen(ctx context.Context, f domain.JobFilter) ([]domain.Job, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Job{}).Where("is_open = ?", true)
	if f.Search != "" {
		cond, arg := regexMatch(r.db, "title", f.Search)
		q = q.Where(cond, arg)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	jobs := []domain.Job{}
	offset, ok := f.Window(total)
	if !ok {
		return jobs, total, nil
	}
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(f.Size).
		Find(&jobs).Error
	return jobs, total, err
}

// Update replaces the mutable columns; is_open=false is written too.
func (r *JobRepo) Update(ctx context.Context, j *domain.Job) error {
	return r.db.WithContext(ctx).Model(j).
		Select("title", "department", "location", "is_open", "updated_at").
		Updates(j).Error
}

func (r *JobRepo) CountApplications(ctx context.Context, ids ...string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		JobID string
		N     int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Application{}).
		Select("job_id, COUNT(*) AS n").
		Where("job_id IN ?", ids).
		Group("job_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.JobID] = row.N
	}
	return out, nil
}

// DeleteWithApplications 在一个事务里删除职位及其剩余的申请记录
func (r *JobRepo) DeleteWithApplications(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&domain.Application{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Job{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}
