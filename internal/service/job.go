package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"ats-backend/internal/domain"
	"ats-backend/pkg/utils"
)

const DefaultPageSize = 9

// JobInput carries the four mutable job fields. A nil IsOpen means true on
// create and "unchanged" on update.
type JobInput struct {
	Title      string
	Department string
	Location   string
	IsOpen     *bool
}

func (in *JobInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Department = strings.TrimSpace(in.Department)
	in.Location = strings.TrimSpace(in.Location)
	if in.Title == "" || in.Department == "" || in.Location == "" {
		return domain.Validation("Title, department and location are required")
	}
	return nil
}

type JobPage struct {
	Jobs        []domain.Job `json:"jobs"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
}

// TotalPages is ceil(total/size); zero matches means zero pages.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

type JobService struct {
	jobs domain.JobRepository
	apps *ApplicationService
	log  *zap.Logger
	now  func() time.Time
}

func NewJobService(jobs domain.JobRepository, apps *ApplicationService, log *zap.Logger) *JobService {
	return &JobService{jobs: jobs, apps: apps, log: log, now: time.Now}
}

// ListOpenJobs pages through open jobs, newest first. A page past the end
// yields no jobs but still reports the page counts.
func (s *JobService) ListOpenJobs(ctx context.Context, search string, page, size int) (*JobPage, error) {
	if page < 1 {
		return nil, domain.Validation("page must be a positive integer")
	}
	if size < 1 {
		return nil, domain.Validation("limit must be a positive integer")
	}
	jobs, total, err := s.jobs.ListOpen(ctx, domain.JobFilter{
		Search: strings.TrimSpace(search),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		return nil, err
	}
	if err := s.withCounts(ctx, jobs); err != nil {
		return nil, err
	}
	return &JobPage{Jobs: jobs, TotalPages: TotalPages(total, size), CurrentPage: page}, nil
}

func (s *JobService) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	j, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return j, s.countOne(ctx, j)
}

func (s *JobService) CreateJob(ctx context.Context, in JobInput) (*domain.Job, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	j := &domain.Job{
		ID:         utils.NewID(),
		Title:      in.Title,
		Department: in.Department,
		Location:   in.Location,
		IsOpen:     in.IsOpen == nil || *in.IsOpen,
	}
	j.Touch(s.now())
	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *JobService) UpdateJob(ctx context.Context, id string, in JobInput) (*domain.Job, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	j, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	j.Title, j.Department, j.Location = in.Title, in.Department, in.Location
	if in.IsOpen != nil {
		j.IsOpen = *in.IsOpen
	}
	j.Touch(s.now())
	if err := s.jobs.Update(ctx, j); err != nil {
		return nil, err
	}
	return j, s.countOne(ctx, j)
}

// DeleteJob removes the job's applications and their files, then the job.
// File failures are logged and never stop the delete.
func (s *JobService) DeleteJob(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	n, err := s.apps.DeleteAllForJob(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.jobs.DeleteWithApplications(ctx, id); err != nil {
		return err
	}
	s.log.Info("job deleted", zap.String("job", id), zap.Int64("applications", n))
	return nil
}

func (s *JobService) find(ctx context.Context, id string) (*domain.Job, error) {
	j, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, domain.NotFound("Job not found")
	}
	return j, nil
}

func (s *JobService) countOne(ctx context.Context, j *domain.Job) error {
	counts, err := s.jobs.CountApplications(ctx, j.ID)
	if err != nil {
		return err
	}
	j.ApplicationsCount = counts[j.ID]
	return nil
}

func (s *JobService) withCounts(ctx context.Context, jobs []domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	ids := make([]string, len(jobs))
	for i := range jobs {
		ids[i] = jobs[i].ID
	}
	counts, err := s.jobs.CountApplications(ctx, ids...)
	if err != nil {
		return err
	}
	for i := range jobs {
		jobs[i].ApplicationsCount = counts[jobs[i].ID]
	}
	return nil
}
