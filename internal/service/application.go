package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ats-backend/internal/domain"
	"ats-backend/pkg/utils"
)

var attachmentCleanupFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ats_attachment_cleanup_failures_total",
		Help: "Attachment deletions that failed and were skipped",
	}, []string{"op"},
)

func init() { prometheus.MustRegister(attachmentCleanupFailures) }

// ApplicationInput is the multipart form of a new candidacy.
type ApplicationInput struct {
	Name  string
	Email string
	Phone string
	Stage string
}

// Upload is the attached CV. A nil Upload or empty Size means no file.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type ApplicationService struct {
	apps  domain.ApplicationRepository
	jobs  domain.JobRepository
	files domain.FileStore
	log   *zap.Logger
	now   func() time.Time
}

func NewApplicationService(apps domain.ApplicationRepository, jobs domain.JobRepository, files domain.FileStore, log *zap.Logger) *ApplicationService {
	return &ApplicationService{apps: apps, jobs: jobs, files: files, log: log, now: time.Now}
}

func (s *ApplicationService) List(ctx context.Context, jobID, search, stage string) ([]domain.Application, error) {
	f := domain.ApplicationFilter{JobID: jobID, Search: strings.TrimSpace(search)}
	if stage = strings.TrimSpace(stage); stage != "" {
		st := domain.Stage(stage)
		if !st.Valid() {
			return nil, domain.Validation("Invalid stage: " + stage)
		}
		f.Stage = st
	}
	return s.apps.List(ctx, f)
}

func (s *ApplicationService) Get(ctx context.Context, jobID, id string) (*domain.Application, error) {
	a, err := s.apps.Find(ctx, jobID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.NotFound("Application not found")
	}
	return a, nil
}

// Create stores the CV first and only then inserts the row pointing at it.
func (s *ApplicationService) Create(ctx context.Context, jobID string, in ApplicationInput, cv *Upload) (*domain.Application, error) {
	a := &domain.Application{
		JobID: jobID,
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
	if a.Name == "" || a.Email == "" || a.Phone == "" {
		return nil, domain.Validation("Name, email and phone are required")
	}
	st, err := domain.ParseStage(in.Stage)
	if err != nil {
		return nil, err
	}
	a.Stage = st
	if cv == nil || cv.Body == nil || cv.Size == 0 {
		return nil, domain.Validation("CV file is required")
	}

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.NotFound("Job not found")
	}

	loc, err := s.files.Store(ctx, cv.Body, cv.Filename)
	if err != nil {
		return nil, err
	}
	a.ID = utils.NewID()
	a.CVURL = loc
	a.Touch(s.now())
	if err := s.apps.Create(ctx, a); err != nil {
		s.dropFile(ctx, "create_rollback", loc)
		return nil, err
	}
	return a, nil
}

// SetStage allows any stage to follow any other.
func (s *ApplicationService) SetStage(ctx context.Context, jobID, id, stage string) (*domain.Application, error) {
	st := domain.Stage(strings.TrimSpace(stage))
	if !st.Valid() {
		return nil, domain.Validation("Invalid stage: " + stage)
	}
	a, err := s.apps.UpdateStage(ctx, jobID, id, st, s.now())
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.NotFound("Application not found")
	}
	return a, nil
}

// Delete removes the CV (best effort) and then the record.
func (s *ApplicationService) Delete(ctx context.Context, jobID, id string) error {
	a, err := s.Get(ctx, jobID, id)
	if err != nil {
		return err
	}
	s.dropFile(ctx, "delete", a.CVURL)

	n, err := s.apps.Delete(ctx, jobID, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("Application not found")
	}
	return nil
}

// DeleteAllForJob tries every attachment of the job once, then removes the
// records in bulk. It returns the number of records removed.
func (s *ApplicationService) DeleteAllForJob(ctx context.Context, jobID string) (int64, error) {
	apps, err := s.apps.ListByJob(ctx, jobID)
	if err != nil {
		return 0, err
	}
	for i := range apps {
		s.dropFile(ctx, "cascade", apps[i].CVURL)
	}
	return s.apps.DeleteByJob(ctx, jobID)
}

func (s *ApplicationService) dropFile(ctx context.Context, op, locator string) {
	if locator == "" {
		return
	}
	if err := s.files.Delete(ctx, locator); err != nil {
		attachmentCleanupFailures.WithLabelValues(op).Inc()
		s.log.Warn("attachment cleanup failed",
			zap.String("op", op), zap.String("locator", locator), zap.Error(err))
	}
}
