package domain

import (
	"context"
	"encoding/json"
	"time"
)

type Job struct {
	ID         string    `gorm:"primaryKey;size:36" json:"_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Department string    `gorm:"size:255;not null" json:"department"`
	Location   string    `gorm:"size:255;not null" json:"location"`
	IsOpen     bool      `gorm:"not null;default:true;index" json:"isOpen"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false;index" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`

	// ApplicationsCount is computed on every read, never stored.
	ApplicationsCount int64 `gorm:"-" json:"applicationsCount"`
}

func (Job) TableName() string { return "jobs" }

func (j *Job) Touch(now time.Time) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
}

// ManagementURL is the UI path listing this job's applications.
func (j *Job) ManagementURL() string { return "/job/" + j.ID + "/applications" }

func (j Job) MarshalJSON() ([]byte, error) {
	type plain Job
	return json.Marshal(struct {
		plain
		ApplicationManagementURL string `json:"applicationManagementUrl"`
	}{plain(j), j.ManagementURL()})
}

// JobFilter selects open jobs for the paginated listing. Page is 1-indexed.
type JobFilter struct {
	Search string
	Page   int
	Size   int
}

// Window returns the row offset of the page given the number of matching
// jobs; ok is false when the page lies past the last one, however large.
func (f JobFilter) Window(total int64) (offset int, ok bool) {
	if f.Page < 1 || f.Size < 1 || total <= 0 {
		return 0, false
	}
	if int64(f.Page-1) > (total-1)/int64(f.Size) {
		return 0, false
	}
	return (f.Page - 1) * f.Size, true
}

type JobRepository interface {
	Create(ctx context.Context, j *Job) error
	FindByID(ctx context.Context, id string) (*Job, error)
	ListOpen(ctx context.Context, f JobFilter) ([]Job, int64, error)
	Update(ctx context.Context, j *Job) error
	// CountApplications returns application counts keyed by job id; ids
	// without applications are absent from the map.
	CountApplications(ctx context.Context, ids ...string) (map[string]int64, error)
	// DeleteWithApplications removes the job row and every application row
	// referencing it in one transaction.
	DeleteWithApplications(ctx context.Context, id string) (int64, error)
}
