package domain

import (
	"context"
	"strings"
	"time"
)

type Stage string

const (
	StageApplied     Stage = "Applied"
	StageShortlisted Stage = "Shortlisted"
	StageInterview   Stage = "Interview"
	StageRejected    Stage = "Rejected"
	StageOffer       Stage = "Offer"
)

// Stages lists the recruitment funnel in order.
var Stages = []Stage{StageApplied, StageShortlisted, StageInterview, StageRejected, StageOffer}

func (s Stage) Valid() bool {
	for _, v := range Stages {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStage accepts the exact stage name; an empty string yields Applied.
func ParseStage(s string) (Stage, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StageApplied, nil
	}
	if st := Stage(s); st.Valid() {
		return st, nil
	}
	return "", Validation("invalid stage: " + s)
}

type Application struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`
	JobID     string    `gorm:"size:36;not null;index;<-:create" json:"job"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Phone     string    `gorm:"size:64;not null" json:"phone"`
	CVURL     string    `gorm:"column:cv_url;size:512;not null;<-:create" json:"cvUrl"`
	Stage     Stage     `gorm:"size:16;not null;default:Applied;index" json:"stage"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (Application) TableName() string { return "applications" }

func (a *Application) Touch(now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
}

type ApplicationFilter struct {
	JobID  string
	Search string
	Stage  Stage
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *Application) error
	Find(ctx context.Context, jobID, id string) (*Application, error)
	List(ctx context.Context, f ApplicationFilter) ([]Application, error)
	ListByJob(ctx context.Context, jobID string) ([]Application, error)
	// UpdateStage returns the updated record, or nil when (jobID, id) matches nothing.
	UpdateStage(ctx context.Context, jobID, id string, stage Stage, now time.Time) (*Application, error)
	Delete(ctx context.Context, jobID, id string) (int64, error)
	DeleteByJob(ctx context.Context, jobID string) (int64, error)
}
