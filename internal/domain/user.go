package domain

import (
	"context"
	"time"
)

type User struct {
	ID                   string     `gorm:"primaryKey;size:36" json:"_id"`
	Username             string     `gorm:"uniqueIndex;size:191;not null" json:"username"`
	Email                string     `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash         string     `gorm:"size:100;not null" json:"-"`
	ResetPasswordToken   *string    `gorm:"index;size:128" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// Touch stamps the record before a mutating write.
func (u *User) Touch(now time.Time) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (*User, error)
	Update(ctx context.Context, u *User) error
}
