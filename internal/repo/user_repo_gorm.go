package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ats-backend/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if isDupKey(err) {
		return &domain.Error{Kind: domain.ErrValidation, Msg: "Username or email already exists", Err: err}
	}
	return err
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return first[domain.User](r.db.WithContext(ctx), "id = ?", id)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return first[domain.User](r.db.WithContext(ctx), "username = ?", username)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return first[domain.User](r.db.WithContext(ctx), "email = ?", email)
}

// FindByResetToken only matches tokens that expire after now.
func (r *UserRepo) FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	return first[domain.User](r.db.WithContext(ctx),
		"reset_password_token = ? AND reset_password_expires > ?", token, now)
}

// Update writes every column, including nil reset fields.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}
