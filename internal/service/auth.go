// Package service holds the business operations behind the HTTP API:
// authentication, job search and the application lifecycle.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ats-backend/internal/core/auth"
	"ats-backend/internal/core/cache"
	"ats-backend/internal/domain"
	"ats-backend/pkg/utils"
)

// SessionStore remembers the latest credential issued per user.
// Lookup returns cache.ErrMiss when there is none.
type SessionStore interface {
	Save(ctx context.Context, uid, token string, ttl time.Duration) error
	Lookup(ctx context.Context, uid string) (string, error)
	Remove(ctx context.Context, uid string) error
}

// Notifier delivers password reset tokens to the user.
type Notifier interface {
	PasswordResetIssued(ctx context.Context, u *domain.User, token string, expires time.Time) error
}

// LogNotifier only records that a token was issued. The token itself is
// logged at debug level.
type LogNotifier struct{ Log *zap.Logger }

func (n LogNotifier) PasswordResetIssued(_ context.Context, u *domain.User, token string, expires time.Time) error {
	n.Log.Info("password reset issued", zap.String("uid", u.ID), zap.Time("expires", expires))
	n.Log.Debug("password reset token", zap.String("uid", u.ID), zap.String("token", token))
	return nil
}

type AuthOptions struct {
	// StrictSessions makes Authenticate require the credential to be the
	// current session entry, so SignOut revokes it immediately.
	StrictSessions bool
	ResetTTL       time.Duration
	Notifier       Notifier
	Now            func() time.Time
}

type AuthService struct {
	users    domain.UserRepository
	sessions SessionStore
	jwt      *auth.JWTer
	log      *zap.Logger
	opts     AuthOptions
	sf       singleflight.Group
}

func NewAuthService(users domain.UserRepository, sessions SessionStore, jwter *auth.JWTer, log *zap.Logger, opts AuthOptions) *AuthService {
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Log: log}
	}
	return &AuthService{users: users, sessions: sessions, jwt: jwter, log: log, opts: opts}
}

// SignIn checks the password and stores the new credential as the user's
// session, replacing any earlier one.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return "", domain.InvalidCredentials()
	}

	token, exp, err := s.jwt.Issue(u.ID)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Save(ctx, u.ID, token, exp.Sub(s.opts.Now())); err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) SignOut(ctx context.Context, uid string) error {
	return s.sessions.Remove(ctx, uid)
}

// RequestPasswordReset overwrites any previous reset token.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Validation("Email is required")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.NotFound("User not found")
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		return err
	}
	now := s.opts.Now()
	exp := now.Add(s.opts.ResetTTL)
	u.ResetPasswordToken = &token
	u.ResetPasswordExpires = &exp
	u.Touch(now)
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	return s.opts.Notifier.PasswordResetIssued(ctx, u, token, exp)
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.InvalidOrExpiredToken()
	}
	if newPassword == "" {
		return domain.Validation("New password is required")
	}
	now := s.opts.Now()
	u, err := s.users.FindByResetToken(ctx, token, now)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.InvalidOrExpiredToken()
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.ResetPasswordToken = nil
	u.ResetPasswordExpires = nil
	u.Touch(now)
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	if err := s.sessions.Remove(ctx, u.ID); err != nil {
		s.log.Warn("drop session after password reset", zap.String("uid", u.ID), zap.Error(err))
	}
	return nil
}

// Authenticate resolves the user a credential is bound to.
func (s *AuthService) Authenticate(ctx context.Context, credential string) (*domain.User, error) {
	claims, err := s.jwt.Parse(credential)
	if err != nil {
		return nil, &domain.Error{Kind: domain.ErrUnauthenticated, Msg: "Please authenticate.", Err: err}
	}

	if s.opts.StrictSessions {
		cur, err := s.sessions.Lookup(ctx, claims.UID)
		if errors.Is(err, cache.ErrMiss) || (err == nil && cur != credential) {
			return nil, domain.Unauthenticated("Please authenticate.")
		}
		if err != nil {
			return nil, err
		}
	}

	v, err, _ := s.sf.Do("user:"+claims.UID, func() (any, error) {
		// 结果由合并的请求共享，不随首个请求的取消而失败
		return s.users.FindByID(context.WithoutCancel(ctx), claims.UID)
	})
	if err != nil {
		return nil, err
	}
	u, _ := v.(*domain.User)
	if u == nil {
		return nil, domain.Unauthenticated("Please authenticate.")
	}
	cp := *u // 结果在 singleflight 调用方之间共享
	return &cp, nil
}
