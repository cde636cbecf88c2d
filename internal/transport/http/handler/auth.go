package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ats-backend/internal/domain"
	"ats-backend/internal/service"
	"ats-backend/internal/transport/http/ez"
	mdw "ats-backend/internal/transport/http/middleware"
	resp "ats-backend/internal/transport/http/response"
)

// MountAuth 注册 /auth/* 与 /user/profile；pub 无需登录，authed 已挂 Auth 中间件
func MountAuth(pub, authed *gin.RouterGroup, svc *service.AuthService, log *zap.Logger) {
	ezPub, ezAuthed := ez.New(pub, log), ez.New(authed, log)

	type signInIn struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type signInOut struct {
		Token string `json:"token"`
	}
	ez.RegisterAction(ezPub, ez.Action[signInIn, signInOut]{
		Method: http.MethodPost,
		Path:   "/auth/signin",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *signInIn) (signInOut, error) {
			tok, err := svc.SignIn(c.Request.Context(), in.Username, in.Password)
			return signInOut{Token: tok}, err
		},
	})

	ez.RegisterAction(ezAuthed, ez.Action[struct{}, resp.MsgBody]{
		Method: http.MethodPost,
		Path:   "/auth/signout",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (resp.MsgBody, error) {
			if err := svc.SignOut(c.Request.Context(), mdw.CurrentUser(c).ID); err != nil {
				return resp.MsgBody{}, err
			}
			return resp.Message("Successfully signed out"), nil
		},
	})

	type resetReqIn struct {
		Email string `json:"email"`
	}
	ez.RegisterAction(ezPub, ez.Action[resetReqIn, resp.MsgBody]{
		Method: http.MethodPost,
		Path:   "/auth/reset-password-request",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *resetReqIn) (resp.MsgBody, error) {
			if err := svc.RequestPasswordReset(c.Request.Context(), in.Email); err != nil {
				return resp.MsgBody{}, err
			}
			return resp.Message("Password reset email sent"), nil
		},
	})

	type resetIn struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	ez.RegisterAction(ezPub, ez.Action[resetIn, resp.MsgBody]{
		Method: http.MethodPost,
		Path:   "/auth/reset-password",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *resetIn) (resp.MsgBody, error) {
			if err := svc.ConfirmPasswordReset(c.Request.Context(), in.Token, in.NewPassword); err != nil {
				return resp.MsgBody{}, err
			}
			return resp.Message("Password successfully reset"), nil
		},
	})

	ez.RegisterAction(ezAuthed, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/user/profile",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return mdw.CurrentUser(c), nil
		},
	})
}
