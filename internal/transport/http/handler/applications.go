package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ats-backend/internal/domain"
	"ats-backend/internal/service"
	"ats-backend/internal/transport/http/ez"
	resp "ats-backend/internal/transport/http/response"
)

// CVField is the multipart field carrying the CV.
const CVField = "cv"

func MountApplications(authed *gin.RouterGroup, svc *service.ApplicationService, log *zap.Logger) {
	e := ez.New(authed, log)
	const base = "/jobs/:id/applications"

	type listQ struct {
		Search string `form:"search"`
		Stage  string `form:"stage"`
	}
	ez.RegisterAction(e, ez.Action[listQ, []domain.Application]{
		Method: http.MethodGet,
		Path:   base,
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) ([]domain.Application, error) {
			return svc.List(c.Request.Context(), c.Param("id"), in.Search, in.Stage)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Application]{
		Method: http.MethodPost,
		Path:   base,
		Binder: ez.BindNone,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Application, error) {
			var cv *service.Upload
			fh, err := c.FormFile(CVField)
			switch {
			case err == nil:
				f, err := fh.Open()
				if err != nil {
					return nil, err
				}
				defer f.Close()
				cv = &service.Upload{Filename: fh.Filename, Size: fh.Size, Body: f}
			case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
				// 没有文件交给 service 校验
			default:
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					return nil, err
				}
				return nil, &domain.Error{Kind: domain.ErrValidation, Msg: "Invalid multipart form", Err: err}
			}
			in := service.ApplicationInput{
				Name:  c.PostForm("name"),
				Email: c.PostForm("email"),
				Phone: c.PostForm("phone"),
				Stage: c.PostForm("stage"),
			}
			return svc.Create(c.Request.Context(), c.Param("id"), in, cv)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Application]{
		Method: http.MethodGet,
		Path:   base + "/:appId",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Application, error) {
			return svc.Get(c.Request.Context(), c.Param("id"), c.Param("appId"))
		},
	})

	type stageIn struct {
		Stage string `json:"stage"`
	}
	ez.RegisterAction(e, ez.Action[stageIn, *domain.Application]{
		Method: http.MethodPatch,
		Path:   base + "/:appId/stage",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *stageIn) (*domain.Application, error) {
			return svc.SetStage(c.Request.Context(), c.Param("id"), c.Param("appId"), in.Stage)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, resp.MsgBody]{
		Method: http.MethodDelete,
		Path:   base + "/:appId",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (resp.MsgBody, error) {
			if err := svc.Delete(c.Request.Context(), c.Param("id"), c.Param("appId")); err != nil {
				return resp.MsgBody{}, err
			}
			return resp.Message("Application and associated CV deleted successfully"), nil
		},
	})
}
