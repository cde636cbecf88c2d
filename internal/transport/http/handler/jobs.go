package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ats-backend/internal/domain"
	"ats-backend/internal/service"
	"ats-backend/internal/transport/http/ez"
	resp "ats-backend/internal/transport/http/response"
)

type jobIn struct {
	Title      string `json:"title"`
	Department string `json:"department"`
	Location   string `json:"location"`
	IsOpen     *bool  `json:"isOpen"`
}

func (in *jobIn) input() service.JobInput {
	return service.JobInput{Title: in.Title, Department: in.Department, Location: in.Location, IsOpen: in.IsOpen}
}

// positiveInt parses an optional query value; empty means def.
func positiveInt(name, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.Validation(name + " must be a positive integer")
	}
	return n, nil
}

func MountJobs(authed *gin.RouterGroup, svc *service.JobService, log *zap.Logger) {
	e := ez.New(authed, log)

	type listQ struct {
		Search string `form:"search"`
		Page   string `form:"page"`
		Limit  string `form:"limit"`
	}
	ez.RegisterAction(e, ez.Action[listQ, *service.JobPage]{
		Method: http.MethodGet,
		Path:   "/jobs",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (*service.JobPage, error) {
			page, err := positiveInt("page", in.Page, 1)
			if err != nil {
				return nil, err
			}
			limit, err := positiveInt("limit", in.Limit, service.DefaultPageSize)
			if err != nil {
				return nil, err
			}
			return svc.ListOpenJobs(c.Request.Context(), in.Search, page, limit)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *domain.Job]{
		Method: http.MethodGet,
		Path:   "/jobs/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Job, error) {
			return svc.GetJob(c.Request.Context(), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[jobIn, *domain.Job]{
		Method: http.MethodPost,
		Path:   "/jobs",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *jobIn) (*domain.Job, error) {
			return svc.CreateJob(c.Request.Context(), in.input())
		},
	})

	ez.RegisterAction(e, ez.Action[jobIn, *domain.Job]{
		Method: http.MethodPut,
		Path:   "/jobs/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *jobIn) (*domain.Job, error) {
			return svc.UpdateJob(c.Request.Context(), c.Param("id"), in.input())
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, resp.MsgBody]{
		Method: http.MethodDelete,
		Path:   "/jobs/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (resp.MsgBody, error) {
			if err := svc.DeleteJob(c.Request.Context(), c.Param("id")); err != nil {
				return resp.MsgBody{}, err
			}
			return resp.Message("Job and associated applications deleted successfully"), nil
		},
	})
}
