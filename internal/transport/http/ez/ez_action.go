// Package ez registers typed actions on a gin group: bind the input, run
// the handler, map the returned error to a status code.
package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ats-backend/internal/domain"
	resp "ats-backend/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, log *zap.Logger) EZ { return EZ{g: g, log: log} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindForm  Binder = "form"  // multipart / urlencoded 表单
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Status  int // 成功状态码，默认 200
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindForm:
			bindErr = c.ShouldBind(&in)
		}
		if bindErr != nil {
			Fail(c, e.log, bindError(bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, e.log, err)
			return
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

var errBodyTooLarge = errors.New("request body too large")

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return &domain.Error{Kind: domain.ErrValidation, Msg: "Invalid request body", Err: err}
}

// StatusOf maps an error to its HTTP status and client-facing message.
func StatusOf(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errBodyTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, resp.MsgOf(http.StatusRequestEntityTooLarge)
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, resp.MsgOf(http.StatusInternalServerError)
}

// Fail 统一错误输出；500 只记日志不回显细节
func Fail(c *gin.Context, log *zap.Logger, err error) {
	status, msg := StatusOf(err)
	if status == http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("rid", c.GetString("X-Request-ID")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	resp.Abort(c, status, msg)
}
