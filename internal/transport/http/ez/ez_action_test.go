package ez

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"ats-backend/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.Validation("Title is required"), 400, "Title is required"},
		{fmt.Errorf("wrap: %w", domain.NotFound("Job not found")), 404, "Job not found"},
		{domain.Unauthenticated("Please authenticate."), 401, "Please authenticate."},
		{domain.InvalidCredentials(), 401, "Invalid credentials"},
		{domain.InvalidOrExpiredToken(), 400, "Invalid or expired token"},
		{&http.MaxBytesError{Limit: 1}, 413, "Request body too large"},
		{errors.New("pq: connection refused"), 500, "Something went wrong!"},
	}
	for _, c := range cases {
		st, msg := StatusOf(c.err)
		assert.Equal(t, c.status, st, c.err.Error())
		assert.Equal(t, c.msg, msg)
	}
}

type echoIn struct {
	Name string `json:"name"`
}

func TestRegisterAction(t *testing.T) {
	r := gin.New()
	e := New(r.Group("/"), zap.NewNop())
	RegisterAction(e, Action[echoIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/echo",
		Binder: BindJSON,
		Status: http.StatusCreated,
		Handler: func(_ *gin.Context, in *echoIn) (gin.H, error) {
			if in.Name == "" {
				return nil, domain.Validation("Name is required")
			}
			if in.Name == "boom" {
				return nil, errors.New("secret internals")
			}
			return gin.H{"name": in.Name}, nil
		},
	})

	do := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := do(`{"name":"ann"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"name":"ann"}`, w.Body.String())

	w = do(`{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Name is required"}`, w.Body.String())

	w = do(`{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())

	w = do(`{"name":"boom"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
}
