package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

// MakeJSONRequest sends body as JSON (nil sends no body) and decodes an
// object response when there is one.
func MakeJSONRequest(body any, authToken string, r http.Handler, endpoint, method string) (*httptest.ResponseRecorder, map[string]any) {
	var rd *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		rd = bytes.NewReader(payload)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, endpoint, rd)
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	resp := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

// MultipartFile is one file part of a multipart request.
type MultipartFile struct {
	Field    string
	Filename string
	Data     []byte
}

// MakeMultipartRequest posts form fields and optional files.
func MakeMultipartRequest(fields gin.H, file *MultipartFile, authToken string, r http.Handler, endpoint string) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if s, ok := v.(string); ok {
			_ = w.WriteField(k, s)
		}
	}
	if file != nil {
		fw, _ := w.CreateFormFile(file.Field, file.Filename)
		_, _ = fw.Write(file.Data)
	}
	_ = w.Close()

	req, _ := http.NewRequest(http.MethodPost, endpoint, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	resp := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}
