package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchWildcardRoute(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          bool
	}{
		{"/api/v1/pipelines/abc", "/api/v1/pipelines/*", true},
		{"/api/v1/pipelines/abc/errors", "/api/v1/pipelines/*", true},
		{"/api/v1/pipelines/abc/errors", "/api/v1/pipelines/*/errors", true},
		{"/api/v1/pipelines/abc/logs", "/api/v1/pipelines/*/errors", false},
		{"/api/v1/download/abc/file.csv", "/api/v1/download/*/*", true},
		{"/api/v1/download/abc", "/api/v1/download/*/*", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchWildcardRoute(tt.path, tt.pattern), "%s ~ %s", tt.path, tt.pattern)
	}
}

func TestSpecificWildcardRoutesWin(t *testing.T) {
	r := New()
	hit := ""
	r.GET("/items/*/detail", func(w http.ResponseWriter, _ *http.Request) { hit = "detail" })
	r.GET("/items/*", func(w http.ResponseWriter, _ *http.Request) { hit = "item" })

	// repeat to rule out lucky iteration order
	for i := 0; i < 20; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/7/detail", nil))
		assert.Equal(t, "detail", hit)
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/7", nil))
	assert.Equal(t, "item", hit)
}

func TestMethodNotAllowedAndNotFound(t *testing.T) {
	r := New()
	r.POST("/things", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
	assert.True(t, r.Paths()["/things"])
	assert.Contains(t, r.Routes(), "POST:/things")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/things", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMountsPrefix(t *testing.T) {
	r := New()
	r.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
