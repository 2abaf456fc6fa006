// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flowimmersive/flowsite/internal/api"
	"github.com/flowimmersive/flowsite/internal/content/blog"
	"github.com/flowimmersive/flowsite/internal/marketing/demo"
	"github.com/flowimmersive/flowsite/internal/platform/config"
	"github.com/flowimmersive/flowsite/internal/users/auth"
	"github.com/flowimmersive/flowsite/internal/users/auth/authtest"
	"github.com/flowimmersive/flowsite/internal/users/identity/identitytest"
)

// emptyRepository is a blog store with no posts.
type emptyRepository struct{}

func (emptyRepository) List(context.Context, blog.Filter, int, int) ([]*blog.Post, int, error) {
	return []*blog.Post{}, 0, nil
}
func (emptyRepository) FindByID(context.Context, string) (*blog.Post, error) {
	return nil, blog.ErrPostNotFound
}
func (emptyRepository) FindBySlug(context.Context, string, bool) (*blog.Post, error) {
	return nil, blog.ErrPostNotFound
}
func (emptyRepository) Create(context.Context, *blog.Post) error { return nil }
func (emptyRepository) Update(context.Context, *blog.Post) error { return blog.ErrPostNotFound }
func (emptyRepository) SetPublished(context.Context, string, bool) (*blog.Post, error) {
	return nil, blog.ErrPostNotFound
}
func (emptyRepository) Delete(context.Context, string) error { return blog.ErrPostNotFound }

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	fixture := identitytest.NewFixture(t)
	profiles := authtest.NewMemoryProfileStore()
	profiles.ProvisionFrom(fixture.Accounts)

	cfg := &config.Config{Environment: "test", SessionCookieName: "flow_session"}
	logger := discardLogger()

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{}, logger)
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth: auth.NewHandler(
			func(token string) auth.SessionClient { return fixture.Provider.NewClient(token) },
			profiles,
			auth.DefaultConfig(),
			auth.CookieSettings{Name: cfg.SessionCookieName, TTL: time.Hour},
			time.Second,
		),
		Blog: blog.NewHandler(blog.NewService(emptyRepository{}, nil, time.Second, logger)),
		Demo: demo.NewHandler(demo.NewLogNotifier(logger), "sales@flowimmersive.com"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return api.NewRouter(ctx, cfg, logger, handlers)
}

func TestRouter_Wiring(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantHeader string
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"public_blog_list", http.MethodGet, "/api/v1/blogs", "", http.StatusOK, ""},
		{"public_blog_missing", http.MethodGet, "/api/v1/blogs/nope", "", http.StatusNotFound, ""},
		{"admin_blog_anonymous", http.MethodGet, "/api/v1/admin/blogs", "", http.StatusUnauthorized, ""},
		{"anonymous_session", http.MethodGet, "/api/v1/auth/session", "", http.StatusOK, ""},
		{"dashboard_redirects", http.MethodGet, "/admin/dashboard", "", http.StatusSeeOther, "/admin/login"},
		{"login_renders", http.MethodGet, "/admin/login", "", http.StatusOK, ""},
		{"demo_missing_company", http.MethodPost, "/api/demo-request",
			`{"email":"jane@co.com","firstName":"Jane","lastName":"Doe","useCase":"Training"}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			recorder := httptest.NewRecorder()

			router.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code, recorder.Body.String())
			if tt.wantHeader != "" {
				assert.Equal(t, tt.wantHeader, recorder.Header().Get("Location"))
			}
		})
	}
}
