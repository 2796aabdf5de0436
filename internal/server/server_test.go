package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farellandr/runnershive/config"
	"github.com/farellandr/runnershive/internal/clock"
	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/flash"
	"github.com/farellandr/runnershive/internal/metrics"
	"github.com/farellandr/runnershive/internal/models"
	"github.com/farellandr/runnershive/internal/repository"
	"github.com/farellandr/runnershive/internal/services"
	"github.com/farellandr/runnershive/internal/storage"
	"github.com/farellandr/runnershive/internal/web"
)

type stubEvents struct {
	event *models.Event
}

func (s *stubEvents) List(ctx context.Context, q repository.EventQuery) ([]models.Event, error) {
	return []models.Event{*s.event}, nil
}

func (s *stubEvents) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	if slug != s.event.Slug {
		return nil, errdef.NewNotFound("event %q not found", slug)
	}
	return s.event, nil
}

func (s *stubEvents) FindBySlugAndAuthor(ctx context.Context, slug string, authorID uuid.UUID) (*models.Event, error) {
	return nil, errdef.NewNotFound("event %q not found", slug)
}

func (s *stubEvents) Create(ctx context.Context, event *models.Event) error { return nil }

func (s *stubEvents) Update(ctx context.Context, event *models.Event) error { return nil }

func (s *stubEvents) SetCancelled(ctx context.Context, event *models.Event, cancelled bool) error {
	return nil
}

func (s *stubEvents) Delete(ctx context.Context, event *models.Event) error { return nil }

type stubCategories struct{}

func (stubCategories) List(ctx context.Context) ([]models.Category, error) { return nil, nil }

type stubUsers struct{}

func (stubUsers) Create(ctx context.Context, user *models.User) error { return nil }

func (stubUsers) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	return nil, errdef.NewNotFound("user %q not found", login)
}

type stubContacts struct {
	created int
}

func (s *stubContacts) Create(ctx context.Context, message *models.ContactMessage) error {
	s.created++
	return nil
}

func newTestRouter(t *testing.T, health func(ctx context.Context) error) (*gin.Engine, *stubContacts) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	event := &models.Event{
		Title:     "Harbour Loop",
		Organizer: "Runners Hive",
		Date:      models.NewDate(now),
		StartTime: models.NewClock(18, 0),
		EndTime:   models.NewClock(19, 0),
		Location:  "Harbour",
		AuthorID:  uuid.New(),
	}
	require.NoError(t, event.BeforeCreate(nil))

	cfg := &config.Config{
		Env:      config.EnvDevelopment,
		TimeZone: "UTC",
		Auth: config.AuthConfig{
			JWTSecret:     "test_secret",
			JWTExpiration: time.Hour,
			CSRFKey:       "0123456789abcdef0123456789abcdef",
		},
	}

	clk := clock.Fixed(now)
	images := storage.NewLocalStore(t.TempDir(), "/uploads")
	renderer, err := web.NewRenderer(images)
	require.NoError(t, err)

	contacts := &stubContacts{}
	categories := services.NewCategoryService(stubCategories{}, nil, time.Minute, nil, nil)
	m := metrics.New()

	r := NewRouter(Dependencies{
		Config:     cfg,
		Metrics:    m,
		Renderer:   renderer,
		Flash:      flash.NewStore(cfg.Auth.JWTSecret, false),
		Auth:       services.NewAuthService(stubUsers{}, cfg.Auth.JWTSecret, time.Hour, clk, nil),
		Events:     services.NewEventService(&stubEvents{event: event}, categories, images, clk, m, nil),
		Categories: categories,
		Contacts:   services.NewContactService(contacts, m, nil),
		UploadDir:  images.Dir(),
		Health:     health,
	})
	return r, contacts
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r, _ := newTestRouter(t, func(ctx context.Context) error { return nil })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		r, _ := newTestRouter(t, func(ctx context.Context) error { return errors.New("connection refused") })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestUnknownRouteRendersNotFoundPage(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no/such/page/", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `data-status="404"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestFormsRequireCSRFToken(t *testing.T) {
	r, contacts := newTestRouter(t, nil)
	form := url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"subject": {"Hello"},
		"message": {"Is the loop flat?"},
	}
	req := httptest.NewRequest(http.MethodPost, "/contact/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `data-status="403"`)
	assert.Zero(t, contacts.created)
}

func TestPagesRender(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	for _, path := range []string{"/", "/events/", "/events/" + "harbour-loop-2026-10-16" + "/", "/contact/", "/accounts/login/"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestProtectedPagesRedirectToLogin(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/profile/", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/accounts/login/?next=%2Fevents%2Fprofile%2F", w.Header().Get("Location"))
}

func TestCalendarAllowsCrossOrigin(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/events/harbour-loop-2026-10-16/calendar.ics", nil)
	req.Header.Set("Origin", "https://club.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Body.String(), "SUMMARY:Harbour Loop")
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/health")
}

func TestCalendarCORSWithConfiguredOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/feed", calendarCORS([]string{"https://club.example.com"}), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Origin", "https://club.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://club.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
