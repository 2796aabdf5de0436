package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/farellandr/runnershive/internal/clock"
	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/flash"
	"github.com/farellandr/runnershive/internal/middleware"
	"github.com/farellandr/runnershive/internal/models"
	"github.com/farellandr/runnershive/internal/repository"
	"github.com/farellandr/runnershive/internal/services"
	"github.com/farellandr/runnershive/internal/storage"
	"github.com/farellandr/runnershive/internal/web"
)

var (
	dublin  = time.FixedZone("IST", 60*60)
	morning = time.Date(2026, 10, 16, 9, 0, 0, 0, dublin)
)

type memoryEvents struct {
	events map[string]*models.Event
}

func (m *memoryEvents) List(ctx context.Context, q repository.EventQuery) ([]models.Event, error) {
	var result []models.Event
	for _, event := range m.events {
		date := event.DateString()
		if q.From != nil && date < q.From.Format(models.DateLayout) {
			continue
		}
		if q.To != nil && date > q.To.Format(models.DateLayout) {
			continue
		}
		if q.ExcludeCancelled && event.Cancelled {
			continue
		}
		if q.AuthorID != nil && event.AuthorID != *q.AuthorID {
			continue
		}
		if len(q.Difficulties) > 0 && (event.Difficulty == nil || !containsDifficulty(q.Difficulties, *event.Difficulty)) {
			continue
		}
		if len(q.CategoryIDs) > 0 && !anyCategory(event, q.CategoryIDs) {
			continue
		}
		result = append(result, *event)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DateString() != result[j].DateString() {
			return result[i].DateString() < result[j].DateString()
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func containsDifficulty(difficulties []models.Difficulty, d models.Difficulty) bool {
	for _, candidate := range difficulties {
		if candidate == d {
			return true
		}
	}
	return false
}

func anyCategory(event *models.Event, ids []uuid.UUID) bool {
	for _, id := range ids {
		if event.HasCategory(id) {
			return true
		}
	}
	return false
}

func (m *memoryEvents) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	event, ok := m.events[slug]
	if !ok {
		return nil, errdef.NewNotFound("event %q not found", slug)
	}
	copied := *event
	return &copied, nil
}

func (m *memoryEvents) FindBySlugAndAuthor(ctx context.Context, slug string, authorID uuid.UUID) (*models.Event, error) {
	event, ok := m.events[slug]
	if !ok || event.AuthorID != authorID {
		return nil, errdef.NewNotFound("event %q not found", slug)
	}
	copied := *event
	return &copied, nil
}

func (m *memoryEvents) Create(ctx context.Context, event *models.Event) error {
	for _, existing := range m.events {
		if existing.Title == event.Title {
			return errdef.NewDuplicated("event titled %q already exists", event.Title)
		}
	}
	if err := event.BeforeCreate(nil); err != nil {
		return err
	}
	copied := *event
	m.events[event.Slug] = &copied
	return nil
}

func (m *memoryEvents) Update(ctx context.Context, event *models.Event) error {
	copied := *event
	m.events[event.Slug] = &copied
	return nil
}

func (m *memoryEvents) SetCancelled(ctx context.Context, event *models.Event, cancelled bool) error {
	m.events[event.Slug].Cancelled = cancelled
	event.Cancelled = cancelled
	return nil
}

func (m *memoryEvents) Delete(ctx context.Context, event *models.Event) error {
	delete(m.events, event.Slug)
	return nil
}

type memoryCategories struct {
	categories []models.Category
}

func (m *memoryCategories) List(ctx context.Context) ([]models.Category, error) {
	return m.categories, nil
}

type memoryUsers struct {
	users []*models.User
}

func (m *memoryUsers) Create(ctx context.Context, user *models.User) error {
	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return errdef.NewDuplicated("user %q already exists", user.Username)
		}
	}
	_ = user.BeforeCreate(nil)
	m.users = append(m.users, user)
	return nil
}

func (m *memoryUsers) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	for _, user := range m.users {
		if user.Username == login || user.Email == login {
			return user, nil
		}
	}
	return nil, errdef.NewNotFound("user %q not found", login)
}

type memoryContacts struct {
	messages []*models.ContactMessage
}

func (m *memoryContacts) Create(ctx context.Context, message *models.ContactMessage) error {
	_ = message.BeforeCreate(nil)
	m.messages = append(m.messages, message)
	return nil
}

type testApp struct {
	router   *gin.Engine
	events   *memoryEvents
	users    *memoryUsers
	contacts *memoryContacts
	auth     *services.AuthService
	flash    *flash.Store
	author   *models.User
	other    *models.User
	trail    models.Category
	social   models.Category
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &testApp{
		events:   &memoryEvents{events: map[string]*models.Event{}},
		users:    &memoryUsers{},
		contacts: &memoryContacts{},
		flash:    flash.NewStore("test_secret", false),
		author:   &models.User{ID: uuid.New(), Username: "runner", Email: "runner@example.com"},
		other:    &models.User{ID: uuid.New(), Username: "walker", Email: "walker@example.com"},
		trail:    models.Category{ID: uuid.New(), Name: "Trail Run", SortOrder: 1},
		social:   models.Category{ID: uuid.New(), Name: "Social Run"},
	}
	app.users.users = append(app.users.users, app.author, app.other)

	clk := clock.Fixed(morning)
	images := storage.NewLocalStore(t.TempDir(), "/uploads")
	categories := services.NewCategoryService(&memoryCategories{categories: []models.Category{app.social, app.trail}}, nil, time.Minute, nil, nil)
	events := services.NewEventService(app.events, categories, images, clk, nil, nil)
	contacts := services.NewContactService(app.contacts, nil, nil)
	app.auth = services.NewAuthService(app.users, "test_secret", time.Hour, clk, nil)

	renderer, err := web.NewRenderer(images)
	require.NoError(t, err)

	eventHandler := NewEventHandler(events, categories, app.flash, dublin, nil)
	profileHandler := NewProfileHandler(events, app.flash, nil)
	contactHandler := NewContactHandler(contacts, app.flash, nil)
	authHandler := NewAuthHandler(app.auth, app.flash, false, nil)

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(middleware.Authenticate(app.auth))
	r.GET("/", eventHandler.Home)
	r.GET("/events/", eventHandler.ListEvents)
	r.GET("/events/:slug/", eventHandler.GetEvent)
	r.GET("/events/:slug/calendar.ics", eventHandler.Calendar)
	r.GET("/events/:slug/qr.png", eventHandler.ShareCode)
	r.GET("/contact/", contactHandler.ContactForm)
	r.POST("/contact/", contactHandler.SubmitContact)
	r.GET("/accounts/login/", authHandler.LoginForm)
	r.POST("/accounts/login/", authHandler.Login)
	r.GET("/accounts/signup/", authHandler.SignupForm)
	r.POST("/accounts/signup/", authHandler.Signup)
	r.POST("/accounts/logout/", authHandler.Logout)

	protected := r.Group("/events", middleware.RequireLogin())
	protected.GET("/create/", eventHandler.NewEvent)
	protected.POST("/create/", eventHandler.CreateEvent)
	protected.GET("/profile/", profileHandler.GetProfile)
	protected.GET("/:slug/edit/", eventHandler.EditEvent)
	protected.POST("/:slug/edit/", eventHandler.UpdateEvent)
	protected.GET("/:slug/delete/", eventHandler.DeleteEvent)
	protected.POST("/:slug/delete/", eventHandler.DeleteEvent)
	protected.GET("/:slug/toggle_cancel/", eventHandler.ToggleCancel)
	protected.POST("/:slug/toggle_cancel/", eventHandler.ToggleCancel)

	app.router = r
	return app
}

// addEvent stores an event by the author on the day offset from today.
func (a *testApp) addEvent(title string, dayOffset int, start, end [2]int, categories ...models.Category) *models.Event {
	beginner := models.DifficultyBeginner
	event := &models.Event{
		Title:       title,
		Organizer:   "Runners Hive",
		Description: "Meet at the gate.",
		Date:        models.NewDate(morning.AddDate(0, 0, dayOffset)),
		StartTime:   models.NewClock(start[0], start[1]),
		EndTime:     models.NewClock(end[0], end[1]),
		Categories:  categories,
		Difficulty:  &beginner,
		Location:    "Phoenix Park",
		AuthorID:    a.author.ID,
	}
	_ = event.BeforeCreate(nil)
	a.events.events[event.Slug] = event
	return event
}

func (a *testApp) do(t *testing.T, method, target string, form url.Values, user *models.User) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		token, err := a.auth.IssueToken(user)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: token})
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// flashMessages reads the status messages a redirect response carries to
// the next page.
func (a *testApp) flashMessages(w *httptest.ResponseRecorder) []flash.Message {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "flash" && cookie.MaxAge >= 0 {
			req.AddCookie(cookie)
		}
	}
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return a.flash.Pop(c)
}

func (a *testApp) validForm(title string) url.Values {
	return url.Values{
		"title":       {title},
		"organizer":   {"Runners Hive"},
		"description": {"Easy loop around the park."},
		"date":        {"2026-10-17"},
		"start_time":  {"10:00"},
		"end_time":    {"11:30"},
		"category":    {a.trail.ID.String()},
		"difficulty":  {"BEGINNER"},
		"location":    {"Phoenix Park"},
	}
}
