package services

import (
	"context"
	"mime/multipart"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/models"
	"github.com/farellandr/runnershive/internal/repository"
)

var dublin = time.FixedZone("IST", 60*60)

type eventRepoStub struct {
	events      map[string]*models.Event
	queries     []repository.EventQuery
	listErr     error
	updates     int
	cancelCalls int
	deleted     []string
}

func newEventRepoStub(events ...*models.Event) *eventRepoStub {
	repo := &eventRepoStub{events: map[string]*models.Event{}}
	for _, event := range events {
		repo.put(event)
	}
	return repo
}

func (r *eventRepoStub) put(event *models.Event) {
	if event.ID == uuid.Nil {
		_ = event.BeforeCreate(nil)
	}
	r.events[event.Slug] = event
}

func (r *eventRepoStub) List(ctx context.Context, q repository.EventQuery) ([]models.Event, error) {
	r.queries = append(r.queries, q)
	if r.listErr != nil {
		return nil, r.listErr
	}

	var result []models.Event
	for _, event := range r.events {
		date := event.DateString()
		if q.From != nil && date < q.From.Format(models.DateLayout) {
			continue
		}
		if q.To != nil && date > q.To.Format(models.DateLayout) {
			continue
		}
		if len(q.CategoryIDs) > 0 && !hasAnyCategory(event, q.CategoryIDs) {
			continue
		}
		if len(q.Difficulties) > 0 && !hasDifficulty(event, q.Difficulties) {
			continue
		}
		if q.ExcludeCancelled && event.Cancelled {
			continue
		}
		if q.AuthorID != nil && event.AuthorID != *q.AuthorID {
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

func hasAnyCategory(event *models.Event, ids []uuid.UUID) bool {
	for _, id := range ids {
		if event.HasCategory(id) {
			return true
		}
	}
	return false
}

func hasDifficulty(event *models.Event, difficulties []models.Difficulty) bool {
	if event.Difficulty == nil {
		return false
	}
	for _, d := range difficulties {
		if *event.Difficulty == d {
			return true
		}
	}
	return false
}

func (r *eventRepoStub) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	event, ok := r.events[slug]
	if !ok {
		return nil, errdef.NewNotFound("event %q not found", slug)
	}
	copied := *event
	return &copied, nil
}

func (r *eventRepoStub) FindBySlugAndAuthor(ctx context.Context, slug string, authorID uuid.UUID) (*models.Event, error) {
	event, ok := r.events[slug]
	if !ok || event.AuthorID != authorID {
		return nil, errdef.NewNotFound("event %q not found", slug)
	}
	copied := *event
	return &copied, nil
}

func (r *eventRepoStub) Create(ctx context.Context, event *models.Event) error {
	for _, existing := range r.events {
		if existing.Title == event.Title {
			return errdef.NewDuplicated("event titled %q already exists", event.Title)
		}
	}
	if err := event.BeforeCreate(nil); err != nil {
		return err
	}
	copied := *event
	r.events[event.Slug] = &copied
	return nil
}

func (r *eventRepoStub) Update(ctx context.Context, event *models.Event) error {
	r.updates++
	copied := *event
	r.events[event.Slug] = &copied
	return nil
}

func (r *eventRepoStub) SetCancelled(ctx context.Context, event *models.Event, cancelled bool) error {
	r.cancelCalls++
	r.events[event.Slug].Cancelled = cancelled
	event.Cancelled = cancelled
	return nil
}

func (r *eventRepoStub) Delete(ctx context.Context, event *models.Event) error {
	delete(r.events, event.Slug)
	r.deleted = append(r.deleted, event.Slug)
	return nil
}

type categoryRepoStub struct {
	categories []models.Category
	calls      int
}

func (r *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) {
	r.calls++
	return r.categories, nil
}

type imageStoreStub struct {
	saved   []string
	deleted []string
	err     error
}

func (s *imageStoreStub) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	ref := "event_images/" + file.Filename
	s.saved = append(s.saved, ref)
	return ref, nil
}

func (s *imageStoreStub) Delete(ctx context.Context, ref string) error {
	s.deleted = append(s.deleted, ref)
	return nil
}

func (s *imageStoreStub) URL(ref string) string {
	return "/uploads/" + ref
}

type fixture struct {
	author     uuid.UUID
	other      uuid.UUID
	trail      models.Category
	social     models.Category
	categories []models.Category
}

func newFixture() fixture {
	trail := models.Category{ID: uuid.New(), Name: "Trail Run", SortOrder: 1}
	social := models.Category{ID: uuid.New(), Name: "Social Run"}
	return fixture{
		author:     uuid.New(),
		other:      uuid.New(),
		trail:      trail,
		social:     social,
		categories: []models.Category{social, trail},
	}
}

func (f fixture) event(title string, day time.Time, start, end [2]int, categories ...models.Category) *models.Event {
	beginner := models.DifficultyBeginner
	return &models.Event{
		Title:      title,
		Organizer:  "Runners Hive",
		Date:       models.NewDate(day),
		StartTime:  models.NewClock(start[0], start[1]),
		EndTime:    models.NewClock(end[0], end[1]),
		Categories: categories,
		Difficulty: &beginner,
		Location:   "Phoenix Park",
		AuthorID:   f.author,
	}
}

func titles(events []models.Event) []string {
	result := make([]string, 0, len(events))
	for _, event := range events {
		result = append(result, event.Title)
	}
	return result
}
