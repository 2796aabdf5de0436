package services

import (
	"context"
	"mime/multipart"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farellandr/runnershive/internal/clock"
	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/forms"
	"github.com/farellandr/runnershive/internal/metrics"
	"github.com/farellandr/runnershive/internal/models"
	"github.com/farellandr/runnershive/internal/repository"
	"github.com/farellandr/runnershive/internal/storage"
)

type eventRepository interface {
	List(ctx context.Context, q repository.EventQuery) ([]models.Event, error)
	FindBySlug(ctx context.Context, slug string) (*models.Event, error)
	FindBySlugAndAuthor(ctx context.Context, slug string, authorID uuid.UUID) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	SetCancelled(ctx context.Context, event *models.Event, cancelled bool) error
	Delete(ctx context.Context, event *models.Event) error
}

type categoryLister interface {
	List(ctx context.Context) ([]models.Category, error)
}

// EventService gates every event mutation on ownership and on whether the
// event already ended.
type EventService struct {
	events     eventRepository
	categories categoryLister
	images     storage.ImageStore
	clock      clock.Clock
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewEventService(
	events eventRepository,
	categories categoryLister,
	images storage.ImageStore,
	clk clock.Clock,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		events:     events,
		categories: categories,
		images:     images,
		clock:      clk,
		metrics:    metrics,
		logger:     logger,
	}
}

// List returns the upcoming events matching filter in chronological order.
func (s *EventService) List(ctx context.Context, filter forms.EventFilter) ([]models.Event, error) {
	events, err := s.events.List(ctx, BuildEventQuery(filter, clock.Today(s.clock)))
	if err != nil {
		return nil, err
	}
	return DropPast(events, s.clock.Now()), nil
}

// Today returns today's events that have not ended yet, by start time.
func (s *EventService) Today(ctx context.Context) ([]models.Event, error) {
	events, err := s.events.List(ctx, TodayQuery(clock.Today(s.clock)))
	if err != nil {
		return nil, err
	}
	return DropPast(events, s.clock.Now()), nil
}

// Profile splits the author's events into upcoming and past.
func (s *EventService) Profile(ctx context.Context, authorID uuid.UUID) ([]models.Event, []models.Event, error) {
	events, err := s.events.List(ctx, repository.EventQuery{AuthorID: &authorID})
	if err != nil {
		return nil, nil, err
	}
	upcoming, past := splitByPast(events, s.clock.Now())
	return upcoming, past, nil
}

func (s *EventService) Detail(ctx context.Context, slug string) (*models.Event, error) {
	return s.events.FindBySlug(ctx, slug)
}

// IsPast evaluates the event against the service clock.
func (s *EventService) IsPast(event *models.Event) bool {
	return event.IsPast(s.clock.Now())
}

// Validate checks a create or edit submission against the current
// categories and the current moment.
func (s *EventService) Validate(ctx context.Context, input forms.EventInput) (*forms.EventForm, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return forms.ValidateEvent(input, categories, s.clock.Now()), nil
}

// Create stores a new event authored by authorID. A form that did not
// validate, or whose image or title was rejected, yields a bad request or
// duplicated error with the reason recorded on the form.
func (s *EventService) Create(ctx context.Context, authorID uuid.UUID, form *forms.EventForm, image *multipart.FileHeader) (*models.Event, error) {
	if !form.Valid() {
		return nil, errdef.NewBadRequest("invalid event %q", form.Title())
	}

	event := &models.Event{AuthorID: authorID}
	form.Apply(event)

	if err := s.attachImage(ctx, event, form, image); err != nil {
		return nil, err
	}

	if err := s.events.Create(ctx, event); err != nil {
		s.discardImage(ctx, event.FeaturedImage)
		if errdef.IsDuplicated(err) {
			form.Errors.Add("title", "Event with this Title already exists.")
		}
		return nil, err
	}

	s.metrics.EventAction("create")
	s.logger.Info("event created", zap.String("slug", event.Slug), zap.String("author_id", authorID.String()))

	return event, nil
}

// Editable returns the event when actorID may still change it: not found,
// forbidden and conflict errors distinguish a missing event, another
// author's event and an event that already ended.
func (s *EventService) Editable(ctx context.Context, actorID uuid.UUID, slug string) (*models.Event, error) {
	event, err := s.events.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if event.AuthorID != actorID {
		return event, errdef.NewForbidden("event %q belongs to another user", slug)
	}
	if s.IsPast(event) {
		return event, errdef.NewConflict("event %q is in the past", slug)
	}
	return event, nil
}

// Update applies a validated edit to the event identified by slug. The slug
// itself never changes.
func (s *EventService) Update(ctx context.Context, actorID uuid.UUID, slug string, form *forms.EventForm, image *multipart.FileHeader) (*models.Event, error) {
	event, err := s.Editable(ctx, actorID, slug)
	if err != nil {
		return event, err
	}
	if !form.Valid() {
		return event, errdef.NewBadRequest("invalid event %q", form.Title())
	}

	previousImage := event.FeaturedImage
	form.Apply(event)

	if err := s.attachImage(ctx, event, form, image); err != nil {
		return event, err
	}

	if err := s.events.Update(ctx, event); err != nil {
		if event.FeaturedImage != previousImage {
			s.discardImage(ctx, event.FeaturedImage)
		}
		if errdef.IsDuplicated(err) {
			form.Errors.Add("title", "Event with this Title already exists.")
		}
		return event, err
	}

	if event.FeaturedImage != previousImage {
		s.discardImage(ctx, previousImage)
	}

	s.metrics.EventAction("update")
	s.logger.Info("event updated", zap.String("slug", event.Slug))

	return event, nil
}

// FindOwned looks the event up within the actor's own events only, so an
// event of another user reads as missing.
func (s *EventService) FindOwned(ctx context.Context, actorID uuid.UUID, slug string) (*models.Event, error) {
	return s.events.FindBySlugAndAuthor(ctx, slug, actorID)
}

// Delete removes one of the actor's events, past or upcoming.
func (s *EventService) Delete(ctx context.Context, actorID uuid.UUID, slug string) (*models.Event, error) {
	event, err := s.FindOwned(ctx, actorID, slug)
	if err != nil {
		return nil, err
	}

	if err := s.events.Delete(ctx, event); err != nil {
		return event, err
	}
	s.discardImage(ctx, event.FeaturedImage)

	s.metrics.EventAction("delete")
	s.logger.Info("event deleted", zap.String("slug", event.Slug), zap.String("author_id", actorID.String()))

	return event, nil
}

// ToggleCancel flips the cancelled flag of one of the actor's upcoming
// events. Past events are returned unchanged with a conflict error.
func (s *EventService) ToggleCancel(ctx context.Context, actorID uuid.UUID, slug string) (*models.Event, error) {
	event, err := s.FindOwned(ctx, actorID, slug)
	if err != nil {
		return nil, err
	}
	if s.IsPast(event) {
		return event, errdef.NewConflict("event %q is in the past", slug)
	}

	if err := s.events.SetCancelled(ctx, event, !event.Cancelled); err != nil {
		return event, err
	}

	action := "reactivate"
	if event.Cancelled {
		action = "cancel"
	}
	s.metrics.EventAction(action)
	s.logger.Info("event cancellation toggled", zap.String("slug", event.Slug), zap.Bool("cancelled", event.Cancelled))

	return event, nil
}

func (s *EventService) attachImage(ctx context.Context, event *models.Event, form *forms.EventForm, image *multipart.FileHeader) error {
	if image == nil || s.images == nil {
		return nil
	}

	ref, err := s.images.Save(ctx, image)
	if err != nil {
		if errdef.IsBadRequest(err) {
			form.Errors.Add("featured_image", err.Error())
		}
		return err
	}

	event.FeaturedImage = ref
	return nil
}

func (s *EventService) discardImage(ctx context.Context, ref string) {
	if s.images == nil || ref == "" || ref == models.PlaceholderImage {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		s.logger.Warn("failed to delete image", zap.String("ref", ref), zap.Error(err))
	}
}
