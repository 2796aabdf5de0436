package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/models"
)

// EventQuery is the set of predicates the database can evaluate. Date bounds
// are inclusive calendar days.
type EventQuery struct {
	From             *time.Time
	To               *time.Time
	CategoryIDs      []uuid.UUID
	Difficulties     []models.Difficulty
	ExcludeCancelled bool
	AuthorID         *uuid.UUID
}

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func orderedCategories(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC").Order("name ASC")
}

// List returns the events matching q ordered by date, then start time. An event
// with several matching categories is returned once.
func (r *EventRepository) List(ctx context.Context, q EventQuery) ([]models.Event, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{})

	if q.From != nil {
		query = query.Where("events.date >= ?", q.From.Format(models.DateLayout))
	}
	if q.To != nil {
		query = query.Where("events.date <= ?", q.To.Format(models.DateLayout))
	}
	if len(q.CategoryIDs) > 0 {
		sub := r.db.Table("event_categories").Select("event_id").Where("category_id IN ?", q.CategoryIDs)
		query = query.Where("events.id IN (?)", sub)
	}
	if len(q.Difficulties) > 0 {
		difficulties := make([]string, 0, len(q.Difficulties))
		for _, d := range q.Difficulties {
			difficulties = append(difficulties, string(d))
		}
		query = query.Where("events.difficulty IN ?", difficulties)
	}
	if q.ExcludeCancelled {
		query = query.Where("events.cancelled = ?", false)
	}
	if q.AuthorID != nil {
		query = query.Where("events.author_id = ?", *q.AuthorID)
	}

	var events []models.Event
	err := query.
		Preload("Categories", orderedCategories).
		Preload("Author").
		Order("events.date ASC").
		Order("events.start_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

func (r *EventRepository) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("Categories", orderedCategories).
		Preload("Author").
		Where("slug = ?", slug).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errdef.NewNotFound("event %q not found", slug)
		}
		return nil, err
	}

	return &event, nil
}

// FindBySlugAndAuthor scopes the lookup to the author so other users' events
// are indistinguishable from missing ones.
func (r *EventRepository) FindBySlugAndAuthor(ctx context.Context, slug string, authorID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("Categories", orderedCategories).
		Where("slug = ? AND author_id = ?", slug, authorID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errdef.NewNotFound("event %q not found", slug)
		}
		return nil, err
	}

	return &event, nil
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	err := r.db.WithContext(ctx).Create(event).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("event titled %q already exists", event.Title)
	}

	return err
}

// Update writes the editable columns and replaces the category set in one
// transaction. The slug column is never written.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	categories := event.Categories

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(event).
			Select("title", "organizer", "description", "date", "start_time", "end_time",
				"difficulty", "location", "link", "featured_image", "updated_at").
			Omit("Categories", "Author").
			Updates(event).Error
		if err != nil {
			return err
		}

		return tx.Model(event).Association("Categories").Replace(categories)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("event titled %q already exists", event.Title)
	}

	return err
}

func (r *EventRepository) SetCancelled(ctx context.Context, event *models.Event, cancelled bool) error {
	err := r.db.WithContext(ctx).Model(event).Update("cancelled", cancelled).Error
	if err != nil {
		return err
	}
	event.Cancelled = cancelled

	return nil
}

func (r *EventRepository) Delete(ctx context.Context, event *models.Event) error {
	result := r.db.WithContext(ctx).Select("Categories").Delete(event)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errdef.NewNotFound("event %q not found", event.Slug)
	}

	return nil
}
