package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

func (d Difficulty) Label() string {
	switch d {
	case DifficultyBeginner:
		return "Beginner friendly"
	case DifficultyIntermediate:
		return "Intermediate"
	case DifficultyAdvanced:
		return "Advanced"
	}
	return string(d)
}

func (d Difficulty) Valid() bool {
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// PlaceholderImage marks an event without an uploaded featured image.
const PlaceholderImage = "placeholder"

const DateLayout = "2006-01-02"

type Event struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key"`
	Title         string         `gorm:"size:100;uniqueIndex;not null"`
	Slug          string         `gorm:"size:200;uniqueIndex;not null"`
	Organizer     string         `gorm:"size:40;not null"`
	Description   string         `gorm:"type:text;not null"`
	Date          datatypes.Date `gorm:"not null;index"`
	StartTime     datatypes.Time `gorm:"not null"`
	EndTime       datatypes.Time `gorm:"not null"`
	Categories    []Category     `gorm:"many2many:event_categories;constraint:OnDelete:CASCADE;"`
	Difficulty    *Difficulty    `gorm:"size:20"`
	Location      string         `gorm:"size:100;not null"`
	Link          *string
	FeaturedImage string    `gorm:"not null"`
	Cancelled     bool      `gorm:"not null;default:false"`
	AuthorID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Author        User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BeforeCreate assigns the id and the slug. The slug is derived once from the
// title and date and is never touched by later updates.
func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Slug == "" {
		event.Slug = slug.Make(fmt.Sprintf("%s-%s", event.Title, event.DateString()))
	}
	if event.FeaturedImage == "" {
		event.FeaturedImage = PlaceholderImage
	}
	return
}

func (event Event) DateValue() time.Time {
	return time.Time(event.Date)
}

func (event Event) DateString() string {
	return event.DateValue().Format(DateLayout)
}

// StartsAt combines the event date and start time in loc.
func (event Event) StartsAt(loc *time.Location) time.Time {
	return combine(event.Date, event.StartTime, loc)
}

// EndsAt combines the event date and end time in loc.
func (event Event) EndsAt(loc *time.Location) time.Time {
	return combine(event.Date, event.EndTime, loc)
}

// IsPast reports whether the event ended strictly before now. The naive
// date/end time pair is localized to now's location before comparing.
func (event Event) IsPast(now time.Time) bool {
	return event.EndsAt(now.Location()).Before(now)
}

func (event Event) HasImage() bool {
	return event.FeaturedImage != "" && event.FeaturedImage != PlaceholderImage
}

func (event Event) HasCategory(id uuid.UUID) bool {
	for _, category := range event.Categories {
		if category.ID == id {
			return true
		}
	}
	return false
}

func (event Event) DifficultyLabel() string {
	if event.Difficulty == nil {
		return ""
	}
	return event.Difficulty.Label()
}

func NewDate(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func NewClock(hour, minute int) datatypes.Time {
	return datatypes.NewTime(hour, minute, 0, 0)
}

// ClockString renders a time of day as HH:MM.
func ClockString(t datatypes.Time) string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func combine(date datatypes.Date, clock datatypes.Time, loc *time.Location) time.Time {
	y, m, d := time.Time(date).Date()
	offset := time.Duration(clock)
	hour := int(offset / time.Hour)
	minute := int(offset % time.Hour / time.Minute)
	second := int(offset % time.Minute / time.Second)
	return time.Date(y, m, d, hour, minute, second, 0, loc)
}
