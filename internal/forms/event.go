package forms

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/farellandr/runnershive/internal/models"
)

const (
	ErrStartInPast    = "An event cannot start in the past. Please check your chosen date and start time."
	ErrEndBeforeStart = "The end time of the event must be after the start time. Please check your chosen times."
)

// EventInput is the raw create/edit submission.
type EventInput struct {
	Title       string   `form:"title" validate:"required,max=100"`
	Organizer   string   `form:"organizer" validate:"required,max=40"`
	Description string   `form:"description" validate:"required"`
	Date        string   `form:"date" validate:"required"`
	StartTime   string   `form:"start_time" validate:"required"`
	EndTime     string   `form:"end_time" validate:"required"`
	Categories  []string `form:"category" validate:"min=1"`
	Difficulty  string   `form:"difficulty" validate:"required,difficulty"`
	Location    string   `form:"location" validate:"required,max=100"`
	Link        string   `form:"link" validate:"omitempty,url,max=200"`
}

func (in *EventInput) clean() {
	in.Title = strings.TrimSpace(in.Title)
	in.Organizer = strings.TrimSpace(in.Organizer)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	in.Location = strings.TrimSpace(in.Location)
	in.Link = strings.TrimSpace(in.Link)
}

// EventInputFrom fills the form with the stored values of event.
func EventInputFrom(event *models.Event) EventInput {
	input := EventInput{
		Title:       event.Title,
		Organizer:   event.Organizer,
		Description: event.Description,
		Date:        event.DateString(),
		StartTime:   models.ClockString(event.StartTime),
		EndTime:     models.ClockString(event.EndTime),
		Location:    event.Location,
	}
	for _, category := range event.Categories {
		input.Categories = append(input.Categories, category.ID.String())
	}
	if event.Difficulty != nil {
		input.Difficulty = string(*event.Difficulty)
	}
	if event.Link != nil {
		input.Link = *event.Link
	}
	return input
}

// EventForm is a validated submission. Cleaned values are only meaningful
// when Valid reports true.
type EventForm struct {
	Input          EventInput
	Errors         FieldErrors
	NonFieldErrors []string

	date       time.Time
	startTime  datatypes.Time
	endTime    datatypes.Time
	categories []models.Category
}

// ValidateEvent checks every field and then runs both cross-field checks
// together so that both can be reported for one submission.
func ValidateEvent(input EventInput, categories []models.Category, now time.Time) *EventForm {
	input.clean()
	form := &EventForm{Input: input, Errors: FieldErrors{}}
	collect(input, form.Errors)

	var haveDate, haveStart, haveEnd bool
	if input.Date != "" {
		date, err := time.Parse(models.DateLayout, input.Date)
		if err != nil {
			form.Errors.Add("date", "Enter a valid date.")
		} else {
			form.date, haveDate = date, true
		}
	}
	if input.StartTime != "" {
		clock, err := parseClock(input.StartTime)
		if err != nil {
			form.Errors.Add("start_time", "Enter a valid time.")
		} else {
			form.startTime, haveStart = clock, true
		}
	}
	if input.EndTime != "" {
		clock, err := parseClock(input.EndTime)
		if err != nil {
			form.Errors.Add("end_time", "Enter a valid time.")
		} else {
			form.endTime, haveEnd = clock, true
		}
	}

	if len(input.Categories) > 0 {
		selected, err := parseCategories(input.Categories, categories)
		if err != nil {
			form.Errors.Add("category", err.Error())
		} else {
			form.categories = pick(categories, selected)
		}
	}

	if haveDate && haveStart {
		startsAt := models.Event{Date: models.NewDate(form.date), StartTime: form.startTime}.StartsAt(now.Location())
		if startsAt.Before(now) {
			form.NonFieldErrors = append(form.NonFieldErrors, ErrStartInPast)
		}
	}
	if haveStart && haveEnd && form.startTime > form.endTime {
		form.NonFieldErrors = append(form.NonFieldErrors, ErrEndBeforeStart)
	}

	return form
}

func (f *EventForm) Valid() bool {
	return len(f.Errors) == 0 && len(f.NonFieldErrors) == 0
}

// Title is the submitted title for status messages, or a stand-in when the
// title itself did not validate.
func (f *EventForm) Title() string {
	if f.Errors.Has("title") || f.Input.Title == "" {
		return "Untitled Event"
	}
	return f.Input.Title
}

// Apply copies the cleaned values onto event. The slug is left untouched.
func (f *EventForm) Apply(event *models.Event) {
	event.Title = f.Input.Title
	event.Organizer = f.Input.Organizer
	event.Description = f.Input.Description
	event.Date = models.NewDate(f.date)
	event.StartTime = f.startTime
	event.EndTime = f.endTime
	event.Location = f.Input.Location
	event.Categories = f.categories

	event.Difficulty = nil
	if difficulty := models.Difficulty(f.Input.Difficulty); difficulty.Valid() {
		event.Difficulty = &difficulty
	}

	event.Link = nil
	if f.Input.Link != "" {
		link := f.Input.Link
		event.Link = &link
	}
}

// SelectedCategory reports whether id was ticked in the submission.
func (f *EventForm) SelectedCategory(id uuid.UUID) bool {
	for _, raw := range f.Input.Categories {
		if raw == id.String() {
			return true
		}
	}
	return false
}

func parseClock(raw string) (datatypes.Time, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return models.NewClock(t.Hour(), t.Minute()), nil
		}
	}
	_, err := time.Parse("15:04", raw)
	return 0, err
}

func pick(categories []models.Category, ids []uuid.UUID) []models.Category {
	picked := make([]models.Category, 0, len(ids))
	for _, category := range categories {
		for _, id := range ids {
			if category.ID == id {
				picked = append(picked, category)
				break
			}
		}
	}
	return picked
}
