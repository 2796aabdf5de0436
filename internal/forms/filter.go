package forms

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/farellandr/runnershive/internal/models"
)

const (
	DateFilterToday    = "today"
	DateFilterTomorrow = "tomorrow"
	DateFilterThisWeek = "this_week"
	DateFilterAll      = "all"
)

// DateFilterChoice is a selectable date bucket.
type DateFilterChoice struct {
	Value string
	Label string
}

var DateFilterChoices = []DateFilterChoice{
	{DateFilterToday, "Today"},
	{DateFilterTomorrow, "Tomorrow"},
	{DateFilterThisWeek, "This Week"},
	{DateFilterAll, "All"},
}

// EventFilter holds the cleaned values of the event list filter. Fields that
// failed validation are left at their zero value.
type EventFilter struct {
	Categories       []uuid.UUID
	Difficulties     []models.Difficulty
	DateFilter       string
	ExcludeCancelled bool
}

type filterInput struct {
	Difficulties []string `form:"difficulty" validate:"dive,difficulty"`
	DateFilter   string   `form:"date_filter" validate:"omitempty,oneof=today tomorrow this_week all"`
}

// ParseEventFilter validates every filter field on its own. An invalid field
// is reported in the returned errors and ignored; the others still apply.
func ParseEventFilter(values url.Values, categories []models.Category) (EventFilter, FieldErrors) {
	filter := EventFilter{DateFilter: DateFilterAll}
	errs := FieldErrors{}

	if selected, err := parseCategories(values["category"], categories); err != nil {
		errs.Add("category", err.Error())
	} else {
		filter.Categories = selected
	}

	input := filterInput{
		Difficulties: values["difficulty"],
		DateFilter:   strings.TrimSpace(values.Get("date_filter")),
	}
	collect(input, errs)

	if !errs.Has("difficulty") {
		for _, raw := range input.Difficulties {
			filter.Difficulties = append(filter.Difficulties, models.Difficulty(raw))
		}
	}
	if !errs.Has("date_filter") && input.DateFilter != "" {
		filter.DateFilter = input.DateFilter
	}

	filter.ExcludeCancelled = truthy(values.Get("cancelled"))

	return filter, errs
}

func parseCategories(raw []string, categories []models.Category) ([]uuid.UUID, error) {
	known := make(map[uuid.UUID]struct{}, len(categories))
	for _, category := range categories {
		known[category.ID] = struct{}{}
	}

	var selected []uuid.UUID
	seen := map[uuid.UUID]struct{}{}
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid value.", value)
		}
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("Select a valid choice. %s is not one of the available choices.", value)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		selected = append(selected, id)
	}

	return selected, nil
}

// truthy follows checkbox semantics: absent, empty, "false" and "0" are off.
func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "false", "0", "off":
		return false
	}
	return true
}

func (f EventFilter) HasCategory(id uuid.UUID) bool {
	for _, selected := range f.Categories {
		if selected == id {
			return true
		}
	}
	return false
}

func (f EventFilter) HasDifficulty(d models.Difficulty) bool {
	for _, selected := range f.Difficulties {
		if selected == d {
			return true
		}
	}
	return false
}

// Active reports whether any filter narrows the list.
func (f EventFilter) Active() bool {
	return len(f.Categories) > 0 || len(f.Difficulties) > 0 ||
		(f.DateFilter != "" && f.DateFilter != DateFilterAll) || f.ExcludeCancelled
}
