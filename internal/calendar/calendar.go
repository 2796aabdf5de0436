// Package calendar exports events as iCalendar documents.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/farellandr/runnershive/internal/models"
)

const productID = "-//runnershive//events//EN"

// Export renders a calendar holding the single event. loc is the zone the
// stored date and times are expressed in; eventURL links back to the site.
func Export(event *models.Event, loc *time.Location, eventURL string) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	vevent := cal.AddEvent(fmt.Sprintf("%s@runnershive", event.ID))
	vevent.SetDtStampTime(event.UpdatedAt.UTC())
	vevent.SetCreatedTime(event.CreatedAt.UTC())
	vevent.SetModifiedAt(event.UpdatedAt.UTC())
	vevent.SetStartAt(event.StartsAt(loc))
	vevent.SetEndAt(event.EndsAt(loc))
	vevent.SetSummary(event.Title)
	vevent.SetLocation(event.Location)
	vevent.SetDescription(description(event))
	if eventURL != "" {
		vevent.SetURL(eventURL)
	}

	status := "CONFIRMED"
	if event.Cancelled {
		status = "CANCELLED"
	}
	vevent.SetProperty(ical.ComponentPropertyStatus, status)

	categories := make([]string, 0, len(event.Categories))
	for _, category := range event.Categories {
		categories = append(categories, category.Name)
	}
	if len(categories) > 0 {
		vevent.SetProperty(ical.ComponentPropertyCategories, strings.Join(categories, ","))
	}

	return cal.Serialize()
}

func description(event *models.Event) string {
	var b strings.Builder
	b.WriteString(event.Description)
	b.WriteString("\n\nOrganizer: ")
	b.WriteString(event.Organizer)
	if label := event.DifficultyLabel(); label != "" {
		b.WriteString("\nDifficulty: ")
		b.WriteString(label)
	}
	if event.Link != nil && *event.Link != "" {
		b.WriteString("\n")
		b.WriteString(*event.Link)
	}
	return b.String()
}

// Filename is the download name for the event's calendar file.
func Filename(event *models.Event) string {
	return event.Slug + ".ics"
}
