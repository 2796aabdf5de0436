package services

import (
	"sort"
	"time"

	"github.com/farellandr/runnershive/internal/forms"
	"github.com/farellandr/runnershive/internal/models"
	"github.com/farellandr/runnershive/internal/repository"
)

// BuildEventQuery turns a cleaned filter into database predicates for the
// public list. today is midnight in the application time zone. The result
// still contains events that ended earlier today; see DropPast.
func BuildEventQuery(filter forms.EventFilter, today time.Time) repository.EventQuery {
	from := today
	query := repository.EventQuery{
		From:             &from,
		CategoryIDs:      filter.Categories,
		Difficulties:     filter.Difficulties,
		ExcludeCancelled: filter.ExcludeCancelled,
	}

	switch filter.DateFilter {
	case forms.DateFilterToday:
		query.To = &from
	case forms.DateFilterTomorrow:
		tomorrow := today.AddDate(0, 0, 1)
		query.From, query.To = &tomorrow, &tomorrow
	case forms.DateFilterThisWeek:
		monday, sunday := WeekBounds(today)
		if monday.After(from) {
			query.From = &monday
		}
		query.To = &sunday
	}

	return query
}

// TodayQuery selects every event dated today.
func TodayQuery(today time.Time) repository.EventQuery {
	return repository.EventQuery{From: &today, To: &today}
}

// WeekBounds returns the Monday and Sunday of the week containing day.
func WeekBounds(day time.Time) (time.Time, time.Time) {
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// DropPast removes the events that have ended by now, keeping order.
func DropPast(events []models.Event, now time.Time) []models.Event {
	kept := make([]models.Event, 0, len(events))
	for _, event := range events {
		if !event.IsPast(now) {
			kept = append(kept, event)
		}
	}
	return kept
}

// splitByPast buckets events into upcoming (soonest first) and past (most
// recent first), both ordered by start.
func splitByPast(events []models.Event, now time.Time) (upcoming, past []models.Event) {
	loc := now.Location()
	for _, event := range events {
		if event.IsPast(now) {
			past = append(past, event)
		} else {
			upcoming = append(upcoming, event)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].StartsAt(loc).Before(upcoming[j].StartsAt(loc))
	})
	sort.SliceStable(past, func(i, j int) bool {
		return past[i].StartsAt(loc).After(past[j].StartsAt(loc))
	})

	return upcoming, past
}
