package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/farellandr/runnershive/internal/calendar"
	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/flash"
	"github.com/farellandr/runnershive/internal/forms"
	"github.com/farellandr/runnershive/internal/helpers"
	"github.com/farellandr/runnershive/internal/middleware"
	"github.com/farellandr/runnershive/internal/models"
	"github.com/farellandr/runnershive/internal/services"
)

const shareCodeSize = 256

type EventHandler struct {
	base
	events     *services.EventService
	categories *services.CategoryService
	location   *time.Location
}

func NewEventHandler(
	events *services.EventService,
	categories *services.CategoryService,
	flashStore *flash.Store,
	location *time.Location,
	logger *zap.Logger,
) *EventHandler {
	if location == nil {
		location = time.UTC
	}
	return &EventHandler{
		base:       newBase(flashStore, logger),
		events:     events,
		categories: categories,
		location:   location,
	}
}

// Home lists the events of today that have not ended yet.
func (h *EventHandler) Home(c *gin.Context) {
	events, err := h.events.Today(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	h.render(c, http.StatusOK, "index", gin.H{
		"Page":  helpers.Paginate(events, helpers.ParsePage(c.Query("page")), homePageSize),
		"Query": helpers.QueryStringWithout(c.Request.URL.Query(), "page"),
	})
}

// ListEvents shows the upcoming events narrowed by the filter form. Invalid
// filter fields are reported and ignored.
func (h *EventHandler) ListEvents(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	values := c.Request.URL.Query()
	filter, filterErrors := forms.ParseEventFilter(values, categories)

	events, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.render(c, http.StatusOK, "events/list", gin.H{
		"Page":         helpers.Paginate(events, helpers.ParsePage(c.Query("page")), listPageSize),
		"Query":        helpers.QueryStringWithout(values, "page"),
		"Filter":       filter,
		"FilterErrors": filterErrors,
		"Categories":   categories,
	})
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.events.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	h.render(c, http.StatusOK, "events/detail", gin.H{
		"Event":    event,
		"IsPast":   h.events.IsPast(event),
		"IsAuthor": userID != uuid.Nil && event.AuthorID == userID,
	})
}

// Calendar exports the event as an iCalendar file.
func (h *EventHandler) Calendar(c *gin.Context) {
	event, err := h.events.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", calendar.Filename(event)))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(calendar.Export(event, h.location, absoluteEventURL(c, event))))
}

// ShareCode serves a QR code linking to the event page.
func (h *EventHandler) ShareCode(c *gin.Context) {
	event, err := h.events.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}

	png, err := qrcode.Encode(absoluteEventURL(c, event), qrcode.Medium, shareCodeSize)
	if err != nil {
		h.fail(c, fmt.Errorf("failed to generate QR code: %w", err))
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *EventHandler) NewEvent(c *gin.Context) {
	h.renderForm(c, http.StatusOK, &forms.EventForm{Errors: forms.FieldErrors{}}, false)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	h.saveEvent(c, eventSave{
		editing: false,
		success: "Event '%s' created successfully!",
		failure: "Could not create event '%s'. Please check your input.",
		persist: func(ctx context.Context, userID uuid.UUID, form *forms.EventForm, image *multipart.FileHeader) (*models.Event, error) {
			return h.events.Create(ctx, userID, form, image)
		},
	})
}

func (h *EventHandler) EditEvent(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	event, err := h.events.Editable(c.Request.Context(), userID, c.Param("slug"))
	if err != nil {
		if !h.editDenied(c, event, err) {
			h.fail(c, err)
		}
		return
	}

	input := forms.EventInputFrom(event)
	h.renderForm(c, http.StatusOK, &forms.EventForm{Input: input, Errors: forms.FieldErrors{}}, true)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	slug := c.Param("slug")
	h.saveEvent(c, eventSave{
		editing: true,
		success: "Event '%s' updated successfully!",
		failure: "Could not update event '%s'. Please check your input.",
		persist: func(ctx context.Context, userID uuid.UUID, form *forms.EventForm, image *multipart.FileHeader) (*models.Event, error) {
			return h.events.Update(ctx, userID, slug, form, image)
		},
	})
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	h.ownedAction(c, ownedAction{
		wrongMethod: "Event '%s' could not be deleted. Invalid request method.",
		notOwned:    "You are not allowed to delete this event.",
		run:         h.events.Delete,
		report: func(c *gin.Context, event *models.Event, err error) bool {
			if err != nil {
				return false
			}
			h.flash.Success(c, fmt.Sprintf("Event '%s' deleted successfully!", event.Title))
			return true
		},
	})
}

func (h *EventHandler) ToggleCancel(c *gin.Context) {
	h.ownedAction(c, ownedAction{
		wrongMethod: "Cancellation status of event '%s' could not be changed.",
		notOwned:    "You are not allowed to change this event.",
		run:         h.events.ToggleCancel,
		report: func(c *gin.Context, event *models.Event, err error) bool {
			switch {
			case errdef.IsConflict(err):
				h.flash.Info(c, fmt.Sprintf("Cannot change cancellation status of past event '%s'.", event.Title))
			case err != nil:
				return false
			case event.Cancelled:
				h.flash.Warning(c, fmt.Sprintf("Event '%s' has been cancelled.", event.Title))
			default:
				h.flash.Success(c, fmt.Sprintf("Event '%s' is active again.", event.Title))
			}
			return true
		},
	})
}

// eventSave is the variable part of the create and edit pipeline.
type eventSave struct {
	editing bool
	success string
	failure string
	persist func(ctx context.Context, userID uuid.UUID, form *forms.EventForm, image *multipart.FileHeader) (*models.Event, error)
}

// saveEvent validates the submission, persists it and redirects to the
// event. A rejected submission is shown again with its errors.
func (h *EventHandler) saveEvent(c *gin.Context, save eventSave) {
	userID, _ := middleware.CurrentUserID(c)

	var input forms.EventInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, errdef.NewBadRequest("malformed event submission: %v", err))
		return
	}

	form, err := h.events.Validate(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	var image *multipart.FileHeader
	if file, err := c.FormFile("featured_image"); err == nil {
		image = file
	}

	event, err := save.persist(c.Request.Context(), userID, form, image)
	switch {
	case err == nil:
		h.flash.Success(c, fmt.Sprintf(save.success, event.Title))
		h.redirect(c, eventPath(event))
	case errdef.IsBadRequest(err) || errdef.IsDuplicated(err):
		h.flash.Error(c, fmt.Sprintf(save.failure, form.Title()))
		h.renderForm(c, http.StatusOK, form, save.editing)
	default:
		if !h.editDenied(c, event, err) {
			h.fail(c, err)
		}
	}
}

// editDenied reports a refused edit and sends the user to the profile page.
// It returns false for errors that are not about access.
func (h *EventHandler) editDenied(c *gin.Context, event *models.Event, err error) bool {
	switch {
	case errdef.IsNotFound(err):
		h.flash.Error(c, "Event not found.")
	case errdef.IsForbidden(err):
		h.flash.Error(c, "You do not have permission to edit this event.")
	case errdef.IsConflict(err):
		h.flash.Info(c, fmt.Sprintf("Event '%s' is in the past! You cannot edit it anymore.", event.Title))
	default:
		return false
	}
	h.redirect(c, profilePath)
	return true
}

func (h *EventHandler) renderForm(c *gin.Context, status int, form *forms.EventForm, editing bool) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	h.render(c, status, "events/form", gin.H{
		"Form":       form,
		"Categories": categories,
		"Editing":    editing,
		"Action":     c.Request.URL.Path,
	})
}

// ownedAction is a state change on one of the caller's own events that is
// only honoured for POST requests.
type ownedAction struct {
	wrongMethod string
	notOwned    string
	run         func(ctx context.Context, userID uuid.UUID, slug string) (*models.Event, error)
	report      func(c *gin.Context, event *models.Event, err error) bool
}

func (h *EventHandler) ownedAction(c *gin.Context, action ownedAction) {
	ctx := c.Request.Context()
	userID, _ := middleware.CurrentUserID(c)
	slug := c.Param("slug")

	if c.Request.Method != http.MethodPost {
		event, err := h.events.FindOwned(ctx, userID, slug)
		switch {
		case err == nil:
			h.flash.Error(c, fmt.Sprintf(action.wrongMethod, event.Title))
		case errdef.IsNotFound(err):
			h.flash.Error(c, action.notOwned)
		default:
			h.fail(c, err)
			return
		}
		h.redirect(c, profilePath)
		return
	}

	event, err := action.run(ctx, userID, slug)
	switch {
	case errdef.IsNotFound(err):
		h.flash.Error(c, action.notOwned)
	case !action.report(c, event, err):
		h.fail(c, err)
		return
	}
	h.redirect(c, profilePath)
}

func eventPath(event *models.Event) string {
	return "/events/" + event.Slug + "/"
}

func absoluteEventURL(c *gin.Context, event *models.Event) string {
	return fmt.Sprintf("%s://%s%s", scheme(c), c.Request.Host, eventPath(event))
}

func scheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
