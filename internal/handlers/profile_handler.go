package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/farellandr/runnershive/internal/flash"
	"github.com/farellandr/runnershive/internal/helpers"
	"github.com/farellandr/runnershive/internal/middleware"
	"github.com/farellandr/runnershive/internal/services"
)

type ProfileHandler struct {
	base
	events *services.EventService
}

func NewProfileHandler(events *services.EventService, flashStore *flash.Store, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{base: newBase(flashStore, logger), events: events}
}

// GetProfile lists the caller's upcoming events page by page and all of the
// past ones, most recent first.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	upcoming, past, err := h.events.Profile(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.render(c, http.StatusOK, "events/profile", gin.H{
		"Page":  helpers.Paginate(upcoming, helpers.ParsePage(c.Query("page")), profilePageSize),
		"Query": helpers.QueryStringWithout(c.Request.URL.Query(), "page"),
		"Past":  past,
	})
}
