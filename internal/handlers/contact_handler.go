package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/flash"
	"github.com/farellandr/runnershive/internal/forms"
	"github.com/farellandr/runnershive/internal/middleware"
	"github.com/farellandr/runnershive/internal/services"
)

type ContactHandler struct {
	base
	contacts *services.ContactService
}

func NewContactHandler(contacts *services.ContactService, flashStore *flash.Store, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{base: newBase(flashStore, logger), contacts: contacts}
}

func (h *ContactHandler) ContactForm(c *gin.Context) {
	h.render(c, http.StatusOK, "contact", gin.H{
		"Input":  forms.ContactInput{},
		"Errors": forms.FieldErrors{},
	})
}

func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var input forms.ContactInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, errdef.NewBadRequest("malformed contact submission: %v", err))
		return
	}

	var userID *uuid.UUID
	if id, ok := middleware.CurrentUserID(c); ok {
		userID = &id
	}

	errs, err := h.contacts.Submit(c.Request.Context(), &input, userID)
	if err != nil {
		if !errdef.IsBadRequest(err) {
			h.fail(c, err)
			return
		}
		h.flash.Error(c, "Your message could not be sent. Please check your input.")
		h.render(c, http.StatusOK, "contact", gin.H{
			"Input":  input,
			"Errors": errs,
		})
		return
	}

	h.flash.Success(c, "Thank you! Your message has been sent.")
	h.redirect(c, homePath)
}
