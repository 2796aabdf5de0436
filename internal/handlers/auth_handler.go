package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/flash"
	"github.com/farellandr/runnershive/internal/forms"
	"github.com/farellandr/runnershive/internal/middleware"
	"github.com/farellandr/runnershive/internal/models"
	"github.com/farellandr/runnershive/internal/services"
)

const invalidLogin = "Please enter a correct username and password. Note that both fields may be case-sensitive."

type AuthHandler struct {
	base
	auth         *services.AuthService
	cookieSecure bool
}

func NewAuthHandler(auth *services.AuthService, flashStore *flash.Store, cookieSecure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{base: newBase(flashStore, logger), auth: auth, cookieSecure: cookieSecure}
}

func (h *AuthHandler) LoginForm(c *gin.Context) {
	if _, ok := middleware.CurrentUserID(c); ok {
		h.redirect(c, homePath)
		return
	}

	h.render(c, http.StatusOK, "accounts/login", gin.H{
		"Input":  forms.LoginInput{Next: c.Query("next")},
		"Errors": forms.FieldErrors{},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input forms.LoginInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, errdef.NewBadRequest("malformed login: %v", err))
		return
	}

	if errs := forms.ValidateLogin(&input); len(errs) > 0 {
		h.render(c, http.StatusOK, "accounts/login", gin.H{"Input": input, "Errors": errs})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), input.Login, input.Password)
	if err != nil {
		if !errdef.IsUnauthorized(err) {
			h.fail(c, err)
			return
		}
		h.render(c, http.StatusOK, "accounts/login", gin.H{
			"Input":         input,
			"Errors":        forms.FieldErrors{},
			"NonFieldError": invalidLogin,
		})
		return
	}

	if !h.signIn(c, user) {
		return
	}
	h.redirect(c, safeNext(input.Next))
}

func (h *AuthHandler) SignupForm(c *gin.Context) {
	h.render(c, http.StatusOK, "accounts/signup", gin.H{
		"Input":  forms.RegisterInput{},
		"Errors": forms.FieldErrors{},
	})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var input forms.RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		h.fail(c, errdef.NewBadRequest("malformed registration: %v", err))
		return
	}

	user, errs, err := h.auth.Register(c.Request.Context(), &input)
	if err != nil {
		if errs == nil {
			h.fail(c, err)
			return
		}
		input.Password, input.PasswordConfirm = "", ""
		h.render(c, http.StatusOK, "accounts/signup", gin.H{"Input": input, "Errors": errs})
		return
	}

	if !h.signIn(c, user) {
		return
	}
	h.flash.Success(c, fmt.Sprintf("Welcome to Runners Hive, %s!", user.Username))
	h.redirect(c, homePath)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearAuthCookie(c, h.cookieSecure)
	h.flash.Info(c, "You have been logged out.")
	h.redirect(c, homePath)
}

func (h *AuthHandler) signIn(c *gin.Context, user *models.User) bool {
	token, err := h.auth.IssueToken(user)
	if err != nil {
		h.fail(c, err)
		return false
	}

	middleware.SetAuthCookie(c, token, int(h.auth.Expiration().Seconds()), h.cookieSecure)
	h.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return true
}
