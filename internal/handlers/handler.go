package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/flash"
	"github.com/farellandr/runnershive/internal/helpers"
)

const (
	homePath    = "/"
	profilePath = "/events/profile/"

	homePageSize    = 6
	listPageSize    = 9
	profilePageSize = 9
)

// base carries what every page handler needs to render and redirect.
type base struct {
	flash  *flash.Store
	logger *zap.Logger
}

func newBase(flashStore *flash.Store, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{flash: flashStore, logger: logger}
}

// render shows a page along with the pending status messages.
func (b base) render(c *gin.Context, status int, name string, data gin.H) {
	data = helpers.PageData(c, data)
	data["Messages"] = b.flash.Pop(c)
	c.HTML(status, name, data)
}

func (b base) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

// fail maps an error onto the matching error page. Anything unexpected is
// logged and shown as a server error.
func (b base) fail(c *gin.Context, err error) {
	switch {
	case errdef.IsNotFound(err):
		helpers.RespondWithError(c, http.StatusNotFound, "")
	case errdef.IsForbidden(err):
		helpers.RespondWithError(c, http.StatusForbidden, "")
	case errdef.IsBadRequest(err):
		helpers.RespondWithError(c, http.StatusBadRequest, "")
	default:
		b.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "")
	}
}

// safeNext accepts only local absolute paths as a post-login destination.
func safeNext(next string) string {
	if next == "" {
		return homePath
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return homePath
	}
	return next
}
