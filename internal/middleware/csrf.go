package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/farellandr/runnershive/internal/helpers"
)

type ginContextKey struct{}

// CSRF runs gorilla/csrf inside the gin chain. Rejected requests get the 403
// page and the rest of the chain is skipped.
func CSRF(key []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(c *gin.Context) {
		req := c.Request.WithContext(context.WithValue(c.Request.Context(), ginContextKey{}, c))
		if !secure {
			req = csrf.PlaintextHTTPRequest(req)
		}

		passed := false
		protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, req)

		if !passed {
			c.Abort()
		}
	}
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
	if !ok {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	c.Request = r
	message := "CSRF verification failed."
	if reason := csrf.FailureReason(r); reason != nil {
		message += " " + reason.Error()
	}
	helpers.RespondWithError(c, http.StatusForbidden, message)
}
