package helpers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// errorPages are the statuses with a dedicated template. Anything else is
// shown with the 500 page.
var errorPages = map[int]bool{
	http.StatusBadRequest:          true,
	http.StatusForbidden:           true,
	http.StatusNotFound:            true,
	http.StatusInternalServerError: true,
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

// ErrorTemplate names the template rendered for statusCode.
func ErrorTemplate(statusCode int) string {
	if !errorPages[statusCode] {
		statusCode = http.StatusInternalServerError
	}
	return fmt.Sprintf("errors/%d", statusCode)
}

// RespondWithError renders the error page for statusCode and aborts the
// handler chain.
func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.HTML(statusCode, ErrorTemplate(statusCode), PageData(c, gin.H{
		"Status":     statusCode,
		"StatusText": HTTPStatusText(statusCode),
		"Message":    customMessage,
	}))
	c.Abort()
}

// PageData adds the values every page layout needs to data.
func PageData(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["Username"] = c.GetString("username")
	data["CSRFField"] = csrf.TemplateField(c.Request)
	data["Path"] = c.Request.URL.Path
	return data
}
