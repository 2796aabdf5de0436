// Package web holds the HTML templates and the gin renderer that serves them.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin/render"

	"github.com/farellandr/runnershive/internal/forms"
	"github.com/farellandr/runnershive/internal/helpers"
	"github.com/farellandr/runnershive/internal/models"
	"github.com/farellandr/runnershive/internal/storage"
)

//go:embed templates
var templateFS embed.FS

// Pages lists every template that can be rendered by name.
var Pages = []string{
	"index",
	"contact",
	"events/list",
	"events/detail",
	"events/form",
	"events/profile",
	"accounts/login",
	"accounts/signup",
	"errors/400",
	"errors/403",
	"errors/404",
	"errors/500",
}

// Renderer implements gin's render.HTMLRender over the embedded templates.
// Each page is parsed together with the layout and the shared partials.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer(images storage.ImageStore) (*Renderer, error) {
	funcs := template.FuncMap{
		"markdown":     helpers.Markdown,
		"clock":        models.ClockString,
		"difficulties": func() []models.Difficulty { return models.Difficulties },
		"dateChoices":  func() []forms.DateFilterChoice { return forms.DateFilterChoices },
		"longDate": func(event models.Event) string {
			return event.DateValue().Format("Monday, 2 January 2006")
		},
		"imageURL": func(ref string) string {
			if images == nil {
				return ""
			}
			return images.URL(ref)
		},
		"pageLink": func(query string, page int) string {
			if query == "" {
				return fmt.Sprintf("?page=%d", page)
			}
			return fmt.Sprintf("?%s&page=%d", query, page)
		},
	}

	templates := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		tpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS,
			"templates/base.html",
			"templates/partials.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		templates[page] = tpl
	}

	return &Renderer{templates: templates}, nil
}

func (r *Renderer) Instance(name string, data any) render.Render {
	tpl, ok := r.templates[name]
	if !ok {
		return missingTemplate{name: name}
	}
	return render.HTML{Template: tpl, Name: "base", Data: data}
}

type missingTemplate struct {
	name string
}

func (m missingTemplate) Render(w http.ResponseWriter) error {
	return fmt.Errorf("template %q is not defined", m.name)
}

func (m missingTemplate) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}
