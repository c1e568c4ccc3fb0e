// Package web embeds the HTML templates and builds the gin renderer from them.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"time"

	"boards/internal/forms"
	"boards/internal/models"
	"boards/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

//go:embed templates
var templateFS embed.FS

// Views lists the view files under templates/views; handlers render them by file name.
var Views = []string{
	"home.html",
	"topics.html",
	"new_topic.html",
	"topic_posts.html",
	"reply_topic.html",
	"edit_post.html",
	"login.html",
	"signup.html",
	"error.html",
}

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t time.Time) string {
			return utils.NaturalTime(t, time.Now())
		},
		"markdown": func(p models.Post) template.HTML {
			return utils.RenderPost(&p)
		},
		"fieldError": func(errs any, field string) string {
			if fe, ok := errs.(forms.FieldErrors); ok {
				return fe.Get(field)
			}
			return ""
		},
		"maxLength": forms.MaxLength,
		"minLength": forms.MinLength,
		"canEdit": func(u *models.User, p models.Post) bool {
			return u != nil && u.ID == p.CreatedByID
		},
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return string(r[:n-1]) + "…"
		},
	}
}

// LoadTemplates parses every view together with the base layout and the shared includes.
func LoadTemplates() (multitemplate.Render, error) {
	return loadTemplates(templateFS)
}

func loadTemplates(fsys fs.FS) (multitemplate.Render, error) {
	r := multitemplate.New()

	includes, err := fs.Glob(fsys, "templates/includes/*.html")
	if err != nil {
		return nil, err
	}
	funcMap := FuncMap()

	for _, name := range Views {
		files := append([]string{"templates/layouts/base.html"}, includes...)
		files = append(files, "templates/views/"+name)

		tmpl, err := template.New(path.Base(files[0])).Funcs(funcMap).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.Add(name, tmpl)
	}
	return r, nil
}
