// Package handler contains the HTTP handlers of the yatube pages.
//
// Handlers parse the request, resolve the viewer from the session cookie,
// call a service and render an HTML page. They hold no business rules:
// authorization and validation happen in the service layer, and the
// resulting apperror values are mapped to pages or redirects here.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
)

// Page template names.
const (
	PageIndex      = "index"
	PageGroupList  = "group_list"
	PageProfile    = "profile"
	PagePostDetail = "post_detail"
	PagePostForm   = "create_post"
	PageLogin      = "login"
	PageNotFound   = "not_found"
	PageError      = "error"
)

var pageNames = []string{
	PageIndex, PageGroupList, PageProfile, PagePostDetail,
	PagePostForm, PageLogin, PageNotFound, PageError,
}

// Renderer writes a named page with the given status. Tests swap in a
// renderer that records the data instead of producing HTML.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data any) error
}

// TemplateRenderer renders html/template pages. Each page is parsed
// together with base.html and includes.html into its own template set, so
// every page can define its own "title" and "content".
type TemplateRenderer struct {
	pages map[string]*template.Template
}

// NewTemplateRenderer parses every page from fsys once at startup.
func NewTemplateRenderer(fsys fs.FS) (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"linebreaks": linebreaks,
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys,
			"base.html",
			"includes.html",
			name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &TemplateRenderer{pages: pages}, nil
}

// Render executes the page into a buffer first, so a template error can
// still become a clean 500 instead of a half-written page.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("rendering template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// linebreaks escapes s and turns its newlines into <br> tags.
func linebreaks(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>\n"))
}
