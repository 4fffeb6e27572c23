package web

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"github.com/mpernat/vellum/internal/errors"
	"github.com/mpernat/vellum/internal/session"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title    string
	Version  string
	Username string // empty when anonymous
	Flash    *session.Flash
}

// IndexPageData is the template data for the document listing page.
type IndexPageData struct {
	PageData
	Documents []string
}

// NewPageData is the template data for the new-document form.
type NewPageData struct {
	PageData
}

// EditPageData is the template data for the edit form.
type EditPageData struct {
	PageData
	Name    string
	Content string
}

// DuplicatePageData is the template data for the duplicate form.
type DuplicatePageData struct {
	PageData
	Source string
}

// SignInPageData is the template data for the sign-in form. FormUsername is
// redisplayed after a failed attempt; the password never is.
type SignInPageData struct {
	PageData
	FormUsername string
}

// SignUpPageData is the template data for the sign-up form.
type SignUpPageData struct {
	PageData
	FormUsername string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"index":     "index.html",
		"new":       "new.html",
		"edit":      "edit.html",
		"duplicate": "duplicate.html",
		"signin":    "signin.html",
		"signup":    "signup.html",
		"error":     "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		log.Printf("template %q not found", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders the full error page for failures that are not
// recovered as a flash-plus-redirect.
func (r *Renderer) renderError(w http.ResponseWriter, err error) {
	var vErr *errors.VellumError
	if !stderrors.As(err, &vErr) {
		vErr = errors.NewInternal(err)
	}

	r.renderPageStatus(w, vErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", vErr.Status),
			Version: r.version,
		},
		StatusCode: vErr.Status,
		Message:    vErr.Message,
	})
}
