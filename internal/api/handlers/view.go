package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/mapadmin/config-portal/internal/api/middleware"
	"github.com/mapadmin/config-portal/internal/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames are the page templates rendered inside the layout.
var pageNames = []string{
	"login",
	"resources_index",
	"resources_form",
	"resources_hierarchy",
	"themes_index",
	"themes_form",
}

var templateFuncs = template.FuncMap{
	"indent": func(depth int) int { return depth * 24 },
	"inc":    func(i int) int { return i + 1 },
	"dec":    func(i int) int { return i - 1 },
}

// View renders the portal's HTML pages and carries the session manager for
// flash messages.
type View struct {
	sessions *auth.Sessions
	pages    map[string]*template.Template
}

// NewView parses the embedded templates.
func NewView(sessions *auth.Sessions) (*View, error) {
	layout, err := template.New("layout.html").Funcs(templateFuncs).
		ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		page, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		page, err = page.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = page
	}

	return &View{sessions: sessions, pages: pages}, nil
}

// Render writes the named page. Queued flash messages and the logged-in user
// are added to the template data.
func (v *View) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) {
	page, ok := v.pages[name]
	if !ok {
		middleware.Logger(r.Context()).Errorf("unknown template %q", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	data["Flashes"] = v.sessions.Flashes(w, r)
	data["CurrentUser"] = v.sessions.CurrentUser(r)
	data["LoginEnabled"] = v.sessions.LoginEnabled()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.ExecuteTemplate(w, "layout.html", data); err != nil {
		middleware.Logger(r.Context()).Errorf("rendering template %q: %v", name, err)
	}
}

// Flash queues a flash message for the next rendered page.
func (v *View) Flash(w http.ResponseWriter, r *http.Request, category, format string, args ...interface{}) {
	v.sessions.AddFlash(w, r, category, fmt.Sprintf(format, args...))
}

// NotFound renders a plain 404 response.
func (v *View) NotFound(w http.ResponseWriter) {
	http.Error(w, "Not found", http.StatusNotFound)
}

// MethodNotAllowed renders a plain 405 response.
func (v *View) MethodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
