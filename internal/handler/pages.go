// Package handler contains the HTTP handlers of the admin console.
//
// Handlers are the glue between HTTP and the rest of the app: they read the
// request (query, cookies, the AuthContext a guard attached), call the
// service layer and write the response. They hold no business rules.
//
// The pages in this file are deliberately thin. Their job is to show which
// guard protects them and who the request resolved to; the real admin UI is
// rendered elsewhere.
package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sakif/admin-console/internal/auth"
	"github.com/sakif/admin-console/internal/respond"
)

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}} · Admin Console</title>
</head>
<body>
  <header>
    {{if .Auth.IsAuthenticated}}
      {{with .Auth.User}}
        {{if .Avatar}}<img src="{{.Avatar}}" alt="" width="32" height="32">{{end}}
        <span>Signed in as <strong>{{.DisplayName}}</strong> (@{{.Username}})</span>
      {{end}}
      <a href="/api/auth/logout">Log out</a>
    {{else}}
      <a href="/api/auth/github?redirect={{.Path}}">Sign in with GitHub</a>
    {{end}}
  </header>
  <main>
    <h1>{{.Title}}</h1>
    {{if .Error}}<p role="alert">Sign-in failed: {{.Error}}</p>{{end}}
    <p>{{.Body}}</p>
  </main>
</body>
</html>
`

// pageData is what pageHTML renders.
type pageData struct {
	Title string
	Body  string
	Path  string
	Error string
	Auth  auth.AuthContext
}

// PageHandler renders the placeholder pages behind each guard mode.
type PageHandler struct {
	tmpl   *template.Template
	logger *slog.Logger
}

// NewPageHandler parses the page template once; rendering reuses it.
func NewPageHandler(logger *slog.Logger) *PageHandler {
	return &PageHandler{
		tmpl:   template.Must(template.New("page").Parse(pageHTML)),
		logger: logger,
	}
}

// HandleHome serves GET / behind OptionalAuth. It also shows the ?error code
// a failed callback redirects with.
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{
		Title: "Home",
		Body:  "Public page. Signed-in visitors see their identity above.",
		Error: r.URL.Query().Get("error"),
	})
}

// HandleDashboard serves GET /dashboard behind RequireAuth.
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{
		Title: "Dashboard",
		Body:  "Only signed-in users reach this page.",
	})
}

// HandleAdmin serves GET /admin behind RequireAdmin.
func (h *PageHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{
		Title: "Admin",
		Body:  "Only administrators reach this page.",
	})
}

// HandleAdminSession returns the resolved AuthContext as JSON.
//
// HTTP: GET /api/admin/session
// Auth: RequireAPIAuth + RequireAdmin
func (h *PageHandler) HandleAdminSession(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, h.logger, http.StatusOK, auth.FromContext(r.Context()))
}

// HandleHealth is the liveness probe.
func (h *PageHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, data pageData) {
	data.Path = r.URL.RequestURI()
	data.Auth = auth.FromContext(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render page",
			slog.String("title", data.Title),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
