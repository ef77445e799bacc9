package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"path"
	"time"

	"github.com/jrsteele09/go-matchmaking-backoffice/adminapi"
)

//go:embed templates/*.html templates/partials/*.html
var templateFiles embed.FS

const layoutTemplate = "templates/layout.html"

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("02/01/2006")
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("02/01/2006 15:04")
	},
	"percent": func(score float64) string {
		if score <= 1 {
			score *= 100
		}
		return fmt.Sprintf("%d %%", int(math.Round(score)))
	},
	"statusLabel": func(status adminapi.ReviewStatus) string {
		switch status {
		case adminapi.StatusPending:
			return "En attente"
		case adminapi.StatusApproved:
			return "Validé"
		case adminapi.StatusRejected:
			return "Rejeté"
		}
		return string(status)
	},
	"errorMessage": actionErrorMessage,
	"dict": func(pairs ...any) (map[string]any, error) {
		if len(pairs)%2 != 0 {
			return nil, fmt.Errorf("dict needs key/value pairs, got %d arguments", len(pairs))
		}
		m := make(map[string]any, len(pairs)/2)
		for i := 0; i < len(pairs); i += 2 {
			key, ok := pairs[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
			}
			m[key] = pairs[i+1]
		}
		return m, nil
	},
}

// templates holds one parsed set per page (layout + partials + page) and the
// shared partial set used for htmx fragments
type templates struct {
	partials *template.Template
	pages    map[string]*template.Template
}

func parseTemplates() (*templates, error) {
	base, err := template.New("").Funcs(templateFuncs).ParseFS(templateFiles, layoutTemplate, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("[parseTemplates] base: %w", err)
	}

	pageFiles, err := fs.Glob(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("[parseTemplates] glob: %w", err)
	}

	t := &templates{partials: base, pages: make(map[string]*template.Template)}
	for _, file := range pageFiles {
		if file == layoutTemplate {
			continue
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("[parseTemplates] clone for %s: %w", file, err)
		}
		page, err := clone.ParseFS(templateFiles, file)
		if err != nil {
			return nil, fmt.Errorf("[parseTemplates] %s: %w", file, err)
		}
		t.pages[path.Base(file)] = page
	}
	return t, nil
}

// executePage renders a full page through the layout
func (t *templates) executePage(name string, data any) ([]byte, error) {
	page, ok := t.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page template %q", name)
	}
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *templates) executePartial(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.partials.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) writeHTML(w http.ResponseWriter, status int, body []byte, err error, name string) {
	if err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data pageData) {
	body, err := s.templates.executePage(name, data)
	s.writeHTML(w, status, body, err, name)
}

func (s *Server) renderPartial(w http.ResponseWriter, status int, name string, data pageData) {
	body, err := s.templates.executePartial(name, data)
	s.writeHTML(w, status, body, err, name)
}
