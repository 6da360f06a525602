package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
)

// HomeHandler serves the single landing page. Templates are parsed once at
// startup; the page's script fetches /components/ to populate the grid.
type HomeHandler struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewHomeHandler parses the page templates from templateDir.
func NewHomeHandler(templateDir string, logger *slog.Logger) (*HomeHandler, error) {
	tmpl, err := template.ParseFiles(
		filepath.Join(templateDir, "base.html"),
		filepath.Join(templateDir, "home.html"),
	)
	if err != nil {
		return nil, err
	}

	return &HomeHandler{
		templates: tmpl,
		logger:    logger,
	}, nil
}

// HandleHome renders the landing page.
//
// GET /
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title": "Component Vault",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
