// Package handler contains the HTTP request handlers. Handlers parse
// requests, call the service layer, and shape responses; they hold no
// business logic.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakib/component-vault/internal/apperror"
	"github.com/sakib/component-vault/internal/model"
	"github.com/sakib/component-vault/internal/service"
)

// maxUploadMemory caps how much of a multipart body is held in memory before
// spilling to temp files.
const maxUploadMemory = 32 << 20

// ComponentHandler serves the component CRUD and attachment endpoints.
type ComponentHandler struct {
	svc    *service.ComponentService
	logger *slog.Logger
}

// NewComponentHandler creates a new ComponentHandler.
func NewComponentHandler(svc *service.ComponentService, logger *slog.Logger) *ComponentHandler {
	return &ComponentHandler{svc: svc, logger: logger}
}

// ComponentView is the wire form of a component. Tags go out as an ordered
// sequence and the date as an ISO-8601 calendar date.
type ComponentView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Section      string   `json:"section"`
	Tags         []string `json:"tags"`
	DateISO      string   `json:"dateISO"`
	Code         string   `json:"code"`
	Description  string   `json:"description"`
	Notes        string   `json:"notes"`
	Instructions string   `json:"instructions"`
	Status       string   `json:"status"`
}

// FileView is the wire form of an attachment.
type FileView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// ComponentDetail is the detail-view form: the component plus its
// attachments. The files array is always present, possibly empty.
type ComponentDetail struct {
	ComponentView
	Files []FileView `json:"files"`
}

func newComponentView(c *model.Component) ComponentView {
	return ComponentView{
		ID:           c.ID,
		Name:         c.Name,
		Section:      c.Section,
		Tags:         c.TagList(),
		DateISO:      c.DateAdded.Format(model.DateFormat),
		Code:         c.Code,
		Description:  c.Description,
		Notes:        c.Notes,
		Instructions: c.Instructions,
		Status:       c.Status,
	}
}

func newFileViews(files []model.ComponentFile) []FileView {
	views := make([]FileView, 0, len(files))
	for _, f := range files {
		views = append(views, FileView{ID: f.ID, Name: f.Name, URL: f.URL, Size: f.Size})
	}
	return views
}

type listResponse struct {
	Results []ComponentView `json:"results"`
}

type filesResponse struct {
	Files []FileView `json:"files"`
}

// HandleList returns all components, newest first.
//
// GET /components/
func (h *ComponentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	components, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]ComponentView, 0, len(components))
	for i := range components {
		views = append(views, newComponentView(&components[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Results: views})
}

// HandleCreate creates a component from either a JSON body or a multipart
// form. The response never embeds the files array; read the component back
// through the detail endpoint for that.
//
// POST /components/
func (h *ComponentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.createMultipart(w, r)
		return
	}
	h.createJSON(w, r)
}

type createComponentRequest struct {
	Name         string   `json:"name"`
	Section      string   `json:"section"`
	Tags         []string `json:"tags"`
	Code         string   `json:"code"`
	Description  string   `json:"description"`
	Notes        string   `json:"notes"`
	Instructions string   `json:"instructions"`
	Status       string   `json:"status"`
}

func (h *ComponentHandler) createJSON(w http.ResponseWriter, r *http.Request) {
	var req createComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid component JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON"))
		return
	}

	component, err := h.svc.Create(r.Context(), service.ComponentInput{
		Name:         strings.TrimSpace(req.Name),
		Section:      strings.TrimSpace(req.Section),
		Tags:         req.Tags,
		Code:         strings.TrimSpace(req.Code),
		Description:  req.Description,
		Notes:        req.Notes,
		Instructions: req.Instructions,
		Status:       strings.TrimSpace(req.Status),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newComponentView(component))
}

func (h *ComponentHandler) createMultipart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.Warn("invalid multipart form", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Invalid multipart form"))
		return
	}

	field := func(name string) string { return strings.TrimSpace(r.FormValue(name)) }

	// Code arrives either as a plain text field or as an uploaded file. The
	// file's bytes are decoded as text with invalid UTF-8 sequences dropped,
	// and stored without trimming.
	code := field("code_text")
	if code == "" {
		if headers := r.MultipartForm.File["code_file"]; len(headers) > 0 {
			data, err := readPart(headers[0])
			if err != nil {
				h.logger.Error("reading code_file", slog.String("error", err.Error()))
				writeError(w, err)
				return
			}
			code = strings.ToValidUTF8(string(data), "")
		}
	}

	component, err := h.svc.Create(r.Context(), service.ComponentInput{
		Name:    field("name"),
		Section: field("section"),
		// The multipart tags field is a single comma-separated string — the
		// same shape as storage, re-split so normalization applies uniformly.
		Tags:         model.SplitTags(r.FormValue("tags")),
		Code:         code,
		Description:  field("description"),
		Notes:        field("notes"),
		Instructions: field("instructions"),
		Status:       field("status"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// Attachments are persisted after the component commits; a failure here
	// leaves the component with the attachments stored so far.
	uploads, err := collectUploads(r.MultipartForm.File["files"])
	if err != nil {
		h.logger.Error("reading attachment parts", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	if len(uploads) > 0 {
		if _, err := h.svc.AttachFiles(r.Context(), component.ID, uploads); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, newComponentView(component))
}

// HandleGet returns one component with its attachments embedded.
//
// GET /components/{id}/
func (h *ComponentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	component, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	files, err := h.svc.ListFiles(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ComponentDetail{
		ComponentView: newComponentView(component),
		Files:         newFileViews(files),
	})
}

type updateComponentRequest struct {
	Name         *string   `json:"name"`
	Section      *string   `json:"section"`
	Tags         *[]string `json:"tags"`
	Code         *string   `json:"code"`
	Description  *string   `json:"description"`
	Notes        *string   `json:"notes"`
	Instructions *string   `json:"instructions"`
	Status       *string   `json:"status"`
	DateISO      *string   `json:"dateISO"`
}

// HandleUpdate applies a partial update. Absent fields stay untouched;
// present fields overwrite verbatim.
//
// PATCH /components/{id}/
func (h *ComponentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid patch JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON"))
		return
	}

	component, err := h.svc.Update(r.Context(), id, service.ComponentPatch{
		Name:         req.Name,
		Section:      req.Section,
		Tags:         req.Tags,
		Code:         req.Code,
		Description:  req.Description,
		Notes:        req.Notes,
		Instructions: req.Instructions,
		Status:       req.Status,
		DateISO:      req.DateISO,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newComponentView(component))
}

// HandleDelete removes a component and, by cascade, its attachments.
//
// DELETE /components/{id}/
func (h *ComponentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleUploadFiles attaches every part of the multipart "files" collection
// to an existing component.
//
// POST /components/{id}/files/
func (h *ComponentHandler) HandleUploadFiles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.Warn("invalid multipart form", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Invalid multipart form"))
		return
	}

	uploads, err := collectUploads(r.MultipartForm.File["files"])
	if err != nil {
		h.logger.Error("reading attachment parts", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	created, err := h.svc.AttachFiles(r.Context(), id, uploads)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, filesResponse{Files: newFileViews(created)})
}

// readPart reads one multipart file part to completion.
func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func collectUploads(headers []*multipart.FileHeader) ([]service.Upload, error) {
	uploads := make([]service.Upload, 0, len(headers))
	for _, header := range headers {
		data, err := readPart(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.Upload{Name: header.Filename, Data: data})
	}
	return uploads, nil
}
