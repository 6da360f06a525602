// Package service contains the business logic layer: validation, defaulting,
// and orchestration between the repositories and the blob store. Handlers
// stay HTTP-only; repositories stay SQL-only.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakib/component-vault/internal/apperror"
	"github.com/sakib/component-vault/internal/model"
	"github.com/sakib/component-vault/internal/repository"
	"github.com/sakib/component-vault/internal/storage"
)

// ComponentInput carries the fields a create accepts. Tags are in wire form
// (ordered sequence); encoding-specific trimming has already happened in the
// handler. Code is stored exactly as given — only the emptiness check trims.
type ComponentInput struct {
	Name         string
	Section      string
	Tags         []string
	Code         string
	Description  string
	Notes        string
	Instructions string
	Status       string
}

// ComponentPatch is a partial update: nil means "leave untouched". Values
// present overwrite verbatim; Tags are re-normalized; DateISO is parsed as a
// calendar date and silently ignored when unparseable.
type ComponentPatch struct {
	Name         *string
	Section      *string
	Tags         *[]string
	Code         *string
	Description  *string
	Notes        *string
	Instructions *string
	Status       *string
	DateISO      *string
}

// Upload is one attachment payload: a client-supplied filename plus its
// bytes, read to completion before the service sees it.
type Upload struct {
	Name string
	Data []byte
}

// ComponentService handles business logic for components and their
// attachments.
type ComponentService struct {
	components repository.ComponentRepository
	files      repository.ComponentFileRepository
	blobs      storage.BlobStore
	logger     *slog.Logger
}

// NewComponentService wires the service's dependencies.
func NewComponentService(
	components repository.ComponentRepository,
	files repository.ComponentFileRepository,
	blobs storage.BlobStore,
	logger *slog.Logger,
) *ComponentService {
	return &ComponentService{
		components: components,
		files:      files,
		blobs:      blobs,
		logger:     logger,
	}
}

// Create validates and saves a new component. Code must be non-empty after
// trimming; nothing is persisted on failure. Blank name and status get their
// defaults here so both request encodings behave identically.
func (s *ComponentService) Create(ctx context.Context, in ComponentInput) (*model.Component, error) {
	if strings.TrimSpace(in.Code) == "" {
		return nil, apperror.ValidationFailed("code", "Code is required.")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = model.DefaultName
	}

	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = model.StatusNotStarted
	}

	component := &model.Component{
		Name:         name,
		Section:      in.Section,
		Tags:         model.JoinTags(in.Tags),
		Code:         in.Code,
		Description:  in.Description,
		Notes:        in.Notes,
		Instructions: in.Instructions,
		Status:       status,
	}

	if err := s.components.Create(ctx, component); err != nil {
		s.logger.Error("failed to create component",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating component: %w", err)
	}

	s.logger.Info("component created",
		slog.String("id", component.ID),
		slog.String("name", component.Name),
	)

	return component, nil
}

// List returns all components, newest date first, names ascending within a
// date.
func (s *ComponentService) List(ctx context.Context) ([]model.Component, error) {
	components, err := s.components.List(ctx)
	if err != nil {
		s.logger.Error("failed to list components", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing components: %w", err)
	}
	return components, nil
}

// GetByID retrieves one component. Returns apperror.ErrNotFound when absent.
func (s *ComponentService) GetByID(ctx context.Context, id string) (*model.Component, error) {
	return s.components.GetByID(ctx, id)
}

// Update applies a partial patch: fetch, overlay the supplied fields, save.
// Unlike Create, values are written verbatim — no trimming, no defaulting.
func (s *ComponentService) Update(ctx context.Context, id string, patch ComponentPatch) (*model.Component, error) {
	component, err := s.components.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		component.Name = *patch.Name
	}
	if patch.Section != nil {
		component.Section = *patch.Section
	}
	if patch.Tags != nil {
		component.Tags = model.JoinTags(*patch.Tags)
	}
	if patch.Code != nil {
		component.Code = *patch.Code
	}
	if patch.Description != nil {
		component.Description = *patch.Description
	}
	if patch.Notes != nil {
		component.Notes = *patch.Notes
	}
	if patch.Instructions != nil {
		component.Instructions = *patch.Instructions
	}
	if patch.Status != nil {
		component.Status = *patch.Status
	}
	if patch.DateISO != nil {
		// An unparseable override leaves the prior date intact. Deliberate
		// leniency, not an error.
		if d, perr := time.Parse(model.DateFormat, *patch.DateISO); perr == nil {
			component.DateAdded = d
		}
	}

	if err := s.components.Update(ctx, component); err != nil {
		s.logger.Error("failed to update component",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating component: %w", err)
	}

	s.logger.Info("component updated", slog.String("id", id))

	return component, nil
}

// Delete removes a component; the storage layer cascades to its attachments.
func (s *ComponentService) Delete(ctx context.Context, id string) error {
	if err := s.components.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("component deleted", slog.String("id", id))
	return nil
}

// AttachFiles stores each upload in the blob store and records it against
// the component. The owner must exist. The batch is not transactional: a
// failure partway leaves the earlier attachments in place.
func (s *ComponentService) AttachFiles(ctx context.Context, componentID string, uploads []Upload) ([]model.ComponentFile, error) {
	if _, err := s.components.GetByID(ctx, componentID); err != nil {
		return nil, err
	}

	created := make([]model.ComponentFile, 0, len(uploads))
	for _, u := range uploads {
		blob, err := s.blobs.Save(u.Data, u.Name)
		if err != nil {
			s.logger.Error("failed to store attachment",
				slog.String("component_id", componentID),
				slog.String("name", u.Name),
				slog.String("error", err.Error()),
			)
			return created, fmt.Errorf("storing attachment %q: %w", u.Name, err)
		}

		file := &model.ComponentFile{
			ComponentID: componentID,
			Name:        blob.Name,
			URL:         blob.URL,
			Size:        blob.Size,
		}
		if err := s.files.CreateFile(ctx, file); err != nil {
			return created, fmt.Errorf("recording attachment %q: %w", u.Name, err)
		}
		created = append(created, *file)
	}

	if len(created) > 0 {
		s.logger.Info("attachments created",
			slog.String("component_id", componentID),
			slog.Int("count", len(created)),
		)
	}

	return created, nil
}

// ListFiles returns a component's attachments in creation order.
func (s *ComponentService) ListFiles(ctx context.Context, componentID string) ([]model.ComponentFile, error) {
	files, err := s.files.ListFilesByComponent(ctx, componentID)
	if err != nil {
		s.logger.Error("failed to list attachments",
			slog.String("component_id", componentID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	return files, nil
}
