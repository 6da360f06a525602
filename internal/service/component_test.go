package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakib/component-vault/internal/apperror"
	"github.com/sakib/component-vault/internal/model"
	"github.com/sakib/component-vault/internal/storage"
)

// In-memory fakes for the repositories and the blob store. The service only
// sees the interfaces, so these swap in cleanly for SQLite and the disk
// store.

type mockComponentRepo struct {
	components map[string]*model.Component
	nextID     int
}

func newMockComponentRepo() *mockComponentRepo {
	return &mockComponentRepo{components: make(map[string]*model.Component)}
}

func (m *mockComponentRepo) Create(_ context.Context, c *model.Component) error {
	m.nextID++
	c.ID = fmt.Sprintf("mock-%d", m.nextID)
	if c.DateAdded.IsZero() {
		c.DateAdded = time.Now()
	}
	stored := *c
	m.components[c.ID] = &stored
	return nil
}

func (m *mockComponentRepo) GetByID(_ context.Context, id string) (*model.Component, error) {
	c, ok := m.components[id]
	if !ok {
		return nil, apperror.NotFound("component", id)
	}
	result := *c
	return &result, nil
}

func (m *mockComponentRepo) List(_ context.Context) ([]model.Component, error) {
	result := make([]model.Component, 0, len(m.components))
	for _, c := range m.components {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockComponentRepo) Update(_ context.Context, c *model.Component) error {
	if _, ok := m.components[c.ID]; !ok {
		return apperror.NotFound("component", c.ID)
	}
	stored := *c
	m.components[c.ID] = &stored
	return nil
}

func (m *mockComponentRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.components[id]; !ok {
		return apperror.NotFound("component", id)
	}
	delete(m.components, id)
	return nil
}

type mockFileRepo struct {
	files  []model.ComponentFile
	nextID int64
}

func (m *mockFileRepo) CreateFile(_ context.Context, f *model.ComponentFile) error {
	m.nextID++
	f.ID = m.nextID
	f.UploadedAt = time.Now()
	m.files = append(m.files, *f)
	return nil
}

func (m *mockFileRepo) ListFilesByComponent(_ context.Context, componentID string) ([]model.ComponentFile, error) {
	result := []model.ComponentFile{}
	for _, f := range m.files {
		if f.ComponentID == componentID {
			result = append(result, f)
		}
	}
	return result, nil
}

type mockBlobStore struct {
	saved   []string
	saveErr error
}

func (m *mockBlobStore) Save(data []byte, suggestedName string) (storage.SavedBlob, error) {
	if m.saveErr != nil {
		return storage.SavedBlob{}, m.saveErr
	}
	m.saved = append(m.saved, suggestedName)
	return storage.SavedBlob{
		Name: suggestedName,
		URL:  "/media/component_files/" + suggestedName,
		Size: int64(len(data)),
	}, nil
}

func newTestService(t *testing.T) (*ComponentService, *mockComponentRepo, *mockFileRepo, *mockBlobStore) {
	t.Helper()
	repo := newMockComponentRepo()
	files := &mockFileRepo{}
	blobs := &mockBlobStore{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewComponentService(repo, files, blobs, logger)
	return svc, repo, files, blobs
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Create

func TestCreate_Success(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	component, err := svc.Create(context.Background(), ComponentInput{
		Name: "Card A",
		Tags: []string{"widget", "table"},
		Code: "<div>Hello A</div>",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if component.ID == "" {
		t.Error("expected component to have an ID")
	}
	if component.Name != "Card A" {
		t.Errorf("Name = %q, want %q", component.Name, "Card A")
	}
	if component.Tags != "widget,table" {
		t.Errorf("Tags = %q, want %q", component.Tags, "widget,table")
	}
	if component.DateAdded.IsZero() {
		t.Error("expected DateAdded to be set")
	}
}

func TestCreate_Defaults(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	component, err := svc.Create(context.Background(), ComponentInput{
		Name: "   ",
		Code: "<div/>",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if component.Name != model.DefaultName {
		t.Errorf("Name = %q, want %q", component.Name, model.DefaultName)
	}
	if component.Status != model.StatusNotStarted {
		t.Errorf("Status = %q, want %q", component.Status, model.StatusNotStarted)
	}
}

func TestCreate_TagsNormalized(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	component, err := svc.Create(context.Background(), ComponentInput{
		Code: "<div/>",
		Tags: []string{" widget ", "", "table", "  "},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if component.Tags != "widget,table" {
		t.Errorf("Tags = %q, want %q", component.Tags, "widget,table")
	}
}

func TestCreate_EmptyCode(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	for _, code := range []string{"", "   ", "\n\t"} {
		_, err := svc.Create(context.Background(), ComponentInput{Name: "x", Code: code})
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Create(code=%q) error = %v, want ErrValidation", code, err)
		}
	}

	// Nothing may be persisted on a failed create.
	if len(repo.components) != 0 {
		t.Errorf("repo holds %d components after failed creates, want 0", len(repo.components))
	}
}

func TestCreate_CodeStoredVerbatim(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	// Emptiness is checked on the trimmed value, but the stored payload keeps
	// its surrounding whitespace (the multipart file path relies on this).
	code := "\n<section>Upload Code</section>\n"
	component, err := svc.Create(context.Background(), ComponentInput{Code: code})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if component.Code != code {
		t.Errorf("Code = %q, want %q", component.Code, code)
	}
}

// ---------------------------------------------------------------------------
// Update

func TestUpdate_PartialTouchesOnlySuppliedFields(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), ComponentInput{
		Name:    "Card",
		Section: "widgets",
		Tags:    []string{"a", "b"},
		Code:    "<div/>",
		Status:  model.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}

	updated, err := svc.Update(context.Background(), created.ID, ComponentPatch{
		Notes: strPtr("remember the aria labels"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Notes != "remember the aria labels" {
		t.Errorf("Notes = %q, want the patched value", updated.Notes)
	}
	if updated.Name != "Card" || updated.Section != "widgets" ||
		updated.Tags != "a,b" || updated.Code != "<div/>" ||
		updated.Status != model.StatusInProgress {
		t.Errorf("Update() touched fields that were not in the patch: %+v", updated)
	}
}

func TestUpdate_VerbatimNoTrimming(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, _ := svc.Create(context.Background(), ComponentInput{Code: "<div/>"})

	updated, err := svc.Update(context.Background(), created.ID, ComponentPatch{
		Name: strPtr("  padded  "),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "  padded  " {
		t.Errorf("Name = %q, want whitespace preserved", updated.Name)
	}
}

func TestUpdate_TagsRenormalized(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, _ := svc.Create(context.Background(), ComponentInput{Code: "<div/>"})

	tags := []string{" a", "b ", "", "c"}
	updated, err := svc.Update(context.Background(), created.ID, ComponentPatch{Tags: &tags})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Tags != "a,b,c" {
		t.Errorf("Tags = %q, want %q", updated.Tags, "a,b,c")
	}
}

func TestUpdate_DateOverride(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, _ := svc.Create(context.Background(), ComponentInput{Code: "<div/>"})

	updated, err := svc.Update(context.Background(), created.ID, ComponentPatch{
		DateISO: strPtr("2024-01-15"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := updated.DateAdded.Format(model.DateFormat); got != "2024-01-15" {
		t.Errorf("DateAdded = %s, want 2024-01-15", got)
	}
}

func TestUpdate_InvalidDateIgnored(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, _ := svc.Create(context.Background(), ComponentInput{Code: "<div/>"})
	before := created.DateAdded.Format(model.DateFormat)

	updated, err := svc.Update(context.Background(), created.ID, ComponentPatch{
		DateISO: strPtr("not-a-date"),
		Notes:   strPtr("still applied"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v, want silent ignore of the bad date", err)
	}
	if got := updated.DateAdded.Format(model.DateFormat); got != before {
		t.Errorf("DateAdded = %s, want unchanged %s", got, before)
	}
	if updated.Notes != "still applied" {
		t.Errorf("Notes = %q, want the rest of the patch applied", updated.Notes)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), "nonexistent", ComponentPatch{Name: strPtr("x")})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Delete

func TestDelete(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, _ := svc.Create(context.Background(), ComponentInput{Code: "<div/>"})

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Attachments

func TestAttachFiles(t *testing.T) {
	svc, _, files, blobs := newTestService(t)

	created, _ := svc.Create(context.Background(), ComponentInput{Code: "<div/>"})

	attached, err := svc.AttachFiles(context.Background(), created.ID, []Upload{
		{Name: "logo.png", Data: []byte("png-bytes")},
		{Name: "style.css", Data: []byte("body{}")},
	})
	if err != nil {
		t.Fatalf("AttachFiles() error = %v", err)
	}

	if len(attached) != 2 {
		t.Fatalf("attached %d files, want 2", len(attached))
	}
	if attached[0].Name != "logo.png" || attached[0].Size != int64(len("png-bytes")) {
		t.Errorf("attached[0] = %+v, want logo.png with its byte size", attached[0])
	}
	if attached[0].URL == "" {
		t.Error("attached[0].URL is empty")
	}
	if len(blobs.saved) != 2 {
		t.Errorf("blob store saw %d saves, want 2", len(blobs.saved))
	}

	listed, err := svc.ListFiles(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("ListFiles() returned %d files, want 2", len(listed))
	}
	if len(files.files) != 2 {
		t.Errorf("recorded %d attachments, want 2", len(files.files))
	}
}

func TestAttachFiles_OwnerNotFound(t *testing.T) {
	svc, _, _, blobs := newTestService(t)

	_, err := svc.AttachFiles(context.Background(), "nonexistent", []Upload{
		{Name: "logo.png", Data: []byte("x")},
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if len(blobs.saved) != 0 {
		t.Errorf("blob store saw %d saves for a missing owner, want 0", len(blobs.saved))
	}
}

func TestAttachFiles_PartialBatchOnStoreError(t *testing.T) {
	svc, _, files, blobs := newTestService(t)

	created, _ := svc.Create(context.Background(), ComponentInput{Code: "<div/>"})

	// First upload succeeds, then the store starts failing: the earlier
	// attachment stays recorded. The batch is documented as non-atomic.
	if _, err := svc.AttachFiles(context.Background(), created.ID, []Upload{
		{Name: "ok.png", Data: []byte("x")},
	}); err != nil {
		t.Fatalf("AttachFiles() error = %v", err)
	}

	blobs.saveErr = errors.New("disk full")
	_, err := svc.AttachFiles(context.Background(), created.ID, []Upload{
		{Name: "fails.png", Data: []byte("y")},
	})
	if err == nil {
		t.Fatal("AttachFiles() should surface the store error")
	}

	if len(files.files) != 1 {
		t.Errorf("recorded %d attachments, want the 1 from the successful batch", len(files.files))
	}
}
