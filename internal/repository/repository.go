// Package repository declares the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakib/component-vault/internal/model"
)

// ComponentRepository persists components. List returns all records ordered
// by date_added descending, then name ascending.
type ComponentRepository interface {
	Create(ctx context.Context, component *model.Component) error
	GetByID(ctx context.Context, id string) (*model.Component, error)
	List(ctx context.Context) ([]model.Component, error)
	Update(ctx context.Context, component *model.Component) error
	Delete(ctx context.Context, id string) error
}

// ComponentFileRepository persists attachments scoped to a component.
// Deleting a component cascades to its rows.
type ComponentFileRepository interface {
	CreateFile(ctx context.Context, file *model.ComponentFile) error
	ListFilesByComponent(ctx context.Context, componentID string) ([]model.ComponentFile, error)
}
