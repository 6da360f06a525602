package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakib/component-vault/internal/model"
	"github.com/sakib/component-vault/internal/repository"
)

var _ repository.ComponentFileRepository = (*DB)(nil)

// CreateFile inserts an attachment row. The store-assigned ID and the
// uploaded_at timestamp are written back to the caller's struct. Owner
// existence is the service layer's concern; a missing component surfaces
// here only as a foreign key violation.
func (db *DB) CreateFile(ctx context.Context, file *model.ComponentFile) error {
	file.UploadedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO component_files (component_id, name, url, size, uploaded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		file.ComponentID,
		file.Name,
		file.URL,
		file.Size,
		file.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating component file: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading component file id: %w", err)
	}
	file.ID = id

	return nil
}

// ListFilesByComponent returns a component's attachments in creation order.
// An unknown component yields an empty slice, not an error.
func (db *DB) ListFilesByComponent(ctx context.Context, componentID string) ([]model.ComponentFile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, component_id, name, url, size, uploaded_at
		 FROM component_files
		 WHERE component_id = ?
		 ORDER BY id ASC`,
		componentID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing component files: %w", err)
	}
	defer rows.Close()

	files := []model.ComponentFile{}
	for rows.Next() {
		var f model.ComponentFile
		if err := rows.Scan(
			&f.ID, &f.ComponentID, &f.Name, &f.URL, &f.Size, &f.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning component file row: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating component files: %w", err)
	}

	return files, nil
}
