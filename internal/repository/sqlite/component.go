package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sakib/component-vault/internal/apperror"
	"github.com/sakib/component-vault/internal/model"
	"github.com/sakib/component-vault/internal/repository"
)

// Compile-time check that *DB implements the repository interface.
var _ repository.ComponentRepository = (*DB)(nil)

// Create inserts a new component. The ID and (if unset) date_added are
// assigned here; the caller's struct is updated in place. No validation
// happens at this layer.
func (db *DB) Create(ctx context.Context, component *model.Component) error {
	component.ID = uuid.NewString()
	if component.DateAdded.IsZero() {
		component.DateAdded = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO components
		 (id, name, section, tags, date_added, code, description, notes, instructions, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		component.ID,
		component.Name,
		component.Section,
		component.Tags,
		component.DateAdded.Format(model.DateFormat),
		component.Code,
		component.Description,
		component.Notes,
		component.Instructions,
		component.Status,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating component: %w", err)
	}

	return nil
}

// GetByID retrieves a single component, translating sql.ErrNoRows into the
// domain's NotFound error.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Component, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, section, tags, date_added, code, description, notes, instructions, status
		 FROM components
		 WHERE id = ?`,
		id,
	)

	component, err := scanComponent(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("component", id)
		}
		return nil, fmt.Errorf("sqlite: getting component %s: %w", id, err)
	}

	return component, nil
}

// List returns all components, newest date first, ties broken by name
// ascending.
func (db *DB) List(ctx context.Context) ([]model.Component, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, section, tags, date_added, code, description, notes, instructions, status
		 FROM components
		 ORDER BY date_added DESC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing components: %w", err)
	}
	defer rows.Close()

	components := []model.Component{}
	for rows.Next() {
		component, err := scanComponent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning component row: %w", err)
		}
		components = append(components, *component)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating components: %w", err)
	}

	return components, nil
}

// Update writes the full editable field set for the row. Partial-update
// semantics come from the service layer's fetch-then-save. date_added is
// included because clients may override it.
func (db *DB) Update(ctx context.Context, component *model.Component) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE components
		 SET name = ?, section = ?, tags = ?, date_added = ?, code = ?,
		     description = ?, notes = ?, instructions = ?, status = ?
		 WHERE id = ?`,
		component.Name,
		component.Section,
		component.Tags,
		component.DateAdded.Format(model.DateFormat),
		component.Code,
		component.Description,
		component.Notes,
		component.Instructions,
		component.Status,
		component.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating component %s: %w", component.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("component", component.ID)
	}

	return nil
}

// Delete removes a component. The component_files cascade (foreign keys are
// enabled at open) removes its attachments in the same statement.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM components WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting component %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("component", id)
	}

	return nil
}

// scanComponent reads one row into a Component, parsing the stored date
// string. Works for both sql.Row and sql.Rows via the scan func.
func scanComponent(scan func(dest ...any) error) (*model.Component, error) {
	var c model.Component
	var dateAdded string

	if err := scan(
		&c.ID, &c.Name, &c.Section, &c.Tags, &dateAdded,
		&c.Code, &c.Description, &c.Notes, &c.Instructions, &c.Status,
	); err != nil {
		return nil, err
	}

	parsed, err := time.Parse(model.DateFormat, dateAdded)
	if err != nil {
		return nil, fmt.Errorf("parsing date_added %q: %w", dateAdded, err)
	}
	c.DateAdded = parsed

	return &c, nil
}
