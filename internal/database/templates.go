package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateTemplate stores a named timeline snapshot. Template names are
// unique; saving an existing name replaces its snapshot.
func (d *Database) CreateTemplate(name, description, snapshot string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_template", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO templates (name, description, snapshot) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET description = excluded.description, snapshot = excluded.snapshot`,
		name, description, snapshot,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create template %q: %w", name, err)
	}
	return res.LastInsertId()
}

// GetTemplate returns one template including its snapshot JSON.
func (d *Database) GetTemplate(id int64) (*Template, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_template", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var t Template
	var desc sql.NullString
	var created int64
	err = d.db.QueryRowContext(ctx,
		`SELECT id, name, description, snapshot, created_at FROM templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &desc, &t.Snapshot, &created)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNoRows
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template %d: %w", id, err)
	}
	t.Description = desc.String
	t.CreatedAt = time.Unix(created, 0)
	return &t, nil
}

// ListTemplates returns all templates without snapshot bodies.
func (d *Database) ListTemplates() ([]Template, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_templates", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		var desc sql.NullString
		var created int64
		if err = rows.Scan(&t.ID, &t.Name, &desc, &created); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		t.Description = desc.String
		t.CreatedAt = time.Unix(created, 0)
		out = append(out, t)
	}
	err = rows.Err()
	return out, err
}

// DeleteTemplate removes a template by id.
func (d *Database) DeleteTemplate(id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_template", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template %d: %w", id, err)
	}
	return nil
}
