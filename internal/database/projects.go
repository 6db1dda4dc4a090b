package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoRows indicates the requested record does not exist.
var ErrNoRows = errors.New("record not found")

// CreateProject inserts a new project and returns its id.
func (d *Database) CreateProject(name, aspectRatio string, durationInFrames int, snapshot string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_project", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO projects (name, aspect_ratio, duration_in_frames, snapshot) VALUES (?, ?, ?, ?)`,
		name, aspectRatio, durationInFrames, snapshot,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create project: %w", err)
	}
	return res.LastInsertId()
}

// GetProject returns one project including its snapshot JSON.
func (d *Database) GetProject(id int64) (*Project, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_project", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var p Project
	var created, updated int64
	err = d.db.QueryRowContext(ctx,
		`SELECT id, name, aspect_ratio, duration_in_frames, snapshot, created_at, updated_at
		 FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.AspectRatio, &p.DurationInFrames, &p.Snapshot, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNoRows
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	p.CreatedAt = time.Unix(created, 0)
	p.UpdatedAt = time.Unix(updated, 0)
	return &p, nil
}

// ListProjects returns all projects, most recently updated first, without
// snapshot bodies.
func (d *Database) ListProjects() ([]Project, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_projects", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, name, aspect_ratio, duration_in_frames, created_at, updated_at
		 FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		var created, updated int64
		if err = rows.Scan(&p.ID, &p.Name, &p.AspectRatio, &p.DurationInFrames, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.CreatedAt = time.Unix(created, 0)
		p.UpdatedAt = time.Unix(updated, 0)
		out = append(out, p)
	}
	err = rows.Err()
	return out, err
}

// UpdateProject replaces a project's metadata and snapshot.
func (d *Database) UpdateProject(id int64, name, aspectRatio string, durationInFrames int, snapshot string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_project", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, aspect_ratio = ?, duration_in_frames = ?, snapshot = ?,
		 updated_at = strftime('%s', 'now') WHERE id = ?`,
		name, aspectRatio, durationInFrames, snapshot, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update project %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		err = ErrNoRows
		return ErrNoRows
	}
	return nil
}

// DeleteProject removes a project and, via cascade, its autosave.
func (d *Database) DeleteProject(id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_project", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	return nil
}

// SaveAutosave upserts the latest autosave snapshot for a project.
func (d *Database) SaveAutosave(projectID int64, snapshot string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_autosave", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO autosaves (project_id, snapshot, saved_at)
		 VALUES (?, ?, strftime('%s', 'now'))
		 ON CONFLICT(project_id) DO UPDATE SET snapshot = excluded.snapshot, saved_at = excluded.saved_at`,
		projectID, snapshot,
	)
	if err != nil {
		return fmt.Errorf("failed to save autosave for project %d: %w", projectID, err)
	}
	return nil
}

// GetAutosave returns the latest autosave snapshot for a project, or
// empty string when none exists (a fresh project is not an error).
func (d *Database) GetAutosave(projectID int64) (string, time.Time, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_autosave", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var snapshot string
	var savedAt int64
	err = d.db.QueryRowContext(ctx,
		`SELECT snapshot, saved_at FROM autosaves WHERE project_id = ?`, projectID,
	).Scan(&snapshot, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get autosave for project %d: %w", projectID, err)
	}
	return snapshot, time.Unix(savedAt, 0), nil
}
