package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateRender inserts a new render record in pending state.
func (d *Database) CreateRender(id string, projectID int64, format, codec string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_render", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO renders (id, project_id, status, format, codec) VALUES (?, ?, 'pending', ?, ?)`,
		id, nullableID(projectID), format, codec,
	)
	if err != nil {
		return fmt.Errorf("failed to create render %s: %w", id, err)
	}
	return nil
}

// UpdateRenderProgress updates a running job's progress fraction.
func (d *Database) UpdateRenderProgress(id string, progress float64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_render_progress", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		`UPDATE renders SET progress = ?, updated_at = strftime('%s', 'now') WHERE id = ?`,
		progress, id,
	)
	return err
}

// FinishRender records a job's terminal state.
func (d *Database) FinishRender(id, status, outputPath, message string, size int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("finish_render", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		`UPDATE renders SET status = ?, output_path = ?, message = ?, size = ?,
		 progress = CASE WHEN ? = 'done' THEN 1.0 ELSE progress END,
		 updated_at = strftime('%s', 'now') WHERE id = ?`,
		status, outputPath, message, size, status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish render %s: %w", id, err)
	}
	return nil
}

// GetRender returns one render record.
func (d *Database) GetRender(id string) (*RenderRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_render", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx,
		`SELECT id, project_id, status, format, codec, progress, output_path, size, message, created_at, updated_at
		 FROM renders WHERE id = ?`, id)
	rec, scanErr := scanRender(row)
	if errors.Is(scanErr, sql.ErrNoRows) {
		err = ErrNoRows
		return nil, ErrNoRows
	}
	if scanErr != nil {
		err = scanErr
		return nil, fmt.Errorf("failed to get render %s: %w", id, scanErr)
	}
	return rec, nil
}

// ListRenders returns all render records, newest first.
func (d *Database) ListRenders() ([]RenderRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_renders", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, project_id, status, format, codec, progress, output_path, size, message, created_at, updated_at
		 FROM renders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list renders: %w", err)
	}
	defer rows.Close()

	var out []RenderRecord
	for rows.Next() {
		rec, scanErr := scanRender(rows)
		if scanErr != nil {
			err = scanErr
			return nil, fmt.Errorf("failed to scan render: %w", scanErr)
		}
		out = append(out, *rec)
	}
	err = rows.Err()
	return out, err
}

// DeleteRender removes a render record. The caller is responsible for
// removing the output file.
func (d *Database) DeleteRender(id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_render", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `DELETE FROM renders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete render %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRender(row rowScanner) (*RenderRecord, error) {
	var rec RenderRecord
	var projectID sql.NullInt64
	var outputPath, message sql.NullString
	var created, updated int64
	err := row.Scan(&rec.ID, &projectID, &rec.Status, &rec.Format, &rec.Codec,
		&rec.Progress, &outputPath, &rec.Size, &message, &created, &updated)
	if err != nil {
		return nil, err
	}
	rec.ProjectID = projectID.Int64
	rec.OutputPath = outputPath.String
	rec.Message = message.String
	rec.CreatedAt = time.Unix(created, 0)
	rec.UpdatedAt = time.Unix(updated, 0)
	return &rec, nil
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}
