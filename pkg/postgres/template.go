package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

const templateColumns = `id, name, start_time, end_time, required_scouts, required_parents, location, is_active, recurrence`

func scanTemplate(row pgx.Row) (*model.ShiftTemplate, error) {
	var t model.ShiftTemplate
	err := row.Scan(&t.ID, &t.Name, &t.StartTime, &t.EndTime, &t.RequiredScouts, &t.RequiredParents,
		&t.Location, &t.IsActive, &t.Recurrence)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTemplate retrieves one shift template by id
func (d *DB) GetTemplate(ctx context.Context, id string) (*model.ShiftTemplate, error) {
	template, err := scanTemplate(d.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM shift_templates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.ErrTemplateNotFound, id)
		}
		return nil, fmt.Errorf("failed to query template: %w", err)
	}
	return template, nil
}

// GetTemplates retrieves all shift templates
func (d *DB) GetTemplates(ctx context.Context) ([]model.ShiftTemplate, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+templateColumns+` FROM shift_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []model.ShiftTemplate
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// InsertTemplate inserts a new shift template
func (d *DB) InsertTemplate(ctx context.Context, template *model.ShiftTemplate) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO shift_templates (id, name, start_time, end_time, required_scouts, required_parents, location, is_active, recurrence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, template.ID, template.Name, template.StartTime, template.EndTime, template.RequiredScouts,
		template.RequiredParents, template.Location, template.IsActive, template.Recurrence)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

// UpdateTemplate updates an existing shift template
func (d *DB) UpdateTemplate(ctx context.Context, template *model.ShiftTemplate) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE shift_templates SET name = $2, start_time = $3, end_time = $4, required_scouts = $5,
			required_parents = $6, location = $7, is_active = $8, recurrence = $9
		WHERE id = $1
	`, template.ID, template.Name, template.StartTime, template.EndTime, template.RequiredScouts,
		template.RequiredParents, template.Location, template.IsActive, template.Recurrence)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound(model.ErrTemplateNotFound, template.ID)
	}
	return nil
}
