package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

// GetHousehold retrieves one household by id
func (d *DB) GetHousehold(ctx context.Context, id string) (*model.Household, error) {
	var h model.Household
	err := d.pool.QueryRow(ctx, `SELECT id, name, link_code FROM households WHERE id = $1`, id).
		Scan(&h.ID, &h.Name, &h.LinkCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.ErrHouseholdNotFound, id)
		}
		return nil, fmt.Errorf("failed to query household: %w", err)
	}
	return &h, nil
}

// UpdateHousehold updates an existing household record
func (d *DB) UpdateHousehold(ctx context.Context, household *model.Household) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE households SET name = $2, link_code = $3 WHERE id = $1
	`, household.ID, household.Name, household.LinkCode)
	if err != nil {
		return fmt.Errorf("failed to update household: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound(model.ErrHouseholdNotFound, household.ID)
	}
	return nil
}

// GetInviteCode retrieves an invite code record by its code
func (d *DB) GetInviteCode(ctx context.Context, code string) (*model.InviteCode, error) {
	var i model.InviteCode
	err := d.pool.QueryRow(ctx, `
		SELECT id, code, household_id, expires_at, redeemed FROM invite_codes WHERE code = $1
	`, code).Scan(&i.ID, &i.Code, &i.HouseholdID, &i.ExpiresAt, &i.Redeemed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.ErrInviteCodeNotFound, code)
		}
		return nil, fmt.Errorf("failed to query invite code: %w", err)
	}
	return &i, nil
}

// InsertInviteCode inserts a new invite code
func (d *DB) InsertInviteCode(ctx context.Context, invite *model.InviteCode) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO invite_codes (id, code, household_id, expires_at, redeemed)
		VALUES ($1, $2, $3, $4, $5)
	`, invite.ID, invite.Code, invite.HouseholdID, invite.ExpiresAt, invite.Redeemed)
	if err != nil {
		return fmt.Errorf("failed to insert invite code: %w", err)
	}
	return nil
}

// UpdateInviteCode updates an existing invite code
func (d *DB) UpdateInviteCode(ctx context.Context, invite *model.InviteCode) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE invite_codes SET redeemed = $2, expires_at = $3 WHERE id = $1
	`, invite.ID, invite.Redeemed, invite.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to update invite code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound(model.ErrInviteCodeNotFound, invite.ID)
	}
	return nil
}

// GetMessage retrieves one broadcast message by id
func (d *DB) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	err := d.pool.QueryRow(ctx, `
		SELECT id, title, body, audience, priority, sent_at FROM messages WHERE id = $1
	`, id).Scan(&m.ID, &m.Title, &m.Body, &m.Audience, &m.Priority, &m.SentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.ErrMessageNotFound, id)
		}
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	return &m, nil
}

// GetMessages retrieves all broadcast messages, newest first
func (d *DB) GetMessages(ctx context.Context) ([]model.Message, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, title, body, audience, priority, sent_at FROM messages ORDER BY sent_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Title, &m.Body, &m.Audience, &m.Priority, &m.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// InsertMessage inserts a new broadcast message record
func (d *DB) InsertMessage(ctx context.Context, message *model.Message) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO messages (id, title, body, audience, priority, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, message.ID, message.Title, message.Body, message.Audience, message.Priority, message.SentAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}
