package postgres

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

const linkCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newLinkCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate link code: %w", err)
	}
	for i, b := range buf {
		buf[i] = linkCodeAlphabet[int(b)%len(linkCodeAlphabet)]
	}
	return string(buf), nil
}

// LinkScoutToHousehold attaches a scout account to a household
func (d *DB) LinkScoutToHousehold(ctx context.Context, scoutID, householdID string) error {
	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM households WHERE id = $1)`, householdID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to query household: %w", err)
	}
	if !exists {
		return model.NotFound(model.ErrHouseholdNotFound, householdID)
	}

	tag, err := d.pool.Exec(ctx, `UPDATE users SET household_id = $2 WHERE id = $1`, scoutID, householdID)
	if err != nil {
		return fmt.Errorf("failed to link scout to household: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound(model.ErrUserNotFound, scoutID)
	}
	return nil
}

// RegenerateHouseholdLinkCode replaces a household's link code and returns
// the new one
func (d *DB) RegenerateHouseholdLinkCode(ctx context.Context, householdID string) (string, error) {
	code, err := newLinkCode()
	if err != nil {
		return "", err
	}

	tag, err := d.pool.Exec(ctx, `UPDATE households SET link_code = $2 WHERE id = $1`, householdID, code)
	if err != nil {
		return "", fmt.Errorf("failed to update household link code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", model.NotFound(model.ErrHouseholdNotFound, householdID)
	}

	return code, nil
}
