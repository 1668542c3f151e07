package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

const userColumns = `id, first_name, last_name, role, active, email, COALESCE(household_id, '')`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Role, &u.Active, &u.Email, &u.HouseholdID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser retrieves one user by id
func (d *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(d.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves one user by email address
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(d.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound(model.ErrUserNotFound, email)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// GetUsers retrieves all users
func (d *DB) GetUsers(ctx context.Context) ([]model.User, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// GetUserCredentials retrieves a user's id and password hash by email, for
// the HTTP login handler
func (d *DB) GetUserCredentials(ctx context.Context, email string) (userID, passwordHash string, err error) {
	err = d.pool.QueryRow(ctx, `SELECT id, password_hash FROM users WHERE email = $1`, email).Scan(&userID, &passwordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", model.NotFound(model.ErrUserNotFound, email)
		}
		return "", "", fmt.Errorf("failed to query user credentials: %w", err)
	}
	return userID, passwordHash, nil
}
