package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"geocms/internal/models"
)

const userColumns = `id, username, name, email, role, password_hash, is_active,
                     last_activity, created_at, updated_at`

// CreateOrUpdateUser upserts a portal account by username. The password
// hash is only written on first insert; role and profile fields follow the
// latest value.
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	lastActivity := user.LastActivity
	if lastActivity.IsZero() {
		lastActivity = time.Now()
	}
	now := time.Now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (username, name, email, role, password_hash, is_active,
                            last_activity, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(username) DO UPDATE SET
             name = excluded.name,
             email = excluded.email,
             role = excluded.role,
             is_active = excluded.is_active,
             updated_at = excluded.updated_at`,
		user.Username,
		user.Name,
		user.Email,
		user.Role,
		user.PasswordHash,
		user.IsActive,
		lastActivity,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}

	stored, err := db.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return db.queryUser(ctx, query, username)
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	var email sql.NullString
	var lastActivity sql.NullTime
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Username, &user.Name, &email, &user.Role, &user.PasswordHash,
		&user.IsActive, &lastActivity, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Email = email.String
	if lastActivity.Valid {
		user.LastActivity = lastActivity.Time
	}
	return &user, nil
}

func (db *DB) UpdateUserActivity(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_activity = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), time.Now(), id)
	return err
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username ASC`
	return db.queryUsers(ctx, query)
}

func (db *DB) GetUsersByRole(ctx context.Context, role string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ? AND is_active = 1 ORDER BY username ASC`
	return db.queryUsers(ctx, query, role)
}

func (db *DB) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		var email sql.NullString
		var lastActivity sql.NullTime
		err := rows.Scan(
			&user.ID, &user.Username, &user.Name, &email, &user.Role, &user.PasswordHash,
			&user.IsActive, &lastActivity, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Email = email.String
		if lastActivity.Valid {
			user.LastActivity = lastActivity.Time
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
