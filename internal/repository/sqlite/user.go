package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sakif/momentkeep/internal/apperror"
	"github.com/sakif/momentkeep/internal/model"
	"github.com/sakif/momentkeep/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password, created_at, updated_at, last_login_at`

// CreateUser inserts a new account. created_at, updated_at and last_login_at
// all receive the same timestamp.
//
// The UNIQUE constraints on username and email are the final word on
// duplicates: a concurrent register that slipped past the service's pre-check
// still fails here, and is reported as a Conflict rather than a 500.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := db.clock.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastLoginAt = &now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.Secret,
		formatTime(now),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users.username"):
			return apperror.Conflict("user", "username")
		case isUniqueViolation(err, "users.email"):
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}
	return nil
}

// GetUserByID returns the user with the given internal ID.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// FindUserByEmail looks an account up by its login email.
func (db *DB) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: finding user by email: %w", err)
	}
	return user, nil
}

// UserExists reports which identifier is already taken: "username", "email",
// or "" if neither.
func (db *DB) UserExists(ctx context.Context, username, email string) (string, error) {
	var taken string
	err := db.conn.QueryRowContext(ctx,
		`SELECT CASE WHEN username = ? THEN 'username' ELSE 'email' END
		 FROM users
		 WHERE username = ? OR email = ?
		 ORDER BY username = ? DESC
		 LIMIT 1`,
		username, username, email, username,
	).Scan(&taken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("sqlite: checking existing user: %w", err)
	}
	return taken, nil
}

// TouchLogin records a successful login: last_login_at and updated_at both
// advance to now. The passed user is updated in place.
func (db *DB) TouchLogin(ctx context.Context, user *model.User) error {
	now := db.clock.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		formatTime(now), formatTime(now), user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording login for user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	user.LastLoginAt = &now
	user.UpdatedAt = now
	return nil
}

// ListUsers returns every account, newest registration first.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// CountOwned counts the records of each kind that reference userID.
func (db *DB) CountOwned(ctx context.Context, userID string) (model.UserStats, error) {
	var stats model.UserStats
	err := db.conn.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM journals   WHERE user_id = ?),
			(SELECT COUNT(*) FROM categories WHERE user_id = ?),
			(SELECT COUNT(*) FROM habits     WHERE user_id = ?),
			(SELECT COUNT(*) FROM todos      WHERE user_id = ?)`,
		userID, userID, userID, userID,
	).Scan(&stats.Journals, &stats.Categories, &stats.Habits, &stats.Todos)
	if err != nil {
		return model.UserStats{}, fmt.Errorf("sqlite: counting records of user %s: %w", userID, err)
	}
	return stats, nil
}

func scanUser(row scanner) (*model.User, error) {
	var (
		u                model.User
		created, updated string
		lastLogin        sql.NullString
	)
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Secret, &created, &updated, &lastLogin,
	); err != nil {
		return nil, err
	}

	if err := scanTimes(created, updated, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t, err := parseTime(lastLogin.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_login_at %q: %w", lastLogin.String, err)
		}
		u.LastLoginAt = &t
	}
	return &u, nil
}
