package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moneysplitter/backend/internal/errs"
	"github.com/moneysplitter/backend/internal/models"
)

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errs.Validation("email %q is already registered", user.Email)
		}
		return errs.Wrap(errs.KindInternal, err, "failed to insert user")
	}

	return nil
}

// GetUser retrieves a user by ID, including back-reference lists.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM users WHERE id = ?",
		userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("user not found: %s", userID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "failed to get user")
	}

	if user.GroupIDs, err = s.stringColumn(ctx,
		"SELECT group_id FROM user_groups WHERE user_id = ? ORDER BY group_id", userID); err != nil {
		return nil, err
	}
	if user.ExpenseIDs, err = s.stringColumn(ctx,
		"SELECT expense_id FROM user_expenses WHERE user_id = ? ORDER BY expense_id", userID); err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsers retrieves all users, without back-reference lists.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, created_at FROM users ORDER BY created_at",
	)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "failed to list users")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt); err != nil {
			return nil, errs.Wrap(errs.KindInternal, err, "failed to scan user")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "failed to iterate users")
	}

	return users, nil
}

// stringColumn runs a single-column query and collects the values.
func (s *SQLiteStore) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "query failed")
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errs.Wrap(errs.KindInternal, err, "scan failed")
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "row iteration failed")
	}
	return values, nil
}
