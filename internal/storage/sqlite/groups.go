package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/moneysplitter/backend/internal/errs"
	"github.com/moneysplitter/backend/internal/models"
)

// CreateGroup persists a new group, its member rows, and each member's
// group back-reference in one transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)",
		group.ID, group.Name, group.CreatedAt,
	)
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to insert group")
	}

	for i, userID := range group.MemberIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id, position) VALUES (?, ?, ?)",
			group.ID, userID, i,
		)
		if err != nil {
			return errs.Wrap(errs.KindInternal, err, "failed to insert group member")
		}
		// Add-if-absent back-reference.
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO user_groups (user_id, group_id) VALUES (?, ?)",
			userID, group.ID,
		)
		if err != nil {
			return errs.Wrap(errs.KindInternal, err, "failed to insert group back-reference")
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to commit transaction")
	}

	return nil
}

// GetGroup retrieves a group by ID, including members in insertion order
// and the IDs of its expenses.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("group not found: %s", groupID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "failed to get group")
	}

	if group.MemberIDs, err = s.stringColumn(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY position", groupID); err != nil {
		return nil, err
	}
	if group.ExpenseIDs, err = s.stringColumn(ctx,
		"SELECT id FROM expenses WHERE group_id = ? ORDER BY created_at", groupID); err != nil {
		return nil, err
	}

	return group, nil
}

// ListGroups retrieves all groups with their members.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM groups ORDER BY created_at",
	)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "failed to list groups")
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
			return nil, errs.Wrap(errs.KindInternal, err, "failed to scan group")
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "failed to iterate groups")
	}

	for _, group := range groups {
		if group.MemberIDs, err = s.stringColumn(ctx,
			"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY position", group.ID); err != nil {
			return nil, err
		}
	}

	return groups, nil
}

// DeleteGroup removes a group by ID. A group that still has expenses is
// rejected; the caller must delete them first. The group reference is
// removed from every member's back-reference index before the group row
// goes away, so a partial failure never leaves a dangling back-reference.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&exists)
	if err == sql.ErrNoRows {
		return errs.NotFound("group not found: %s", groupID)
	}
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to check group existence")
	}

	var expenses int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses WHERE group_id = ?", groupID).Scan(&expenses)
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to count group expenses")
	}
	if expenses > 0 {
		return errs.Validation("group %s still has %d expense(s); delete them before deleting the group", groupID, expenses)
	}

	// Remove-if-present back-references first.
	if _, err = tx.ExecContext(ctx, "DELETE FROM user_groups WHERE group_id = ?", groupID); err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to remove group back-references")
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ?", groupID); err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to remove group members")
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID); err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to delete group")
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to commit transaction")
	}

	return nil
}
