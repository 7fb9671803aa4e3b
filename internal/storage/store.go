// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/moneysplitter/backend/internal/models"
)

// Store defines the persistence operations the services need.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer, and keeps tests free of a process-wide
// connection singleton: a store is constructed once and injected.
type Store interface {
	// CreateUser persists a new user. The ID and CreatedAt fields are
	// populated by the store if unset. Fails if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID, including back-reference lists.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// ListUsers retrieves all users.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CreateGroup persists a new group and adds the group to each member's
	// back-reference index in the same transaction.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID, including members and expense IDs.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves all groups.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// DeleteGroup removes a group, cascading the group reference out of
	// every member's back-reference index.
	DeleteGroup(ctx context.Context, groupID string) error

	// CreateExpense persists an expense with its shares and pushes the
	// expense ID onto the payer's and every participant's back-reference
	// index, all in one transaction. Back-reference writes are
	// add-if-absent, so retries never duplicate entries.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID, including its shares.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpenses retrieves all expenses.
	ListExpenses(ctx context.Context) ([]*models.Expense, error)

	// DeleteExpense removes the expense ID from every back-reference index
	// and then deletes the expense, in one transaction with the reference
	// removal ordered first.
	DeleteExpense(ctx context.Context, expenseID string) error

	// UpdateShare overwrites one participant share's paid state.
	UpdateShare(ctx context.Context, expenseID string, share *models.ParticipantShare) error

	// SetContentRecord stores the content hash and ledger reference on an
	// existing expense.
	SetContentRecord(ctx context.Context, expenseID, contentHash, ledgerRef string) error

	// Close releases any resources held by the store.
	Close() error
}
