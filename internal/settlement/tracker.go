// Package settlement tracks the paid/unpaid state of an expense's
// participant shares and reconciles partial payments against owed amounts.
package settlement

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/moneysplitter/backend/internal/errs"
	"github.com/moneysplitter/backend/internal/models"
	"github.com/moneysplitter/backend/internal/storage"
)

// Tracker mutates participant shares through the store. Writes to the same
// expense are serialized with a per-expense mutex; last-writer-wins is not
// acceptable for payment recording.
type Tracker struct {
	store storage.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates a Tracker backed by the given store.
func NewTracker(store storage.Store) *Tracker {
	return &Tracker{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockExpense returns the mutex serializing writes to one expense.
func (t *Tracker) lockExpense(expenseID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[expenseID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[expenseID] = lock
	}
	return lock
}

// Forget drops the lock entry for an expense. Call it once the expense is
// deleted so the lock map does not grow for the life of the process.
func (t *Tracker) Forget(expenseID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.locks, expenseID)
}

// RecordPayment increases a participant's AmountPaid by amount and
// recomputes the share's Settled flag.
//
// Overpayment is rejected, not clamped: a payment that would push
// AmountPaid past OwedAmount fails so the local ledger never disagrees
// with the external processor. Repeated calls accumulate; there is no
// dedup key, so retrying a payment submits it again.
func (t *Tracker) RecordPayment(ctx context.Context, expenseID, participantID string, amount decimal.Decimal) (*models.ParticipantShare, error) {
	if !amount.IsPositive() {
		return nil, errs.Validation("payment amount must be positive, got %s", amount)
	}

	lock := t.lockExpense(expenseID)
	lock.Lock()
	defer lock.Unlock()

	expense, err := t.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	share := expense.Share(participantID)
	if share == nil {
		return nil, errs.NotFound("participant %s has no share on expense %s", participantID, expenseID)
	}

	newPaid := share.AmountPaid.Add(amount)
	if newPaid.GreaterThan(share.OwedAmount) {
		return nil, errs.Overpayment("payment of %s would bring participant %s to %s paid, above the owed %s",
			amount, participantID, newPaid, share.OwedAmount)
	}

	share.AmountPaid = newPaid
	share.Settled = newPaid.GreaterThanOrEqual(share.OwedAmount)

	if err := t.store.UpdateShare(ctx, expenseID, share); err != nil {
		return nil, err
	}

	slog.Info("Payment recorded",
		"expense_id", expenseID,
		"participant_id", participantID,
		"amount", amount.String(),
		"amount_paid", share.AmountPaid.String(),
		"settled", share.Settled,
	)

	return share, nil
}

// ExpenseStatus reports the aggregate settlement state of an expense.
func (t *Tracker) ExpenseStatus(ctx context.Context, expenseID string) (models.ExpenseStatus, error) {
	expense, err := t.store.GetExpense(ctx, expenseID)
	if err != nil {
		return "", err
	}
	return expense.Status(), nil
}

// OutstandingBalance reports how much a participant still owes on an
// expense. Never negative.
func (t *Tracker) OutstandingBalance(ctx context.Context, expenseID, participantID string) (decimal.Decimal, error) {
	expense, err := t.store.GetExpense(ctx, expenseID)
	if err != nil {
		return decimal.Zero, err
	}
	share := expense.Share(participantID)
	if share == nil {
		return decimal.Zero, errs.NotFound("participant %s has no share on expense %s", participantID, expenseID)
	}
	return share.Outstanding(), nil
}
