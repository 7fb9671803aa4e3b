package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/moneysplitter/backend/internal/errs"
	"github.com/moneysplitter/backend/internal/models"
)

// CreateExpense persists an expense with its shares and back-references in
// one transaction, so a failed create is never partially visible.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, name, amount, payer_id, group_id, payment_ref, content_hash, ledger_ref, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Name, expense.Amount.String(), expense.PayerID, expense.GroupID,
		nullable(expense.PaymentRef), nullable(expense.ContentHash), nullable(expense.LedgerRef),
		expense.CreatedAt,
	)
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to insert expense")
	}

	for i := range expense.Shares {
		share := &expense.Shares[i]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_shares (expense_id, participant_id, owed_amount, amount_paid, settled)
			 VALUES (?, ?, ?, ?, ?)`,
			expense.ID, share.ParticipantID, share.OwedAmount.String(), share.AmountPaid.String(), share.Settled,
		)
		if err != nil {
			return errs.Wrap(errs.KindInternal, err, "failed to insert expense share")
		}
	}

	// Back-references for every participant and the payer, add-if-absent.
	refs := make([]string, 0, len(expense.Shares)+1)
	for i := range expense.Shares {
		refs = append(refs, expense.Shares[i].ParticipantID)
	}
	refs = append(refs, expense.PayerID)
	for _, userID := range refs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO user_expenses (user_id, expense_id) VALUES (?, ?)",
			userID, expense.ID,
		)
		if err != nil {
			return errs.Wrap(errs.KindInternal, err, "failed to insert expense back-reference")
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to commit transaction")
	}

	return nil
}

// GetExpense retrieves an expense by ID, including its shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var amount string
	var paymentRef, contentHash, ledgerRef sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, amount, payer_id, group_id, payment_ref, content_hash, ledger_ref, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.Name, &amount, &expense.PayerID, &expense.GroupID,
		&paymentRef, &contentHash, &ledgerRef, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("expense not found: %s", expenseID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "failed to get expense")
	}

	if expense.Amount, err = scanDecimal(amount); err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "bad amount on expense %s", expenseID)
	}
	expense.PaymentRef = paymentRef.String
	expense.ContentHash = contentHash.String
	expense.LedgerRef = ledgerRef.String

	if expense.Shares, err = s.getShares(ctx, expenseID); err != nil {
		return nil, err
	}

	return expense, nil
}

// ListExpenses retrieves all expenses with their shares.
func (s *SQLiteStore) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	ids, err := s.stringColumn(ctx, "SELECT id FROM expenses ORDER BY created_at")
	if err != nil {
		return nil, err
	}

	expenses := make([]*models.Expense, 0, len(ids))
	for _, id := range ids {
		expense, err := s.GetExpense(ctx, id)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, nil
}

// DeleteExpense removes an expense. Back-reference rows go first so a crash
// mid-transaction can never leave a reference to a deleted expense.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM expenses WHERE id = ?", expenseID).Scan(&exists)
	if err == sql.ErrNoRows {
		return errs.NotFound("expense not found: %s", expenseID)
	}
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to check expense existence")
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM user_expenses WHERE expense_id = ?", expenseID); err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to remove expense back-references")
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM expense_shares WHERE expense_id = ?", expenseID); err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to remove expense shares")
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID); err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to delete expense")
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to commit transaction")
	}

	return nil
}

// UpdateShare overwrites one participant share's paid state.
func (s *SQLiteStore) UpdateShare(ctx context.Context, expenseID string, share *models.ParticipantShare) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE expense_shares SET amount_paid = ?, settled = ?
		 WHERE expense_id = ? AND participant_id = ?`,
		share.AmountPaid.String(), share.Settled, expenseID, share.ParticipantID,
	)
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to update share")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to read update result")
	}
	if n == 0 {
		return errs.NotFound("no share for participant %s on expense %s", share.ParticipantID, expenseID)
	}
	return nil
}

// SetContentRecord stores the content hash and ledger reference on an expense.
func (s *SQLiteStore) SetContentRecord(ctx context.Context, expenseID, contentHash, ledgerRef string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET content_hash = ?, ledger_ref = ? WHERE id = ?",
		contentHash, ledgerRef, expenseID,
	)
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to set content record")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Wrap(errs.KindInternal, err, "failed to read update result")
	}
	if n == 0 {
		return errs.NotFound("expense not found: %s", expenseID)
	}
	return nil
}

func (s *SQLiteStore) getShares(ctx context.Context, expenseID string) ([]models.ParticipantShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_id, owed_amount, amount_paid, settled
		 FROM expense_shares WHERE expense_id = ? ORDER BY participant_id`,
		expenseID,
	)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "failed to get shares")
	}
	defer rows.Close()

	var shares []models.ParticipantShare
	for rows.Next() {
		var share models.ParticipantShare
		var owed, paid string
		if err := rows.Scan(&share.ParticipantID, &owed, &paid, &share.Settled); err != nil {
			return nil, errs.Wrap(errs.KindInternal, err, "failed to scan share")
		}
		if share.OwedAmount, err = scanDecimal(owed); err != nil {
			return nil, errs.Wrap(errs.KindInternal, err, "bad owed amount on expense %s", expenseID)
		}
		if share.AmountPaid, err = scanDecimal(paid); err != nil {
			return nil, errs.Wrap(errs.KindInternal, err, "bad paid amount on expense %s", expenseID)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindInternal, err, "failed to iterate shares")
	}

	return shares, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
