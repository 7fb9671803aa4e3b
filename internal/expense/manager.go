// Package expense orchestrates the expense lifecycle: validation, split
// materialization, optional external-payment verification, deletion, and
// best-effort ledger enrichment.
package expense

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/moneysplitter/backend/internal/adapters"
	"github.com/moneysplitter/backend/internal/calculator"
	"github.com/moneysplitter/backend/internal/errs"
	"github.com/moneysplitter/backend/internal/models"
	"github.com/moneysplitter/backend/internal/storage"
)

// splitDetailsMetadataKey is the payment metadata field that may carry the
// authoritative split, as a JSON array of SplitDetail.
const splitDetailsMetadataKey = "splitDetails"

// Options configures lifecycle policy.
type Options struct {
	// RequirePayerShare controls whether the payer must appear in the
	// participant list and owe a share of their own expense. When false
	// the payer may sit outside the participant list but must still be a
	// member of the group.
	RequirePayerShare bool
}

// DefaultOptions treats the payer as a participant.
func DefaultOptions() Options {
	return Options{RequirePayerShare: true}
}

// SplitDetail is one caller-supplied owed amount.
type SplitDetail struct {
	ParticipantID string          `json:"participantId"`
	OwedAmount    decimal.Decimal `json:"owedAmount"`
}

// CreateRequest carries everything needed to create an expense.
// Exactly one split source applies: explicit SplitDetails, Weights, or
// neither (equal split).
type CreateRequest struct {
	Name           string                     `json:"name"`
	Amount         decimal.Decimal            `json:"amount"`
	PayerID        string                     `json:"payerId"`
	ParticipantIDs []string                   `json:"participantIds"`
	GroupID        string                     `json:"groupId"`
	SplitDetails   []SplitDetail              `json:"splitDetails,omitempty"`
	Weights        map[string]decimal.Decimal `json:"weights,omitempty"`
	PaymentRef     string                     `json:"paymentReference,omitempty"`
}

// Manager implements the expense lifecycle over an injected store and
// the collaborator adapters.
type Manager struct {
	store    storage.Store
	payments adapters.PaymentProvider
	pinner   adapters.ContentPinner
	ledger   adapters.LedgerClient
	opts     Options
}

// NewManager creates a Manager. The pinner and ledger adapters may be nil
// when the ledger enrichment is not configured.
func NewManager(store storage.Store, payments adapters.PaymentProvider, pinner adapters.ContentPinner, ledger adapters.LedgerClient, opts Options) *Manager {
	return &Manager{
		store:    store,
		payments: payments,
		pinner:   pinner,
		ledger:   ledger,
		opts:     opts,
	}
}

// CreateExpense validates the request, materializes participant shares, and
// persists the expense together with its back-references in one unit.
func (m *Manager) CreateExpense(ctx context.Context, req *CreateRequest) (*models.Expense, error) {
	if err := m.validate(ctx, req); err != nil {
		return nil, err
	}

	shares, err := m.materializeShares(req)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Name:       req.Name,
		Amount:     req.Amount,
		PayerID:    req.PayerID,
		GroupID:    req.GroupID,
		Shares:     shares,
		PaymentRef: req.PaymentRef,
	}
	if err := m.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense persistence failed", "error", err)
		return nil, err
	}

	expensesCreated.Inc()
	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"amount", expense.Amount.String(),
		"participants", len(expense.Shares),
	)

	return expense, nil
}

// ConfirmWithExternalPayment verifies the referenced payment and persists
// the expense only if the processor reports it succeeded. On any other
// status, or on adapter failure, nothing is persisted.
func (m *Manager) ConfirmWithExternalPayment(ctx context.Context, req *CreateRequest) (*models.Expense, error) {
	if req.PaymentRef == "" {
		return nil, errs.Validation("paymentReference is required for payment confirmation")
	}

	payment, err := m.payments.RetrievePayment(ctx, req.PaymentRef)
	if err != nil {
		slog.Error("Payment retrieval failed", "payment_ref", req.PaymentRef, "error", err)
		return nil, err
	}
	if payment.Status != adapters.PaymentSucceeded {
		paymentsRejected.Inc()
		return nil, errs.PaymentNotConfirmed("payment %s has status %q, expense will not be added",
			req.PaymentRef, payment.Status)
	}

	// The processor's metadata may carry the authoritative split.
	if raw, ok := payment.Metadata[splitDetailsMetadataKey]; ok && raw != "" {
		var details []SplitDetail
		if err := json.Unmarshal([]byte(raw), &details); err != nil {
			return nil, errs.Validation("payment metadata %s is not valid JSON: %v", splitDetailsMetadataKey, err)
		}
		req.SplitDetails = details
	}

	expense, err := m.CreateExpense(ctx, req)
	if err != nil {
		return nil, err
	}

	paymentsConfirmed.Inc()
	slog.Info("Payment verified and expense created", "expense_id", expense.ID, "payment_ref", req.PaymentRef)
	return expense, nil
}

// GetExpense retrieves an expense by ID.
func (m *Manager) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return m.store.GetExpense(ctx, expenseID)
}

// ListExpenses retrieves all expenses.
func (m *Manager) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return m.store.ListExpenses(ctx)
}

// DeleteExpense removes the expense and its back-references as one unit.
func (m *Manager) DeleteExpense(ctx context.Context, expenseID string) error {
	if err := m.store.DeleteExpense(ctx, expenseID); err != nil {
		return err
	}
	expensesDeleted.Inc()
	slog.Info("Expense deleted", "expense_id", expenseID)
	return nil
}

// AttachContentRecord stores a caller-supplied content hash and ledger
// transaction reference on an existing expense.
func (m *Manager) AttachContentRecord(ctx context.Context, expenseID, contentHash, ledgerRef string) error {
	if contentHash == "" {
		return errs.Validation("contentHash is required")
	}
	if ledgerRef == "" {
		return errs.Validation("ledgerReference is required")
	}
	return m.store.SetContentRecord(ctx, expenseID, contentHash, ledgerRef)
}

// RecordOnLedger pins the expense document, submits the content hash to the
// ledger, and attaches the resulting record. The enrichment is best-effort:
// a failure at any step is reported to the caller but leaves the expense
// valid and untouched.
func (m *Manager) RecordOnLedger(ctx context.Context, expenseID string) (*models.Expense, error) {
	if m.pinner == nil || m.ledger == nil {
		return nil, errs.AdapterUnavailable(nil, "ledger recording is not configured")
	}

	expense, err := m.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	contentHash, err := m.pinner.PinJSON(ctx, expense)
	if err != nil {
		ledgerRecords.WithLabelValues("pin_failed").Inc()
		slog.Error("Content pinning failed", "expense_id", expenseID, "error", err)
		return nil, err
	}

	ledgerRef, err := m.ledger.SubmitRecord(ctx, []byte(contentHash))
	if err != nil {
		ledgerRecords.WithLabelValues("submit_failed").Inc()
		slog.Error("Ledger submission failed", "expense_id", expenseID, "content_hash", contentHash, "error", err)
		return nil, err
	}

	if err := m.store.SetContentRecord(ctx, expenseID, contentHash, ledgerRef); err != nil {
		ledgerRecords.WithLabelValues("attach_failed").Inc()
		return nil, err
	}

	ledgerRecords.WithLabelValues("ok").Inc()
	slog.Info("Expense recorded on ledger",
		"expense_id", expenseID,
		"content_hash", contentHash,
		"ledger_ref", ledgerRef,
	)

	expense.ContentHash = contentHash
	expense.LedgerRef = ledgerRef
	return expense, nil
}

// validate enforces the create invariants: positive amount, non-empty
// participants, group existence, and group membership for every participant
// and the payer.
func (m *Manager) validate(ctx context.Context, req *CreateRequest) error {
	if req.Name == "" {
		return errs.Validation("name is required")
	}
	if !req.Amount.IsPositive() {
		return errs.Validation("amount must be positive, got %s", req.Amount)
	}
	if len(req.ParticipantIDs) == 0 {
		return errs.Validation("participantIds must not be empty")
	}
	if req.PayerID == "" {
		return errs.Validation("payerId is required")
	}
	if req.GroupID == "" {
		return errs.Validation("groupId is required")
	}

	group, err := m.store.GetGroup(ctx, req.GroupID)
	if err != nil {
		return err
	}

	for _, p := range req.ParticipantIDs {
		if !group.HasMember(p) {
			return errs.Membership("participant %s is not a member of group %s", p, req.GroupID)
		}
	}
	if !group.HasMember(req.PayerID) {
		return errs.Membership("payer %s is not a member of group %s", req.PayerID, req.GroupID)
	}

	if m.opts.RequirePayerShare && !contains(req.ParticipantIDs, req.PayerID) {
		return errs.Validation("payerId %s must be one of the participants", req.PayerID)
	}

	return nil
}

// materializeShares turns the request's split source into participant shares.
func (m *Manager) materializeShares(req *CreateRequest) ([]models.ParticipantShare, error) {
	var owed map[string]decimal.Decimal
	var err error
	switch {
	case len(req.SplitDetails) > 0:
		amounts := make(map[string]decimal.Decimal, len(req.SplitDetails))
		for _, d := range req.SplitDetails {
			amounts[d.ParticipantID] = d.OwedAmount
		}
		owed, err = calculator.FromAmounts(req.Amount, req.ParticipantIDs, amounts)
	case len(req.Weights) > 0:
		owed, err = calculator.Weighted(req.Amount, req.ParticipantIDs, req.Weights)
	default:
		owed, err = calculator.Equal(req.Amount, req.ParticipantIDs)
	}
	if err != nil {
		return nil, err
	}

	shares := make([]models.ParticipantShare, len(req.ParticipantIDs))
	for i, p := range req.ParticipantIDs {
		shares[i] = models.ParticipantShare{
			ParticipantID: p,
			OwedAmount:    owed[p],
			AmountPaid:    decimal.Zero,
			// A rounded-away share owes nothing and is settled from the start.
			Settled: !owed[p].IsPositive(),
		}
	}
	return shares, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
