package models

import "github.com/shopspring/decimal"

// ExpenseStatus describes the aggregate settlement state of an expense.
type ExpenseStatus string

const (
	// StatusOpen means no participant share has been settled.
	StatusOpen ExpenseStatus = "open"
	// StatusPartiallySettled means some but not all shares are settled.
	StatusPartiallySettled ExpenseStatus = "partially_settled"
	// StatusSettled means every share is settled.
	StatusSettled ExpenseStatus = "settled"
)

// Expense represents a shared cost paid by one user and split across
// a set of participants in a group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Name is the human-readable name of the expense (e.g., "Dinner at Luigi's").
	Name string `json:"name"`

	// Amount is the total expense amount. Always positive.
	Amount decimal.Decimal `json:"amount"`

	// PayerID is the user who paid the full amount up front.
	PayerID string `json:"payerId"`

	// GroupID is the group this expense belongs to. Every participant
	// must be a member of this group.
	GroupID string `json:"groupId"`

	// Shares holds the per-participant owed/paid state. Owned exclusively
	// by the expense; share owed amounts sum exactly to Amount.
	Shares []ParticipantShare `json:"shares"`

	// PaymentRef is the external payment processor reference this expense
	// was verified against, if any.
	PaymentRef string `json:"paymentRef,omitempty"`

	// ContentHash is the content-addressed hash of the pinned expense
	// document, if the ledger enrichment ran.
	ContentHash string `json:"contentHash,omitempty"`

	// LedgerRef is the distributed-ledger transaction reference for
	// ContentHash, if the ledger enrichment ran.
	LedgerRef string `json:"ledgerRef,omitempty"`

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64 `json:"createdAt"`
}

// ParticipantShare is one participant's slice of an expense.
// Invariants: AmountPaid <= OwedAmount; Settled iff AmountPaid >= OwedAmount.
type ParticipantShare struct {
	// ParticipantID is the user this share belongs to.
	ParticipantID string `json:"participantId"`

	// OwedAmount is what this participant owes toward the expense.
	OwedAmount decimal.Decimal `json:"owedAmount"`

	// AmountPaid is what this participant has paid so far.
	AmountPaid decimal.Decimal `json:"amountPaid"`

	// Settled is true once AmountPaid covers OwedAmount.
	Settled bool `json:"settled"`
}

// Outstanding returns OwedAmount - AmountPaid, never negative.
func (s *ParticipantShare) Outstanding() decimal.Decimal {
	out := s.OwedAmount.Sub(s.AmountPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Share returns the share for participantID, or nil if the participant
// has no share on this expense.
func (e *Expense) Share(participantID string) *ParticipantShare {
	for i := range e.Shares {
		if e.Shares[i].ParticipantID == participantID {
			return &e.Shares[i]
		}
	}
	return nil
}

// Status derives the aggregate settlement state from the shares.
func (e *Expense) Status() ExpenseStatus {
	settled := 0
	for i := range e.Shares {
		if e.Shares[i].Settled {
			settled++
		}
	}
	switch settled {
	case 0:
		return StatusOpen
	case len(e.Shares):
		return StatusSettled
	default:
		return StatusPartiallySettled
	}
}
