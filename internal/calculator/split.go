// Package calculator computes per-participant owed amounts for an expense.
// All functions are pure: no I/O, no clock, and the result depends only on
// the inputs (including the order of the participants slice).
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/moneysplitter/backend/internal/errs"
)

// minorUnit is the number of decimal places of the currency's minor unit.
const minorUnit = 2

// epsilon is the tolerance when validating caller-supplied owed amounts
// against the expense total.
var epsilon = decimal.NewFromFloat(0.01)

// Equal splits total evenly across participants.
// Each share is rounded half-up to the minor unit; the rounding residual
// (positive or negative) is folded into the first participant so the shares
// always sum exactly to total.
func Equal(total decimal.Decimal, participants []string) (map[string]decimal.Decimal, error) {
	if err := validate(total, participants); err != nil {
		return nil, err
	}

	n := decimal.NewFromInt(int64(len(participants)))
	per := total.Div(n).Round(minorUnit)

	shares := make(map[string]decimal.Decimal, len(participants))
	for _, p := range participants {
		shares[p] = per
	}

	// Assign the residual cent(s) to the first participant.
	residual := total.Sub(per.Mul(n))
	shares[participants[0]] = per.Add(residual)

	return shares, nil
}

// Weighted splits total proportionally to each participant's weight.
// Rounding and residual assignment follow the same rule as Equal.
func Weighted(total decimal.Decimal, participants []string, weights map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	if err := validate(total, participants); err != nil {
		return nil, err
	}

	sum := decimal.Zero
	for _, p := range participants {
		w, ok := weights[p]
		if !ok {
			return nil, errs.Validation("missing weight for participant %q", p)
		}
		if !w.IsPositive() {
			return nil, errs.Validation("weight for participant %q must be positive, got %s", p, w)
		}
		sum = sum.Add(w)
	}

	shares := make(map[string]decimal.Decimal, len(participants))
	assigned := decimal.Zero
	for _, p := range participants {
		share := total.Mul(weights[p]).Div(sum).Round(minorUnit)
		shares[p] = share
		assigned = assigned.Add(share)
	}

	residual := total.Sub(assigned)
	shares[participants[0]] = shares[participants[0]].Add(residual)

	return shares, nil
}

// FromAmounts validates caller-supplied owed amounts against total.
// The amounts must cover exactly the participant set and sum to total
// within epsilon; on mismatch the error names the exact delta.
func FromAmounts(total decimal.Decimal, participants []string, amounts map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	if err := validate(total, participants); err != nil {
		return nil, err
	}

	sum := decimal.Zero
	shares := make(map[string]decimal.Decimal, len(participants))
	for _, p := range participants {
		a, ok := amounts[p]
		if !ok {
			return nil, errs.Validation("missing owed amount for participant %q", p)
		}
		if a.IsNegative() {
			return nil, errs.Validation("owed amount for participant %q must not be negative, got %s", p, a)
		}
		shares[p] = a
		sum = sum.Add(a)
	}

	if delta := sum.Sub(total); delta.Abs().GreaterThan(epsilon) {
		return nil, errs.SplitMismatch("supplied shares sum to %s, expense total is %s (delta %s)", sum, total, delta)
	}

	return shares, nil
}

func validate(total decimal.Decimal, participants []string) error {
	if !total.IsPositive() {
		return errs.Validation("amount must be positive, got %s", total)
	}
	if len(participants) == 0 {
		return errs.Validation("participants must not be empty")
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if seen[p] {
			return errs.Validation("duplicate participant %q", p)
		}
		seen[p] = true
	}
	return nil
}
