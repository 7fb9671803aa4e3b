// Package models defines the core domain models for the money-splitter backend.
//
// # Models
//
//   - User: a registered account, with back-references to its groups and expenses
//   - Group: an ordered set of member users that owns expenses
//   - Expense: a shared cost paid by one member and split across participants
//   - ParticipantShare: one participant's owed/paid state on an expense
//
// # Design principles
//
//  1. **Decimal money**: all amounts are decimal.Decimal, never float64
//  2. **Avoid circular references**: relationships are ID strings, not pointers
//  3. **Expense owns its shares**: ParticipantShare has no independent lifecycle
//  4. **Back-references are derived**: User.GroupIDs and User.ExpenseIDs are
//     idempotently maintained indexes, not authoritative state; the Group is the
//     owning side of membership
package models
