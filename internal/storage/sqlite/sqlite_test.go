package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/moneysplitter/backend/internal/errs"
	"github.com/moneysplitter/backend/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUsers(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	t.Run("CreateUser generates ID and timestamp", func(t *testing.T) {
		user := &models.User{Name: "Alice", Email: "alice@example.com"}
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if user.ID == "" {
			t.Error("Expected user ID to be generated")
		}
		if user.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := &models.User{Name: "Alice Again", Email: "alice@example.com"}
		err := store.CreateUser(ctx, dup)
		if errs.KindOf(err) != errs.KindValidation {
			t.Errorf("error kind = %s, want %s", errs.KindOf(err), errs.KindValidation)
		}
	})

	t.Run("GetUser returns not found for unknown id", func(t *testing.T) {
		_, err := store.GetUser(ctx, "nonexistent-id")
		if errs.KindOf(err) != errs.KindNotFound {
			t.Errorf("error kind = %s, want %s", errs.KindOf(err), errs.KindNotFound)
		}
	})

	t.Run("ListUsers returns all users", func(t *testing.T) {
		bob := &models.User{Name: "Bob", Email: "bob@example.com"}
		if err := store.CreateUser(ctx, bob); err != nil {
			t.Fatal(err)
		}
		users, err := store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("got %d users, want 2", len(users))
		}
	})
}

func TestGroups(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	alice := &models.User{Name: "Alice", Email: "alice@example.com"}
	bob := &models.User{Name: "Bob", Email: "bob@example.com"}
	for _, u := range []*models.User{alice, bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	group := &models.Group{Name: "Flat", MemberIDs: []string{alice.ID, bob.ID}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("GetGroup preserves member order", func(t *testing.T) {
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.MemberIDs) != 2 || got.MemberIDs[0] != alice.ID || got.MemberIDs[1] != bob.ID {
			t.Errorf("members = %v, want [%s %s]", got.MemberIDs, alice.ID, bob.ID)
		}
	})

	t.Run("membership back-references are added", func(t *testing.T) {
		got, err := store.GetUser(ctx, alice.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.GroupIDs) != 1 || got.GroupIDs[0] != group.ID {
			t.Errorf("group refs = %v, want [%s]", got.GroupIDs, group.ID)
		}
	})

	t.Run("DeleteGroup cascades back-references", func(t *testing.T) {
		if err := store.DeleteGroup(ctx, group.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetGroup(ctx, group.ID); errs.KindOf(err) != errs.KindNotFound {
			t.Errorf("group lookup after delete: kind = %s, want %s", errs.KindOf(err), errs.KindNotFound)
		}
		got, err := store.GetUser(ctx, alice.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.GroupIDs) != 0 {
			t.Errorf("dangling group refs after delete: %v", got.GroupIDs)
		}
	})

	t.Run("DeleteGroup returns not found for unknown id", func(t *testing.T) {
		if err := store.DeleteGroup(ctx, "nonexistent-id"); errs.KindOf(err) != errs.KindNotFound {
			t.Errorf("error kind = %s, want %s", errs.KindOf(err), errs.KindNotFound)
		}
	})
}

func TestExpenses(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	alice := &models.User{Name: "Alice", Email: "alice@example.com"}
	bob := &models.User{Name: "Bob", Email: "bob@example.com"}
	for _, u := range []*models.User{alice, bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
	group := &models.Group{Name: "Flat", MemberIDs: []string{alice.ID, bob.ID}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatal(err)
	}

	expense := &models.Expense{
		Name:       "Groceries",
		Amount:     dec("100.00"),
		PayerID:    alice.ID,
		GroupID:    group.ID,
		PaymentRef: "pi_123",
		Shares: []models.ParticipantShare{
			{ParticipantID: alice.ID, OwedAmount: dec("50.00"), AmountPaid: decimal.Zero},
			{ParticipantID: bob.ID, OwedAmount: dec("50.00"), AmountPaid: decimal.Zero},
		},
	}

	t.Run("CreateExpense persists shares and back-references", func(t *testing.T) {
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if !got.Amount.Equal(dec("100.00")) {
			t.Errorf("Amount = %s, want 100.00", got.Amount)
		}
		if got.PaymentRef != "pi_123" {
			t.Errorf("PaymentRef = %q, want pi_123", got.PaymentRef)
		}
		if len(got.Shares) != 2 {
			t.Fatalf("got %d shares, want 2", len(got.Shares))
		}

		user, err := store.GetUser(ctx, bob.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(user.ExpenseIDs) != 1 || user.ExpenseIDs[0] != expense.ID {
			t.Errorf("expense refs = %v, want [%s]", user.ExpenseIDs, expense.ID)
		}
	})

	t.Run("back-reference insert is idempotent", func(t *testing.T) {
		// The payer is also a participant; one ref, not two.
		user, err := store.GetUser(ctx, alice.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(user.ExpenseIDs) != 1 {
			t.Errorf("payer-participant got %d refs, want 1", len(user.ExpenseIDs))
		}
	})

	t.Run("group lists the expense", func(t *testing.T) {
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.ExpenseIDs) != 1 || got.ExpenseIDs[0] != expense.ID {
			t.Errorf("group expense ids = %v, want [%s]", got.ExpenseIDs, expense.ID)
		}
	})

	t.Run("UpdateShare persists paid state", func(t *testing.T) {
		share := &models.ParticipantShare{
			ParticipantID: bob.ID,
			OwedAmount:    dec("50.00"),
			AmountPaid:    dec("20.00"),
			Settled:       false,
		}
		if err := store.UpdateShare(ctx, expense.ID, share); err != nil {
			t.Fatalf("UpdateShare failed: %v", err)
		}
		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatal(err)
		}
		if paid := got.Share(bob.ID).AmountPaid; !paid.Equal(dec("20.00")) {
			t.Errorf("AmountPaid = %s, want 20.00", paid)
		}
	})

	t.Run("UpdateShare on unknown participant is not found", func(t *testing.T) {
		share := &models.ParticipantShare{ParticipantID: "nope", OwedAmount: dec("1"), AmountPaid: dec("1")}
		if err := store.UpdateShare(ctx, expense.ID, share); errs.KindOf(err) != errs.KindNotFound {
			t.Errorf("error kind = %s, want %s", errs.KindOf(err), errs.KindNotFound)
		}
	})

	t.Run("SetContentRecord stores hash and reference", func(t *testing.T) {
		if err := store.SetContentRecord(ctx, expense.ID, "QmHash", "0xabc"); err != nil {
			t.Fatalf("SetContentRecord failed: %v", err)
		}
		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.ContentHash != "QmHash" || got.LedgerRef != "0xabc" {
			t.Errorf("content record = {%q, %q}, want {QmHash, 0xabc}", got.ContentHash, got.LedgerRef)
		}
	})

	t.Run("DeleteExpense removes shares and back-references", func(t *testing.T) {
		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); errs.KindOf(err) != errs.KindNotFound {
			t.Errorf("lookup after delete: kind = %s, want %s", errs.KindOf(err), errs.KindNotFound)
		}
		for _, id := range []string{alice.ID, bob.ID} {
			user, err := store.GetUser(ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			if len(user.ExpenseIDs) != 0 {
				t.Errorf("dangling expense refs after delete: %v", user.ExpenseIDs)
			}
		}
	})

	t.Run("DeleteExpense returns not found for unknown id", func(t *testing.T) {
		if err := store.DeleteExpense(ctx, "nonexistent-id"); errs.KindOf(err) != errs.KindNotFound {
			t.Errorf("error kind = %s, want %s", errs.KindOf(err), errs.KindNotFound)
		}
	})
}

// TestDeleteGroupWithExpenses checks a group cannot be deleted out from
// under its expenses; the rejection must carry a distinguishable kind.
func TestDeleteGroupWithExpenses(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	alice := &models.User{Name: "Alice", Email: "alice@example.com"}
	if err := store.CreateUser(ctx, alice); err != nil {
		t.Fatal(err)
	}
	group := &models.Group{Name: "Solo", MemberIDs: []string{alice.ID}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatal(err)
	}
	expense := &models.Expense{
		Name:    "Groceries",
		Amount:  dec("10.00"),
		PayerID: alice.ID,
		GroupID: group.ID,
		Shares: []models.ParticipantShare{
			{ParticipantID: alice.ID, OwedAmount: dec("10.00"), AmountPaid: decimal.Zero},
		},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatal(err)
	}

	err := store.DeleteGroup(ctx, group.ID)
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("delete with expenses: error kind = %s, want %s (err: %v)", errs.KindOf(err), errs.KindValidation, err)
	}

	// The group and its members are untouched by the rejected delete.
	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("group lookup after rejected delete: %v", err)
	}
	if len(got.MemberIDs) != 1 {
		t.Errorf("members after rejected delete = %v, want [%s]", got.MemberIDs, alice.ID)
	}

	// Once the expense is gone the delete goes through.
	if err := store.DeleteExpense(ctx, expense.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteGroup(ctx, group.ID); err != nil {
		t.Fatalf("delete after removing expenses failed: %v", err)
	}
}

// TestDecimalRoundTrip checks amounts survive TEXT storage without drift.
func TestDecimalRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	alice := &models.User{Name: "Alice", Email: "alice@example.com"}
	if err := store.CreateUser(ctx, alice); err != nil {
		t.Fatal(err)
	}
	group := &models.Group{Name: "Solo", MemberIDs: []string{alice.ID}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatal(err)
	}

	for _, amount := range []string{"0.01", "33.34", "99999999.99", "1234567.89"} {
		expense := &models.Expense{
			Name:    "Precision",
			Amount:  dec(amount),
			PayerID: alice.ID,
			GroupID: group.ID,
			Shares: []models.ParticipantShare{
				{ParticipantID: alice.ID, OwedAmount: dec(amount), AmountPaid: decimal.Zero},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense(%s) failed: %v", amount, err)
		}
		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Amount.Equal(dec(amount)) {
			t.Errorf("amount %s round-tripped to %s", amount, got.Amount)
		}
	}
}
