package models

// User represents a registered account.
//
// Users are created on registration and never deleted; joining groups and
// being added to expenses only mutates the back-reference lists.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the user's email address (unique).
	Email string `json:"email"`

	// GroupIDs lists the groups this user belongs to.
	// Derived index; the group_members table is authoritative.
	GroupIDs []string `json:"groupIds"`

	// ExpenseIDs lists the expenses this user participates in or paid for.
	// Derived index, maintained add-if-absent / remove-if-present.
	ExpenseIDs []string `json:"expenseIds"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"createdAt"`
}
