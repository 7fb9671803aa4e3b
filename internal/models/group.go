package models

// Group represents a set of users who split expenses together.
// The group is the owning side of membership: every expense participant
// must be a member of the expense's group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string `json:"name"`

	// MemberIDs is the ordered set of member user IDs (unique per group).
	MemberIDs []string `json:"memberIds"`

	// ExpenseIDs lists the expenses recorded in this group.
	// Derived from expenses.group_id; read-only convenience.
	ExpenseIDs []string `json:"expenseIds"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"createdAt"`
}

// HasMember reports whether userID is a member of the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.MemberIDs {
		if m == userID {
			return true
		}
	}
	return false
}
