package domain

import "time"

// Role is an actor's capability level within a book. Authentication happens
// upstream; the ledger core only receives an already-verified actor identity
// plus its role and consults them as a precondition.
type Role string

const (
	RoleOwner  Role = "owner"  // manages membership and structure
	RoleAdmin  Role = "admin"  // manages accounts and entries
	RoleMember Role = "member" // creates, modifies and deletes entries
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// CanManageMembers reports whether the role may change book membership.
func (r Role) CanManageMembers() bool {
	return r == RoleOwner
}

// CanManageAccounts reports whether the role may change the account tree.
func (r Role) CanManageAccounts() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanWriteEntries reports whether the role may add, modify or delete entries.
func (r Role) CanWriteEntries() bool {
	return r.Valid()
}

// Member binds an actor identity to a book with a role.
type Member struct {
	BookID    string
	ActorID   string
	Role      Role
	CreatedAt time.Time
}

// Actor is the already-authenticated caller of a ledger operation.
type Actor struct {
	ID   string
	Role Role
}
