// internal/identity/domain.go
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles. Role is a first-class profile attribute assigned at provisioning,
// never inferred from the email at request time.
const (
	RoleMember    = "member"
	RoleLibrarian = "librarian"
)

// DepartmentAdmin is the reserved department value that marks an account
// as the librarian at provisioning.
const DepartmentAdmin = "admin"

// Profile is a library account. It is created once at sign-up and is
// read-only from the lending core's perspective.
type Profile struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	FullName   string    `db:"full_name" json:"full_name"`
	CollegeID  string    `db:"college_id" json:"college_id"`
	Department string    `db:"department" json:"department"`
	Role       string    `db:"role" json:"role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Credential holds a profile's login secret.
type Credential struct {
	ProfileID    uuid.UUID `db:"profile_id" json:"-"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Salt         string    `db:"salt" json:"-"`
}

// Principal is the authenticated actor carried through request context
// and passed explicitly into workflow calls.
type Principal struct {
	ID   uuid.UUID
	Role string
}
