package domain

import "time"

// Role is the closed set of caller roles. At most one manager exists
// system-wide; the identity registry enforces that at registration.
type Role string

const (
	RoleUser       Role = "user"
	RoleTechnician Role = "technician"
	RoleManager    Role = "manager"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTechnician, RoleManager:
		return true
	}
	return false
}

// User is the domain model for all identities: requesters, technicians
// and the manager.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Avatar       string
	Skills       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the resolved caller passed into every core operation.
type Identity struct {
	ID   string
	Role Role
}

// Identity derives the caller identity from a user record.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Role: u.Role}
}
