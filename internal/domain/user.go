package domain

import "time"

// Role names a permission group a user belongs to.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// User is an account that can log in, create tickets and be assigned to them.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
}

// HasRole reports membership in role.
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Ref returns the display reference for the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

// UserRef is the display projection of a user joined onto tickets.
type UserRef struct {
	ID       string
	FullName string
	Email    string
}
