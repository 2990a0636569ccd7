package models

import (
	"fmt"
	"time"

	"github.com/elithrar/simple-scrypt"
)

// Role describes the permission level of a user inside the application
type Role string

const (
	// RoleAdmin grants write access to events and songs and visibility into all blockouts
	RoleAdmin = Role("admin")
	// RoleUser is the default role of a team member
	RoleUser = Role("user")
)

// Valid checks if the role is one of the known role values
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User defines a member of the organization's volunteer teams
type User struct {
	// Internal user ID
	ID uint `db:"id" json:"id"`
	// The email address used to log-in
	Email string `db:"email" json:"email" validate:"required,email"`
	// First name for display reasons
	FirstName string `db:"firstName" json:"firstName"`
	// Last name for display reasons
	LastName string `db:"lastName" json:"lastName"`
	// The hashed password for authentication - never exported
	PasswordHash string `db:"passwordHash" json:"-"`
	// The role that gates write access to events and songs
	Role Role `db:"role" json:"role"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
}

// IsAdmin checks if the user carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SetPassword sets a new password creating a password hash from the incoming password and storing it in the user's
// PasswordHash property
func (u *User) SetPassword(pass string) error {
	hash, err := scrypt.GenerateFromPassword([]byte(pass), scrypt.DefaultParams)
	if err != nil {
		return fmt.Errorf("SetPassword: Error during password hashing: %v", err)
	}
	// The library already uses a string encoding here - so there is no need to encode further
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword checks if the given password corresponds to the hash stored in the user struct.
// It returns an error if the password does not match or an error occurs when loading the password hash from the user
func (u *User) CheckPassword(pass string) error {
	return scrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pass))
}
