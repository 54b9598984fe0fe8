package entity

import (
	"time"
)

// Account is the aggregate root for the identity domain.
// Passwords are stored as bcrypt hashes in PasswordHash.
//
// An account is created inactive with no password; it gains a password only
// when the activation token is consumed. RefreshToken holds the most
// recently issued refresh credential, so at most one session is live per
// account.
type Account struct {
	ID              string
	Email           string // unique, stored lower-cased
	FirstName       string
	LastName        string
	Phone           string
	City            string
	Role            Role
	PasswordHash    string // empty until activated
	IsActive        bool
	ActivationToken string // non-empty only while activation is pending
	RefreshToken    string
	CreatedAt       time.Time
}

// CanAuthenticate reports whether a login attempt may even be checked.
// Inactive accounts have no password and can never pass.
func (a *Account) CanAuthenticate() bool {
	return a.IsActive && a.PasswordHash != ""
}

// FullName joins first and last name for display and email greetings.
func (a *Account) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}
