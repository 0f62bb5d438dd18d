package user

import (
	"strings"
	"time"
)

// User is a stored account. Password is kept in plaintext; the mock backend
// never hashes it.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is a user with the password stripped.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile returns the caller-safe view of the user.
func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

// NormalizeEmail lower-cases an email for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(email)
}
