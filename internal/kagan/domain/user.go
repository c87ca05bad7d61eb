package domain

import "time"

type User struct {
	ID           string
	Username     string // unique, case-sensitive
	DisplayName  string
	PasswordHash string // bcrypt or argon2id encoded, never plaintext
	Role         Role
	Email        string // optional, empty when unset
	Phone        string // optional, empty when unset
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	FailedLogins    int       // throttle debt, see service.LoginThrottle
	LastFailedLogin time.Time // zero when FailedLogins is 0
}

// WithoutSecret returns a copy of u that is safe to hand to callers outside
// the credential store.
func (u User) WithoutSecret() User {
	u.PasswordHash = ""
	return u
}

// Profile holds the user fields an administrator may edit in place.
type Profile struct {
	DisplayName string
	Email       string
	Phone       string
}
