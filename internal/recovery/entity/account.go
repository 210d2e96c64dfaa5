package entity

import "time"

// Account is the slice of a user record the recovery flow reads and writes.
type Account struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	UpdatedAt    time.Time
}

// Session is one live reset code for an email. The code itself is never stored;
// CodeDigest is an HMAC over "email:code".
type Session struct {
	Email      string
	CodeDigest string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Verified   bool
	Attempts   int
}

// ExpiredAt reports whether the session is no longer usable at now.
func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
