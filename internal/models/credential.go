package models

import "time"

// Credential is the weather provider key handed out by the key provider.
// A zero ExpiresAt means the credential does not expire.
type Credential struct {
	Key       string
	ExpiresAt time.Time
}

// Expired reports whether the expiry instant has passed
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Valid reports whether the credential can be used at now
func (c Credential) Valid(now time.Time) bool {
	return c.Key != "" && !c.Expired(now)
}
