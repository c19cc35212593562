package domain

import "time"

// OneTimeCode is the ephemeral second-factor record for one email address.
// Only the newest unused record is eligible for verification; the store keeps
// a single record per email, so a fresh login supersedes any earlier code.
type OneTimeCode struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	Used      bool
	CreatedAt time.Time
}

// IsExpired reports logical expiry. The backing store also removes the record
// by TTL, so expiry holds even if nothing ever reads it again.
func (c *OneTimeCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
