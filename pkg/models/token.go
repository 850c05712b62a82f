package models

import "time"

// TokenTTL is the fixed lifetime of a bearer token.
const TokenTTL = 24 * time.Hour

// Token is an opaque bearer credential minted on successful login.
type Token struct {
	Value    string    `json:"value"`
	Identity string    `json:"identity"`
	IssuedAt time.Time `json:"issued_at"`
}

// ValidAt reports whether the token is inside its TTL window at the
// given instant. The window is inclusive at issuance and exclusive at
// issuance+TTL: a token aged exactly TokenTTL is rejected.
func (t *Token) ValidAt(now time.Time) bool {
	elapsed := now.Sub(t.IssuedAt)

	return elapsed >= 0 && elapsed < TokenTTL
}
