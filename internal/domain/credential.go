package domain

import "time"

// Credential is one rate-limited odds-provider API key. Remaining is the
// quota last reported by the provider; nil means no request has been made
// with this key yet, so the quota is unknown.
type Credential struct {
	Key       string
	Remaining *int
	LastUsed  time.Time
}

// Exhausted reports whether the credential is known to have no quota left.
// A credential with unknown quota is not exhausted.
func (c Credential) Exhausted() bool {
	return c.Remaining != nil && *c.Remaining <= 0
}

// CredentialStats is a usage snapshot for one credential, with the key
// masked for display.
type CredentialStats struct {
	Key       string     `json:"key"`
	Remaining *int       `json:"remaining"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
	Exhausted bool       `json:"exhausted"`
}
