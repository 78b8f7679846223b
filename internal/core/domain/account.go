package domain

import "time"

// AccountStatus summarises the authentication state of the single Telegram
// account this gateway drives.
type AccountStatus struct {
	Authenticated bool
	Phone         string
}

// PendingLogin holds the transient state between a login code request and its
// verification. At most one exists per process; a new code request replaces it.
// It is never persisted, so a restart forces the flow back to the code request.
type PendingLogin struct {
	Phone            string
	CodeHash         string
	PasswordRequired bool
	RequestedAt      time.Time
}
