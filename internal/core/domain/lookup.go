package domain

import "time"

// LookupOutcome enumerates terminal states of a lookup request.
type LookupOutcome string

const (
	LookupOutcomeCompleted LookupOutcome = "completed"
	LookupOutcomeTimedOut  LookupOutcome = "timed_out"
	LookupOutcomeFailed    LookupOutcome = "failed"
)

// LookupRecord mirrors the persisted representation in the rera.lookups table.
type LookupRecord struct {
	ID          string
	ReraNumber  string
	PeerKey     string
	Response    *string
	Outcome     LookupOutcome
	RequestedAt time.Time
	CompletedAt time.Time
}
