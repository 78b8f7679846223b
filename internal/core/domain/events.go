package domain

import "time"

// AuthCodeRequestedEvent represents the payload for rera.auth.code_requested messages.
type AuthCodeRequestedEvent struct {
	EventID     string
	Phone       string
	RequestedAt time.Time
	Metadata    map[string]any
}

// AuthSignedInEvent represents the payload for rera.auth.signed_in messages.
type AuthSignedInEvent struct {
	EventID  string
	Phone    string
	TwoFA    bool
	SignedAt time.Time
	Metadata map[string]any
}

// AuthSignedOutEvent represents the payload for rera.auth.signed_out messages.
type AuthSignedOutEvent struct {
	EventID  string
	Phone    string
	SignedAt time.Time
	Metadata map[string]any
}

// LookupFinishedEvent represents the payload for rera.lookup.<outcome> messages.
// It is emitted for every terminal lookup outcome, including timeouts.
type LookupFinishedEvent struct {
	EventID     string
	LookupID    string
	ReraNumber  string
	PeerKey     string
	Outcome     LookupOutcome
	DurationMS  int64
	CompletedAt time.Time
	Metadata    map[string]any
}
