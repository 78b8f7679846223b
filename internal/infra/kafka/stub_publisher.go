package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
	"github.com/arklim/rera-lookup-gateway/internal/core/port"
	"github.com/arklim/rera-lookup-gateway/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAuthCodeRequested logs rera.auth.code_requested events.
func (p *StubPublisher) PublishAuthCodeRequested(_ context.Context, event domain.AuthCodeRequestedEvent) error {
	payload := map[string]any{
		"phone":        logger.MaskPhone(event.Phone),
		"requested_at": event.RequestedAt,
	}
	p.logEvent("auth.code_requested", event.RequestedAt, payload)
	return nil
}

// PublishAuthSignedIn logs rera.auth.signed_in events.
func (p *StubPublisher) PublishAuthSignedIn(_ context.Context, event domain.AuthSignedInEvent) error {
	payload := map[string]any{
		"phone":     logger.MaskPhone(event.Phone),
		"two_fa":    event.TwoFA,
		"signed_at": event.SignedAt,
	}
	p.logEvent("auth.signed_in", event.SignedAt, payload)
	return nil
}

// PublishAuthSignedOut logs rera.auth.signed_out events.
func (p *StubPublisher) PublishAuthSignedOut(_ context.Context, event domain.AuthSignedOutEvent) error {
	payload := map[string]any{
		"phone":     logger.MaskPhone(event.Phone),
		"signed_at": event.SignedAt,
	}
	p.logEvent("auth.signed_out", event.SignedAt, payload)
	return nil
}

// PublishLookupFinished logs rera.lookup.<outcome> events.
func (p *StubPublisher) PublishLookupFinished(_ context.Context, event domain.LookupFinishedEvent) error {
	payload := map[string]any{
		"lookup_id":    event.LookupID,
		"rera_number":  event.ReraNumber,
		"peer_key":     event.PeerKey,
		"outcome":      string(event.Outcome),
		"duration_ms":  event.DurationMS,
		"completed_at": event.CompletedAt,
	}
	p.logEvent("lookup."+string(event.Outcome), event.CompletedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
