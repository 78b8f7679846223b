package port

import (
	"context"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishAuthCodeRequested(ctx context.Context, event domain.AuthCodeRequestedEvent) error
	PublishAuthSignedIn(ctx context.Context, event domain.AuthSignedInEvent) error
	PublishAuthSignedOut(ctx context.Context, event domain.AuthSignedOutEvent) error
	PublishLookupFinished(ctx context.Context, event domain.LookupFinishedEvent) error
}
