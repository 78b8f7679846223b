package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
	"github.com/arklim/rera-lookup-gateway/internal/core/port"
	"github.com/arklim/rera-lookup-gateway/internal/infra/config"
	"github.com/arklim/rera-lookup-gateway/internal/infra/logger"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, log *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: log}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAuthCodeRequested publishes rera.auth.code_requested events.
// Phone numbers are masked before they leave the process.
func (p *EventPublisher) PublishAuthCodeRequested(ctx context.Context, event domain.AuthCodeRequestedEvent) error {
	payload := map[string]any{
		"phone":        logger.MaskPhone(event.Phone),
		"requested_at": event.RequestedAt,
		"metadata":     event.Metadata,
	}
	return p.publish(ctx, event.EventID, "auth.code_requested", event.RequestedAt, payload)
}

// PublishAuthSignedIn publishes rera.auth.signed_in events.
func (p *EventPublisher) PublishAuthSignedIn(ctx context.Context, event domain.AuthSignedInEvent) error {
	payload := map[string]any{
		"phone":     logger.MaskPhone(event.Phone),
		"two_fa":    event.TwoFA,
		"signed_at": event.SignedAt,
		"metadata":  event.Metadata,
	}
	return p.publish(ctx, event.EventID, "auth.signed_in", event.SignedAt, payload)
}

// PublishAuthSignedOut publishes rera.auth.signed_out events.
func (p *EventPublisher) PublishAuthSignedOut(ctx context.Context, event domain.AuthSignedOutEvent) error {
	payload := map[string]any{
		"phone":     logger.MaskPhone(event.Phone),
		"signed_at": event.SignedAt,
		"metadata":  event.Metadata,
	}
	return p.publish(ctx, event.EventID, "auth.signed_out", event.SignedAt, payload)
}

// PublishLookupFinished publishes rera.lookup.<outcome> events, one type per
// terminal outcome (completed, timed_out, failed).
func (p *EventPublisher) PublishLookupFinished(ctx context.Context, event domain.LookupFinishedEvent) error {
	payload := map[string]any{
		"lookup_id":    event.LookupID,
		"rera_number":  event.ReraNumber,
		"peer_key":     event.PeerKey,
		"outcome":      string(event.Outcome),
		"duration_ms":  event.DurationMS,
		"completed_at": event.CompletedAt,
		"metadata":     event.Metadata,
	}
	return p.publish(ctx, event.EventID, "lookup."+string(event.Outcome), event.CompletedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
