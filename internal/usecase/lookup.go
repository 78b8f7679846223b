package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
	"github.com/arklim/rera-lookup-gateway/internal/core/port"
)

var (
	// ErrLookupInProgress indicates a lookup is already awaiting a reply from the same peer.
	ErrLookupInProgress = errors.New("lookup already in progress")
	// ErrLookupTimeout indicates no reply arrived within the configured window.
	ErrLookupTimeout = errors.New("lookup timed out")
	// ErrPeerNotFound indicates the lookup bot could not be resolved.
	ErrPeerNotFound = errors.New("lookup peer not found")
	// ErrHistoryDisabled indicates no history repository is configured.
	ErrHistoryDisabled = errors.New("lookup history disabled")
)

const defaultLookupTimeout = 30 * time.Second

// LookupObserver receives terminal lookup outcomes for instrumentation.
type LookupObserver interface {
	ObserveLookup(outcome string)
}

// LookupResult is the reply captured for one RERA number.
type LookupResult struct {
	ReraNumber string
	Response   string
}

// LookupService sends a RERA number to the fixed lookup bot and waits for its
// reply. Registration with the correlator happens before the send, so a fast
// reply cannot slip past the waiter.
type LookupService struct {
	auth       *AuthService
	client     port.TelegramClient
	correlator *ReplyCorrelator
	history    port.LookupHistoryRepository
	events     port.EventPublisher
	observer   LookupObserver
	logger     *zap.Logger

	peerKey string
	timeout time.Duration
}

// NewLookupService constructs a LookupService targeting the given bot.
func NewLookupService(auth *AuthService, client port.TelegramClient, correlator *ReplyCorrelator, peerKey string, timeout time.Duration, log *zap.Logger) *LookupService {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LookupService{
		auth:       auth,
		client:     client,
		correlator: correlator,
		logger:     log,
		peerKey:    peerKey,
		timeout:    timeout,
	}
}

// WithHistory attaches a lookup history repository.
func (s *LookupService) WithHistory(history port.LookupHistoryRepository) *LookupService {
	s.history = history
	return s
}

// WithEvents attaches an event publisher.
func (s *LookupService) WithEvents(events port.EventPublisher) *LookupService {
	s.events = events
	return s
}

// WithObserver attaches a metrics observer for lookup outcomes.
func (s *LookupService) WithObserver(observer LookupObserver) *LookupService {
	s.observer = observer
	return s
}

// Lookup sends the RERA number to the lookup bot and returns its first reply.
func (s *LookupService) Lookup(ctx context.Context, reraNumber string) (LookupResult, error) {
	reraNumber = strings.TrimSpace(reraNumber)
	if reraNumber == "" {
		return LookupResult{}, fmt.Errorf("%w: rera number is required", ErrInvalidInput)
	}

	if err := s.auth.RequireAuthenticated(ctx); err != nil {
		return LookupResult{}, err
	}

	requestedAt := time.Now().UTC()
	lookupID := uuid.NewString()

	// Register first, send second: replies that race the send still match.
	wait, err := s.correlator.Register(s.peerKey)
	if err != nil {
		return LookupResult{}, err
	}

	if err := s.client.SendMessage(ctx, s.peerKey, reraNumber); err != nil {
		s.correlator.Cancel(wait)
		translated := translateClientErr(err)
		s.finish(ctx, lookupID, reraNumber, nil, domain.LookupOutcomeFailed, requestedAt)
		return LookupResult{}, translated
	}

	s.logger.Info("lookup sent",
		zap.String("lookup_id", lookupID),
		zap.String("peer", s.peerKey),
		zap.String("rera_number", reraNumber),
	)

	text, err := s.correlator.Await(ctx, wait, s.timeout)
	if err != nil {
		if errors.Is(err, ErrLookupTimeout) {
			s.finish(ctx, lookupID, reraNumber, nil, domain.LookupOutcomeTimedOut, requestedAt)
			return LookupResult{}, ErrLookupTimeout
		}
		s.finish(ctx, lookupID, reraNumber, nil, domain.LookupOutcomeFailed, requestedAt)
		return LookupResult{}, err
	}

	s.finish(ctx, lookupID, reraNumber, &text, domain.LookupOutcomeCompleted, requestedAt)

	return LookupResult{ReraNumber: reraNumber, Response: text}, nil
}

// History returns the most recent recorded lookups.
func (s *LookupService) History(ctx context.Context, limit int) ([]domain.LookupRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	records, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list lookup history: %w", err)
	}
	return records, nil
}

// finish records the terminal outcome and emits the lookup event. Neither is
// allowed to fail the lookup itself.
func (s *LookupService) finish(ctx context.Context, lookupID, reraNumber string, response *string, outcome domain.LookupOutcome, requestedAt time.Time) {
	completedAt := time.Now().UTC()

	if s.observer != nil {
		s.observer.ObserveLookup(string(outcome))
	}

	if s.history != nil {
		record := domain.LookupRecord{
			ID:          lookupID,
			ReraNumber:  reraNumber,
			PeerKey:     s.peerKey,
			Response:    response,
			Outcome:     outcome,
			RequestedAt: requestedAt,
			CompletedAt: completedAt,
		}
		if err := s.history.Record(ctx, record); err != nil {
			s.logger.Warn("record lookup history failed", zap.Error(err), zap.String("lookup_id", lookupID))
		}
	}

	if s.events != nil {
		event := domain.LookupFinishedEvent{
			EventID:     uuid.NewString(),
			LookupID:    lookupID,
			ReraNumber:  reraNumber,
			PeerKey:     s.peerKey,
			Outcome:     outcome,
			DurationMS:  completedAt.Sub(requestedAt).Milliseconds(),
			CompletedAt: completedAt,
		}
		if err := s.events.PublishLookupFinished(ctx, event); err != nil {
			s.logger.Warn("publish lookup event failed", zap.Error(err), zap.String("lookup_id", lookupID))
		}
	}
}
