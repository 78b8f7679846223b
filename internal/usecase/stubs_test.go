package usecase

import (
	"context"
	"sync"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
	"github.com/arklim/rera-lookup-gateway/internal/core/port"
	"github.com/arklim/rera-lookup-gateway/internal/repository"
)

// stubTelegramClient is a scriptable port.TelegramClient for state machine tests.
// Like the real adapter, it writes the credential blob through the session
// store the moment a sign in succeeds.
type stubTelegramClient struct {
	mu sync.Mutex

	store port.SessionStore

	authorized bool
	phone      string
	statusErr  error

	codeHash    string
	sendCodeErr error

	signInErr   error
	passwordErr error

	signOutErr   error
	signOutCalls int

	sendMessageErr error
	sentMessages   []string

	handler port.MessageHandler
}

func (s *stubTelegramClient) SendCode(_ context.Context, phone string) (string, error) {
	if s.sendCodeErr != nil {
		return "", s.sendCodeErr
	}
	if s.codeHash == "" {
		return "code-hash", nil
	}
	return s.codeHash, nil
}

func (s *stubTelegramClient) SignIn(ctx context.Context, phone, code, codeHash string) error {
	if s.signInErr != nil {
		return s.signInErr
	}
	s.mu.Lock()
	s.authorized = true
	s.phone = phone
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

func (s *stubTelegramClient) SubmitPassword(ctx context.Context, password string) error {
	if s.passwordErr != nil {
		return s.passwordErr
	}
	s.mu.Lock()
	s.authorized = true
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

func (s *stubTelegramClient) persist(ctx context.Context) {
	if s.store != nil {
		_ = s.store.Save(ctx, []byte("credential-blob"))
	}
}

func (s *stubTelegramClient) SignOut(_ context.Context) error {
	s.mu.Lock()
	s.signOutCalls++
	s.authorized = false
	s.mu.Unlock()
	return s.signOutErr
}

func (s *stubTelegramClient) SendMessage(_ context.Context, peerKey, text string) error {
	if s.sendMessageErr != nil {
		return s.sendMessageErr
	}
	s.mu.Lock()
	s.sentMessages = append(s.sentMessages, text)
	s.mu.Unlock()
	return nil
}

func (s *stubTelegramClient) Status(_ context.Context) (bool, string, error) {
	if s.statusErr != nil {
		return false, "", s.statusErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized, s.phone, nil
}

func (s *stubTelegramClient) OnMessage(handler port.MessageHandler) {
	s.handler = handler
}

// memorySessionStore is an in-memory port.SessionStore.
type memorySessionStore struct {
	mu   sync.Mutex
	blob []byte
}

func (m *memorySessionStore) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.blob) == 0 {
		return nil, repository.ErrNotFound
	}
	return m.blob, nil
}

func (m *memorySessionStore) Save(_ context.Context, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = append([]byte(nil), blob...)
	return nil
}

func (m *memorySessionStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = nil
	return nil
}

// recordingPublisher captures published event types.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) record(eventType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *recordingPublisher) PublishAuthCodeRequested(_ context.Context, _ domain.AuthCodeRequestedEvent) error {
	p.record("auth.code_requested")
	return nil
}

func (p *recordingPublisher) PublishAuthSignedIn(_ context.Context, _ domain.AuthSignedInEvent) error {
	p.record("auth.signed_in")
	return nil
}

func (p *recordingPublisher) PublishAuthSignedOut(_ context.Context, _ domain.AuthSignedOutEvent) error {
	p.record("auth.signed_out")
	return nil
}

func (p *recordingPublisher) PublishLookupFinished(_ context.Context, event domain.LookupFinishedEvent) error {
	p.record("lookup." + string(event.Outcome))
	return nil
}

// memoryHistory records lookups in memory.
type memoryHistory struct {
	mu      sync.Mutex
	records []domain.LookupRecord
}

func (h *memoryHistory) Record(_ context.Context, record domain.LookupRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
	return nil
}

func (h *memoryHistory) List(_ context.Context, limit int) ([]domain.LookupRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := append([]domain.LookupRecord(nil), h.records...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ port.TelegramClient          = (*stubTelegramClient)(nil)
	_ port.SessionStore            = (*memorySessionStore)(nil)
	_ port.EventPublisher          = (*recordingPublisher)(nil)
	_ port.LookupHistoryRepository = (*memoryHistory)(nil)
)
