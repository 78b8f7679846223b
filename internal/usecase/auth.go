package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
	"github.com/arklim/rera-lookup-gateway/internal/core/port"
	"github.com/arklim/rera-lookup-gateway/internal/infra/logger"
	"github.com/arklim/rera-lookup-gateway/internal/repository"
)

var (
	// ErrInvalidInput indicates a malformed phone number or login code.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials indicates the login code or 2FA password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCodeExpired indicates the login code expired; the flow must restart from a new code request.
	ErrCodeExpired = errors.New("login code expired")
	// ErrNoPendingLogin indicates verification was attempted without a prior code request.
	ErrNoPendingLogin = errors.New("no pending login")
	// ErrPhoneMismatch indicates the phone does not match the pending login.
	ErrPhoneMismatch = errors.New("phone does not match pending login")
	// ErrNotAuthenticated indicates the account holds no accepted Telegram session.
	ErrNotAuthenticated = errors.New("not authenticated with telegram")
	// ErrRateLimited indicates Telegram throttled the operation.
	ErrRateLimited = errors.New("rate limited by telegram")
	// ErrTelegramUnavailable indicates a transport level failure talking to Telegram.
	ErrTelegramUnavailable = errors.New("telegram unavailable")
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// StartLoginResult reports the outcome of a code request.
type StartLoginResult struct {
	CodeSent             bool
	AlreadyAuthenticated bool
}

// VerifyLoginResult reports the outcome of a code verification.
type VerifyLoginResult struct {
	Authenticated bool
	// PasswordRequired is a next step, not a failure: the account has 2FA
	// enabled and verify must be repeated with the password set.
	PasswordRequired bool
}

// AuthObserver receives auth operation results for instrumentation.
type AuthObserver interface {
	ObserveAuth(operation, result string)
}

// AuthService drives the phone, code, optional 2FA login flow for the single
// Telegram account. The pending login lives only in memory; a restart forces
// the flow back to a fresh code request.
type AuthService struct {
	client   port.TelegramClient
	store    port.SessionStore
	events   port.EventPublisher
	observer AuthObserver
	logger   *zap.Logger

	// mu serialises auth flows and guards the pending login. The deployment is
	// single-account, so overlapping auth operations have nothing to win.
	mu      sync.Mutex
	pending *domain.PendingLogin
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(client port.TelegramClient, store port.SessionStore, events port.EventPublisher, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		client: client,
		store:  store,
		events: events,
		logger: log,
	}
}

// WithObserver attaches a metrics observer for auth operation results.
func (s *AuthService) WithObserver(observer AuthObserver) *AuthService {
	s.observer = observer
	return s
}

func (s *AuthService) observe(operation, result string) {
	if s.observer != nil {
		s.observer.ObserveAuth(operation, result)
	}
}

// StartLogin asks Telegram to deliver a login code to the phone. A new request
// replaces any stale pending login.
func (s *AuthService) StartLogin(ctx context.Context, phone string) (StartLoginResult, error) {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return StartLoginResult{}, fmt.Errorf("%w: phone must be digits with optional leading +", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if authorized, _, err := s.client.Status(ctx); err == nil && authorized {
		return StartLoginResult{AlreadyAuthenticated: true}, nil
	}

	codeHash, err := s.client.SendCode(ctx, phone)
	if err != nil {
		s.observe("start", "error")
		return StartLoginResult{}, translateClientErr(err)
	}
	s.observe("start", "code_sent")

	s.pending = &domain.PendingLogin{
		Phone:       phone,
		CodeHash:    codeHash,
		RequestedAt: time.Now().UTC(),
	}

	s.logger.Info("login code requested", zap.String("phone", logger.MaskPhone(phone)))
	s.publishCodeRequested(ctx, phone)

	return StartLoginResult{CodeSent: true}, nil
}

// VerifyLogin submits the received code and, when the account has 2FA enabled,
// the password. A wrong code keeps the pending login so the right code can
// still be submitted; an expired code resets the flow entirely.
func (s *AuthService) VerifyLogin(ctx context.Context, phone, code, password string) (VerifyLoginResult, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending
	if pending == nil {
		return VerifyLoginResult{}, ErrNoPendingLogin
	}
	if pending.Phone != phone {
		return VerifyLoginResult{}, ErrPhoneMismatch
	}

	if pending.PasswordRequired {
		return s.verifyPassword(ctx, pending, password)
	}

	if code == "" {
		return VerifyLoginResult{}, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	err := s.client.SignIn(ctx, pending.Phone, code, pending.CodeHash)
	switch {
	case err == nil:
		return s.completeLogin(ctx, pending, false), nil

	case errors.Is(err, port.ErrPasswordRequired):
		pending.PasswordRequired = true
		if password == "" {
			return VerifyLoginResult{PasswordRequired: true}, nil
		}
		return s.verifyPassword(ctx, pending, password)

	case errors.Is(err, port.ErrInvalidCode):
		// Pending login survives: the caller re-enters the code.
		return VerifyLoginResult{}, ErrInvalidCredentials

	case errors.Is(err, port.ErrCodeExpired):
		s.pending = nil
		return VerifyLoginResult{}, ErrCodeExpired

	default:
		return VerifyLoginResult{}, translateClientErr(err)
	}
}

func (s *AuthService) verifyPassword(ctx context.Context, pending *domain.PendingLogin, password string) (VerifyLoginResult, error) {
	if password == "" {
		return VerifyLoginResult{PasswordRequired: true}, nil
	}

	err := s.client.SubmitPassword(ctx, password)
	switch {
	case err == nil:
		return s.completeLogin(ctx, pending, true), nil
	case errors.Is(err, port.ErrInvalidPassword):
		// Code was already accepted; only the password needs re-entry.
		return VerifyLoginResult{}, ErrInvalidCredentials
	default:
		return VerifyLoginResult{}, translateClientErr(err)
	}
}

func (s *AuthService) completeLogin(ctx context.Context, pending *domain.PendingLogin, twoFA bool) VerifyLoginResult {
	// The credential blob is written through the session store by the client
	// adapter the moment Telegram grants the session.
	s.pending = nil
	s.observe("verify", "signed_in")

	s.logger.Info("telegram login completed",
		zap.String("phone", logger.MaskPhone(pending.Phone)),
		zap.Bool("two_fa", twoFA),
	)
	s.publishSignedIn(ctx, pending.Phone, twoFA)

	return VerifyLoginResult{Authenticated: true}
}

// Status reports whether the account holds a Telegram session that is still
// accepted. Revocation by Telegram is detected lazily, here or on the next
// authenticated call.
func (s *AuthService) Status(ctx context.Context) (domain.AccountStatus, error) {
	if _, err := s.store.Load(ctx); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.AccountStatus{}, nil
		}
		return domain.AccountStatus{}, fmt.Errorf("load session: %w", err)
	}

	authorized, phone, err := s.client.Status(ctx)
	if err != nil {
		return domain.AccountStatus{}, translateClientErr(err)
	}

	return domain.AccountStatus{Authenticated: authorized, Phone: phone}, nil
}

// RequireAuthenticated fails with ErrNotAuthenticated unless the account holds
// an accepted session.
func (s *AuthService) RequireAuthenticated(ctx context.Context) error {
	status, err := s.Status(ctx)
	if err != nil {
		return err
	}
	if !status.Authenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// Logout signs the account out and clears the persisted credential. Idempotent:
// logging out an already logged-out account succeeds.
func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, statusErr := s.Status(ctx)

	if err := s.client.SignOut(ctx); err != nil && !errors.Is(err, port.ErrNotAuthorized) {
		// The local credential is cleared regardless; the Telegram-side
		// session dies on its own once the key is gone.
		s.logger.Warn("telegram sign out failed", zap.Error(err))
	}

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.pending = nil
	s.observe("logout", "cleared")

	if statusErr == nil && status.Authenticated {
		s.publishSignedOut(ctx, status.Phone)
	}

	return nil
}

func (s *AuthService) publishCodeRequested(ctx context.Context, phone string) {
	if s.events == nil {
		return
	}
	event := domain.AuthCodeRequestedEvent{
		EventID:     uuid.NewString(),
		Phone:       phone,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.events.PublishAuthCodeRequested(ctx, event); err != nil {
		s.logger.Warn("publish code requested event failed", zap.Error(err))
	}
}

func (s *AuthService) publishSignedIn(ctx context.Context, phone string, twoFA bool) {
	if s.events == nil {
		return
	}
	event := domain.AuthSignedInEvent{
		EventID:  uuid.NewString(),
		Phone:    phone,
		TwoFA:    twoFA,
		SignedAt: time.Now().UTC(),
	}
	if err := s.events.PublishAuthSignedIn(ctx, event); err != nil {
		s.logger.Warn("publish signed in event failed", zap.Error(err))
	}
}

func (s *AuthService) publishSignedOut(ctx context.Context, phone string) {
	if s.events == nil {
		return
	}
	event := domain.AuthSignedOutEvent{
		EventID:  uuid.NewString(),
		Phone:    phone,
		SignedAt: time.Now().UTC(),
	}
	if err := s.events.PublishAuthSignedOut(ctx, event); err != nil {
		s.logger.Warn("publish signed out event failed", zap.Error(err))
	}
}

// translateClientErr maps normalised client errors onto the usecase taxonomy so
// transport details never reach the HTTP layer.
func translateClientErr(err error) error {
	switch {
	case errors.Is(err, port.ErrInvalidPhone):
		return fmt.Errorf("%w: telegram rejected the phone number", ErrInvalidInput)
	case errors.Is(err, port.ErrRateLimited):
		return ErrRateLimited
	case errors.Is(err, port.ErrInvalidCode), errors.Is(err, port.ErrInvalidPassword):
		return ErrInvalidCredentials
	case errors.Is(err, port.ErrCodeExpired):
		return ErrCodeExpired
	case errors.Is(err, port.ErrNotAuthorized):
		return ErrNotAuthenticated
	case errors.Is(err, port.ErrPeerNotFound):
		return ErrPeerNotFound
	default:
		return fmt.Errorf("%w: %v", ErrTelegramUnavailable, err)
	}
}
