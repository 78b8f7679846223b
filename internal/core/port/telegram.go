package port

import (
	"context"
	"errors"
)

// Telegram client failures, normalised so the usecase layer never sees raw
// MTProto errors.
var (
	// ErrInvalidPhone indicates Telegram rejected the phone number.
	ErrInvalidPhone = errors.New("telegram: invalid phone number")
	// ErrRateLimited indicates Telegram throttled the operation (flood wait).
	ErrRateLimited = errors.New("telegram: rate limited")
	// ErrInvalidCode indicates the submitted login code is wrong.
	ErrInvalidCode = errors.New("telegram: invalid login code")
	// ErrCodeExpired indicates the login code can no longer be used.
	ErrCodeExpired = errors.New("telegram: login code expired")
	// ErrPasswordRequired indicates the account has 2FA enabled and a password must follow the code.
	ErrPasswordRequired = errors.New("telegram: 2fa password required")
	// ErrInvalidPassword indicates the submitted 2FA password is wrong.
	ErrInvalidPassword = errors.New("telegram: invalid 2fa password")
	// ErrPeerNotFound indicates the target peer could not be resolved.
	ErrPeerNotFound = errors.New("telegram: peer not found")
	// ErrNotAuthorized indicates the client holds no accepted session.
	ErrNotAuthorized = errors.New("telegram: not authorized")
	// ErrUnavailable indicates a transport or network level failure.
	ErrUnavailable = errors.New("telegram: service unavailable")
)

// IncomingMessage is one message pushed by the Telegram update stream.
type IncomingMessage struct {
	// PeerKey identifies the sender (username when known, otherwise the numeric id).
	PeerKey string
	Text    string
}

// MessageHandler consumes incoming messages from the live connection.
// It is invoked from the client's own receive loop.
type MessageHandler func(msg IncomingMessage)

// TelegramClient abstracts the Telegram user-account client driven by the auth
// and lookup flows.
type TelegramClient interface {
	// SendCode asks Telegram to deliver a login code to the phone and returns
	// the opaque code hash tied to this attempt.
	SendCode(ctx context.Context, phone string) (string, error)
	// SignIn submits the received code. Returns ErrPasswordRequired when the
	// account has 2FA enabled.
	SignIn(ctx context.Context, phone, code, codeHash string) error
	// SubmitPassword completes a 2FA sign in after SignIn reported ErrPasswordRequired.
	SubmitPassword(ctx context.Context, password string) error
	// SignOut terminates the session on the Telegram side.
	SignOut(ctx context.Context) error
	// SendMessage delivers text to the peer identified by peerKey (username or id).
	SendMessage(ctx context.Context, peerKey, text string) error
	// Status reports whether the current session is still accepted by Telegram
	// and, when it is, the phone number it belongs to.
	Status(ctx context.Context) (authorized bool, phone string, err error)
	// OnMessage registers the handler fed by the update stream. The handler
	// must be registered before any message that could trigger a reply is sent.
	OnMessage(handler MessageHandler)
}
