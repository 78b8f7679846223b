package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"

	"github.com/arklim/rera-lookup-gateway/internal/core/port"
)

const startTimeout = 30 * time.Second

// Client implements port.TelegramClient over a gotd MTProto user client.
type Client struct {
	client *telegram.Client
	sender *message.Sender
	logger *zap.Logger

	mu      sync.RWMutex
	handler port.MessageHandler

	stop func()
	done chan error
}

// Config carries the application credentials for the MTProto client.
type Config struct {
	APIID   int
	APIHash string
}

// New constructs a Client. Start must be called before any other method.
func New(cfg Config, store port.SessionStore, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{logger: log}

	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(c.onNewMessage)

	c.client = telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &sessionBridge{store: store},
		UpdateHandler:  dispatcher,
		Logger:         log.Named("gotd"),
	})
	c.sender = message.NewSender(c.client.API())

	return c
}

// Start connects to Telegram and keeps the connection (and its update stream)
// alive until Close or ctx cancellation. It returns once the connection is up.
func (c *Client) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	ready := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- c.client.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-ready:
		c.stop = cancel
		c.done = done
		c.logger.Info("telegram client connected")
		return nil
	case err := <-done:
		cancel()
		return fmt.Errorf("run telegram client: %w", err)
	case <-time.After(startTimeout):
		cancel()
		return fmt.Errorf("telegram client did not connect within %s", startTimeout)
	}
}

// Close tears the connection down and waits for the run loop to exit.
func (c *Client) Close() error {
	if c.stop == nil {
		return nil
	}
	c.stop()
	err := <-c.done
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// OnMessage registers the handler fed by the update stream.
func (c *Client) OnMessage(handler port.MessageHandler) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

func (c *Client) onNewMessage(_ context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
	msg, ok := update.Message.(*tg.Message)
	if !ok || msg.Out {
		return nil
	}

	peerUser, ok := msg.PeerID.(*tg.PeerUser)
	if !ok {
		return nil
	}

	key := strconv.FormatInt(peerUser.UserID, 10)
	if user, found := e.Users[peerUser.UserID]; found && user.Username != "" {
		key = NormalizePeerKey(user.Username)
	}

	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()

	if handler != nil {
		handler(port.IncomingMessage{PeerKey: key, Text: msg.Message})
	}
	return nil
}

// SendCode asks Telegram to deliver a login code and returns the code hash.
func (c *Client) SendCode(ctx context.Context, phone string) (string, error) {
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", translateErr(err)
	}

	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("%w: unexpected sent code type %T", port.ErrUnavailable, sent)
	}
	return code.PhoneCodeHash, nil
}

// SignIn submits the received login code.
func (c *Client) SignIn(ctx context.Context, phone, code, codeHash string) error {
	_, err := c.client.Auth().SignIn(ctx, phone, code, codeHash)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordAuthNeeded) {
			return port.ErrPasswordRequired
		}
		return translateErr(err)
	}
	return nil
}

// SubmitPassword completes a 2FA sign in.
func (c *Client) SubmitPassword(ctx context.Context, password string) error {
	if _, err := c.client.Auth().Password(ctx, password); err != nil {
		return translateErr(err)
	}
	return nil
}

// SignOut terminates the session on the Telegram side.
func (c *Client) SignOut(ctx context.Context) error {
	if _, err := c.client.API().AuthLogOut(ctx); err != nil {
		return translateErr(err)
	}
	return nil
}

// SendMessage delivers text to the peer, resolving it by username.
func (c *Client) SendMessage(ctx context.Context, peerKey, text string) error {
	if _, err := c.sender.Resolve(peerKey).Text(ctx, text); err != nil {
		return translateErr(err)
	}
	return nil
}

// Status reports whether the stored session is still accepted by Telegram.
func (c *Client) Status(ctx context.Context) (bool, string, error) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, "", translateErr(err)
	}
	if !status.Authorized {
		return false, "", nil
	}

	phone := ""
	if status.User != nil && status.User.Phone != "" {
		phone = "+" + status.User.Phone
	}
	return true, phone, nil
}

// HealthCheck verifies the MTProto connection answers an auth status probe.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Auth().Status(ctx); err != nil {
		return fmt.Errorf("telegram health check: %w", err)
	}
	return nil
}

// NormalizePeerKey canonicalises a peer identity: usernames lose their leading
// @ and compare case-insensitively; numeric ids pass through unchanged.
func NormalizePeerKey(key string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(key), "@"))
}

// translateErr maps raw MTProto errors onto the port taxonomy.
func translateErr(err error) error {
	switch {
	case tgerr.Is(err, "PHONE_NUMBER_INVALID"), tgerr.Is(err, "PHONE_NUMBER_BANNED"):
		return fmt.Errorf("%w: %v", port.ErrInvalidPhone, err)
	case tgerr.Is(err, "FLOOD_WAIT"), tgerr.Is(err, "PHONE_NUMBER_FLOOD"):
		return fmt.Errorf("%w: %v", port.ErrRateLimited, err)
	case tgerr.Is(err, "PHONE_CODE_INVALID"), tgerr.Is(err, "PHONE_CODE_EMPTY"):
		return fmt.Errorf("%w: %v", port.ErrInvalidCode, err)
	case tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		return fmt.Errorf("%w: %v", port.ErrCodeExpired, err)
	case tgerr.Is(err, "SESSION_PASSWORD_NEEDED"):
		return port.ErrPasswordRequired
	case tgerr.Is(err, "PASSWORD_HASH_INVALID"):
		return fmt.Errorf("%w: %v", port.ErrInvalidPassword, err)
	case tgerr.Is(err, "USERNAME_NOT_OCCUPIED"), tgerr.Is(err, "USERNAME_INVALID"), tgerr.Is(err, "PEER_ID_INVALID"):
		return fmt.Errorf("%w: %v", port.ErrPeerNotFound, err)
	case tgerr.Is(err, "AUTH_KEY_UNREGISTERED"), tgerr.Is(err, "SESSION_REVOKED"), tgerr.Is(err, "USER_DEACTIVATED"):
		return fmt.Errorf("%w: %v", port.ErrNotAuthorized, err)
	default:
		return fmt.Errorf("%w: %v", port.ErrUnavailable, err)
	}
}

var _ port.TelegramClient = (*Client)(nil)
