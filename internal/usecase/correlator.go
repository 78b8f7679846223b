package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/rera-lookup-gateway/internal/core/port"
)

// ReplyWait is a single-fulfillment slot for one expected reply.
type ReplyWait struct {
	peerKey string
	done    chan string
}

// PeerKey reports the peer this wait is registered for.
func (w *ReplyWait) PeerKey() string {
	return w.peerKey
}

// ReplyCorrelator matches incoming messages from the Telegram update stream to
// the lookup that expects them. One registration per peer key; the first
// matching message wins and messages with no registered waiter are dropped.
type ReplyCorrelator struct {
	mu      sync.Mutex
	waiting map[string]*ReplyWait
	logger  *zap.Logger
}

// NewReplyCorrelator constructs a correlator ready to receive messages.
func NewReplyCorrelator(logger *zap.Logger) *ReplyCorrelator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplyCorrelator{
		waiting: make(map[string]*ReplyWait),
		logger:  logger,
	}
}

// Register claims the peer key for one expected reply. It must be called
// before the message that could trigger the reply is sent.
func (c *ReplyCorrelator) Register(peerKey string) (*ReplyWait, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.waiting[peerKey]; exists {
		return nil, ErrLookupInProgress
	}

	wait := &ReplyWait{
		peerKey: peerKey,
		done:    make(chan string, 1),
	}
	c.waiting[peerKey] = wait
	return wait, nil
}

// HandleMessage consumes one incoming message. Invoked from the Telegram
// client's receive loop; the registration table is the only state shared with
// request handling and is guarded here.
func (c *ReplyCorrelator) HandleMessage(msg port.IncomingMessage) {
	c.mu.Lock()
	wait, ok := c.waiting[msg.PeerKey]
	if ok {
		delete(c.waiting, msg.PeerKey)
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("dropping unmatched message", zap.String("peer", msg.PeerKey))
		return
	}

	// Buffered, and the registration is already removed, so this never blocks.
	wait.done <- msg.Text
}

// Cancel removes a registration without fulfilling it. Safe to call after
// fulfillment or timeout already removed it.
func (c *ReplyCorrelator) Cancel(wait *ReplyWait) {
	if wait == nil {
		return
	}

	c.mu.Lock()
	if current, ok := c.waiting[wait.peerKey]; ok && current == wait {
		delete(c.waiting, wait.peerKey)
	}
	c.mu.Unlock()
}

// Await blocks until the reply arrives, the timeout elapses, or ctx is
// cancelled. Timeout and cancellation remove the registration so a late reply
// cannot resurrect it.
func (c *ReplyCorrelator) Await(ctx context.Context, wait *ReplyWait, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case text := <-wait.done:
		return text, nil
	case <-timer.C:
		c.Cancel(wait)
		// A fulfillment may have raced the timer; prefer the reply.
		select {
		case text := <-wait.done:
			return text, nil
		default:
		}
		return "", ErrLookupTimeout
	case <-ctx.Done():
		c.Cancel(wait)
		return "", ctx.Err()
	}
}
