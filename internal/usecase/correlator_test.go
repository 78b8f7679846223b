package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arklim/rera-lookup-gateway/internal/core/port"
)

func TestReplyCorrelator_FulfillsRegisteredWaiter(t *testing.T) {
	c := NewReplyCorrelator(nil)

	wait, err := c.Register("AtlasDubaiBot")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	c.HandleMessage(port.IncomingMessage{PeerKey: "AtlasDubaiBot", Text: "Owner: Jane Doe"})

	text, err := c.Await(context.Background(), wait, time.Second)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if text != "Owner: Jane Doe" {
		t.Fatalf("got %q, want %q", text, "Owner: Jane Doe")
	}
}

func TestReplyCorrelator_RejectsDuplicateRegistration(t *testing.T) {
	c := NewReplyCorrelator(nil)

	if _, err := c.Register("AtlasDubaiBot"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := c.Register("AtlasDubaiBot"); !errors.Is(err, ErrLookupInProgress) {
		t.Fatalf("expected ErrLookupInProgress, got %v", err)
	}
}

func TestReplyCorrelator_CrossPeerNeverMatches(t *testing.T) {
	c := NewReplyCorrelator(nil)

	waitA, err := c.Register("peerA")
	if err != nil {
		t.Fatalf("Register peerA: %v", err)
	}
	waitB, err := c.Register("peerB")
	if err != nil {
		t.Fatalf("Register peerB: %v", err)
	}

	c.HandleMessage(port.IncomingMessage{PeerKey: "peerA", Text: "for A"})

	text, err := c.Await(context.Background(), waitA, time.Second)
	if err != nil {
		t.Fatalf("Await peerA: %v", err)
	}
	if text != "for A" {
		t.Fatalf("peerA got %q", text)
	}

	if _, err := c.Await(context.Background(), waitB, 50*time.Millisecond); !errors.Is(err, ErrLookupTimeout) {
		t.Fatalf("expected peerB to time out, got %v", err)
	}
}

func TestReplyCorrelator_TimeoutRemovesRegistration(t *testing.T) {
	c := NewReplyCorrelator(nil)

	wait, err := c.Register("AtlasDubaiBot")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	start := time.Now()
	if _, err := c.Await(context.Background(), wait, 100*time.Millisecond); !errors.Is(err, ErrLookupTimeout) {
		t.Fatalf("expected ErrLookupTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("Await returned after %v, before the timeout elapsed", elapsed)
	}

	// A late message must not resurrect the registration.
	c.HandleMessage(port.IncomingMessage{PeerKey: "AtlasDubaiBot", Text: "late reply"})

	if _, err := c.Register("AtlasDubaiBot"); err != nil {
		t.Fatalf("Register after timeout: %v", err)
	}
}

func TestReplyCorrelator_FirstMatchWins(t *testing.T) {
	c := NewReplyCorrelator(nil)

	wait, err := c.Register("AtlasDubaiBot")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	c.HandleMessage(port.IncomingMessage{PeerKey: "AtlasDubaiBot", Text: "first"})
	c.HandleMessage(port.IncomingMessage{PeerKey: "AtlasDubaiBot", Text: "second"})

	text, err := c.Await(context.Background(), wait, time.Second)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if text != "first" {
		t.Fatalf("got %q, want the first reply", text)
	}
}

func TestReplyCorrelator_CancelFreesPeer(t *testing.T) {
	c := NewReplyCorrelator(nil)

	wait, err := c.Register("AtlasDubaiBot")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	c.Cancel(wait)

	if _, err := c.Register("AtlasDubaiBot"); err != nil {
		t.Fatalf("Register after Cancel: %v", err)
	}
}

func TestReplyCorrelator_ContextCancellation(t *testing.T) {
	c := NewReplyCorrelator(nil)

	wait, err := c.Register("AtlasDubaiBot")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if _, err := c.Await(ctx, wait, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if _, err := c.Register("AtlasDubaiBot"); err != nil {
		t.Fatalf("Register after cancellation: %v", err)
	}
}

func TestReplyCorrelator_ConcurrentDelivery(t *testing.T) {
	c := NewReplyCorrelator(nil)

	wait, err := c.Register("AtlasDubaiBot")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.HandleMessage(port.IncomingMessage{PeerKey: "AtlasDubaiBot", Text: "reply"})
		}()
	}

	text, err := c.Await(context.Background(), wait, time.Second)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if text != "reply" {
		t.Fatalf("got %q", text)
	}

	wg.Wait()
}
