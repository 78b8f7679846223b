package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/rera-lookup-gateway/internal/repository"
)

const defaultSessionPrefix = "rera:session"

// SessionStore persists the opaque credential blob in Redis, keyed by account.
// Alternative to the file backend for deployments without durable local disk.
type SessionStore struct {
	client  *red.Client
	prefix  string
	account string
}

// NewSessionStore constructs a Redis-backed session store for one account.
func NewSessionStore(client *red.Client, keyPrefix, account string) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}
	if strings.TrimSpace(account) == "" {
		account = "default"
	}

	return &SessionStore{client: client, prefix: prefix, account: account}
}

// Load returns the stored blob, or repository.ErrNotFound when absent.
func (s *SessionStore) Load(ctx context.Context) ([]byte, error) {
	blob, err := s.client.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	if len(blob) == 0 {
		return nil, repository.ErrNotFound
	}
	return blob, nil
}

// Save replaces the stored blob. Sessions do not expire on their own; Telegram
// revokes them server side, so no TTL is applied.
func (s *SessionStore) Save(ctx context.Context, blob []byte) error {
	if err := s.client.Set(ctx, s.key(), blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Clear removes the stored blob. Deleting an absent key is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

func (s *SessionStore) key() string {
	return fmt.Sprintf("%s:%s", s.prefix, s.account)
}
