package telegram

import (
	"context"
	"errors"

	"github.com/gotd/td/session"

	"github.com/arklim/rera-lookup-gateway/internal/core/port"
	"github.com/arklim/rera-lookup-gateway/internal/repository"
)

// sessionBridge adapts port.SessionStore to gotd's session storage, so the
// credential blob flows through whichever backend the deployment configured.
// gotd writes the blob the moment Telegram grants or refreshes a session.
type sessionBridge struct {
	store port.SessionStore
}

func (b *sessionBridge) LoadSession(ctx context.Context) ([]byte, error) {
	blob, err := b.store.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}
	return blob, nil
}

func (b *sessionBridge) StoreSession(ctx context.Context, data []byte) error {
	return b.store.Save(ctx, data)
}
