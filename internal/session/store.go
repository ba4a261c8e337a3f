package session

import (
	"context"
	"time"

	"veil/pkg/domain"
)

// Store holds live sessions. Get and Delete return sentinel.ErrNotFound for
// unknown ids.
type Store interface {
	Save(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id domain.SessionID) (*Session, error)
	Delete(ctx context.Context, id domain.SessionID) error
	ListExpired(ctx context.Context, now time.Time) ([]domain.SessionID, error)
}
