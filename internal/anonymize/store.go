package anonymize

import (
	"context"
	"time"

	"veil/pkg/domain"
)

// Store persists anonymized records.
//   - Save returns sentinel.ErrConflict for a duplicate id and
//     sentinel.ErrSuperseded when the superseded record already has a successor.
//   - Get and Delete return sentinel.ErrNotFound for unknown ids.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id domain.RecordID) (*Record, error)
	Delete(ctx context.Context, id domain.RecordID) error
	ListCreatedBefore(ctx context.Context, before time.Time) ([]Meta, error)
}
