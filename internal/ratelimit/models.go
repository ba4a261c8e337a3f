package ratelimit

import (
	"context"
	"time"
)

// Class groups endpoints that share a request budget.
type Class string

const (
	// ClassStandard covers reads and ordinary writes.
	ClassStandard Class = "standard"
	// ClassSensitive covers session creation and decryption, where repeated
	// attempts probe identities or keys.
	ClassSensitive Class = "sensitive"
)

// Result is the outcome of one check against a window.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Store counts requests per key in a sliding window. Implementations must be
// safe for concurrent use.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Reset(ctx context.Context, key string) error
}
