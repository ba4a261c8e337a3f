package audit

import "context"

// Run drains the queue into the store until ctx is cancelled. Entries still
// buffered at cancellation are flushed before Run returns.
func (l *Logger) Run(ctx context.Context) error {
	writeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			l.Drain(writeCtx)
			return nil
		case entry := <-l.queue:
			l.write(writeCtx, entry)
			l.metrics.SetAuditQueueDepth(len(l.queue))
		}
	}
}

// Drain persists every currently queued entry and returns how many it wrote.
func (l *Logger) Drain(ctx context.Context) int {
	n := 0
	for {
		select {
		case entry := <-l.queue:
			l.write(ctx, entry)
			n++
		default:
			l.metrics.SetAuditQueueDepth(0)
			return n
		}
	}
}

// Pending is the number of queued, unwritten entries.
func (l *Logger) Pending() int { return len(l.queue) }
