package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(opts ...Option) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.now)}, opts...)
	return New("identity_provider", opts...), clock
}

func TestNewBreakerStartsClosed(t *testing.T) {
	b, _ := newTestBreaker()
	assert.Equal(t, "identity_provider", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.True(t, b.Allow())
}

func TestConsecutiveFailuresOpen(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(3))

	for i := range 2 {
		fallback, change := b.RecordFailure()
		require.False(t, fallback, "failure %d", i+1)
		require.False(t, change.Opened)
	}
	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())

	// further failures while open report no new transition
	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened)
}

func TestInterleavedSuccessResetsFailureRun(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestOpenBreakerAdmitsOneProbePerCooldown(t *testing.T) {
	b, clock := newTestBreaker(WithFailureThreshold(1), WithCooldown(10*time.Second))
	b.RecordFailure()

	assert.False(t, b.Allow(), "cooldown has not elapsed")

	clock.advance(10 * time.Second)
	assert.True(t, b.Allow(), "first probe after cooldown")
	assert.False(t, b.Allow(), "second caller waits for the next cooldown")

	clock.advance(10 * time.Second)
	assert.True(t, b.Allow())
}

func TestSuccessThresholdClosesAfterProbes(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	primary, change := b.RecordSuccess()
	assert.False(t, primary)
	assert.False(t, change.Closed)

	// a failed probe restarts the success run
	b.RecordFailure()
	primary, _ = b.RecordSuccess()
	assert.False(t, primary)

	primary, change = b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
	assert.True(t, b.Allow())
}

func TestInvalidOptionsKeepDefaults(t *testing.T) {
	b, clock := newTestBreaker(WithFailureThreshold(0), WithSuccessThreshold(-1), WithCooldown(0))

	for range 4 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen(), "default threshold is five")
	b.RecordFailure()
	require.True(t, b.IsOpen())

	clock.advance(29 * time.Second)
	assert.False(t, b.Allow(), "default cooldown is thirty seconds")
	clock.advance(time.Second)
	assert.True(t, b.Allow())
}

func TestReset(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}
