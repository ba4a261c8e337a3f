package audit

import (
	"context"
	"log/slog"
	"maps"

	"veil/internal/platform/metrics"
	"veil/pkg/domain"
	"veil/pkg/platform/circuit"
	"veil/pkg/requestcontext"
)

const (
	defaultBufferSize = 1024

	sinkPrimary   = "primary"
	sinkSecondary = "secondary"
)

// piiMetadataKeys are stripped from metadata before an entry is queued.
var piiMetadataKeys = []string{
	"user_id", "real_user_id", "external_user_id", "email", "name",
	"phone", "ip", "client_ip", "user_agent",
}

// Logger records privacy audit entries without blocking callers.
// Entries are queued on a buffered channel and persisted by Run. When the
// buffer is full the entry is written synchronously instead of dropped.
type Logger struct {
	store   Store
	sink    Sink
	breaker *circuit.Breaker
	profile domain.ComplianceProfile
	queue   chan Entry
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Logger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) { l.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Logger) { l.metrics = m }
}

// WithSink adds a best-effort secondary destination guarded by a breaker.
func WithSink(s Sink) Option {
	return func(l *Logger) { l.sink = s }
}

func WithBufferSize(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.queue = make(chan Entry, n)
		}
	}
}

func NewLogger(store Store, profile domain.ComplianceProfile, opts ...Option) *Logger {
	l := &Logger{
		store:   store,
		profile: profile,
		queue:   make(chan Entry, defaultBufferSize),
		logger:  slog.Default(),
		breaker: circuit.New("audit-sink"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Profile is the deployment compliance profile used for flags.
func (l *Logger) Profile() domain.ComplianceProfile { return l.profile }

// Log records an entry. It never fails: persistence errors are logged and
// counted.
func (l *Logger) Log(ctx context.Context, entry Entry) {
	l.LogWithProfile(ctx, l.profile, entry)
}

// LogWithProfile records an entry flagged under a company's own profile.
func (l *Logger) LogWithProfile(ctx context.Context, profile domain.ComplianceProfile, entry Entry) {
	if !profile.IsValid() {
		profile = l.profile
	}
	entry = l.prepare(ctx, profile, entry)

	select {
	case l.queue <- entry:
		l.metrics.SetAuditQueueDepth(len(l.queue))
	default:
		l.write(context.WithoutCancel(ctx), entry)
	}
}

func (l *Logger) prepare(ctx context.Context, profile domain.ComplianceProfile, entry Entry) Entry {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	entry.Timestamp = entry.Timestamp.UTC()
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if entry.CompanyID.IsNil() {
		entry.CompanyID = requestcontext.CompanyID(ctx)
	}
	entry.ComplianceFlags = ComplianceFlagsFor(entry.Action, entry.DataTypes(), profile)

	meta := maps.Clone(entry.Metadata)
	if meta == nil {
		meta = make(map[string]string)
	}
	for _, k := range piiMetadataKeys {
		delete(meta, k)
	}
	if _, ok := meta[MetaDevice]; !ok {
		if device := requestcontext.DeviceLabel(ctx); device != "" {
			meta[MetaDevice] = device
		}
	}
	if len(meta) == 0 {
		meta = nil
	}
	entry.Metadata = meta
	return entry
}

// write persists one entry to the store and offers it to the sink.
func (l *Logger) write(ctx context.Context, entry Entry) {
	if err := l.store.Append(ctx, &entry); err != nil {
		l.metrics.IncAuditDropped(sinkPrimary)
		l.logger.ErrorContext(ctx, "audit store append failed",
			"event", "audit_write_failed",
			"log_type", "audit",
			"action", string(entry.Action),
			"anonymous_id", entry.AnonymousID.String(),
			"data_type", entry.DataType,
			"success", entry.Success,
			"compliance_flags", entry.ComplianceFlags,
			"request_id", entry.RequestID,
			"error", err,
		)
	}
	l.publish(ctx, entry)
}

func (l *Logger) publish(ctx context.Context, entry Entry) {
	if l.sink == nil {
		return
	}
	if !l.breaker.Allow() {
		l.metrics.IncAuditDropped(sinkSecondary)
		return
	}
	if err := l.sink.Publish(ctx, entry); err != nil {
		l.metrics.IncAuditDropped(sinkSecondary)
		if _, change := l.breaker.RecordFailure(); change.Opened {
			l.logger.WarnContext(ctx, "audit sink circuit opened",
				"event", "audit_sink_unavailable",
				"log_type", "audit",
				"error", err,
			)
		}
		return
	}
	if _, change := l.breaker.RecordSuccess(); change.Closed {
		l.logger.InfoContext(ctx, "audit sink circuit closed",
			"event", "audit_sink_recovered",
			"log_type", "audit",
		)
	}
}
