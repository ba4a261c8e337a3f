package audit

import (
	"context"
	"slices"
	"strings"
	"time"

	"veil/pkg/domain"
)

// Action is the verb recorded by a privacy audit entry.
type Action string

const (
	ActionAccess    Action = "access"
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionExport    Action = "export"
	ActionAnonymize Action = "anonymize"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionAccess, ActionCreate, ActionUpdate, ActionDelete, ActionExport, ActionAnonymize:
		return true
	}
	return false
}

func (a Action) String() string { return string(a) }

// Data types carried in Entry.DataType. Anything else is free-form.
const (
	DataTypeSession             = "session"
	DataTypeIdentity            = "identity"
	DataTypePersonalIdentifiers = "personal_identifiers"
	DataTypeHealth              = "health_data"
	DataTypeAuditLog            = "audit_log"
)

// Metadata keys with fixed meaning. MetaCategories holds the comma-separated
// category set of the record an entry refers to.
const (
	MetaIntegrityViolation = "integrity_violation"
	MetaReason             = "reason"
	MetaRecordID           = "record_id"
	MetaDevice             = "device"
	MetaError              = "error"
	MetaCategories         = "categories"
)

// Entry is one append-only privacy audit record.
// ID is assigned by the store and is monotonic. Metadata never carries PII.
type Entry struct {
	ID              uint64             `json:"id"`
	Action          Action             `json:"action"`
	AnonymousID     domain.AnonymousID `json:"anonymous_id,omitempty"`
	CompanyID       domain.CompanyID   `json:"company_id,omitempty"`
	DataType        string             `json:"data_type"`
	Timestamp       time.Time          `json:"timestamp"`
	Success         bool               `json:"success"`
	ComplianceFlags []string           `json:"compliance_flags"`
	Metadata        map[string]string  `json:"metadata,omitempty"`
	RequestID       string             `json:"request_id,omitempty"`
}

// IntegrityViolation reports whether the entry records a failed decrypt.
func (e Entry) IntegrityViolation() bool {
	return e.Metadata[MetaIntegrityViolation] == "true"
}

// DataTypes is DataType followed by any further categories named in
// metadata.
func (e Entry) DataTypes() []string {
	types := []string{e.DataType}
	for _, c := range strings.Split(e.Metadata[MetaCategories], ",") {
		if c = strings.TrimSpace(c); c != "" && !slices.Contains(types, c) {
			types = append(types, c)
		}
	}
	return types
}

// Store persists audit entries. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ListRange(ctx context.Context, start, end time.Time) ([]Entry, error)
	ListByAnonymousID(ctx context.Context, anonymousID domain.AnonymousID) ([]Entry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Sink is a best-effort secondary destination for entries.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// Timeframe is an inclusive reporting window.
type Timeframe struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (t Timeframe) Contains(ts time.Time) bool {
	return !ts.Before(t.Start) && !ts.After(t.End)
}

// Report summarises audit activity within a timeframe.
type Report struct {
	Timeframe         Timeframe                `json:"timeframe"`
	Profile           domain.ComplianceProfile `json:"profile"`
	TotalActions      int                      `json:"total_actions"`
	SuccessfulActions int                      `json:"successful_actions"`
	FailedActions     int                      `json:"failed_actions"`
	ComplianceScore   float64                  `json:"compliance_score"`
	ActionHistogram   map[Action]int           `json:"action_histogram"`
	FlagHistogram     map[string]int           `json:"flag_histogram"`
	UniqueSubjects    int                      `json:"unique_subjects"`
	Recommendations   []string                 `json:"recommendations"`
	GeneratedAt       time.Time                `json:"generated_at"`
}
