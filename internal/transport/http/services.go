package httptransport

import (
	"context"
	"time"

	"veil/internal/anonymize"
	"veil/internal/audit"
	"veil/internal/classification"
	"veil/internal/company"
	"veil/internal/platform/scheduler"
	"veil/internal/retention"
	"veil/internal/sealing"
	"veil/internal/session"
	"veil/pkg/domain"
)

// SessionService is the slice of session.Service the transport needs.
type SessionService interface {
	CreateSession(ctx context.Context, externalUserID string, companyID domain.CompanyID, level domain.AccessLevel) (*session.Created, error)
	GetSession(ctx context.Context, id domain.SessionID) (*session.Session, error)
	Require(ctx context.Context, id domain.SessionID, perm session.Permission) (*session.Session, error)
	ValidateToken(ctx context.Context, raw string) (*session.Session, error)
	ResolveIdentity(ctx context.Context, id domain.SessionID) (string, error)
	ReapExpired(ctx context.Context) (session.ReapResult, error)
}

// DataService is the anonymization gateway.
type DataService interface {
	AnonymizeData(ctx context.Context, sessionID domain.SessionID, payload map[string]any, c classification.DataClassification) (*anonymize.Record, error)
	SupersedeData(ctx context.Context, sessionID domain.SessionID, previousID domain.RecordID, payload map[string]any, c classification.DataClassification) (*anonymize.Record, error)
	DecryptData(ctx context.Context, sessionID domain.SessionID, env sealing.Envelope) (map[string]any, error)
	DecryptRecord(ctx context.Context, sessionID domain.SessionID, recordID domain.RecordID) (map[string]any, error)
	VerifyRecord(ctx context.Context, sessionID domain.SessionID, recordID domain.RecordID) (bool, error)
}

type ComplianceReporter interface {
	GenerateComplianceReport(ctx context.Context, start, end time.Time) (*audit.Report, error)
}

type RetentionEnforcer interface {
	EnforceRetention(ctx context.Context, now time.Time) (*retention.Result, error)
}

// SweepGuard runs an on-demand sweep under the same single-flight guard as
// its scheduled runs. ran is false when a run was already in flight.
type SweepGuard interface {
	Exclusive(ctx context.Context, fn scheduler.Func) (ran bool, err error)
}

type CompanyLister interface {
	List(ctx context.Context) []*company.Company
}
