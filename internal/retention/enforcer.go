// Package retention deletes anonymized records and audit entries that have
// outlived their retention period.
package retention

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"veil/internal/anonymize"
	"veil/internal/audit"
	"veil/internal/classification"
	"veil/internal/company"
	"veil/internal/platform/metrics"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/sentinel"
	"veil/pkg/requestcontext"
)

// ReasonPolicy is the audit reason recorded for every retention deletion.
const ReasonPolicy = "data_retention_policy"

// ReasonAuditPolicy is recorded when aged audit entries are purged.
const ReasonAuditPolicy = "audit_retention_policy"

// Companies supplies per-company overrides and profiles.
type Companies interface {
	Get(ctx context.Context, id domain.CompanyID) (*company.Company, error)
	ProfileFor(id domain.CompanyID) domain.ComplianceProfile
}

// Auditor records privacy audit entries under a company profile.
type Auditor interface {
	LogWithProfile(ctx context.Context, profile domain.ComplianceProfile, entry audit.Entry)
}

// Result summarises one enforcement run. ByCategory counts deletions by the
// retention bucket that expired them.
type Result struct {
	Deleted     int            `json:"deleted"`
	AuditPurged int            `json:"audit_purged"`
	Failed      int            `json:"failed"`
	ByCategory  map[string]int `json:"by_category"`
}

type Enforcer struct {
	records   anonymize.Store
	audits    audit.Store
	auditor   Auditor
	companies Companies

	dataRetention  time.Duration
	auditRetention time.Duration
	profile        domain.ComplianceProfile

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Enforcer)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Enforcer) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Enforcer) { e.metrics = m }
}

// NewEnforcer builds an enforcer. dataRetention is the deployment default
// for any category without a company override; auditRetention bounds the
// audit log.
func NewEnforcer(
	records anonymize.Store,
	audits audit.Store,
	auditor Auditor,
	companies Companies,
	dataRetention, auditRetention time.Duration,
	profile domain.ComplianceProfile,
	opts ...Option,
) *Enforcer {
	e := &Enforcer{
		records:        records,
		audits:         audits,
		auditor:        auditor,
		companies:      companies,
		dataRetention:  dataRetention,
		auditRetention: auditRetention,
		profile:        profile,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnforceRetention deletes every record older than its retention and purges
// audit entries older than the audit retention. Per-record failures are
// logged and counted; only a failure to list records or purge the audit
// log fails the run. Running it twice with the same now deletes nothing
// the second time.
func (e *Enforcer) EnforceRetention(ctx context.Context, now time.Time) (*Result, error) {
	ctx = requestcontext.WithTime(ctx, now)
	res := &Result{ByCategory: make(map[string]int)}

	metas, err := e.records.ListCreatedBefore(ctx, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records for retention")
	}

	overrides := make(map[domain.CompanyID]*company.Company)
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		c, ok := overrides[m.CompanyID]
		if !ok {
			c = e.lookupCompany(ctx, m.CompanyID)
			overrides[m.CompanyID] = c
		}
		bucket, retention := e.retentionFor(m, c)
		if !m.CreatedAt.Before(now.Add(-retention)) {
			continue
		}
		if err := e.records.Delete(ctx, m.ID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			res.Failed++
			e.logger.ErrorContext(ctx, "retention delete failed",
				"record_id", m.ID.String(),
				"company_id", m.CompanyID.String(),
				"error", err,
			)
			continue
		}
		res.Deleted++
		res.ByCategory[bucket]++
		e.auditor.LogWithProfile(ctx, e.companies.ProfileFor(m.CompanyID), audit.Entry{
			Action:      audit.ActionDelete,
			AnonymousID: m.AnonymousID,
			CompanyID:   m.CompanyID,
			DataType:    bucket,
			Success:     true,
			Metadata: map[string]string{
				audit.MetaRecordID: m.ID.String(),
				audit.MetaReason:   ReasonPolicy,
				"retention":        retention.String(),
			},
		})
	}

	purged, err := e.audits.DeleteBefore(ctx, now.Add(-e.auditRetention))
	if err != nil {
		return res, dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge audit log")
	}
	res.AuditPurged = purged
	if purged > 0 {
		e.auditor.LogWithProfile(ctx, e.profile, audit.Entry{
			Action:   audit.ActionDelete,
			DataType: audit.DataTypeAuditLog,
			Success:  true,
			Metadata: map[string]string{
				audit.MetaReason: ReasonAuditPolicy,
				"purged":         strconv.Itoa(purged),
			},
		})
	}

	e.metrics.AddRetentionDeleted("records", res.Deleted)
	e.metrics.AddRetentionDeleted("audit", res.AuditPurged)
	e.metrics.AddSweepFailures("retention", res.Failed)
	e.logger.InfoContext(ctx, "retention enforced",
		"event", "retention_enforced",
		"log_type", "audit",
		"deleted", res.Deleted,
		"audit_purged", res.AuditPurged,
		"failed", res.Failed,
	)
	return res, nil
}

// Sweep is EnforceRetention at the current time, shaped for the scheduler.
func (e *Enforcer) Sweep(ctx context.Context) error {
	_, err := e.EnforceRetention(ctx, time.Now().UTC())
	return err
}

func (e *Enforcer) lookupCompany(ctx context.Context, id domain.CompanyID) *company.Company {
	c, err := e.companies.Get(ctx, id)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			e.logger.WarnContext(ctx, "company lookup failed, using deployment retention",
				"company_id", id.String(),
				"error", err,
			)
		}
		return nil
	}
	return c
}

// retentionFor picks the shortest retention among the record's categories
// and its own classification period. The returned bucket is the category
// that set the limit.
func (e *Enforcer) retentionFor(m anonymize.Meta, c *company.Company) (string, time.Duration) {
	categories := m.Categories
	if len(categories) == 0 {
		categories = []string{classification.Uncategorized}
	}

	bucket, shortest := "", time.Duration(0)
	for _, cat := range categories {
		d := e.dataRetention
		if c != nil {
			if override, ok := c.Retention(cat); ok {
				d = override
			}
		}
		if bucket == "" || d < shortest {
			bucket, shortest = cat, d
		}
	}
	if m.RetentionPeriod > 0 && m.RetentionPeriod < shortest {
		shortest = m.RetentionPeriod
	}
	return bucket, shortest
}
