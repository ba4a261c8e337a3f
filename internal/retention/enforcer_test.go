package retention_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"veil/internal/anonymize"
	anonmocks "veil/internal/anonymize/mocks"
	"veil/internal/audit"
	auditmem "veil/internal/audit/store/memory"
	"veil/internal/classification"
	"veil/internal/company"
	"veil/internal/platform/logger"
	"veil/internal/retention"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/sentinel"
)

const day = 24 * time.Hour

type recordingAuditor struct {
	entries []audit.Entry
}

func (a *recordingAuditor) LogWithProfile(_ context.Context, _ domain.ComplianceProfile, e audit.Entry) {
	a.entries = append(a.entries, e)
}

type EnforcerSuite struct {
	suite.Suite
	records   *anonymize.InMemoryStore
	audits    *auditmem.InMemoryStore
	auditor   *recordingAuditor
	companies *company.Registry
	enforcer  *retention.Enforcer
	now       time.Time
	ctx       context.Context
}

func TestEnforcerSuite(t *testing.T) {
	suite.Run(t, new(EnforcerSuite))
}

func (s *EnforcerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.records = anonymize.NewInMemoryStore()
	s.audits = auditmem.NewInMemoryStore()
	s.auditor = &recordingAuditor{}
	s.companies = company.NewRegistry(domain.ProfileBasic, company.WithLogger(logger.Discard()))
	_, err := s.companies.Register(s.ctx, company.Company{
		ID:   "acme",
		Name: "Acme",
		RetentionOverrides: map[string]time.Duration{
			classification.HealthData: 30 * day,
		},
	})
	s.Require().NoError(err)
	s.enforcer = s.newEnforcer(s.records)
}

func (s *EnforcerSuite) newEnforcer(records anonymize.Store) *retention.Enforcer {
	return retention.NewEnforcer(records, s.audits, s.auditor, s.companies, 365*day, 2*365*day, domain.ProfileBasic,
		retention.WithLogger(logger.Discard()))
}

func (s *EnforcerSuite) save(companyID domain.CompanyID, age time.Duration, period time.Duration, categories ...string) *anonymize.Record {
	rec := &anonymize.Record{
		ID:          domain.NewRecordID(),
		CompanyID:   companyID,
		AnonymousID: "anon-1",
		Classification: classification.DataClassification{
			Level:           classification.LevelInternal,
			Categories:      categories,
			RetentionPeriod: period,
		},
		Version:   1,
		CreatedAt: s.now.Add(-age),
	}
	s.Require().NoError(s.records.Save(s.ctx, rec))
	return rec
}

func (s *EnforcerSuite) exists(id domain.RecordID) bool {
	_, err := s.records.Get(s.ctx, id)
	return !errors.Is(err, sentinel.ErrNotFound)
}

func (s *EnforcerSuite) TestDeletesByShortestRetention() {
	expiredHealth := s.save("acme", 31*day, 0, classification.HealthData)
	keptHealth := s.save("acme", 29*day, 0, classification.HealthData)
	mixed := s.save("acme", 40*day, 0, classification.HealthData, classification.FinancialData)
	ownPeriod := s.save("acme", 8*day, 7*day, classification.FinancialData)
	uncategorized := s.save("acme", 366*day, 0)
	fresh := s.save("acme", 100*day, 0, classification.FinancialData)
	otherCompany := s.save("globex", 31*day, 0, classification.HealthData)

	res, err := s.enforcer.EnforceRetention(s.ctx, s.now)
	s.Require().NoError(err)

	s.Equal(4, res.Deleted)
	s.Zero(res.Failed)
	s.Equal(map[string]int{
		classification.HealthData:    2,
		classification.FinancialData: 1,
		classification.Uncategorized: 1,
	}, res.ByCategory)

	for _, gone := range []*anonymize.Record{expiredHealth, mixed, ownPeriod, uncategorized} {
		s.False(s.exists(gone.ID))
	}
	for _, kept := range []*anonymize.Record{keptHealth, fresh, otherCompany} {
		s.True(s.exists(kept.ID))
	}

	s.Require().Len(s.auditor.entries, 4)
	for _, e := range s.auditor.entries {
		s.Equal(audit.ActionDelete, e.Action)
		s.Equal(retention.ReasonPolicy, e.Metadata[audit.MetaReason])
	}
}

func (s *EnforcerSuite) TestIsIdempotent() {
	s.save("acme", 400*day, 0, classification.PersonalIdentifiers)
	s.save("acme", 10*day, 0, classification.PersonalIdentifiers)

	first, err := s.enforcer.EnforceRetention(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, first.Deleted)

	second, err := s.enforcer.EnforceRetention(s.ctx, s.now)
	s.Require().NoError(err)
	s.Zero(second.Deleted)
	s.Zero(second.AuditPurged)
	s.Equal(1, s.records.Len())
	s.Len(s.auditor.entries, 1)
}

func (s *EnforcerSuite) TestPurgesAgedAuditEntries() {
	for _, age := range []time.Duration{3 * 365 * day, 800 * day, 10 * day} {
		s.Require().NoError(s.audits.Append(s.ctx, &audit.Entry{
			Action:    audit.ActionAccess,
			Timestamp: s.now.Add(-age),
			Success:   true,
		}))
	}

	res, err := s.enforcer.EnforceRetention(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(2, res.AuditPurged)
	s.Equal(1, s.audits.Len())

	s.Require().Len(s.auditor.entries, 1)
	s.Equal(audit.DataTypeAuditLog, s.auditor.entries[0].DataType)
	s.Equal(retention.ReasonAuditPolicy, s.auditor.entries[0].Metadata[audit.MetaReason])
	s.Equal("2", s.auditor.entries[0].Metadata["purged"])
}

func (s *EnforcerSuite) TestDeleteFailuresAreCounted() {
	ctrl := gomock.NewController(s.T())
	store := anonmocks.NewMockStore(ctrl)
	bad := anonymize.Meta{ID: domain.NewRecordID(), CompanyID: "acme", CreatedAt: s.now.Add(-400 * day)}
	good := anonymize.Meta{ID: domain.NewRecordID(), CompanyID: "acme", CreatedAt: s.now.Add(-400 * day)}
	store.EXPECT().ListCreatedBefore(gomock.Any(), s.now).Return([]anonymize.Meta{bad, good}, nil)
	store.EXPECT().Delete(gomock.Any(), bad.ID).Return(errors.New("connection reset"))
	store.EXPECT().Delete(gomock.Any(), good.ID).Return(nil)

	res, err := s.newEnforcer(store).EnforceRetention(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, res.Deleted)
	s.Equal(1, res.Failed)
}

func (s *EnforcerSuite) TestListFailureFailsRun() {
	ctrl := gomock.NewController(s.T())
	store := anonmocks.NewMockStore(ctrl)
	store.EXPECT().ListCreatedBefore(gomock.Any(), s.now).Return(nil, errors.New("db down"))

	_, err := s.newEnforcer(store).EnforceRetention(s.ctx, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
