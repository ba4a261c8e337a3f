package company

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veil/internal/platform/logger"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
)

type RegistrySuite struct {
	suite.Suite
	ctx context.Context
	reg *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.reg = NewRegistry(domain.ProfileGDPR, WithLogger(logger.Discard()))
}

func (s *RegistrySuite) TestRegisterDefaultsAndCopies() {
	overrides := map[string]time.Duration{"health_data": time.Hour}
	c, err := s.reg.Register(s.ctx, Company{ID: "acme", Name: "Acme", RetentionOverrides: overrides})
	s.Require().NoError(err)
	s.Equal(domain.ProfileGDPR, c.ComplianceProfile)
	s.Equal(StatusActive, c.Status)
	s.False(c.CreatedAt.IsZero())

	overrides["health_data"] = time.Minute
	got, err := s.reg.Get(s.ctx, "acme")
	s.Require().NoError(err)
	d, ok := got.Retention("health_data")
	s.True(ok)
	s.Equal(time.Hour, d)
}

func (s *RegistrySuite) TestRegisterRejectsInvalidCompanies() {
	cases := map[string]Company{
		"empty id":               {Name: "x"},
		"bad id":                 {ID: "Acme Corp", Name: "x"},
		"empty name":             {ID: "acme"},
		"unknown profile":        {ID: "acme", Name: "x", ComplianceProfile: "sox"},
		"weaker profile":         {ID: "acme", Name: "x", ComplianceProfile: domain.ProfileBasic},
		"sibling profile":        {ID: "acme", Name: "x", ComplianceProfile: domain.ProfileHIPAA},
		"non-positive retention": {ID: "acme", Name: "x", RetentionOverrides: map[string]time.Duration{"health_data": 0}},
	}
	for name, c := range cases {
		s.Run(name, func() {
			_, err := s.reg.Register(s.ctx, c)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidConfiguration), err.Error())
		})
	}
}

func (s *RegistrySuite) TestStricterProfileAccepted() {
	c, err := s.reg.Register(s.ctx, Company{ID: "acme", Name: "Acme", ComplianceProfile: domain.ProfileEnterprise})
	s.Require().NoError(err)
	s.Equal(domain.ProfileEnterprise, s.reg.ProfileFor(c.ID))
	s.Equal(domain.ProfileGDPR, s.reg.ProfileFor("unknown"))
}

func (s *RegistrySuite) TestDeactivate() {
	_, err := s.reg.Register(s.ctx, Company{ID: "acme", Name: "Acme"})
	s.Require().NoError(err)

	s.Require().NoError(s.reg.Deactivate(s.ctx, "acme"))
	_, err = s.reg.RequireActive(s.ctx, "acme")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	err = s.reg.Deactivate(s.ctx, "acme")
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	err = s.reg.Deactivate(s.ctx, "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RegistrySuite) TestListIsSorted() {
	for _, id := range []domain.CompanyID{"zeta", "alpha", "mid"} {
		_, err := s.reg.Register(s.ctx, Company{ID: id, Name: string(id)})
		s.Require().NoError(err)
	}
	list := s.reg.List(s.ctx)
	s.Require().Len(list, 3)
	s.Equal(domain.CompanyID("alpha"), list[0].ID)
	s.Equal(domain.CompanyID("zeta"), list[2].ID)
}
