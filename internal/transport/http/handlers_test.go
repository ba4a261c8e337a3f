package httptransport_test

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"veil/internal/anonymize"
	"veil/internal/audit"
	"veil/internal/classification"
	"veil/internal/company"
	"veil/internal/platform/logger"
	"veil/internal/platform/scheduler"
	"veil/internal/ratelimit"
	"veil/internal/retention"
	"veil/internal/sealing"
	"veil/internal/session"
	httptransport "veil/internal/transport/http"
	"veil/internal/transport/http/mocks"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/testutil"
)

const adminToken = "admin-secret"

type HandlerSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	sessions  *mocks.MockSessionService
	data      *mocks.MockDataService
	reports   *mocks.MockComplianceReporter
	retention *mocks.MockRetentionEnforcer
	companies *mocks.MockCompanyLister
	router    http.Handler
	sess      *session.Session
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sessions = mocks.NewMockSessionService(s.ctrl)
	s.data = mocks.NewMockDataService(s.ctrl)
	s.reports = mocks.NewMockComplianceReporter(s.ctrl)
	s.retention = mocks.NewMockRetentionEnforcer(s.ctrl)
	s.companies = mocks.NewMockCompanyLister(s.ctrl)
	h := httptransport.NewHandler(s.sessions, s.data, s.reports, s.retention, s.companies, logger.Discard())
	s.router = httptransport.NewRouter(h, httptransport.RouterConfig{
		AdminToken: adminToken,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("veil_up 1\n"))
		}),
	})
	s.sess = &session.Session{
		ID:          domain.NewSessionID(),
		AnonymousID: "anon-1",
		CompanyID:   "acme",
		CreatedAt:   time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		ExpiresAt:   time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC),
		Permissions: session.PermissionsFor(domain.AccessAnonymous),
		Context:     session.Context{AccessLevel: domain.AccessAnonymous},
	}
}

func (s *HandlerSuite) do(req *http.Request) *testResponse {
	rr := testutil.DoRequest(s.router, req)
	return &testResponse{code: rr.Code, body: rr.Body.Bytes()}
}

type testResponse struct {
	code int
	body []byte
}

func (r *testResponse) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out))
	return out
}

func (s *HandlerSuite) TestHealthAndMetrics() {
	res := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	s.Equal(http.StatusOK, res.code)
	s.Equal("ok", res.json(s.T())["status"])

	res = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	s.Equal(http.StatusOK, res.code)
	s.Contains(string(res.body), "veil_up")
}

func (s *HandlerSuite) TestSessionCreationIsRateLimited() {
	h := httptransport.NewHandler(s.sessions, s.data, s.reports, s.retention, s.companies, logger.Discard())
	limited := httptransport.NewRouter(h, httptransport.RouterConfig{
		AdminToken: adminToken,
		RateLimit: ratelimit.New(ratelimit.NewInMemoryStore(), ratelimit.Limits{
			Standard:  10,
			Sensitive: 1,
			Window:    time.Minute,
		}, ratelimit.WithLogger(logger.Discard())),
	})
	s.sessions.EXPECT().
		CreateSession(gomock.Any(), "user-123", domain.CompanyID("acme"), domain.AccessAnonymous).
		Return(&session.Created{Session: s.sess, Token: "tok"}, nil).
		Times(1)

	newReq := func() *http.Request {
		return testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/sessions", map[string]string{
			"external_user_id": "user-123",
			"company_id":       "acme",
		})
	}
	first := testutil.DoRequest(limited, newReq())
	s.Equal(http.StatusCreated, first.Code)

	second := testutil.DoRequest(limited, newReq())
	s.Equal(http.StatusTooManyRequests, second.Code)
	s.NotEmpty(second.Header().Get("Retry-After"))
}

func (s *HandlerSuite) TestCreateSession() {
	s.sessions.EXPECT().
		CreateSession(gomock.Any(), "user-123", domain.CompanyID("acme"), domain.AccessAnonymous).
		Return(&session.Created{Session: s.sess, Token: "tok"}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/sessions", map[string]string{
		"external_user_id": "user-123",
		"company_id":       "acme",
	})
	res := s.do(req)

	s.Require().Equal(http.StatusCreated, res.code)
	body := res.json(s.T())
	s.Equal(s.sess.ID.String(), body["session_id"])
	s.Equal("anon-1", body["anonymous_id"])
	s.Equal("tok", body["token"])
	s.Equal([]any{"data:anonymize", "report:aggregate"}, body["permissions"])
	s.NotContains(string(res.body), "user-123")
}

func (s *HandlerSuite) TestCreateSessionValidation() {
	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing user", map[string]string{"company_id": "acme"}},
		{"bad company", map[string]string{"external_user_id": "u", "company_id": "Not A Slug"}},
		{"bad level", map[string]string{"external_user_id": "u", "company_id": "acme", "access_level": "root"}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			res := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/sessions", tc.body))
			s.Equal(http.StatusBadRequest, res.code)
		})
	}
}

func (s *HandlerSuite) TestCreateSessionAuthFailure() {
	s.sessions.EXPECT().CreateSession(gomock.Any(), "user-123", domain.CompanyID("acme"), domain.AccessIdentified).
		Return(nil, dErrors.New(dErrors.CodeAuthenticationFailure, "identity could not be verified"))

	res := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/sessions", map[string]string{
		"external_user_id": "user-123",
		"company_id":       "acme",
		"access_level":     "identified",
	}))
	s.Equal(http.StatusUnauthorized, res.code)
	s.Equal("authentication_failure", res.json(s.T())["error"])
}

func (s *HandlerSuite) TestGetSessionExpired() {
	s.sessions.EXPECT().GetSession(gomock.Any(), s.sess.ID).
		Return(nil, dErrors.New(dErrors.CodeInvalidSession, "session expired"))

	res := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/v1/sessions/"+s.sess.ID.String()))
	s.Equal(http.StatusUnauthorized, res.code)
	s.Equal("invalid_session", res.json(s.T())["error"])
}

func (s *HandlerSuite) TestGetSessionSummary() {
	s.sessions.EXPECT().GetSession(gomock.Any(), s.sess.ID).Return(s.sess, nil)

	res := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/v1/sessions/"+s.sess.ID.String()))
	s.Require().Equal(http.StatusOK, res.code)
	body := res.json(s.T())
	s.Equal("anonymous", body["access_level"])
	s.Equal("acme", body["company_id"])
}

func (s *HandlerSuite) TestDataRoutesRequireSession() {
	res := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/data/anonymize", map[string]any{"payload": map[string]any{}}))
	s.Equal(http.StatusUnauthorized, res.code)

	req := testutil.WithSessionHeader(testutil.NewRequest(s.T(), http.MethodGet, "/v1/identity"), "not-a-uuid")
	res = s.do(req)
	s.Equal(http.StatusUnauthorized, res.code)
}

func (s *HandlerSuite) TestAnonymize() {
	env := sealing.Envelope{IV: []byte("iv"), Ciphertext: []byte("ct"), AuthTag: []byte("tag"), Algorithm: "aes-256-gcm", KeyID: "k1"}
	rec := &anonymize.Record{
		ID:          domain.NewRecordID(),
		CompanyID:   "acme",
		AnonymousID: "anon-1",
		Envelope:    env,
		Classification: classification.DataClassification{
			Level:                 classification.LevelConfidential,
			Categories:            []string{classification.PersonalIdentifiers},
			RetentionPeriod:       720 * time.Hour,
			AnonymizationRequired: true,
		},
		Checksum:  sealing.Checksum(env),
		Version:   1,
		CreatedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	s.data.EXPECT().
		AnonymizeData(gomock.Any(), s.sess.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.SessionID, payload map[string]any, c classification.DataClassification) (*anonymize.Record, error) {
			s.Equal("alice@example.com", payload["email"])
			s.Equal(720*time.Hour, c.RetentionPeriod)
			s.True(c.AnonymizationRequired)
			return rec, nil
		})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/data/anonymize", map[string]any{
		"payload": map[string]any{"email": "alice@example.com"},
		"classification": map[string]any{
			"level":                  "confidential",
			"categories":             []string{"personal_identifiers"},
			"retention_period":       "720h",
			"anonymization_required": true,
		},
	})
	res := s.do(testutil.WithSessionHeader(req, s.sess.ID.String()))

	s.Require().Equal(http.StatusCreated, res.code)
	body := res.json(s.T())
	s.Equal(rec.ID.String(), body["id"])
	s.Equal(rec.Checksum, body["checksum"])
	s.NotContains(body, "supersedes_id")
	s.Contains(body["encrypted_payload"], "auth_tag")
}

func (s *HandlerSuite) TestAnonymizeRejectsUnknownLevel() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/data/anonymize", map[string]any{
		"payload":        map[string]any{"a": 1},
		"classification": map[string]any{"level": "top-secret"},
	})
	res := s.do(testutil.WithSessionHeader(req, s.sess.ID.String()))
	s.Equal(http.StatusBadRequest, res.code)
}

func (s *HandlerSuite) TestDecryptIntegrityViolationHidesDetail() {
	recordID := domain.NewRecordID()
	s.data.EXPECT().DecryptRecord(gomock.Any(), s.sess.ID, recordID).
		Return(nil, dErrors.New(dErrors.CodeIntegrityViolation, "authentication tag mismatch"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/data/decrypt", map[string]string{"record_id": recordID.String()})
	res := s.do(testutil.WithSessionHeader(req, s.sess.ID.String()))

	s.Equal(http.StatusUnprocessableEntity, res.code)
	body := res.json(s.T())
	s.Equal("integrity_violation", body["error"])
	s.NotContains(body, "error_description")
}

func (s *HandlerSuite) TestDecryptEnvelopeViaBearerToken() {
	s.sessions.EXPECT().ValidateToken(gomock.Any(), "tok").Return(s.sess, nil)
	s.data.EXPECT().DecryptData(gomock.Any(), s.sess.ID, gomock.Any()).
		Return(map[string]any{"plan": "pro"}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/data/decrypt", map[string]any{
		"encrypted_payload": sealing.Envelope{IV: []byte("iv"), Algorithm: "aes-256-gcm"},
	})
	res := s.do(testutil.WithBearer(req, "tok"))

	s.Require().Equal(http.StatusOK, res.code)
	s.Equal(map[string]any{"plan": "pro"}, res.json(s.T())["payload"])
}

func (s *HandlerSuite) TestDecryptNeedsExactlyOneSource() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/data/decrypt", map[string]any{})
	res := s.do(testutil.WithSessionHeader(req, s.sess.ID.String()))
	s.Equal(http.StatusBadRequest, res.code)
}

func (s *HandlerSuite) TestSupersedeConflict() {
	previous := domain.NewRecordID()
	s.data.EXPECT().SupersedeData(gomock.Any(), s.sess.ID, previous, gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "record has already been superseded"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/data/"+previous.String()+"/supersede", map[string]any{
		"payload":        map[string]any{"a": 1},
		"classification": map[string]any{"level": "internal"},
	})
	res := s.do(testutil.WithSessionHeader(req, s.sess.ID.String()))
	s.Equal(http.StatusConflict, res.code)
}

func (s *HandlerSuite) TestVerifyIntegrity() {
	recordID := domain.NewRecordID()
	s.data.EXPECT().VerifyRecord(gomock.Any(), s.sess.ID, recordID).Return(false, nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/data/"+recordID.String()+"/integrity")
	res := s.do(testutil.WithSessionHeader(req, s.sess.ID.String()))
	s.Require().Equal(http.StatusOK, res.code)
	s.Equal(false, res.json(s.T())["valid"])
}

func (s *HandlerSuite) TestComplianceReport() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	s.sessions.EXPECT().Require(gomock.Any(), s.sess.ID, session.PermAggregateReport).Return(s.sess, nil)
	s.reports.EXPECT().GenerateComplianceReport(gomock.Any(), start, end).
		Return(audit.Summarize(nil, audit.Timeframe{Start: start, End: end}), nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/compliance/report?start=2024-01-01T00:00:00Z&end=2024-02-01T00:00:00Z")
	res := s.do(testutil.WithSessionHeader(req, s.sess.ID.String()))

	s.Require().Equal(http.StatusOK, res.code)
	body := res.json(s.T())
	s.Equal(100.0, body["compliance_score"])
	s.Equal([]any{audit.RecNoIssues}, body["recommendations"])
}

func (s *HandlerSuite) TestComplianceReportBadTimestamp() {
	s.sessions.EXPECT().Require(gomock.Any(), s.sess.ID, session.PermAggregateReport).Return(s.sess, nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/compliance/report?start=yesterday")
	res := s.do(testutil.WithSessionHeader(req, s.sess.ID.String()))
	s.Equal(http.StatusBadRequest, res.code)
}

func (s *HandlerSuite) TestAdminRoutes() {
	testutil.Scenario(s.T(), "admin sweeps", func(t *testing.T) {
		testutil.Given(t, "no admin token", func(t *testing.T) {
			res := s.do(testutil.NewRequest(t, http.MethodPost, "/v1/admin/reap"))
			assert.Equal(t, http.StatusUnauthorized, res.code)
		})

		testutil.When(t, "the token matches", func(t *testing.T) {
			s.sessions.EXPECT().ReapExpired(gomock.Any()).Return(session.ReapResult{Reaped: 3}, nil)
			s.retention.EXPECT().EnforceRetention(gomock.Any(), gomock.Any()).
				Return(&retention.Result{Deleted: 2, ByCategory: map[string]int{"health_data": 2}}, nil)
			s.companies.EXPECT().List(gomock.Any()).Return([]*company.Company{{
				ID: "acme", Name: "Acme", ComplianceProfile: domain.ProfileGDPR, Status: company.StatusActive,
			}})

			testutil.Then(t, "sweeps run and report counts", func(t *testing.T) {
				req := testutil.NewRequest(t, http.MethodPost, "/v1/admin/reap")
				req.Header.Set("X-Admin-Token", adminToken)
				res := s.do(req)
				require.Equal(t, http.StatusOK, res.code)
				assert.Equal(t, 3.0, res.json(t)["reaped"])

				req = testutil.NewRequest(t, http.MethodPost, "/v1/admin/retention")
				req.Header.Set("X-Admin-Token", adminToken)
				res = s.do(req)
				require.Equal(t, http.StatusOK, res.code)
				assert.Equal(t, 2.0, res.json(t)["deleted"])

				req = testutil.NewRequest(t, http.MethodGet, "/v1/admin/companies")
				req.Header.Set("X-Admin-Token", adminToken)
				res = s.do(req)
				require.Equal(t, http.StatusOK, res.code)
				companies := res.json(t)["companies"].([]any)
				require.Len(t, companies, 1)
				assert.Equal(t, "gdpr", companies[0].(map[string]any)["compliance_profile"])
			})
		})
	})
}

func (s *HandlerSuite) TestAdminSweepDoesNotOverlapScheduledRun() {
	reaper := scheduler.New("session_reaper", time.Hour, nil, scheduler.WithLogger(logger.Discard()))
	sweeper := scheduler.New("retention", time.Hour, nil, scheduler.WithLogger(logger.Discard()))
	h := httptransport.NewHandler(s.sessions, s.data, s.reports, s.retention, s.companies, logger.Discard(),
		httptransport.WithSweepGuards(reaper, sweeper))
	router := httptransport.NewRouter(h, httptransport.RouterConfig{AdminToken: adminToken})

	adminPost := func(path string) *testResponse {
		req := testutil.NewRequest(s.T(), http.MethodPost, path)
		req.Header.Set("X-Admin-Token", adminToken)
		rr := testutil.DoRequest(router, req)
		return &testResponse{code: rr.Code, body: rr.Body.Bytes()}
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = sweeper.Exclusive(context.Background(), func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	res := adminPost("/v1/admin/retention")
	s.Equal(http.StatusConflict, res.code)
	body := res.json(s.T())
	s.Equal("conflict", body["error"])
	s.Equal("sweep already running", body["error_description"])

	s.sessions.EXPECT().ReapExpired(gomock.Any()).Return(session.ReapResult{Reaped: 1}, nil)
	s.Equal(http.StatusOK, adminPost("/v1/admin/reap").code, "guards are per task")

	close(release)
	<-done

	s.retention.EXPECT().EnforceRetention(gomock.Any(), gomock.Any()).
		Return(&retention.Result{ByCategory: map[string]int{}}, nil)
	s.Equal(http.StatusOK, adminPost("/v1/admin/retention").code)
	s.Equal(int64(1), sweeper.Skipped())
}
