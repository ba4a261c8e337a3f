package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"veil/internal/audit"
	"veil/internal/company"
	"veil/internal/identity"
	"veil/internal/platform/metrics"
	"veil/internal/pseudonym"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/sentinel"
	"veil/pkg/requestcontext"
)

// CompanyDirectory answers whether a company may open sessions.
type CompanyDirectory interface {
	RequireActive(ctx context.Context, id domain.CompanyID) (*company.Company, error)
}

// Auditor records privacy audit entries under a company profile.
type Auditor interface {
	LogWithProfile(ctx context.Context, profile domain.ComplianceProfile, entry audit.Entry)
}

// Service manages anonymous sessions.
type Service struct {
	store      Store
	tokens     *TokenIssuer
	idp        identity.Provider
	companies  CompanyDirectory
	pseudonyms *pseudonym.Generator
	auditor    Auditor

	identityTimeout time.Duration
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithIdentityTimeout bounds the identity provider call.
func WithIdentityTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.identityTimeout = d
		}
	}
}

func NewService(
	store Store,
	tokens *TokenIssuer,
	idp identity.Provider,
	companies CompanyDirectory,
	pseudonyms *pseudonym.Generator,
	auditor Auditor,
	opts ...Option,
) *Service {
	s := &Service{
		store:           store,
		tokens:          tokens,
		idp:             idp,
		companies:       companies,
		pseudonyms:      pseudonyms,
		auditor:         auditor,
		identityTimeout: 5 * time.Second,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession resolves externalUserID through the identity provider and
// opens a session at the requested access level.
func (s *Service) CreateSession(ctx context.Context, externalUserID string, companyID domain.CompanyID, level domain.AccessLevel) (*Created, error) {
	externalUserID = strings.TrimSpace(externalUserID)
	if externalUserID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user_id is required")
	}
	if !level.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid access_level")
	}
	comp, err := s.companies.RequireActive(ctx, companyID)
	if err != nil {
		return nil, err
	}

	idpCtx, cancel := context.WithTimeout(ctx, s.identityTimeout)
	ident, err := s.idp.Resolve(idpCtx, externalUserID, companyID)
	cancel()
	if err != nil {
		s.metrics.IncAuthFailure()
		s.auditor.LogWithProfile(ctx, comp.ComplianceProfile, audit.Entry{
			Action:    audit.ActionCreate,
			CompanyID: companyID,
			DataType:  audit.DataTypeSession,
			Success:   false,
			Metadata:  map[string]string{audit.MetaReason: "authentication_failure"},
		})
		s.logger.WarnContext(ctx, "identity resolution failed",
			"company_id", companyID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		if dErrors.HasCode(err, dErrors.CodeAuthenticationFailure) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeAuthenticationFailure, "identity resolution failed")
	}

	anonID, err := s.pseudonyms.Generate(ident.UserID, companyID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).UTC()
	sess := &Session{
		ID:          domain.NewSessionID(),
		AnonymousID: anonID,
		CompanyID:   companyID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.tokens.TTL()),
		Permissions: PermissionsFor(level),
		Context: Context{
			AccessLevel: level,
			Attributes:  ident.SafeAttributes(),
		},
	}
	if level.RetainsIdentity() {
		sess.realUserID = ident.UserID
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}
	token, err := s.tokens.Issue(sess, now)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSessionCreated(level.String())
	s.auditor.LogWithProfile(ctx, comp.ComplianceProfile, audit.Entry{
		Action:      audit.ActionCreate,
		AnonymousID: anonID,
		CompanyID:   companyID,
		DataType:    audit.DataTypeSession,
		Success:     true,
		Metadata:    map[string]string{"access_level": level.String()},
	})
	s.logger.InfoContext(ctx, "session created",
		"event", "session_created",
		"log_type", "audit",
		"session_id", sess.ID.String(),
		"anonymous_id", anonID.String(),
		"access_level", level.String(),
	)
	return &Created{Session: sess, Token: token}, nil
}

// GetSession returns a live session. Unknown and expired sessions are both
// InvalidSession.
func (s *Service) GetSession(ctx context.Context, id domain.SessionID) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidSession, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if sess.IsExpired(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeInvalidSession, "session expired")
	}
	return sess, nil
}

// Require returns the session if it is live and holds perm.
func (s *Service) Require(ctx context.Context, id domain.SessionID, perm Permission) (*Session, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Has(perm) {
		return nil, dErrors.New(dErrors.CodeForbidden, "session lacks permission "+string(perm))
	}
	return sess, nil
}

// ValidateToken resolves a bearer token to its live session.
func (s *Service) ValidateToken(ctx context.Context, raw string) (*Session, error) {
	claims, err := s.tokens.Validate(raw, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	id, err := domain.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidSession, "invalid token session")
	}
	return s.GetSession(ctx, id)
}

// ReapExpired deletes every session expired as of now. Failures on single
// sessions are logged and counted; the sweep always completes.
func (s *Service) ReapExpired(ctx context.Context) (ReapResult, error) {
	var result ReapResult
	ids, err := s.store.ListExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return result, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expired sessions")
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		err := s.store.Delete(ctx, id)
		switch {
		case err == nil:
			result.Reaped++
		case errors.Is(err, sentinel.ErrNotFound):
		default:
			result.Failed++
			s.logger.ErrorContext(ctx, "failed to reap session",
				"session_id", id.String(),
				"error", err,
			)
		}
	}
	s.metrics.AddSessionsReaped(result.Reaped)
	s.metrics.AddSweepFailures("sessions", result.Failed)
	if result.Reaped > 0 || result.Failed > 0 {
		s.logger.InfoContext(ctx, "expired sessions reaped",
			"reaped", result.Reaped,
			"failed", result.Failed,
		)
	}
	return result, nil
}

// ResolveIdentity is the privileged re-identification path.
func (s *Service) ResolveIdentity(ctx context.Context, id domain.SessionID) (string, error) {
	sess, err := s.Require(ctx, id, PermResolveIdentity)
	if err != nil {
		return "", err
	}
	realID, err := sess.RealUserID()
	profile := domain.ComplianceProfile("")
	if comp, cerr := s.companies.RequireActive(ctx, sess.CompanyID); cerr == nil {
		profile = comp.ComplianceProfile
	}
	s.auditor.LogWithProfile(ctx, profile, audit.Entry{
		Action:      audit.ActionAccess,
		AnonymousID: sess.AnonymousID,
		CompanyID:   sess.CompanyID,
		DataType:    audit.DataTypeIdentity,
		Success:     err == nil,
	})
	if err != nil {
		return "", err
	}
	return realID, nil
}
