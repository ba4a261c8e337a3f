package anonymize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"veil/internal/audit"
	"veil/internal/classification"
	"veil/internal/platform/metrics"
	"veil/internal/sealing"
	"veil/internal/session"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/sentinel"
	"veil/pkg/requestcontext"
)

const (
	tracerName = "veil/internal/anonymize"

	// dataTypeEnvelope labels decrypts of caller-supplied envelopes, whose
	// classification is unknown.
	dataTypeEnvelope = "sealed_record"
)

// SessionAuthorizer checks that a session is live and holds a permission.
type SessionAuthorizer interface {
	Require(ctx context.Context, id domain.SessionID, perm session.Permission) (*session.Session, error)
}

// Auditor records privacy audit entries under a company profile.
type Auditor interface {
	LogWithProfile(ctx context.Context, profile domain.ComplianceProfile, entry audit.Entry)
}

// ProfileResolver maps a company to its compliance profile.
type ProfileResolver interface {
	ProfileFor(id domain.CompanyID) domain.ComplianceProfile
}

// Service is the anonymization gateway: rules, sealing, storage and audit
// for one payload at a time.
type Service struct {
	sessions SessionAuthorizer
	engine   *classification.Engine
	sealer   *sealing.Sealer
	store    Store
	auditor  Auditor
	profiles ProfileResolver

	tracer  trace.Tracer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(tracerName) }
}

func NewService(
	sessions SessionAuthorizer,
	engine *classification.Engine,
	sealer *sealing.Sealer,
	store Store,
	auditor Auditor,
	profiles ProfileResolver,
	opts ...Option,
) *Service {
	s := &Service{
		sessions: sessions,
		engine:   engine,
		sealer:   sealer,
		store:    store,
		auditor:  auditor,
		profiles: profiles,
		tracer:   otel.Tracer(tracerName),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnonymizeData applies the classification's rules to payload, seals the
// result and stores it as a new record.
func (s *Service) AnonymizeData(ctx context.Context, sessionID domain.SessionID, payload map[string]any, c classification.DataClassification) (*Record, error) {
	ctx, span := s.tracer.Start(ctx, "anonymize.AnonymizeData")
	defer span.End()

	sess, err := s.sessions.Require(ctx, sessionID, session.PermAnonymize)
	if err != nil {
		return nil, spanError(span, err)
	}
	rec, err := s.process(ctx, sess, payload, c, nil)
	return rec, spanError(span, err)
}

// SupersedeData re-processes payload into a new version of previousID. The
// previous record stays until retention removes it.
func (s *Service) SupersedeData(ctx context.Context, sessionID domain.SessionID, previousID domain.RecordID, payload map[string]any, c classification.DataClassification) (*Record, error) {
	ctx, span := s.tracer.Start(ctx, "anonymize.SupersedeData",
		trace.WithAttributes(attribute.String("veil.previous_record_id", previousID.String())))
	defer span.End()

	sess, err := s.sessions.Require(ctx, sessionID, session.PermAnonymize)
	if err != nil {
		return nil, spanError(span, err)
	}
	prev, err := s.load(ctx, sess, previousID)
	if err != nil {
		return nil, spanError(span, err)
	}
	rec, err := s.process(ctx, sess, payload, c, prev)
	return rec, spanError(span, err)
}

func (s *Service) process(ctx context.Context, sess *session.Session, payload map[string]any, c classification.DataClassification, prev *Record) (*Record, error) {
	start := time.Now()
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("veil.company_id", sess.CompanyID.String()),
		attribute.String("veil.classification_level", string(c.Level)),
		attribute.Int("veil.payload_fields", len(payload)),
	)
	dataType := s.engine.Policy().PrimaryCategory(c)
	categories := categoryList(c)
	action := audit.ActionAnonymize
	if prev != nil {
		action = audit.ActionUpdate
	}
	fail := func(err error, reason string) (*Record, error) {
		s.metrics.IncAnonymization("failure")
		s.audit(ctx, sess.CompanyID, audit.Entry{
			Action:      action,
			AnonymousID: sess.AnonymousID,
			DataType:    dataType,
			Success:     false,
			Metadata:    withCategories(map[string]string{audit.MetaError: reason}, categories),
		})
		return nil, err
	}

	if payload == nil {
		return fail(dErrors.New(dErrors.CodeInvalidInput, "payload is required"), "invalid_payload")
	}
	if err := c.Validate(); err != nil {
		return fail(err, "invalid_classification")
	}
	processed, err := s.engine.ApplyRules(payload, c)
	if err != nil {
		return fail(err, string(dErrors.CodeOf(err)))
	}
	plaintext, err := json.Marshal(processed)
	if err != nil {
		return fail(dErrors.Wrap(err, dErrors.CodeInvalidInput, "payload is not serializable"), "invalid_payload")
	}
	env, err := s.sealer.Encrypt(plaintext, companyAAD(sess.CompanyID))
	if err != nil {
		return fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to seal payload"), "seal_failed")
	}

	rec := &Record{
		ID:             domain.NewRecordID(),
		CompanyID:      sess.CompanyID,
		AnonymousID:    sess.AnonymousID,
		Envelope:       env,
		Classification: c,
		Checksum:       sealing.Checksum(env),
		Version:        1,
		CreatedAt:      requestcontext.Now(ctx).UTC(),
	}
	if prev != nil {
		rec.Version = prev.Version + 1
		rec.SupersedesID = prev.ID
	}
	if err := s.store.Save(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrSuperseded) {
			return fail(dErrors.New(dErrors.CodeConflict, "record has already been superseded"), "already_superseded")
		}
		return fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to store record"), "store_failed")
	}

	meta := withCategories(map[string]string{
		audit.MetaRecordID: rec.ID.String(),
		"version":          strconv.Itoa(rec.Version),
		"sealing_required": strconv.FormatBool(c.RequiresSealing()),
	}, categories)
	if prev != nil {
		meta["supersedes"] = prev.ID.String()
	}
	s.audit(ctx, sess.CompanyID, audit.Entry{
		Action:      action,
		AnonymousID: sess.AnonymousID,
		DataType:    dataType,
		Success:     true,
		Metadata:    meta,
	})
	s.metrics.IncAnonymization("success")
	s.metrics.ObserveAnonymize(time.Since(start))
	span.SetAttributes(attribute.String("veil.record_id", rec.ID.String()))
	return rec, nil
}

// DecryptData opens an envelope supplied by the caller.
func (s *Service) DecryptData(ctx context.Context, sessionID domain.SessionID, env sealing.Envelope) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "anonymize.DecryptData")
	defer span.End()

	sess, err := s.sessions.Require(ctx, sessionID, session.PermDecrypt)
	if err != nil {
		return nil, spanError(span, err)
	}
	out, err := s.open(ctx, sess, env, accessTarget{dataType: dataTypeEnvelope})
	return out, spanError(span, err)
}

// DecryptRecord opens a stored record after checking its checksum.
func (s *Service) DecryptRecord(ctx context.Context, sessionID domain.SessionID, recordID domain.RecordID) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "anonymize.DecryptRecord",
		trace.WithAttributes(attribute.String("veil.record_id", recordID.String())))
	defer span.End()

	sess, err := s.sessions.Require(ctx, sessionID, session.PermDecrypt)
	if err != nil {
		return nil, spanError(span, err)
	}
	rec, err := s.load(ctx, sess, recordID)
	if err != nil {
		return nil, spanError(span, err)
	}
	target := accessTarget{
		recordID:   recordID.String(),
		dataType:   s.engine.Policy().PrimaryCategory(rec.Classification),
		categories: categoryList(rec.Classification),
	}
	if !sealing.VerifyChecksum(rec.Envelope, rec.Checksum) {
		err := s.integrityFailure(ctx, sess, target, "checksum_mismatch")
		return nil, spanError(span, err)
	}
	out, err := s.open(ctx, sess, rec.Envelope, target)
	return out, spanError(span, err)
}

// accessTarget is what a decrypt touched, as recorded in its audit entry.
type accessTarget struct {
	recordID   string
	dataType   string
	categories string
}

func (t accessTarget) metadata() map[string]string {
	meta := map[string]string{}
	if t.recordID != "" {
		meta[audit.MetaRecordID] = t.recordID
	}
	return withCategories(meta, t.categories)
}

// open decrypts env under the session's company. Envelopes sealed for
// another company fail authentication.
func (s *Service) open(ctx context.Context, sess *session.Session, env sealing.Envelope, target accessTarget) (map[string]any, error) {
	plaintext, err := s.sealer.Decrypt(env, companyAAD(sess.CompanyID))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeIntegrityViolation) {
			return nil, s.integrityFailure(ctx, sess, target, "authentication_failed")
		}
		return nil, err
	}
	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(plaintext))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeIntegrityViolation, "sealed payload is not a record")
	}

	s.audit(ctx, sess.CompanyID, audit.Entry{
		Action:      audit.ActionAccess,
		AnonymousID: sess.AnonymousID,
		DataType:    target.dataType,
		Success:     true,
		Metadata:    target.metadata(),
	})
	return out, nil
}

func (s *Service) integrityFailure(ctx context.Context, sess *session.Session, target accessTarget, reason string) error {
	s.metrics.IncIntegrityViolation()
	meta := target.metadata()
	meta[audit.MetaIntegrityViolation] = "true"
	meta[audit.MetaReason] = reason
	s.audit(ctx, sess.CompanyID, audit.Entry{
		Action:      audit.ActionAccess,
		AnonymousID: sess.AnonymousID,
		DataType:    target.dataType,
		Success:     false,
		Metadata:    meta,
	})
	s.logger.WarnContext(ctx, "integrity violation",
		"event", "integrity_violation",
		"log_type", "audit",
		"record_id", target.recordID,
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.New(dErrors.CodeIntegrityViolation, "integrity check failed")
}

// VerifyIntegrity compares a stored record against its checksum without
// touching the key.
func (s *Service) VerifyIntegrity(ctx context.Context, recordID domain.RecordID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "anonymize.VerifyIntegrity",
		trace.WithAttributes(attribute.String("veil.record_id", recordID.String())))
	defer span.End()

	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, spanError(span, dErrors.New(dErrors.CodeNotFound, "record not found"))
		}
		return false, spanError(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record"))
	}
	ok := sealing.VerifyChecksum(rec.Envelope, rec.Checksum)
	if !ok {
		s.metrics.IncIntegrityViolation()
	}
	span.SetAttributes(attribute.Bool("veil.integrity_ok", ok))
	return ok, nil
}

// VerifyRecord is VerifyIntegrity for a session holding data:verify, scoped
// to the session's company.
func (s *Service) VerifyRecord(ctx context.Context, sessionID domain.SessionID, recordID domain.RecordID) (bool, error) {
	sess, err := s.sessions.Require(ctx, sessionID, session.PermVerify)
	if err != nil {
		return false, err
	}
	if _, err := s.load(ctx, sess, recordID); err != nil {
		return false, err
	}
	return s.VerifyIntegrity(ctx, recordID)
}

// load fetches a record visible to the session's company. Records of other
// companies are reported as not found.
func (s *Service) load(ctx context.Context, sess *session.Session, id domain.RecordID) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	if rec.CompanyID != sess.CompanyID {
		return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	return rec, nil
}

func (s *Service) audit(ctx context.Context, companyID domain.CompanyID, entry audit.Entry) {
	entry.CompanyID = companyID
	s.auditor.LogWithProfile(ctx, s.profiles.ProfileFor(companyID), entry)
}

// companyAAD binds an envelope to the company it was sealed for.
func companyAAD(id domain.CompanyID) []byte {
	return []byte("veil:company:" + id.String())
}

func categoryList(c classification.DataClassification) string {
	return strings.Join(c.CategorySet(), ",")
}

func withCategories(meta map[string]string, categories string) map[string]string {
	if categories != "" {
		meta[audit.MetaCategories] = categories
	}
	return meta
}

func spanError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	return err
}
