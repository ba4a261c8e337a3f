package audit

import (
	"context"
	"math"
	"time"

	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/requestcontext"
)

// Recommendation texts emitted by compliance reports.
const (
	RecInvestigateFailures = "Investigate failed privacy operations: failure rate is at or above 5%"
	RecEscalateTampering   = "Escalate integrity violations: decryption was attempted on tampered records"
	RecReviewAccessVolume  = "Review access volume: reads exceed half of all privacy operations"
	RecReviewAnonymization = "Review anonymization coverage: records were created but none were anonymized"
	RecNoIssues            = "No issues detected"
)

const (
	failureRateThreshold     = 0.05
	accessShareThreshold     = 0.5
	accessVolumeMinimumCount = 100
)

// Reporter aggregates audit entries into compliance reports.
type Reporter struct {
	store   Store
	profile domain.ComplianceProfile
}

func NewReporter(store Store, profile domain.ComplianceProfile) *Reporter {
	return &Reporter{store: store, profile: profile}
}

// GenerateComplianceReport summarises entries with timestamps in the
// inclusive window [start, end].
func (r *Reporter) GenerateComplianceReport(ctx context.Context, start, end time.Time) (*Report, error) {
	if start.After(end) {
		return nil, dErrors.New(dErrors.CodeValidation, "start must not be after end")
	}
	entries, err := r.store.ListRange(ctx, start, end)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit log")
	}
	report := Summarize(entries, Timeframe{Start: start.UTC(), End: end.UTC()})
	report.Profile = r.profile
	report.GeneratedAt = requestcontext.Now(ctx).UTC()
	return report, nil
}

// Summarize builds a report from entries already filtered to tf.
func Summarize(entries []Entry, tf Timeframe) *Report {
	report := &Report{
		Timeframe:       tf,
		ActionHistogram: make(map[Action]int),
		FlagHistogram:   make(map[string]int),
	}
	subjects := make(map[domain.AnonymousID]struct{})
	integrityViolations := 0

	for _, e := range entries {
		report.TotalActions++
		if e.Success {
			report.SuccessfulActions++
		} else {
			report.FailedActions++
		}
		report.ActionHistogram[e.Action]++
		for _, f := range e.ComplianceFlags {
			report.FlagHistogram[f]++
		}
		if !e.AnonymousID.IsNil() {
			subjects[e.AnonymousID] = struct{}{}
		}
		if e.Action == ActionAccess && !e.Success && e.IntegrityViolation() {
			integrityViolations++
		}
	}
	report.UniqueSubjects = len(subjects)
	report.ComplianceScore = score(report.SuccessfulActions, report.TotalActions)
	report.Recommendations = recommend(report, integrityViolations)
	return report
}

func score(successful, total int) float64 {
	if total == 0 {
		return 100
	}
	return math.Round(float64(successful)/float64(total)*10000) / 100
}

func recommend(r *Report, integrityViolations int) []string {
	var recs []string
	total := float64(r.TotalActions)
	if r.TotalActions > 0 && float64(r.FailedActions)/total >= failureRateThreshold {
		recs = append(recs, RecInvestigateFailures)
	}
	if integrityViolations > 0 {
		recs = append(recs, RecEscalateTampering)
	}
	access := r.ActionHistogram[ActionAccess]
	if r.TotalActions > accessVolumeMinimumCount && float64(access)/total > accessShareThreshold {
		recs = append(recs, RecReviewAccessVolume)
	}
	if r.ActionHistogram[ActionAnonymize] == 0 && r.ActionHistogram[ActionCreate] > 0 {
		recs = append(recs, RecReviewAnonymization)
	}
	if len(recs) == 0 {
		recs = append(recs, RecNoIssues)
	}
	return recs
}
