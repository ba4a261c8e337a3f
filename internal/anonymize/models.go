package anonymize

import (
	"time"

	"veil/internal/classification"
	"veil/internal/sealing"
	"veil/pkg/domain"
)

// Record is an immutable anonymized and sealed payload. Re-processing writes
// a new Record whose SupersedesID points at the previous version.
type Record struct {
	ID             domain.RecordID                   `json:"id"`
	CompanyID      domain.CompanyID                  `json:"company_id"`
	AnonymousID    domain.AnonymousID                `json:"anonymous_id"`
	Envelope       sealing.Envelope                  `json:"encrypted_payload"`
	Classification classification.DataClassification `json:"classification"`
	Checksum       string                            `json:"checksum"`
	Version        int                               `json:"version"`
	SupersedesID   domain.RecordID                   `json:"supersedes_id"`
	CreatedAt      time.Time                         `json:"timestamp"`
}

// Supersedes reports whether the record replaces an earlier version.
func (r *Record) Supersedes() bool { return !r.SupersedesID.IsNil() }

// Meta is the part of a record retention decisions need.
type Meta struct {
	ID              domain.RecordID
	CompanyID       domain.CompanyID
	AnonymousID     domain.AnonymousID
	Categories      []string
	RetentionPeriod time.Duration
	CreatedAt       time.Time
}

func (r *Record) Meta() Meta {
	return Meta{
		ID:              r.ID,
		CompanyID:       r.CompanyID,
		AnonymousID:     r.AnonymousID,
		Categories:      r.Classification.CategorySet(),
		RetentionPeriod: r.Classification.RetentionPeriod,
		CreatedAt:       r.CreatedAt,
	}
}
