package httptransport

import (
	"strings"
	"time"

	"veil/internal/anonymize"
	"veil/internal/classification"
	"veil/internal/company"
	"veil/internal/sealing"
	"veil/internal/session"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
)

type createSessionRequest struct {
	ExternalUserID string `json:"external_user_id"`
	CompanyID      string `json:"company_id"`
	AccessLevel    string `json:"access_level"`

	companyID domain.CompanyID
	level     domain.AccessLevel
}

func (r *createSessionRequest) Validate() error {
	r.ExternalUserID = strings.TrimSpace(r.ExternalUserID)
	if r.ExternalUserID == "" {
		return dErrors.New(dErrors.CodeValidation, "external_user_id is required")
	}
	companyID, err := domain.ParseCompanyID(r.CompanyID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.AccessLevel) == "" {
		r.AccessLevel = string(domain.AccessAnonymous)
	}
	level, err := domain.ParseAccessLevel(r.AccessLevel)
	if err != nil {
		return err
	}
	r.companyID, r.level = companyID, level
	return nil
}

type createSessionResponse struct {
	SessionID   string               `json:"session_id"`
	AnonymousID domain.AnonymousID   `json:"anonymous_id"`
	ExpiresAt   time.Time            `json:"expires_at"`
	Permissions []session.Permission `json:"permissions"`
	Token       string               `json:"token"`
}

// classificationDTO carries retention as a Go duration string ("720h").
type classificationDTO struct {
	Level                 classification.Level `json:"level"`
	Categories            []string             `json:"categories"`
	RetentionPeriod       string               `json:"retention_period,omitempty"`
	EncryptionRequired    bool                 `json:"encryption_required"`
	AnonymizationRequired bool                 `json:"anonymization_required"`
}

func (d classificationDTO) toDomain() (classification.DataClassification, error) {
	c := classification.DataClassification{
		Level:                 d.Level,
		Categories:            d.Categories,
		EncryptionRequired:    d.EncryptionRequired,
		AnonymizationRequired: d.AnonymizationRequired,
	}
	if d.RetentionPeriod != "" {
		period, err := time.ParseDuration(d.RetentionPeriod)
		if err != nil {
			return c, dErrors.New(dErrors.CodeValidation, "invalid retention_period")
		}
		c.RetentionPeriod = period
	}
	if err := c.Validate(); err != nil {
		return c, dErrors.Wrap(err, dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	return c, nil
}

func fromDomainClassification(c classification.DataClassification) classificationDTO {
	d := classificationDTO{
		Level:                 c.Level,
		Categories:            c.CategorySet(),
		EncryptionRequired:    c.EncryptionRequired,
		AnonymizationRequired: c.AnonymizationRequired,
	}
	if c.RetentionPeriod > 0 {
		d.RetentionPeriod = c.RetentionPeriod.String()
	}
	return d
}

type anonymizeRequest struct {
	Payload        map[string]any    `json:"payload"`
	Classification classificationDTO `json:"classification"`

	classification classification.DataClassification
}

func (r *anonymizeRequest) Validate() error {
	if r.Payload == nil {
		return dErrors.New(dErrors.CodeValidation, "payload is required")
	}
	c, err := r.Classification.toDomain()
	if err != nil {
		return err
	}
	r.classification = c
	return nil
}

type recordResponse struct {
	ID               string            `json:"id"`
	AnonymousID      string            `json:"anonymous_id"`
	EncryptedPayload sealing.Envelope  `json:"encrypted_payload"`
	Classification   classificationDTO `json:"classification"`
	Checksum         string            `json:"checksum"`
	Version          int               `json:"version"`
	SupersedesID     string            `json:"supersedes_id,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

func toRecordResponse(rec *anonymize.Record) recordResponse {
	resp := recordResponse{
		ID:               rec.ID.String(),
		AnonymousID:      rec.AnonymousID.String(),
		EncryptedPayload: rec.Envelope,
		Classification:   fromDomainClassification(rec.Classification),
		Checksum:         rec.Checksum,
		Version:          rec.Version,
		Timestamp:        rec.CreatedAt,
	}
	if rec.Supersedes() {
		resp.SupersedesID = rec.SupersedesID.String()
	}
	return resp
}

// decryptRequest takes either a stored record id or an envelope.
type decryptRequest struct {
	RecordID         string            `json:"record_id,omitempty"`
	EncryptedPayload *sealing.Envelope `json:"encrypted_payload,omitempty"`

	recordID domain.RecordID
}

func (r *decryptRequest) Validate() error {
	switch {
	case r.RecordID != "" && r.EncryptedPayload != nil:
		return dErrors.New(dErrors.CodeValidation, "send either record_id or encrypted_payload, not both")
	case r.RecordID != "":
		id, err := domain.ParseRecordID(r.RecordID)
		if err != nil {
			return err
		}
		r.recordID = id
	case r.EncryptedPayload == nil:
		return dErrors.New(dErrors.CodeValidation, "record_id or encrypted_payload is required")
	}
	return nil
}

type integrityResponse struct {
	RecordID string `json:"record_id"`
	Valid    bool   `json:"valid"`
}

type companyResponse struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	ComplianceProfile string            `json:"compliance_profile"`
	Status            string            `json:"status"`
	RetentionOverride map[string]string `json:"retention_overrides,omitempty"`
}

func toCompanyResponse(c *company.Company) companyResponse {
	resp := companyResponse{
		ID:                c.ID.String(),
		Name:              c.Name,
		ComplianceProfile: c.ComplianceProfile.String(),
		Status:            string(c.Status),
	}
	if len(c.RetentionOverrides) > 0 {
		resp.RetentionOverride = make(map[string]string, len(c.RetentionOverrides))
		for k, v := range c.RetentionOverrides {
			resp.RetentionOverride[k] = v.String()
		}
	}
	return resp
}
