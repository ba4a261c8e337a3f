package classification

import (
	"slices"
	"strings"
	"time"

	dErrors "veil/pkg/domain-errors"
)

// Level is the sensitivity tier of a record.
type Level string

const (
	LevelPublic       Level = "public"
	LevelInternal     Level = "internal"
	LevelConfidential Level = "confidential"
	LevelRestricted   Level = "restricted"
)

var levelRank = map[Level]int{
	LevelPublic:       1,
	LevelInternal:     2,
	LevelConfidential: 3,
	LevelRestricted:   4,
}

func (l Level) IsValid() bool { return levelRank[l] > 0 }

// AtLeast reports whether l is as sensitive as other or more.
func (l Level) AtLeast(other Level) bool { return levelRank[l] >= levelRank[other] }

// Method names an anonymization transform.
type Method string

const (
	MethodHash         Method = "hash"
	MethodRedact       Method = "redact"
	MethodAggregate    Method = "aggregate"
	MethodNLPAnonymize Method = "nlp_anonymize"
	MethodTruncate     Method = "truncate"
)

// Rule targets one field with one method. Category records which table
// entry produced the rule and drives ordering.
type Rule struct {
	Field      string            `json:"field" yaml:"field"`
	Method     Method            `json:"method" yaml:"method"`
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Category   string            `json:"category,omitempty" yaml:"-"`
}

// DataClassification is supplied per write and never mutated afterwards.
// Changing it means re-processing the record into a new version.
type DataClassification struct {
	Level                 Level         `json:"level"`
	Categories            []string      `json:"categories"`
	RetentionPeriod       time.Duration `json:"retention_period"`
	EncryptionRequired    bool          `json:"encryption_required"`
	AnonymizationRequired bool          `json:"anonymization_required"`
}

// Validate rejects malformed classifications up front.
func (c DataClassification) Validate() error {
	if !c.Level.IsValid() {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "unknown classification level: "+string(c.Level))
	}
	if c.RetentionPeriod < 0 {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "retention period must not be negative")
	}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat) == "" {
			return dErrors.New(dErrors.CodeInvalidConfiguration, "category names must not be empty")
		}
	}
	return nil
}

// CategorySet returns the categories sorted and deduplicated.
func (c DataClassification) CategorySet() []string {
	out := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		out = append(out, strings.TrimSpace(cat))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// RequiresSealing reports whether the caller asked for encryption explicitly
// or the level implies it. The gateway seals every record regardless; this
// is recorded in audit metadata.
func (c DataClassification) RequiresSealing() bool {
	return c.EncryptionRequired || c.Level.AtLeast(LevelConfidential)
}
