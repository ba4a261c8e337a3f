package classification

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "veil/pkg/domain-errors"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = NewEngine(DefaultPolicy())
}

func sha(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

func personal() DataClassification {
	return DataClassification{
		Level:                 LevelConfidential,
		Categories:            []string{PersonalIdentifiers},
		AnonymizationRequired: true,
	}
}

func (s *EngineSuite) TestPersonalIdentifiersHashAndRedact() {
	out, err := s.engine.ApplyRules(map[string]any{"email": "a@b.com", "name": "John Doe"}, personal())
	s.Require().NoError(err)

	s.Equal(Redacted, out["name"])
	s.Equal(sha("a@b.com"), out["email"])
}

func (s *EngineSuite) TestUntargetedFieldsPassThrough() {
	in := map[string]any{"email": "a@b.com", "favourite_colour": "teal", "count": json.Number("3")}
	out, err := s.engine.ApplyRules(in, personal())
	s.Require().NoError(err)

	s.Equal("teal", out["favourite_colour"])
	s.Equal(json.Number("3"), out["count"])
	s.Equal("a@b.com", in["email"], "input record must not be mutated")
}

func (s *EngineSuite) TestNoOpWhenAnonymizationNotRequired() {
	c := personal()
	c.AnonymizationRequired = false
	in := map[string]any{"email": "a@b.com", "name": "John Doe", "nested": map[string]any{"k": "v"}}

	out, err := s.engine.ApplyRules(in, c)
	s.Require().NoError(err)
	s.Equal(in, out)
}

func (s *EngineSuite) TestUnsupportedMethodAbortsWholeCall() {
	rules := []Rule{
		{Field: "email", Method: MethodHash},
		{Field: "name", Method: "scramble"},
	}
	out, err := s.engine.Apply(map[string]any{"email": "a@b.com", "name": "x"}, rules)

	s.Nil(out)
	s.True(dErrors.HasCode(err, dErrors.CodeUnsupportedRuleMethod))
	s.True(IsUnsupportedMethod(err))
}

func (s *EngineSuite) TestUninterpretableValueIsRedacted() {
	rules := []Rule{{Field: "salary", Method: MethodAggregate, Parameters: map[string]string{"bucket": "1000"}}}
	out, err := s.engine.Apply(map[string]any{"salary": "a lot"}, rules)
	s.Require().NoError(err)
	s.Equal(Redacted, out["salary"])
}

func (s *EngineSuite) TestHigherPriorityCategoryWinsSharedField() {
	c := DataClassification{
		Level:                 LevelRestricted,
		Categories:            []string{LocationData, PersonalIdentifiers},
		AnonymizationRequired: true,
	}
	out, err := s.engine.ApplyRules(map[string]any{"ip_address": "203.0.113.77"}, c)
	s.Require().NoError(err)
	s.Equal("203.0.113.0/24", out["ip_address"])
}

func (s *EngineSuite) TestHealthAndFinancialRecord() {
	c := DataClassification{
		Level:                 LevelRestricted,
		Categories:            []string{HealthData, FinancialData, BehavioralData},
		AnonymizationRequired: true,
	}
	in := map[string]any{
		"name":             "Jane Roe",
		"diagnosis":        "hypertension",
		"symptoms":         "Dr Smith called 555-123-4567 on 2024-03-05",
		"salary":           json.Number("87654"),
		"iban":             "DE89370400440532013000",
		"timestamp":        "2024-03-07T15:04:05Z",
		"session_duration": 185.0,
		"heart_rate": []any{
			map[string]any{"timestamp": "2024-03-04T08:00:00Z", "value": 60.0},
			map[string]any{"timestamp": "2024-03-06T08:00:00Z", "value": 80.0},
			map[string]any{"timestamp": "2024-03-11T08:00:00Z", "value": 90.0},
		},
	}
	out, err := s.engine.ApplyRules(in, c)
	s.Require().NoError(err)

	s.Equal(sha("Jane Roe"), out["name"], "health data hashes names")
	s.Equal(Redacted, out["diagnosis"])
	s.Equal("[NAME] called [PHONE] on [DATE]", out["symptoms"])
	s.Equal(80000.0, out["salary"])
	s.Equal("DE89***", out["iban"])
	s.Equal("2024-03-07T00:00:00Z", out["timestamp"])
	s.Equal(180.0, out["session_duration"])
	s.Equal([]any{
		seriesPoint{Period: "2024-03-04T00:00:00Z", Mean: 70, Count: 2},
		seriesPoint{Period: "2024-03-11T00:00:00Z", Mean: 90, Count: 1},
	}, out["heart_rate"])
}

func (s *EngineSuite) TestScalarHeartRateUsesBucket() {
	c := DataClassification{Level: LevelRestricted, Categories: []string{HealthData}, AnonymizationRequired: true}
	out, err := s.engine.ApplyRules(map[string]any{"heart_rate": 73.0}, c)
	s.Require().NoError(err)
	s.Equal(70.0, out["heart_rate"])
}

func (s *EngineSuite) TestNilValuesAreLeftAlone() {
	out, err := s.engine.ApplyRules(map[string]any{"email": nil}, personal())
	s.Require().NoError(err)
	s.Nil(out["email"])
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		params map[string]string
		want   any
	}{
		{"ipv4 /24", "192.168.10.42", map[string]string{"prefix": "24"}, "192.168.10.0/24"},
		{"ipv4 /16", "192.168.10.42", map[string]string{"prefix": "16"}, "192.168.0.0/16"},
		{"ipv4 mapped", "::ffff:10.1.2.3", map[string]string{"prefix": "24"}, "10.1.2.0/24"},
		{"ipv6 /48", "2001:db8:abcd:12::1", nil, "2001:db8:abcd::/48"},
		{"decimals", 52.5234, map[string]string{"decimals": "2"}, 52.52},
		{"negative decimals", -13.4059, map[string]string{"decimals": "1"}, -13.4},
		{"keep", "SW1A 1AA", map[string]string{"keep": "3"}, "SW1***"},
		{"keep longer than value", "AB", map[string]string{"keep": "5"}, "AB***"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := truncateValue(tt.value, tt.params)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := truncateValue("not an ip", map[string]string{"prefix": "24"})
	assert.False(t, ok)
}

func TestAggregateGranularities(t *testing.T) {
	ts := "2024-03-07T15:04:05Z" // a Thursday

	got, ok := aggregateValue(ts, map[string]string{"granularity": "daily"})
	require.True(t, ok)
	assert.Equal(t, "2024-03-07T00:00:00Z", got)

	got, ok = aggregateValue(ts, map[string]string{"granularity": "weekly"})
	require.True(t, ok)
	assert.Equal(t, "2024-03-04T00:00:00Z", got)

	got, ok = aggregateValue(ts, map[string]string{"granularity": "monthly"})
	require.True(t, ok)
	assert.Equal(t, "2024-03-01T00:00:00Z", got)

	sunday := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), floorISOWeek(sunday))
}

func TestHashIsStableAcrossRepresentations(t *testing.T) {
	a, _ := hashValue(json.Number("42"), nil)
	b, _ := hashValue(42.0, nil)
	assert.Equal(t, a, b)
}
