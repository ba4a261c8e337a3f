package company

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veil/internal/classification"
	"veil/internal/platform/logger"
	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
)

const samplePolicy = `
categories:
  - name: payroll
    priority: 75
    rules:
      - field: salary
        method: aggregate
        parameters:
          bucket: "1000"
      - field: employee_number
        method: hash
companies:
  - id: acme
    name: Acme Health
    compliance_profile: enterprise
    retention_overrides:
      health_data: 180d
      payroll: 720h
  - id: globex
    name: Globex
    inactive: true
`

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicy), 0o600))

	pf, err := LoadPolicyFile(path)
	require.NoError(t, err)
	require.Len(t, pf.Categories, 1)
	require.Len(t, pf.Companies, 2)

	policy := classification.DefaultPolicy()
	reg := NewRegistry(domain.ProfileGDPR, WithLogger(logger.Discard()))
	require.NoError(t, pf.Apply(context.Background(), reg, policy))

	assert.True(t, policy.Known("payroll"))
	rules := policy.ResolveRules(classification.DataClassification{
		Level:                 classification.LevelConfidential,
		Categories:            []string{"payroll"},
		AnonymizationRequired: true,
	})
	require.Len(t, rules, 2)

	acme, err := reg.Get(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileEnterprise, acme.ComplianceProfile)
	d, _ := acme.Retention(classification.HealthData)
	assert.Equal(t, 180*24*time.Hour, d)

	_, err = reg.RequireActive(context.Background(), "globex")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestParsePolicyFile_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "companies:\n  - id: acme\n    nmae: typo\n",
		"unknown method":   "categories:\n  - name: x\n    priority: 1\n    rules:\n      - {field: a, method: scramble}\n",
		"unknown category": "companies:\n  - id: acme\n    name: A\n    retention_overrides: {payroll: 1d}\n",
		"bad duration":     "companies:\n  - id: acme\n    name: A\n    retention_overrides: {health_data: soon}\n",
		"weak profile":     "companies:\n  - id: acme\n    name: A\n    compliance_profile: basic\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			pf, err := ParsePolicyFile([]byte(doc))
			if err == nil {
				reg := NewRegistry(domain.ProfileGDPR, WithLogger(logger.Discard()))
				err = pf.Apply(context.Background(), reg, classification.DefaultPolicy())
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConfiguration), err.Error())
		})
	}
}
