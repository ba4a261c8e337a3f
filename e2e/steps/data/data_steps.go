package data

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the scenario state these steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	Saved(name string) (json.RawMessage, error)
}

// RegisterSteps registers anonymization, decryption and integrity steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &dataSteps{tc: tc}

	ctx.Step(`^I anonymize (\w+) data in categories "([^"]*)" with payload:$`, steps.anonymize)
	ctx.Step(`^I supersede saved record "([^"]*)" with payload:$`, steps.supersede)
	ctx.Step(`^I decrypt saved record "([^"]*)"$`, steps.decryptRecord)
	ctx.Step(`^I decrypt the envelope of saved record "([^"]*)" with one ciphertext bit flipped$`, steps.decryptTampered)
	ctx.Step(`^I verify the integrity of saved record "([^"]*)"$`, steps.verifyIntegrity)
}

type dataSteps struct {
	tc TestContext
	// last classification, reused by supersede
	classification map[string]any
}

type savedRecord struct {
	ID               string         `json:"id"`
	EncryptedPayload map[string]any `json:"encrypted_payload"`
}

func (s *dataSteps) record(name string) (savedRecord, error) {
	raw, err := s.tc.Saved(name)
	if err != nil {
		return savedRecord{}, err
	}
	var rec savedRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return savedRecord{}, fmt.Errorf("saved %q is not a record: %w", name, err)
	}
	return rec, nil
}

func parsePayload(doc *godog.DocString) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(doc.Content), &payload); err != nil {
		return nil, fmt.Errorf("payload doc string: %w", err)
	}
	return payload, nil
}

func (s *dataSteps) anonymize(_ context.Context, level, categories string, doc *godog.DocString) error {
	payload, err := parsePayload(doc)
	if err != nil {
		return err
	}
	var cats []string
	for _, c := range strings.Split(categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	s.classification = map[string]any{
		"level":                  level,
		"categories":             cats,
		"encryption_required":    true,
		"anonymization_required": true,
	}
	return s.tc.POST("/v1/data/anonymize", map[string]any{
		"payload":        payload,
		"classification": s.classification,
	})
}

func (s *dataSteps) supersede(_ context.Context, name string, doc *godog.DocString) error {
	rec, err := s.record(name)
	if err != nil {
		return err
	}
	payload, err := parsePayload(doc)
	if err != nil {
		return err
	}
	return s.tc.POST("/v1/data/"+rec.ID+"/supersede", map[string]any{
		"payload":        payload,
		"classification": s.classification,
	})
}

func (s *dataSteps) decryptRecord(_ context.Context, name string) error {
	rec, err := s.record(name)
	if err != nil {
		return err
	}
	return s.tc.POST("/v1/data/decrypt", map[string]string{"record_id": rec.ID})
}

func (s *dataSteps) decryptTampered(_ context.Context, name string) error {
	rec, err := s.record(name)
	if err != nil {
		return err
	}
	env := rec.EncryptedPayload
	encoded, _ := env["ciphertext"].(string)
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(ct) == 0 {
		return fmt.Errorf("saved record %q has no ciphertext", name)
	}
	ct[0] ^= 0x01
	env["ciphertext"] = base64.StdEncoding.EncodeToString(ct)
	return s.tc.POST("/v1/data/decrypt", map[string]any{"encrypted_payload": env})
}

func (s *dataSteps) verifyIntegrity(_ context.Context, name string) error {
	rec, err := s.record(name)
	if err != nil {
		return err
	}
	return s.tc.GET("/v1/data/"+rec.ID+"/integrity", nil)
}
