// Package e2e drives a running gateway through its public HTTP API with
// godog feature files.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext carries per-scenario HTTP state. Reset runs before each
// scenario.
type TestContext struct {
	BaseURL    string
	AdminToken string
	HTTPClient *http.Client

	LastResponse     *http.Response
	LastResponseBody []byte

	token     string
	sessionID string
	clientIP  string
	saved     map[string]json.RawMessage
}

func NewTestContext(baseURL, adminToken string) *TestContext {
	tc := &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AdminToken: adminToken,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	tc.Reset()
	return tc
}

func (tc *TestContext) Reset() {
	tc.LastResponse = nil
	tc.LastResponseBody = nil
	tc.token = ""
	tc.sessionID = ""
	tc.clientIP = ""
	tc.saved = make(map[string]json.RawMessage)
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	if tc.clientIP != "" {
		req.Header.Set("X-Forwarded-For", tc.clientIP)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	tc.LastResponse = resp
	return nil
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) AdminPOST(path string) error {
	return tc.do(http.MethodPost, path, nil, map[string]string{"X-Admin-Token": tc.AdminToken})
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte { return tc.LastResponseBody }

func (tc *TestContext) GetLastResponseHeader(name string) string {
	if tc.LastResponse == nil {
		return ""
	}
	return tc.LastResponse.Header.Get(name)
}

// GetResponseField reads a top-level or dotted field from the last JSON body.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var cur any
	if err := json.Unmarshal(tc.LastResponseBody, &cur); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	for _, part := range strings.Split(field, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		cur, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not present in response", field)
		}
	}
	return cur, nil
}

func (tc *TestContext) SetToken(token string)  { tc.token = token }
func (tc *TestContext) SetSessionID(id string) { tc.sessionID = id }
func (tc *TestContext) GetSessionID() string   { return tc.sessionID }
func (tc *TestContext) SetClientIP(ip string)  { tc.clientIP = ip }

// Save keeps the last response body under name for later steps.
func (tc *TestContext) Save(name string) {
	tc.saved[name] = append(json.RawMessage(nil), tc.LastResponseBody...)
}

func (tc *TestContext) Saved(name string) (json.RawMessage, error) {
	raw, ok := tc.saved[name]
	if !ok {
		return nil, fmt.Errorf("nothing saved as %q", name)
	}
	return raw, nil
}
