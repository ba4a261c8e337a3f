package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/circuit"
)

const maxResponseBytes = 64 << 10

// HTTPProvider resolves identities with POST {baseURL}/resolve.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type HTTPOption func(*HTTPProvider)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) { p.client = c }
}

func WithLogger(logger *slog.Logger) HTTPOption {
	return func(p *HTTPProvider) { p.logger = logger }
}

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(p *HTTPProvider) { p.breaker = b }
}

func NewHTTPProvider(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: circuit.New("identity-provider", circuit.WithFailureThreshold(5)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type resolveRequest struct {
	ExternalUserID string `json:"external_user_id"`
	CompanyID      string `json:"company_id"`
}

type resolveResponse struct {
	UserID     string            `json:"user_id"`
	Active     *bool             `json:"active,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (p *HTTPProvider) Resolve(ctx context.Context, externalUserID string, companyID domain.CompanyID) (Identity, error) {
	if !p.breaker.Allow() {
		return Identity{}, dErrors.New(dErrors.CodeAuthenticationFailure, "identity provider unavailable")
	}

	body, err := json.Marshal(resolveRequest{ExternalUserID: externalUserID, CompanyID: companyID.String()})
	if err != nil {
		return Identity{}, dErrors.Wrap(err, dErrors.CodeAuthenticationFailure, "identity request encoding failed")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/resolve", bytes.NewReader(body))
	if err != nil {
		return Identity{}, dErrors.Wrap(err, dErrors.CodeAuthenticationFailure, "identity request failed")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.recordFailure(ctx, err)
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return Identity{}, dErrors.Wrap(err, dErrors.CodeAuthenticationFailure, "identity provider timeout")
		}
		return Identity{}, dErrors.Wrap(err, dErrors.CodeAuthenticationFailure, "identity provider unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		p.recordFailure(ctx, fmt.Errorf("status %d", resp.StatusCode))
		return Identity{}, dErrors.New(dErrors.CodeAuthenticationFailure, "identity provider error")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		p.breaker.RecordSuccess()
		return Identity{}, dErrors.New(dErrors.CodeAuthenticationFailure, "identity rejected by provider")
	}
	p.breaker.RecordSuccess()

	var out resolveResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return Identity{}, dErrors.Wrap(err, dErrors.CodeAuthenticationFailure, "invalid identity provider response")
	}
	if out.UserID == "" {
		return Identity{}, dErrors.New(dErrors.CodeAuthenticationFailure, "identity provider returned no user")
	}
	if out.Active != nil && !*out.Active {
		return Identity{}, dErrors.New(dErrors.CodeAuthenticationFailure, "identity is inactive")
	}
	return Identity{UserID: out.UserID, CompanyID: companyID, Attributes: out.Attributes}, nil
}

func (p *HTTPProvider) recordFailure(ctx context.Context, err error) {
	if _, change := p.breaker.RecordFailure(); change.Opened {
		p.logger.WarnContext(ctx, "identity provider circuit opened",
			"event", "idp_unavailable",
			"error", err,
		)
	}
}
