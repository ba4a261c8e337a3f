package company

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	"veil/pkg/requestcontext"
)

// Registry holds the registered companies keyed by id.
type Registry struct {
	mu         sync.RWMutex
	companies  map[domain.CompanyID]*Company
	deployment domain.ComplianceProfile
	logger     *slog.Logger
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func NewRegistry(deployment domain.ComplianceProfile, opts ...Option) *Registry {
	r := &Registry{
		companies:  make(map[domain.CompanyID]*Company),
		deployment: deployment,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates and stores c. A missing profile inherits the deployment
// profile; re-registering an id replaces the previous entry.
func (r *Registry) Register(ctx context.Context, c Company) (*Company, error) {
	if c.ComplianceProfile == "" {
		c.ComplianceProfile = r.deployment
	}
	if err := c.Validate(r.deployment); err != nil {
		return nil, err
	}
	c.RetentionOverrides = maps.Clone(c.RetentionOverrides)
	if c.Status == "" {
		c.Status = StatusActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = requestcontext.Now(ctx).UTC()
	}

	r.mu.Lock()
	r.companies[c.ID] = &c
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "company registered",
		"company_id", c.ID.String(),
		"compliance_profile", c.ComplianceProfile.String(),
	)
	out := c
	return &out, nil
}

// Get returns a copy of the company.
func (r *Registry) Get(_ context.Context, id domain.CompanyID) (*Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.companies[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
	}
	out := *c
	out.RetentionOverrides = maps.Clone(c.RetentionOverrides)
	return &out, nil
}

// RequireActive returns the company only if it is registered and active.
func (r *Registry) RequireActive(ctx context.Context, id domain.CompanyID) (*Company, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, dErrors.New(dErrors.CodeForbidden, "company is inactive")
	}
	return c, nil
}

func (r *Registry) Deactivate(ctx context.Context, id domain.CompanyID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "company not found")
	}
	if !c.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "company is already inactive")
	}
	c.Status = StatusInactive
	r.logger.InfoContext(ctx, "company deactivated", "company_id", id.String())
	return nil
}

// List returns all companies ordered by id.
func (r *Registry) List(_ context.Context) []*Company {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Company, 0, len(r.companies))
	for _, c := range r.companies {
		cp := *c
		cp.RetentionOverrides = maps.Clone(c.RetentionOverrides)
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *Company) int { return strings.Compare(a.ID.String(), b.ID.String()) })
	return out
}

// ProfileFor returns the company's profile, or the deployment profile for
// unknown companies.
func (r *Registry) ProfileFor(id domain.CompanyID) domain.ComplianceProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.companies[id]; ok {
		return c.ComplianceProfile
	}
	return r.deployment
}
