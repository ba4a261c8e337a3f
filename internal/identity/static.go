package identity

import (
	"context"
	"maps"
	"sync"
	"time"

	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
)

// StaticProvider serves identities from memory. With AcceptAll set, any
// external id resolves to itself, which is what local development wants.
type StaticProvider struct {
	Latency   time.Duration
	AcceptAll bool

	mu    sync.RWMutex
	users map[string]Identity
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{users: make(map[string]Identity)}
}

func staticKey(companyID domain.CompanyID, externalUserID string) string {
	return companyID.String() + "\x00" + externalUserID
}

// Add registers externalUserID for companyID.
func (p *StaticProvider) Add(companyID domain.CompanyID, externalUserID string, attrs map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.users == nil {
		p.users = make(map[string]Identity)
	}
	p.users[staticKey(companyID, externalUserID)] = Identity{
		UserID:     externalUserID,
		CompanyID:  companyID,
		Attributes: maps.Clone(attrs),
	}
}

func (p *StaticProvider) Resolve(ctx context.Context, externalUserID string, companyID domain.CompanyID) (Identity, error) {
	if p.Latency > 0 {
		timer := time.NewTimer(p.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Identity{}, dErrors.Wrap(ctx.Err(), dErrors.CodeAuthenticationFailure, "identity provider timeout")
		case <-timer.C:
		}
	}
	if externalUserID == "" {
		return Identity{}, dErrors.New(dErrors.CodeAuthenticationFailure, "identity rejected by provider")
	}

	p.mu.RLock()
	id, ok := p.users[staticKey(companyID, externalUserID)]
	p.mu.RUnlock()
	if ok {
		id.Attributes = maps.Clone(id.Attributes)
		return id, nil
	}
	if p.AcceptAll {
		return Identity{UserID: externalUserID, CompanyID: companyID}, nil
	}
	return Identity{}, dErrors.New(dErrors.CodeAuthenticationFailure, "identity rejected by provider")
}
