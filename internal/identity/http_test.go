package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veil/pkg/domain-errors"
	"veil/pkg/platform/circuit"
)

func TestHTTPProvider_Resolve(t *testing.T) {
	t.Run("returns identity from provider", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/resolve", r.URL.Path)
			var req resolveRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ext-1", req.ExternalUserID)
			assert.Equal(t, "acme", req.CompanyID)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"user_id":    "user-123",
				"attributes": map[string]string{"email": "a@example.com", "plan": "pro"},
			})
		}))
		defer srv.Close()

		p := NewHTTPProvider(srv.URL+"/", time.Second)
		id, err := p.Resolve(context.Background(), "ext-1", "acme")
		require.NoError(t, err)
		assert.Equal(t, "user-123", id.UserID)
		assert.Equal(t, map[string]string{"plan": "pro"}, id.SafeAttributes())
	})

	failures := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"rejection", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusForbidden) }},
		{"server error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"bad body", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("{")) }},
		{"missing user", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{}`)) }},
		{"inactive", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"user_id":"u","active":false}`))
		}},
	}
	for _, tc := range failures {
		t.Run(tc.name+" is authentication failure", func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := NewHTTPProvider(srv.URL, time.Second).Resolve(context.Background(), "ext-1", "acme")
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeAuthenticationFailure))
		})
	}

	t.Run("deadline is authentication failure", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := NewHTTPProvider(srv.URL, 5*time.Second).Resolve(ctx, "ext-1", "acme")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAuthenticationFailure))
	})

	t.Run("open breaker fails fast", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		p := NewHTTPProvider(srv.URL, time.Second,
			WithBreaker(circuit.New("idp", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))))
		for range 5 {
			_, err := p.Resolve(context.Background(), "ext-1", "acme")
			require.Error(t, err)
		}
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider()
	p.Add("acme", "ext-1", map[string]string{"tier": "gold"})

	id, err := p.Resolve(context.Background(), "ext-1", "acme")
	require.NoError(t, err)
	assert.Equal(t, "ext-1", id.UserID)

	_, err = p.Resolve(context.Background(), "ext-1", "globex")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuthenticationFailure), "identities are company scoped")

	p.AcceptAll = true
	id, err = p.Resolve(context.Background(), "anyone", "globex")
	require.NoError(t, err)
	assert.Equal(t, "anyone", id.UserID)

	slow := &StaticProvider{Latency: time.Second, AcceptAll: true}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = slow.Resolve(ctx, "ext-1", "acme")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuthenticationFailure))
}
