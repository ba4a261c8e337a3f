package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"veil/pkg/requestcontext"
)

// ClientMetadata records client IP, User-Agent and a coarse device label.
// Only the label is meant for audit metadata; the raw values stay in context.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, DeviceLabel(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceLabel reduces a User-Agent to "browser/os", e.g. "Firefox/Linux".
func DeviceLabel(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "unknown/unknown"
	}
	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if ua.Bot() {
		browser = "bot"
	}
	if browser == "" {
		browser = "unknown"
	}
	os := ua.OSInfo().Name
	if os == "" {
		os = "unknown"
	}
	return browser + "/" + os
}

// ClientIPFromRequest prefers the first X-Forwarded-For hop, then X-Real-IP,
// then RemoteAddr without the port.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
