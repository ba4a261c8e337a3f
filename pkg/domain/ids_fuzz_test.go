//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseSessionID checks that parsing never panics and that accepted
// input round-trips through String.
func FuzzParseSessionID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseSessionID(input)
		if err == nil {
			roundTrip, err2 := ParseSessionID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseCompanyID checks that accepted slugs are stable under re-parse.
func FuzzParseCompanyID(f *testing.F) {
	f.Add("acme")
	f.Add("")
	f.Add("ACME")
	f.Add("a b")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseCompanyID(input)
		if err != nil {
			return
		}
		again, err := ParseCompanyID(id.String())
		if err != nil || again != id {
			t.Errorf("company id %q not stable: %v", id, err)
		}
	})
}
