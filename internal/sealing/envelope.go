package sealing

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Envelope is the self-describing output of Encrypt. Byte fields marshal
// as base64 in JSON.
type Envelope struct {
	IV         []byte `json:"iv"`
	Ciphertext []byte `json:"ciphertext"`
	AuthTag    []byte `json:"auth_tag"`
	Algorithm  string `json:"algorithm"`
	KeyID      string `json:"key_id"`
}

// canonical is iv || ciphertext || tag, the byte string both the checksum
// and the AEAD open call work from.
func (e Envelope) canonical() []byte {
	out := make([]byte, 0, len(e.IV)+len(e.Ciphertext)+len(e.AuthTag))
	out = append(out, e.IV...)
	out = append(out, e.Ciphertext...)
	return append(out, e.AuthTag...)
}

// Clone returns a deep copy so callers can mutate without touching a stored record.
func (e Envelope) Clone() Envelope {
	return Envelope{
		IV:         append([]byte(nil), e.IV...),
		Ciphertext: append([]byte(nil), e.Ciphertext...),
		AuthTag:    append([]byte(nil), e.AuthTag...),
		Algorithm:  e.Algorithm,
		KeyID:      e.KeyID,
	}
}

// Checksum is hex SHA-256 over the canonical envelope bytes. It needs no key.
func Checksum(e Envelope) string {
	sum := sha256.Sum256(e.canonical())
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum recomputes the checksum and compares in constant time.
func VerifyChecksum(e Envelope, checksum string) bool {
	return subtle.ConstantTimeCompare([]byte(Checksum(e)), []byte(checksum)) == 1
}
