// Package sealing derives the process data key and turns plaintext into
// authenticated AES-256-GCM envelopes.
package sealing

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"veil/internal/platform/config"
	dErrors "veil/pkg/domain-errors"
)

const (
	// derivationContext is the fixed, public PBKDF2 salt. Rotating it
	// invalidates every stored envelope.
	derivationContext = "veil/anonymization/v1"

	keySize = 32
	ivSize  = 12
	tagSize = 16

	// maxTrackedIVs bounds the issued-IV set. With random 96-bit IVs a repeat
	// inside the window means the entropy source is broken.
	maxTrackedIVs = 1 << 16
)

// DeriveKey stretches the master secret into the data key. It is slow on
// purpose and must run once at startup.
func DeriveKey(masterSecret []byte, cfg config.AnonymizationConfig) ([]byte, error) {
	if len(masterSecret) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidConfiguration, "master secret is required")
	}
	if cfg.KeyDerivationIterations < config.MinKeyDerivationIterations {
		return nil, dErrors.New(dErrors.CodeInvalidConfiguration,
			fmt.Sprintf("key derivation iterations must be at least %d", config.MinKeyDerivationIterations))
	}
	if cfg.EncryptionAlgorithm != config.AlgorithmAES256GCM {
		return nil, dErrors.New(dErrors.CodeInvalidConfiguration, "unsupported encryption algorithm: "+cfg.EncryptionAlgorithm)
	}
	return pbkdf2.Key(masterSecret, []byte(derivationContext), cfg.KeyDerivationIterations, keySize, sha256.New), nil
}

// Sealer holds the derived key. It is safe for concurrent use.
type Sealer struct {
	aead   cipher.AEAD
	keyID  string
	random io.Reader
	ivs    *ivTracker
}

type Option func(*Sealer)

// WithRandom replaces the IV entropy source. Tests only.
func WithRandom(r io.Reader) Option {
	return func(s *Sealer) { s.random = r }
}

// NewSealer builds a sealer over a 32-byte key.
func NewSealer(key []byte, opts ...Option) (*Sealer, error) {
	if len(key) != keySize {
		return nil, dErrors.New(dErrors.CodeInvalidConfiguration, "data key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidConfiguration, "init cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidConfiguration, "init gcm")
	}
	fingerprint := sha256.Sum256(key)
	s := &Sealer{
		aead:   aead,
		keyID:  hex.EncodeToString(fingerprint[:])[:8],
		random: rand.Reader,
		ivs:    newIVTracker(maxTrackedIVs),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// KeyID is a non-secret hint identifying which key sealed an envelope.
func (s *Sealer) KeyID() string { return s.keyID }

// String and LogValue keep the key out of fmt and slog output.
func (s *Sealer) String() string { return "Sealer{key_id=" + s.keyID + "}" }

func (s *Sealer) LogValue() slog.Value {
	return slog.GroupValue(slog.String("key_id", s.keyID), slog.String("algorithm", config.AlgorithmAES256GCM))
}

// Encrypt seals plaintext under a fresh random IV. aad is authenticated but
// not stored; Decrypt must be given the same bytes. Reusing an IV under GCM
// leaks the authentication key, so a repeat is treated as a broken
// invariant and panics.
func (s *Sealer) Encrypt(plaintext, aad []byte) (Envelope, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(s.random, iv); err != nil {
		return Envelope{}, dErrors.Wrap(err, dErrors.CodeInternal, "generate iv")
	}
	if !s.ivs.remember(iv) {
		panic("sealing: IV reuse detected")
	}

	sealed := s.aead.Seal(nil, iv, plaintext, aad)
	split := len(sealed) - tagSize
	return Envelope{
		IV:         iv,
		Ciphertext: sealed[:split],
		AuthTag:    sealed[split:],
		Algorithm:  config.AlgorithmAES256GCM,
		KeyID:      s.keyID,
	}, nil
}

// Decrypt opens an envelope sealed with aad. Any structural problem, tag
// mismatch or foreign aad is an IntegrityViolation; the underlying cause is
// not exposed.
func (s *Sealer) Decrypt(env Envelope, aad []byte) ([]byte, error) {
	if env.Algorithm != config.AlgorithmAES256GCM {
		return nil, dErrors.New(dErrors.CodeIntegrityViolation, "unexpected envelope algorithm")
	}
	if len(env.IV) != ivSize || len(env.AuthTag) != tagSize {
		return nil, dErrors.New(dErrors.CodeIntegrityViolation, "malformed envelope")
	}
	if env.KeyID != s.keyID {
		return nil, dErrors.New(dErrors.CodeIntegrityViolation, "envelope sealed under a different key")
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+tagSize)
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.AuthTag...)
	plain, err := s.aead.Open(nil, env.IV, sealed, aad)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeIntegrityViolation, "authentication tag mismatch")
	}
	return plain, nil
}

// ivTracker is a bounded FIFO set of issued IVs.
type ivTracker struct {
	mu    sync.Mutex
	seen  map[[ivSize]byte]struct{}
	order [][ivSize]byte
	next  int
}

func newIVTracker(capacity int) *ivTracker {
	return &ivTracker{
		seen:  make(map[[ivSize]byte]struct{}, capacity),
		order: make([][ivSize]byte, 0, capacity),
	}
}

// remember records iv and reports false if it was already present.
func (t *ivTracker) remember(iv []byte) bool {
	var k [ivSize]byte
	copy(k[:], iv)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.seen[k]; dup {
		return false
	}
	if len(t.order) < cap(t.order) {
		t.order = append(t.order, k)
	} else {
		delete(t.seen, t.order[t.next])
		t.order[t.next] = k
		t.next = (t.next + 1) % len(t.order)
	}
	t.seen[k] = struct{}{}
	return true
}
