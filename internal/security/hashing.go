package security

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrHashing is returned when the underlying hash computation fails (e.g. entropy or memory exhaustion).
	ErrHashing = errors.New("hashing failed")
	// ErrCorruptHash is returned by Verify when the stored hash cannot be parsed.
	ErrCorruptHash = errors.New("corrupt password hash")
	// ErrInvalidCredentials is the single outcome for an unknown principal or a wrong secret,
	// shared by user login and device linking.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// bcryptMaxInput is the longest secret bcrypt accepts; longer secrets are pre-hashed.
const bcryptMaxInput = 72

// dummySecret is hashed once per Hasher and verified against on "principal not found" paths.
var dummySecret = []byte("dispenser-identity/absent-principal")

// Hasher hashes and verifies user and device passwords using bcrypt. Callers must not log or
// persist plaintext passwords. Concurrent hash/verify work is bounded by a semaphore so that
// the deliberately expensive cost factor cannot monopolise every CPU under load.
type Hasher struct {
	Cost int

	slots *semaphore.Weighted

	dummyOnce sync.Once
	dummy     []byte
	dummyErr  error
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31) running at most workers
// hash operations at once. Cost 12 is a reasonable default for interactive login;
// workers <= 0 means one slot per CPU.
func NewHasher(cost, workers int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Hasher{Cost: cost, slots: semaphore.NewWeighted(int64(workers))}
}

// Hash produces a bcrypt hash of secret suitable for storage. It fails only with
// ErrHashing or a context error while waiting for a worker slot.
func (h *Hasher) Hash(ctx context.Context, secret []byte) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	b, err := bcrypt.GenerateFromPassword(normalize(secret), h.Cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(b), nil
}

// Verify reports whether secret matches the stored hash using constant-time comparison.
// A mismatch is (false, nil); a malformed stored hash is ErrCorruptHash.
func (h *Hasher) Verify(ctx context.Context, secret []byte, hash string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.slots.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), normalize(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrCorruptHash, err)
	}
}

// VerifyAbsent spends the same work as a Verify against a real hash and discards the result.
// Call it when the principal does not exist so the failure costs the same as a wrong password.
func (h *Hasher) VerifyAbsent(ctx context.Context, secret []byte) error {
	h.dummyOnce.Do(func() {
		h.dummy, h.dummyErr = bcrypt.GenerateFromPassword(dummySecret, h.Cost)
	})
	if h.dummyErr != nil {
		return fmt.Errorf("%w: %v", ErrHashing, h.dummyErr)
	}
	_, err := h.Verify(ctx, secret, string(h.dummy))
	return err
}

// normalize keeps secrets within bcrypt's input limit. Secrets over 72 bytes are replaced
// by the base64 of their SHA-256 digest so they neither error nor silently truncate.
func normalize(secret []byte) []byte {
	if len(secret) <= bcryptMaxInput {
		return secret
	}
	sum := sha256.Sum256(secret)
	out := make([]byte, base64.RawStdEncoding.EncodedLen(len(sum)))
	base64.RawStdEncoding.Encode(out, sum[:])
	return out
}
