package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt. All CPU work passes
// through a bounded semaphore so a burst of logins cannot starve unrelated
// requests; callers wait for a slot until their context expires.
type Hasher struct {
	cost int
	sem  chan struct{}
}

// NewHasher creates a hasher with the given bcrypt cost factor and a cap on
// concurrent hashing operations. Out-of-range values fall back to sane
// defaults rather than failing at startup.
func NewHasher(cost, workers int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers < 1 {
		workers = 1
	}
	return &Hasher{
		cost: cost,
		sem:  make(chan struct{}, workers),
	}
}

func (h *Hasher) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for hash worker: %w", ctx.Err())
	}
}

func (h *Hasher) release() {
	<-h.sem
}

// Hash creates a salted bcrypt hash of the password. Two calls with the
// same input produce different hashes.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}
	// bcrypt silently truncates beyond 72 bytes
	if len(password) > 72 {
		return "", ErrPasswordTooLong
	}

	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare checks a password against its stored hash. A mismatch and a
// malformed or corrupt hash both return ErrInvalidPassword: stored hashes
// are data, not code, and a bad one must read as "wrong password" rather
// than take the request down.
func (h *Hasher) Compare(ctx context.Context, password, hash string) error {
	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// Cost returns the configured bcrypt cost factor.
func (h *Hasher) Cost() int {
	return h.cost
}
