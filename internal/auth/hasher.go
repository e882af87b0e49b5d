package auth

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "bizcards/internal/errors"
)

// DefaultHashCost is the bcrypt cost used for stored passwords.
const DefaultHashCost = 10

// ErrHashPassword is returned when a password cannot be hashed.
var ErrHashPassword = errors.New("failed to hash password")

// PasswordHasher produces and checks salted password hashes. bcrypt embeds a
// fresh random salt in every hash and compares in constant time.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}

	seed := make([]byte, 32)
	_, _ = rand.Read(seed)
	// GenerateFromPassword rejects inputs over 72 bytes only, so this cannot fail.
	dummy, _ := bcrypt.GenerateFromPassword(seed, cost)

	return &PasswordHasher{cost: cost, dummy: dummy}
}

// Hash returns the encoded salt and hash for plaintext. Passwords longer than
// 72 bytes are a validation failure.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most 72 bytes", apperrors.ErrValidation)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashPassword, err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hashed. A malformed or empty hash
// still pays for a full comparison against a dummy hash, so callers cannot
// tell it apart from a wrong password by timing.
func (h *PasswordHasher) Verify(plaintext, hashed string) bool {
	if _, err := bcrypt.Cost([]byte(hashed)); err != nil {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
