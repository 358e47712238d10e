package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const defaultCost = 12

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// legacySalt is the single fixed salt the flat-file server prefixed to every
// password before SHA-256. Hashes made that way are still accepted so old
// accounts can log in; they are replaced with bcrypt on first success.
const legacySalt = "flashgig_salt_2024"

// ErrInvalidPassword is returned by Verify when the password does not match.
var ErrInvalidPassword = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords with bcrypt.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost uses the given bcrypt cost. Zero, or a value
// outside bcrypt's range, means the default.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultCost
	}
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest lets tests outside this package use a low cost.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Cost returns the bcrypt work factor new hashes are made with.
func (p *PasswordService) Cost() int {
	return p.cost
}

func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks plaintext against a stored hash, which may be bcrypt or a
// legacy salted SHA-256 digest. A mismatch yields ErrInvalidPassword.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if IsLegacyHash(hash) {
		want := legacyHash(plaintext)
		if subtle.ConstantTimeCompare([]byte(want), []byte(hash)) != 1 {
			return ErrInvalidPassword
		}
		return nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// IsLegacyHash reports whether hash is a hex SHA-256 digest from the old
// fixed-salt scheme.
func IsLegacyHash(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func legacyHash(plaintext string) string {
	sum := sha256.Sum256([]byte(legacySalt + plaintext))
	return hex.EncodeToString(sum[:])
}
