package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names a supported password hashing scheme.
type Algorithm string

const (
	Bcrypt   Algorithm = "bcrypt"
	Argon2id Algorithm = "argon2id"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

// MaxBcryptInput is the number of password bytes bcrypt actually consumes.
const MaxBcryptInput = 72

var (
	ErrEmptyPassword = errors.New("cryptox: empty password")
	ErrMismatch      = errors.New("password does not match")
	ErrMalformedHash = errors.New("cryptox: malformed password hash")
	ErrUnknownScheme = errors.New("cryptox: unknown hash algorithm")
)

// Hasher produces and checks salted password hashes. Verification detects the
// scheme from the encoded hash, so hashes written under a previous algorithm
// keep working after the configured one changes.
type Hasher struct {
	algorithm Algorithm
	cost      int
}

// NewHasher returns a Hasher for the given algorithm. A cost of zero selects
// bcrypt.DefaultCost; it is ignored for argon2id.
func NewHasher(algorithm Algorithm, cost int) (*Hasher, error) {
	switch algorithm {
	case Bcrypt:
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("cryptox: bcrypt cost %d out of range [%d, %d]",
				cost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	case Argon2id:
		cost = 0
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, algorithm)
	}
	return &Hasher{algorithm: algorithm, cost: cost}, nil
}

// Algorithm reports the scheme used for new hashes.
func (h *Hasher) Algorithm() Algorithm { return h.algorithm }

// Hash returns a freshly salted hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if h.algorithm == Argon2id {
		return hashArgon2id(password)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify returns nil when password matches encoded, ErrMismatch when it does
// not, and an error wrapping ErrMalformedHash when encoded cannot be read.
func (h *Hasher) Verify(password, encoded string) error {
	switch {
	case isBcrypt(encoded):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return ErrMismatch
		default:
			return fmt.Errorf("%w: %v", ErrMalformedHash, err)
		}
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(password, encoded)
	default:
		return fmt.Errorf("%w: unrecognised prefix", ErrMalformedHash)
	}
}

// NeedsRehash reports whether encoded was produced with a different scheme or
// cost than the hasher currently uses.
func (h *Hasher) NeedsRehash(encoded string) bool {
	switch h.algorithm {
	case Bcrypt:
		if !isBcrypt(encoded) {
			return true
		}
		cost, err := bcrypt.Cost([]byte(encoded))
		return err != nil || cost != h.cost
	default:
		return !strings.HasPrefix(encoded, "$argon2id$")
	}
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

// hashArgon2id generates a PHC-format Argon2id hash string including salt and parameters.
func hashArgon2id(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyArgon2id(password, encoded string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return fmt.Errorf("%w: expected 6 parts", ErrMalformedHash)
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return fmt.Errorf("%w: wrong version", ErrMalformedHash)
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %v", ErrMalformedHash, err)
	}
	if iters == 0 || par == 0 {
		return fmt.Errorf("%w: zero parameters", ErrMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return fmt.Errorf("%w: hash: %v", ErrMalformedHash, err)
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115 - bounded by the decoded hash length
	)
	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrMismatch
}

// GeneratePassword returns a random 12 character alphanumeric password.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 12
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = charset[n.Int64()]
	}
	return string(password), nil
}
