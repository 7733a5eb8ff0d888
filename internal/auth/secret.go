package auth

// CREDENTIAL SCHEMES:
// Account secrets are stored in the users.password column in whatever form
// the configured scheme produces:
//
//	plaintext → the secret as submitted, compared in constant time
//	bcrypt    → $2a$<cost>$<salt><hash>, compared by bcrypt
//
// plaintext is the default so that databases created by earlier versions
// keep working. The server logs a warning at startup when it is in use.
// Switching an existing database to bcrypt locks out accounts whose stored
// secret is not a bcrypt hash.

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	SchemePlaintext = "plaintext"
	SchemeBcrypt    = "bcrypt"
)

// defaultCost is the bcrypt work factor used in production.
const defaultCost = 12

// SecretScheme turns a submitted secret into its stored form and checks a
// candidate against a stored value.
type SecretScheme interface {
	Name() string
	Seal(secret string) (string, error)
	Match(stored, candidate string) bool
}

// NewSecretScheme returns the scheme registered under name.
func NewSecretScheme(name string) (SecretScheme, error) {
	switch name {
	case SchemePlaintext, "":
		return PlaintextScheme{}, nil
	case SchemeBcrypt:
		return NewBcryptScheme(defaultCost), nil
	default:
		return nil, fmt.Errorf("auth: unknown secret scheme %q", name)
	}
}

type PlaintextScheme struct{}

func (PlaintextScheme) Name() string { return SchemePlaintext }

func (PlaintextScheme) Seal(secret string) (string, error) { return secret, nil }

func (PlaintextScheme) Match(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// BcryptScheme hashes secrets with bcrypt. Tests use cost 4 (the minimum)
// to keep hashing fast.
type BcryptScheme struct {
	cost int
}

func NewBcryptScheme(cost int) BcryptScheme {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	return BcryptScheme{cost: cost}
}

func (BcryptScheme) Name() string { return SchemeBcrypt }

// Seal rejects secrets over 72 bytes; bcrypt would otherwise truncate them.
func (b BcryptScheme) Seal(secret string) (string, error) {
	if len(secret) > 72 {
		return "", errors.New("auth: password must be 72 bytes or fewer")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

func (BcryptScheme) Match(stored, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
}
