// Package auth holds the credential table and the bearer token issuer used
// to protect write operations.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/canti/internal/apperr"
)

// hashCost is the bcrypt cost used for digests created by this package.
var hashCost = bcrypt.DefaultCost

// User is a configured account. Exactly one of Password and PasswordHash
// is set; Password is hashed on load and then discarded.
type User struct {
	Username     string
	Password     string
	PasswordHash string
	Role         string
}

type credential struct {
	digest []byte
	role   string
}

// Credentials is the static username → digest table.
type Credentials struct {
	users map[string]credential
	// dummy is compared against when the username is unknown so that both
	// failure paths run one bcrypt comparison.
	dummy []byte
}

// NewCredentials builds the credential table from configured users.
func NewCredentials(users []User) (*Credentials, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("canti-unknown-user"), hashCost)
	if err != nil {
		return nil, fmt.Errorf("auth: dummy digest: %w", err)
	}
	c := &Credentials{
		users: make(map[string]credential, len(users)),
		dummy: dummy,
	}
	for _, u := range users {
		name := strings.TrimSpace(u.Username)
		if name == "" {
			return nil, errors.New("auth: username is empty")
		}
		if _, dup := c.users[name]; dup {
			return nil, fmt.Errorf("auth: duplicate user %q", name)
		}
		var digest []byte
		switch {
		case u.PasswordHash != "" && u.Password != "":
			return nil, fmt.Errorf("auth: user %q has both password and password_hash", name)
		case u.PasswordHash != "":
			if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
				return nil, fmt.Errorf("auth: user %q: invalid password_hash: %w", name, err)
			}
			digest = []byte(u.PasswordHash)
		case u.Password != "":
			digest, err = bcrypt.GenerateFromPassword([]byte(u.Password), hashCost)
			if err != nil {
				return nil, fmt.Errorf("auth: hash password for %q: %w", name, err)
			}
		default:
			return nil, fmt.Errorf("auth: user %q has no password", name)
		}
		c.users[name] = credential{digest: digest, role: u.Role}
	}
	return c, nil
}

// Len returns the number of configured users.
func (c *Credentials) Len() int {
	return len(c.users)
}

// Authenticate checks a username/password pair and returns the user's role.
// Unknown users and wrong passwords both yield apperr.ErrInvalidCredentials.
func (c *Credentials) Authenticate(username, password string) (string, error) {
	cred, ok := c.users[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(c.dummy, []byte(password))
		return "", apperr.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(cred.digest, []byte(password)); err != nil {
		return "", apperr.ErrInvalidCredentials
	}
	return cred.role, nil
}

// HashPassword returns a bcrypt digest suitable for the password_hash setting.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("auth: password is empty")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(digest), nil
}
