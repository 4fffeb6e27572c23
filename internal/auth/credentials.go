package auth

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mpernat/vellum/internal/errors"
)

// Credentials is the flat-file account store: one "username: hash" line per
// account, appended to and never rewritten in place. The file is re-read on
// every lookup so signups are visible immediately.
type Credentials struct {
	path string
}

// NewCredentials creates a store backed by the given file.
func NewCredentials(path string) *Credentials {
	return &Credentials{path: path}
}

// Path returns the backing file location.
func (c *Credentials) Path() string {
	return c.path
}

// Load reads the backing file into a username -> password-hash map.
// A missing file is an empty store; an unreadable or malformed file is a
// CONFIG error, which is fatal at startup.
func (c *Credentials) Load() (map[string]string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.NewConfig(fmt.Sprintf("cannot read credentials file %s: %v", c.path, err))
	}

	users := make(map[string]string)
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		username, hash, ok := strings.Cut(line, ":")
		username = strings.TrimSpace(username)
		hash = strings.TrimSpace(hash)
		if !ok || username == "" || hash == "" {
			return nil, errors.NewConfig(fmt.Sprintf("malformed credentials file %s: line %d", c.path, i+1))
		}
		users[username] = hash
	}
	return users, nil
}

// Verify checks a username/password pair against the store. An unknown
// username and a wrong password are indistinguishable: both return false.
// The error is non-nil only when the store itself cannot be read.
func (c *Credentials) Verify(username, password string) (bool, error) {
	users, err := c.Load()
	if err != nil {
		return false, err
	}

	hash, ok := users[username]
	if !ok {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

// Append hashes the password and appends a new account line. Usernames are
// unique: re-registering an existing one fails with ALREADY_EXISTS.
func (c *Credentials) Append(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.ContainsAny(username, ":\n") {
		return errors.NewInvalidRequest("A username is required.")
	}
	if password == "" {
		return errors.NewInvalidRequest("A password is required.")
	}

	users, err := c.Load()
	if err != nil {
		return err
	}
	if _, exists := users[username]; exists {
		return errors.NewAlreadyExists(username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.NewInternal(err)
	}

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return errors.NewIO(err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s: %s\n", username, hash); err != nil {
		return errors.NewIO(err)
	}
	return nil
}
