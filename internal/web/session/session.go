// Package session keeps login sessions and outbound OAuth state tokens
// in TTL-evicting keyed stores behind the storage interface, so the
// backing store can be swapped without touching the protocol logic.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/storage"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/db/models"
)

// ErrNotFound is returned when a key is missing or expired. Storage
// backends signal this with a nil value, not an error.
var ErrNotFound = errors.New("session: key not found")

// Store is the global session store instance.
var Store storage.Storage

// States is the global store of outbound OAuth state tokens.
var States storage.Storage

// Data represents the session data structure.
type Data struct {
	Account models.Account
	// Login is the provider handle of the login that created the
	// session (GitHub login, Discord username, Google email).
	Login string
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	byteData, err := Store.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrNotFound
	}

	return json.Unmarshal(byteData, s)
}

// State is the per-login-attempt record written while the user is at
// the provider, keyed by the state token of the authorization request.
type State struct {
	Provider string
}

// WriteState persists an outbound state for one provider round trip.
func WriteState(token string, st State, exp time.Duration) error {
	out, err := json.Marshal(st)
	if err != nil {
		return err
	}

	return States.Set(token, out, exp)
}

// ReadState loads and consumes an outbound state. A state token is
// single use: it is deleted on first read.
func ReadState(token string) (State, error) {
	var st State

	byteData, err := States.Get(token)
	if err != nil {
		return st, err
	}

	if len(byteData) == 0 {
		return st, ErrNotFound
	}

	if err = json.Unmarshal(byteData, &st); err != nil {
		return st, err
	}

	_ = States.Delete(token) //nolint:errcheck // consumed regardless

	return st, nil
}

// Init initializes the session and state stores with the provided storage backends.
func Init(sessions, states storage.Storage) {
	if sessions == nil || states == nil {
		panic("storage is nil")
	}

	Store = sessions
	States = states
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
