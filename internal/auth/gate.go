package auth

import (
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrInvalidCredentials is returned when a login attempt fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialChecker decides whether a login attempt belongs to the
// administrator. Implementations can swap in a real identity provider without
// touching the gate's state machine.
type CredentialChecker interface {
	Authenticate(username, password string) bool
}

// StaticCredentials checks against a fixed username/password pair, typically
// loaded from the environment.
type StaticCredentials struct {
	Username string
	Password string
}

// Authenticate compares the attempt against the configured pair in constant
// time.
func (c StaticCredentials) Authenticate(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	return userOK && passOK
}

// Gate is the two-state admin session: anonymous until a successful login,
// admin until an explicit logout. There is no timeout-based reversion. One
// session is active at a time; a new login supersedes the previous token.
type Gate struct {
	checker CredentialChecker
	logger  *logrus.Logger

	mu    sync.Mutex
	token string // empty means anonymous
}

// NewGate creates a gate in the anonymous state.
func NewGate(checker CredentialChecker, logger *logrus.Logger) *Gate {
	return &Gate{
		checker: checker,
		logger:  logger,
	}
}

// Login transitions the gate to admin and returns the session token, or
// ErrInvalidCredentials when the check fails.
func (g *Gate) Login(username, password string) (string, error) {
	if !g.checker.Authenticate(username, password) {
		g.logger.WithField("username", username).Warn("Rejected admin login attempt")
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()

	g.logger.Info("Admin logged in")
	return token, nil
}

// Logout reverts the gate to anonymous. A stale or unknown token is a no-op.
func (g *Gate) Logout(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if token != "" && token == g.token {
		g.token = ""
		g.logger.Info("Admin logged out")
	}
}

// IsAdmin reports whether the token belongs to the active admin session.
func (g *Gate) IsAdmin(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return token != "" && token == g.token
}
