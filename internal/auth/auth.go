// Package auth implements admin session handling: bcrypt password
// verification and fernet-signed session tokens carried in an
// HTTP-only cookie.
package auth

import (
	"fmt"
	"log"
	"time"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/bcrypt"

	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/config"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "portfolio_session"

// Manager verifies admin credentials and issues session tokens.
type Manager struct {
	username     string
	passwordHash string
	key          *fernet.Key
	ttl          time.Duration
}

// NewManager builds a Manager from configuration. When no session key
// is configured a random one is generated, which invalidates existing
// sessions on restart.
func NewManager(cfg config.AuthConfig) (*Manager, error) {
	var key *fernet.Key

	if cfg.SessionKey != "" {
		keys, err := fernet.DecodeKeys(cfg.SessionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_KEY: %w", err)
		}
		key = keys[0]
	} else {
		key = new(fernet.Key)
		if err := key.Generate(); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
		log.Println("SESSION_KEY not set, generated an ephemeral session key")
	}

	ttlDays := cfg.SessionTTLDays
	if ttlDays <= 0 {
		ttlDays = 7
	}

	return &Manager{
		username:     cfg.AdminUsername,
		passwordHash: cfg.AdminPasswordHash,
		key:          key,
		ttl:          time.Duration(ttlDays) * 24 * time.Hour,
	}, nil
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Login checks the credentials and returns a signed session token.
// Unknown username and wrong password are indistinguishable to the
// caller.
func (m *Manager) Login(username, password string) (string, error) {
	if m.passwordHash == "" {
		return "", fmt.Errorf("%w: no admin password configured", apperrors.ErrInvalidCredentials)
	}
	if username != m.username {
		return "", apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.passwordHash), []byte(password)); err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := fernet.EncryptAndSign([]byte(username), m.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return string(token), nil
}

// Verify checks a session token's signature and age and returns the
// authenticated username.
func (m *Manager) Verify(token string) (string, error) {
	payload := fernet.VerifyAndDecrypt([]byte(token), m.ttl, []*fernet.Key{m.key})
	if payload == nil {
		return "", apperrors.ErrNotAuthenticated
	}
	return string(payload), nil
}
