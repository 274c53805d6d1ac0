/**
 * @description
 * This package keeps sensitive values masked by default and gates navigation
 * to the full account view behind a step-up authentication check.
 *
 * The legacy client compared the typed password against a plaintext copy in
 * local storage. That gate is redesigned here: Unlock sends the password to
 * the backend, which verifies it and returns a short-lived signed proof. The
 * gate holds the proof and reports Unlocked until it expires, after which it
 * re-locks automatically. No secret is ever read from local storage.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: Reads the expiry claim off the proof token
 *   when the backend omits an explicit expires_at.
 * - pkg/bankclient: The Reauthenticate call.
 */

package reveal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/vastrust/banking-client/internal/logging"
	"github.com/vastrust/banking-client/pkg/bankclient"
)

// MaskedPlaceholder is what a masked balance renders as.
const MaskedPlaceholder = "•••••••"

// ErrPasswordRequired is the local validation failure for an empty password;
// it is raised before any network call.
var ErrPasswordRequired = errors.New("reveal: password is required")

// ErrLocked is returned when a gated action is attempted without a live proof.
var ErrLocked = errors.New("reveal: gate is locked")

// Toggle is a per-field visibility flip: masked by default, revealed on
// press, masked again on the next press. There is no auto-re-mask timer.
type Toggle struct {
	mu       sync.Mutex
	revealed bool
}

// Flip inverts the visibility and returns the new state.
func (t *Toggle) Flip() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revealed = !t.revealed
	return t.revealed
}

// Revealed reports the current visibility.
func (t *Toggle) Revealed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revealed
}

// Render returns value when revealed, the mask otherwise.
func (t *Toggle) Render(value string) string {
	if t.Revealed() {
		return value
	}
	return MaskedPlaceholder
}

// Reauthenticator is the slice of the bank client the gate needs.
type Reauthenticator interface {
	Reauthenticate(ctx context.Context, userID, password string) (*bankclient.StepUpProof, error)
}

// Gate guards navigation to sensitive views behind a server-verified
// password challenge.
type Gate struct {
	client Reauthenticator
	logger *logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	proof *bankclient.StepUpProof
}

// Option customizes a Gate.
type Option func(*Gate)

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Gate) { g.logger = l.Named("reveal") }
}

// WithClock replaces the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a locked gate.
func NewGate(client Reauthenticator, opts ...Option) *Gate {
	g := &Gate{
		client: client,
		logger: logging.NewNoOpLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Unlock verifies the password with the backend and, on success, holds the
// returned proof until it expires. A server rejection (wrong password) and a
// transport failure both leave the gate locked; callers display the error
// inline and must not navigate.
func (g *Gate) Unlock(ctx context.Context, userID, password string) error {
	if password == "" {
		return ErrPasswordRequired
	}

	proof, err := g.client.Reauthenticate(ctx, userID, password)
	if err != nil {
		return err
	}

	if proof.ExpiresAt.IsZero() {
		expiry, expErr := tokenExpiry(proof.Token)
		if expErr != nil {
			return fmt.Errorf("step-up proof carries no usable expiry: %w", expErr)
		}
		proof.ExpiresAt = expiry
	}

	g.mu.Lock()
	g.proof = proof
	g.mu.Unlock()

	g.logger.Info("step-up gate unlocked",
		zap.String("user_id", userID),
		zap.Time("expires_at", proof.ExpiresAt),
	)
	return nil
}

// tokenExpiry reads the exp claim off the proof token. The signature is the
// backend's concern; the client only needs the expiry for re-locking.
func tokenExpiry(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, err
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return exp.Time, nil
}

// Unlocked reports whether a live proof is held. An expired proof re-locks
// the gate.
func (g *Gate) Unlocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.proof == nil {
		return false
	}
	if !g.now().Before(g.proof.ExpiresAt) {
		g.proof = nil
		return false
	}
	return true
}

// Require returns ErrLocked unless a live proof is held. Gated navigation
// calls this immediately before proceeding.
func (g *Gate) Require() error {
	if !g.Unlocked() {
		return ErrLocked
	}
	return nil
}

// Lock drops the proof immediately.
func (g *Gate) Lock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.proof = nil
}
