package reveal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vastrust/banking-client/pkg/bankclient"
)

type reauthFunc func(ctx context.Context, userID, password string) (*bankclient.StepUpProof, error)

func (f reauthFunc) Reauthenticate(ctx context.Context, userID, password string) (*bankclient.StepUpProof, error) {
	return f(ctx, userID, password)
}

func acceptingReauth(expiresAt time.Time) reauthFunc {
	return func(ctx context.Context, userID, password string) (*bankclient.StepUpProof, error) {
		return &bankclient.StepUpProof{Token: "proof", ExpiresAt: expiresAt}, nil
	}
}

func TestToggle_FlipsBetweenMaskedAndRevealed(t *testing.T) {
	var tg Toggle
	assert.False(t, tg.Revealed(), "masked by default")
	assert.Equal(t, MaskedPlaceholder, tg.Render("₦5,000.00"))

	assert.True(t, tg.Flip())
	assert.Equal(t, "₦5,000.00", tg.Render("₦5,000.00"))

	assert.False(t, tg.Flip(), "second press masks again")
	assert.Equal(t, MaskedPlaceholder, tg.Render("₦5,000.00"))
}

func TestGate_UnlocksOnAcceptedPassword(t *testing.T) {
	gate := NewGate(acceptingReauth(time.Now().Add(5 * time.Minute)))

	require.NoError(t, gate.Unlock(context.Background(), "41", "correct-password"))
	assert.True(t, gate.Unlocked())
	assert.NoError(t, gate.Require())
}

func TestGate_StaysLockedOnRejectedPassword(t *testing.T) {
	rejecting := reauthFunc(func(ctx context.Context, userID, password string) (*bankclient.StepUpProof, error) {
		return nil, &bankclient.APIError{StatusCode: 401, Message: "Incorrect password"}
	})
	gate := NewGate(rejecting)

	err := gate.Unlock(context.Background(), "41", "wrong")
	var apiErr *bankclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, gate.Unlocked())
	assert.ErrorIs(t, gate.Require(), ErrLocked)
}

func TestGate_TransportFailureDoesNotUnlock(t *testing.T) {
	offline := reauthFunc(func(ctx context.Context, userID, password string) (*bankclient.StepUpProof, error) {
		return nil, bankclient.ErrNetwork
	})
	gate := NewGate(offline)

	err := gate.Unlock(context.Background(), "41", "pw")
	require.ErrorIs(t, err, bankclient.ErrNetwork)
	assert.False(t, gate.Unlocked())
}

func TestGate_EmptyPasswordRejectedLocallyWithoutNetworkCall(t *testing.T) {
	calls := 0
	counting := reauthFunc(func(ctx context.Context, userID, password string) (*bankclient.StepUpProof, error) {
		calls++
		return &bankclient.StepUpProof{Token: "proof", ExpiresAt: time.Now().Add(time.Minute)}, nil
	})
	gate := NewGate(counting)

	err := gate.Unlock(context.Background(), "41", "")
	require.ErrorIs(t, err, ErrPasswordRequired)
	assert.Equal(t, 0, calls, "local validation must precede the network call")
}

func TestGate_RelocksWhenProofExpires(t *testing.T) {
	current := time.Date(2024, 7, 22, 10, 0, 0, 0, time.UTC)
	gate := NewGate(
		acceptingReauth(current.Add(2*time.Minute)),
		WithClock(func() time.Time { return current }),
	)

	require.NoError(t, gate.Unlock(context.Background(), "41", "pw"))
	assert.True(t, gate.Unlocked())

	current = current.Add(3 * time.Minute)
	assert.False(t, gate.Unlocked(), "expired proof must re-lock the gate")
	assert.ErrorIs(t, gate.Require(), ErrLocked)
}

func TestGate_FallsBackToTokenExpClaim(t *testing.T) {
	expiry := time.Now().Add(4 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "41",
		"exp": expiry.Unix(),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	bare := reauthFunc(func(ctx context.Context, userID, password string) (*bankclient.StepUpProof, error) {
		return &bankclient.StepUpProof{Token: token}, nil
	})
	gate := NewGate(bare)

	require.NoError(t, gate.Unlock(context.Background(), "41", "pw"))
	assert.True(t, gate.Unlocked())
}

func TestGate_LockDropsProofImmediately(t *testing.T) {
	gate := NewGate(acceptingReauth(time.Now().Add(time.Hour)))
	require.NoError(t, gate.Unlock(context.Background(), "41", "pw"))
	require.True(t, gate.Unlocked())

	gate.Lock()
	assert.False(t, gate.Unlocked())
	assert.True(t, errors.Is(gate.Require(), ErrLocked))
}
