// End-to-end tests running the full client stack against the in-process mock
// backend: typed API client, session store over a real SQLite file, the
// step-up reveal gate and the transaction view pipeline.
package e2e

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vastrust/banking-client/internal/domain"
	"github.com/vastrust/banking-client/internal/mockbank"
	"github.com/vastrust/banking-client/internal/reveal"
	"github.com/vastrust/banking-client/internal/session"
	"github.com/vastrust/banking-client/internal/store"
	"github.com/vastrust/banking-client/internal/txview"
	"github.com/vastrust/banking-client/pkg/bankclient"
)

const (
	basicUser = "api-user"
	basicPass = "api-pass"
)

type stack struct {
	bank    *mockbank.Server
	ts      *httptest.Server
	client  *bankclient.Client
	session *session.Store
	gate    *reveal.Gate
}

func newStack(t *testing.T) *stack {
	t.Helper()

	bank := mockbank.NewServer(mockbank.Config{
		BasicUser: basicUser,
		BasicPass: basicPass,
	})
	ts := httptest.NewServer(bank.Router())
	t.Cleanup(ts.Close)

	client := bankclient.NewClient(bankclient.Config{
		BaseURL:  ts.URL,
		Username: basicUser,
		Password: basicPass,
		Timeout:  5 * time.Second,
	})

	kv, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	return &stack{
		bank:    bank,
		ts:      ts,
		client:  client,
		session: session.NewStore(kv, client),
		gate:    reveal.NewGate(client),
	}
}

func TestLoginRefreshTransferAndFeed(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	senderID, senderAcct, err := s.bank.SeedUser(mockbank.SeedUserSpec{
		Email: "chinwe@example.com", Password: "password123", PIN: "1234",
		FirstName: "Chinwe", LastName: "Eze", Balance: 10000, Verified: true,
	})
	require.NoError(t, err)
	_, receiverAcct, err := s.bank.SeedUser(mockbank.SeedUserSpec{
		Email: "bola@example.com", Password: "password456",
		FirstName: "Bola", LastName: "Ade", Balance: 0, Verified: true,
	})
	require.NoError(t, err)

	// Login and persist the session.
	userID, err := s.client.Login(ctx, "chinwe@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, senderID, userID)
	require.NoError(t, s.session.SetUserID(ctx, userID))

	profile, err := s.session.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, senderAcct, profile.AccountNumber)
	assert.Equal(t, "Chinwe Eze", profile.DisplayName())

	// Transfer, then observe it through a fresh fetch only.
	transfer := domain.PendingTransfer{
		FromAccount: senderAcct,
		ToAccount:   receiverAcct,
		Amount:      "2500.00",
		PIN:         "1234",
		Note:        "for the generator",
	}
	require.NoError(t, transfer.Validate())
	message, err := s.client.Transfer(ctx, userID, transfer)
	require.NoError(t, err)
	assert.Equal(t, "Transfer successful!", message)

	page, err := s.client.Transactions(ctx, senderAcct, 1)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)

	row := txview.PresentationRow(page.Transactions[0], senderAcct)
	assert.Equal(t, txview.Debit, row.Direction)
	assert.Equal(t, "-₦2,500.00", row.AmountLabel)
	assert.Equal(t, "for the generator", row.Title)

	summary, err := txview.Summarize(page.Transactions, senderAcct)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, summary.TotalDebits)

	// The receiver sees the same record as a credit.
	receiverPage, err := s.client.Transactions(ctx, receiverAcct, 1)
	require.NoError(t, err)
	require.Len(t, receiverPage.Transactions, 1)
	assert.Equal(t, txview.Credit, txview.Classify(receiverPage.Transactions[0], receiverAcct))

	balance, err := s.client.Balance(ctx, senderAcct)
	require.NoError(t, err)
	assert.Equal(t, "7500.00", balance)
}

func TestOfflineFallbackServesCachedProfile(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	userID, _, err := s.bank.SeedUser(mockbank.SeedUserSpec{
		Email: "ada@example.com", Password: "password123",
		FirstName: "Ada", LastName: "Obi", Balance: 100, Verified: true,
	})
	require.NoError(t, err)

	require.NoError(t, s.session.SetUserID(ctx, userID))
	_, err = s.session.Refresh(ctx)
	require.NoError(t, err)

	// Take the backend away; reads must degrade to the cached snapshot.
	s.ts.Close()

	snap, err := s.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Stale)
	require.ErrorIs(t, snap.FetchErr, bankclient.ErrNetwork)
	assert.Equal(t, "Ada Obi", snap.Profile.DisplayName())
}

func TestStepUpGateAgainstRealBackend(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	userID, _, err := s.bank.SeedUser(mockbank.SeedUserSpec{
		Email: "stepup@example.com", Password: "password123", Verified: true,
	})
	require.NoError(t, err)

	// Wrong password leaves the gate locked.
	err = s.gate.Unlock(ctx, userID, "wrong-password")
	var apiErr *bankclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.ErrorIs(t, s.gate.Require(), reveal.ErrLocked)

	require.NoError(t, s.gate.Unlock(ctx, userID, "password123"))
	assert.True(t, s.gate.Unlocked())
	assert.NoError(t, s.gate.Require())

	s.gate.Lock()
	assert.False(t, s.gate.Unlocked())
}

func TestLogoutWipesPersistedSession(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	userID, _, err := s.bank.SeedUser(mockbank.SeedUserSpec{
		Email: "bye@example.com", Password: "password123", Verified: true,
	})
	require.NoError(t, err)

	require.NoError(t, s.session.SetUserID(ctx, userID))
	_, err = s.session.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, s.session.Clear(ctx))

	_, err = s.session.UserID(ctx)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = s.session.Profile(ctx)
	assert.True(t, errors.Is(err, session.ErrNoSnapshot))
}
