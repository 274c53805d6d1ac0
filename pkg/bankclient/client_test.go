package bankclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vastrust/banking-client/internal/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Config{
		BaseURL:  srv.URL,
		Username: "vastrust_api",
		Password: "test-secret",
		Timeout:  2 * time.Second,
	})
	return srv, client
}

func TestLogin_ExtractsUserIDFromAnyKnownShape(t *testing.T) {
	shapes := []string{
		`{"user_id": 41}`,
		`{"id": "41"}`,
		`{"user": {"id": 41}}`,
	}
	for _, shape := range shapes {
		payload := shape
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "POST", r.Method)
			require.Equal(t, "/login", r.URL.Path)

			user, pass, ok := r.BasicAuth()
			require.True(t, ok, "expected basic auth header")
			require.Equal(t, "vastrust_api", user)
			require.Equal(t, "test-secret", pass)

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"success","data":` + payload + `}`))
		})

		userID, err := client.Login(context.Background(), "ada@example.com", "pw")
		require.NoError(t, err, "shape %s", payload)
		require.Equal(t, "41", userID)
	}
}

func TestLogin_ServerRejectionBecomesAPIError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","message":"Invalid credentials.","errors":{"email":["Email not verified."]}}`))
	})

	_, err := client.Login(context.Background(), "ada@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Invalid credentials.", apiErr.Message)
	require.Contains(t, apiErr.Error(), "Email not verified.")
	require.False(t, errors.Is(err, ErrNetwork), "a rejection is not a network error")
}

func TestDo_TransportFailureIsErrNetwork(t *testing.T) {
	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.Profile(context.Background(), "41")
	require.ErrorIs(t, err, ErrNetwork)
}

func TestDo_NonJSONBodyIsErrNetwork(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway timeout</html>"))
	})

	_, err := client.Balance(context.Background(), "1188036538")
	require.ErrorIs(t, err, ErrNetwork)
}

func TestBreaker_FailsFastAfterConsecutiveTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	requests := 0
	client := NewClient(Config{
		BaseURL:          srv.URL,
		BreakerThreshold: 2,
		BreakerCooldown:  time.Minute,
		Timeout:          time.Second,
	}, WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			requests++
			return nil, errors.New("connection refused")
		}),
	}))

	for i := 0; i < 2; i++ {
		_, err := client.Balance(context.Background(), "1188036538")
		require.ErrorIs(t, err, ErrNetwork)
	}
	require.Equal(t, 2, requests)

	// Circuit is open now; no further transport attempts are made.
	_, err := client.Balance(context.Background(), "1188036538")
	require.ErrorIs(t, err, ErrNetwork)
	require.Equal(t, 2, requests)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestBreaker_DoesNotTripOnServerRejections(t *testing.T) {
	hits := 0
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","message":"Insufficient funds."}`))
	})

	for i := 0; i < 10; i++ {
		_, err := client.Transfer(context.Background(), "41", domain.PendingTransfer{
			FromAccount: "1188036538",
			ToAccount:   "9990001111",
			Amount:      "1200.00",
			PIN:         "1234",
		})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}
	require.Equal(t, 10, hits, "every rejection should still reach the server")
}

func TestTransactions_PreservesServerOrder(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("page"))
		body := map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"transactions": []domain.Transaction{
					{ID: "c", Amount: "3.00"},
					{ID: "a", Amount: "1.00"},
					{ID: "b", Amount: "2.00"},
				},
			},
		}
		json.NewEncoder(w).Encode(body)
	})

	page, err := client.Transactions(context.Background(), "1188036538", 1)
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)

	got := make([]string, 0, len(page.Transactions))
	for _, tx := range page.Transactions {
		got = append(got, tx.ID)
	}
	require.Equal(t, []string{"c", "a", "b"}, got)
}

func TestTransfer_OmitsExternalBankWhenEmpty(t *testing.T) {
	var received map[string]interface{}
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"status":"success","message":"Transfer successful!"}`))
	})

	msg, err := client.Transfer(context.Background(), "41", domain.PendingTransfer{
		FromAccount: "1188036538",
		ToAccount:   "9990001111",
		Amount:      "1200.00",
		PIN:         "1234",
	})
	require.NoError(t, err)
	require.Equal(t, "Transfer successful!", msg)
	_, present := received["external_bank"]
	require.False(t, present, "internal transfers must not carry external_bank")
}

func TestReauthenticate_ParsesProof(t *testing.T) {
	expires := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second)
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reauth/41", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"token":      "signed-proof",
				"expires_at": expires.Format(time.RFC3339),
			},
		})
	})

	proof, err := client.Reauthenticate(context.Background(), "41", "pw")
	require.NoError(t, err)
	require.Equal(t, "signed-proof", proof.Token)
	require.True(t, proof.ExpiresAt.Equal(expires))
}
