package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentSells_NeverOversell fires more concurrent sell orders than
// the balance can cover. The transactor serializes settlement the way the
// user row lock does in PostgreSQL, so exactly the affordable number of
// sells succeed and the balance never goes negative.
func TestConcurrentSells_NeverOversell(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	creds := registerClient(t, app, "concurrent_exchange")
	token := loginAndGetToken(t, app, "concurrent_exchange", "StrongPass123!")
	userID := createUser(t, app, token, []string{"DOGE"})

	// Fund the user: $10 buys 81 DOGE at the fixed rate.
	txnID := recordPayment(t, app, token, userID, 10.0)
	buyBody, _ := json.Marshal(map[string]interface{}{
		"user_id":        userID,
		"symbol":         "DOGE",
		"usd_amount":     10.0,
		"transaction_id": txnID,
	})
	respBuy := doAPIKeyRequest(t, app, creds, http.MethodPost, "/api/v1/trades/buy", buyBody)
	respBuy.Body.Close()
	require.Equal(t, http.StatusOK, respBuy.StatusCode)

	// Fire 10 concurrent sells of 20.25 DOGE each. Only 4 fit into the
	// 81 DOGE balance; the rest must fail with insufficient balance.
	concurrency := 10
	sellAmount := 20.25

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var insufficientCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body, _ := json.Marshal(map[string]interface{}{
				"user_id":    userID,
				"symbol":     "DOGE",
				"amount":     sellAmount,
				"dedupe_key": fmt.Sprintf("oversell-order-%d", idx),
			})
			r := doAPIKeyRequest(t, app, creds, http.MethodPost, "/api/v1/trades/sell", body)
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			switch r.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusPaymentRequired:
				insufficientCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	t.Logf("Concurrent sells: %d succeeded, %d insufficient (out of %d)", successCount.Load(), insufficientCount.Load(), concurrency)

	assert.Equal(t, int64(4), successCount.Load(), "exactly 4 sells fit the balance")
	assert.Equal(t, int64(concurrency-4), insufficientCount.Load())

	// Balance drained to exactly zero; the balances map omits it.
	balances := getBalances(t, app, creds, userID)
	assert.NotContains(t, balances, "DOGE", "balance must be fully drained, never negative")
}

// TestConcurrentSells_SameDedupeKey fires concurrent sells carrying the same
// dedupe key. Exactly one may settle; the journal check under the lock
// rejects the rest even when they race past the cache fast path.
func TestConcurrentSells_SameDedupeKey(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	creds := registerClient(t, app, "dedupe_exchange")
	token := loginAndGetToken(t, app, "dedupe_exchange", "StrongPass123!")
	userID := createUser(t, app, token, []string{"DOGE"})

	txnID := recordPayment(t, app, token, userID, 10.0)
	buyBody, _ := json.Marshal(map[string]interface{}{
		"user_id":        userID,
		"symbol":         "DOGE",
		"usd_amount":     10.0,
		"transaction_id": txnID,
	})
	respBuy := doAPIKeyRequest(t, app, creds, http.MethodPost, "/api/v1/trades/buy", buyBody)
	respBuy.Body.Close()
	require.Equal(t, http.StatusOK, respBuy.StatusCode)

	concurrency := 20
	sellBody, _ := json.Marshal(map[string]interface{}{
		"user_id":    userID,
		"symbol":     "DOGE",
		"amount":     1.0,
		"dedupe_key": "same-order-001",
	})

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var duplicateCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r := doAPIKeyRequest(t, app, creds, http.MethodPost, "/api/v1/trades/sell", sellBody)
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			switch r.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusConflict:
				duplicateCount.Add(1)
			}
		}()
	}

	wg.Wait()

	t.Logf("Same dedupe key: %d succeeded, %d rejected as duplicates (out of %d)", successCount.Load(), duplicateCount.Load(), concurrency)

	assert.Equal(t, int64(1), successCount.Load(), "exactly one sell may consume the dedupe key")
	assert.Equal(t, int64(concurrency-1), duplicateCount.Load())

	// Exactly one debit happened.
	balances := getBalances(t, app, creds, userID)
	assert.InDelta(t, 80.0, balances["DOGE"], 1e-9)
}

// TestConcurrentBuys_SamePayment fires concurrent buys all consuming the
// same recorded payment. The completion flag is checked and set under the
// lock, so exactly one buy settles.
func TestConcurrentBuys_SamePayment(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	creds := registerClient(t, app, "replay_exchange")
	token := loginAndGetToken(t, app, "replay_exchange", "StrongPass123!")
	userID := createUser(t, app, token, []string{"BTC"})
	txnID := recordPayment(t, app, token, userID, 10.0)

	concurrency := 20
	buyBody, _ := json.Marshal(map[string]interface{}{
		"user_id":        userID,
		"symbol":         "BTC",
		"usd_amount":     10.0,
		"transaction_id": txnID,
	})

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var replayCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r := doAPIKeyRequest(t, app, creds, http.MethodPost, "/api/v1/trades/buy", buyBody)
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			switch r.StatusCode {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusConflict:
				replayCount.Add(1)
			}
		}()
	}

	wg.Wait()

	t.Logf("Same payment: %d settled, %d rejected as replays (out of %d)", successCount.Load(), replayCount.Load(), concurrency)

	assert.Equal(t, int64(1), successCount.Load(), "a payment settles exactly once")
	assert.Equal(t, int64(concurrency-1), replayCount.Load())

	// Exactly one credit happened.
	balances := getBalances(t, app, creds, userID)
	assert.InDelta(t, 10.0*0.0000233678, balances["BTC"], 1e-12)
}
