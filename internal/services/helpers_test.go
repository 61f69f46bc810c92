package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pigpay/backend/internal/audit"
	"github.com/pigpay/backend/internal/ledger"
	"github.com/pigpay/backend/internal/middleware"
	"github.com/pigpay/backend/internal/models"
	"github.com/stretchr/testify/require"
)

const operator = "pigpay"

func newTestEngine(t *testing.T, balances map[string]int64, official ...string) (*ledger.Engine, *ledger.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore()
	isOfficial := map[string]bool{}
	for _, name := range official {
		isOfficial[name] = true
	}
	for name, balance := range balances {
		require.NoError(t, store.CreateAccount(context.Background(), models.Account{
			Username:   name,
			Balance:    balance,
			IsOfficial: isOfficial[name],
			CreatedAt:  time.Now(),
		}))
	}

	cfg := ledger.DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	engine, err := ledger.NewEngine(store, cfg)
	require.NoError(t, err)
	return engine, store
}

func addItem(t *testing.T, store *ledger.MemoryStore, id, seller string, price, stock int64) {
	t.Helper()
	require.NoError(t, store.CreateListing(context.Background(), models.CatalogItem{
		ID:             id,
		SellerUsername: seller,
		Title:          "item " + id,
		Price:          price,
		Stock:          stock,
		CreatedAt:      time.Now(),
	}))
}

func discardAudit() *audit.AuditLogger {
	return audit.NewAuditLoggerTo(io.Discard)
}

// jsonRequest builds a request as the given user; an empty username is anonymous.
func jsonRequest(t *testing.T, method, target, username string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}

	r := httptest.NewRequest(method, target, reader)
	r.Header.Set("Content-Type", "application/json")
	if username != "" {
		r = r.WithContext(middleware.WithUsername(r.Context(), username))
	}
	return r
}

func balanceOf(t *testing.T, engine *ledger.Engine, username string) int64 {
	t.Helper()
	acct, err := engine.Account(context.Background(), username)
	require.NoError(t, err)
	return acct.Balance
}
