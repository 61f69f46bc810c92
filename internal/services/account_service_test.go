package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pigpay/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountRouter(service *AccountService) *chi.Mux {
	router := chi.NewRouter()
	router.Get("/me", service.Me)
	router.Get("/me/history", service.History)
	router.Get("/accounts/{username}/exists", service.RecipientExists)
	return router
}

func TestAccountService_Me(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]int64{"alice": 100})
	router := newAccountRouter(NewAccountService(engine))

	t.Run("returns balance", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "GET", "/me", "alice", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var account models.Account
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
		assert.Equal(t, "alice", account.Username)
		assert.Equal(t, int64(100), account.Balance)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "GET", "/me", "", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("account gone", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "GET", "/me", "ghost", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAccountService_History(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]int64{"alice": 100, "bob": 100, "carol": 0})
	router := newAccountRouter(NewAccountService(engine))
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		_, err := engine.Transfer(ctx, "alice", "bob", int64(i), fmt.Sprintf("t%d", i))
		require.NoError(t, err)
	}
	_, err := engine.Transfer(ctx, "bob", "alice", 5, "back")
	require.NoError(t, err)
	_, err = engine.Transfer(ctx, "bob", "carol", 1, "")
	require.NoError(t, err)

	t.Run("default page is newest first", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "GET", "/me/history", "alice", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var response HistoryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 8, response.Limit)
		require.Len(t, response.Entries, 8)

		first := response.Entries[0]
		assert.Equal(t, "in", first.Direction)
		assert.Equal(t, "bob", first.Counterparty)
		assert.Equal(t, int64(5), first.Delta)

		second := response.Entries[1]
		assert.Equal(t, "out", second.Direction)
		assert.Equal(t, int64(-10), second.Delta)
		assert.Equal(t, "t10", second.Description)
	})

	t.Run("offset", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "GET", "/me/history?limit=5&offset=8", "alice", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var response HistoryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Entries, 3)
		assert.Equal(t, "t1", response.Entries[2].Description)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "GET", "/me/history?limit=1000", "alice", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var response HistoryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 100, response.Limit)
		assert.Len(t, response.Entries, 11)
	})

	t.Run("only own entries", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "GET", "/me/history", "carol", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var response HistoryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Entries, 1)
		assert.Equal(t, "bob", response.Entries[0].Counterparty)
	})

	for _, query := range []string{"limit=abc", "limit=0", "offset=-1"} {
		t.Run("bad query "+query, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, jsonRequest(t, "GET", "/me/history?"+query, "alice", nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAccountService_RecipientExists(t *testing.T) {
	engine, _ := newTestEngine(t, map[string]int64{"bob": 0})
	router := newAccountRouter(NewAccountService(engine))

	tests := []struct {
		username string
		exists   bool
	}{
		{"bob", true},
		{"nobody", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, jsonRequest(t, "GET", "/accounts/"+tt.username+"/exists", "alice", nil))

			require.Equal(t, http.StatusOK, w.Code)
			var response map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.exists, response["exists"])
			assert.Equal(t, tt.username, response["username"])
		})
	}
}
