package services

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pigpay/backend/internal/ledger"
	"github.com/pigpay/backend/internal/middleware"
	"github.com/pigpay/backend/internal/models"
)

type AccountService struct {
	engine *ledger.Engine
}

// HistoryResponse is one page of the viewer's ledger history.
type HistoryResponse struct {
	Entries []models.HistoryItem `json:"entries"`
	Limit   int                  `json:"limit" example:"8"`
	Offset  int                  `json:"offset" example:"0"`
}

func NewAccountService(engine *ledger.Engine) *AccountService {
	return &AccountService{engine: engine}
}

// Me returns the caller's account
// @Summary Current account
// @Description Balance and profile of the authenticated user
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Account
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /me [get]
func (s *AccountService) Me(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r.Context())
	if username == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	account, err := s.engine.Account(r.Context(), username)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	SendJSON(w, http.StatusOK, account)
}

// History lists the caller's entries, newest first
// @Summary Transaction history
// @Description Entries where the caller is sender or receiver, newest first
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 8, max 100)"
// @Param offset query int false "Entries to skip"
// @Success 200 {object} HistoryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /me/history [get]
func (s *AccountService) History(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r.Context())
	if username == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	limit, offset, ok := pageParams(w, r, ledger.DefaultHistoryLimit, ledger.MaxHistoryLimit)
	if !ok {
		return
	}

	entries, err := s.engine.History(r.Context(), username, limit, offset)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	items := make([]models.HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.NewHistoryItem(e, username))
	}
	SendJSON(w, http.StatusOK, HistoryResponse{Entries: items, Limit: limit, Offset: offset})
}

// RecipientExists reports whether a username can receive transfers
// @Summary Check recipient
// @Description Advisory check that an account exists
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} object{username=string,exists=bool}
// @Router /accounts/{username}/exists [get]
func (s *AccountService) RecipientExists(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	exists, err := s.engine.Exists(r.Context(), username)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	SendJSON(w, http.StatusOK, map[string]any{
		"username": username,
		"exists":   exists,
	})
}

// pageParams reads limit and offset from the query string. Missing values
// fall back to def and 0; limit is clamped to maxLimit.
func pageParams(w http.ResponseWriter, r *http.Request, def, maxLimit int) (int, int, bool) {
	limit, offset := def, 0
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			SendErrorResponse(w, "limit must be a positive integer", http.StatusBadRequest, nil)
			return 0, 0, false
		}
		limit = min(n, maxLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			SendErrorResponse(w, "offset must be a non-negative integer", http.StatusBadRequest, nil)
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}
