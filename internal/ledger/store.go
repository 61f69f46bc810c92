package ledger

import (
	"context"
	"sort"

	"github.com/pigpay/backend/internal/models"
)

const (
	DefaultHistoryLimit = 8
	MaxHistoryLimit     = 100
	DefaultCatalogLimit = 50
	MaxCatalogLimit     = 200
)

// Store is a durable home for accounts, catalog items and ledger entries.
// Balance and stock mutations are only reachable through the Tx handed to
// WithinTx, which the Engine owns.
type Store interface {
	Reader

	// WithinTx runs fn in one serializable unit of work. The unit commits
	// only if fn returns nil; any error rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	CreateAccount(ctx context.Context, account models.Account) error
	// CreateAccountWithCredentials inserts the account and its password
	// hash in one commit; if either write fails neither is kept.
	CreateAccountWithCredentials(ctx context.Context, account models.Account, passwordHash string) error
	CreateListing(ctx context.Context, item models.CatalogItem) error
}

// Tx is the write side of a unit of work.
type Tx interface {
	// LockItem locks and returns the catalog item, or ErrItemNotFound.
	LockItem(ctx context.Context, itemID string) (*models.CatalogItem, error)
	// LockAccounts locks the named accounts in the order given and returns
	// them keyed by username. A missing account yields ErrUnknownAccount.
	LockAccounts(ctx context.Context, usernames ...string) (map[string]*models.Account, error)
	// AdjustBalance adds delta to the account. It fails with
	// ErrInsufficientFunds rather than drive the balance negative.
	AdjustBalance(ctx context.Context, username string, delta int64) error
	// DecrementStock removes one unit, failing with ErrOutOfStock at zero.
	DecrementStock(ctx context.Context, itemID string) error
	InsertEntry(ctx context.Context, entry *models.LedgerEntry) error
}

// Reader serves the read-only views.
type Reader interface {
	Account(ctx context.Context, username string) (*models.Account, error)
	Exists(ctx context.Context, username string) (bool, error)
	Entries(ctx context.Context, filter EntryFilter) ([]models.LedgerEntry, error)
	Item(ctx context.Context, itemID string) (*models.CatalogItem, error)
	Catalog(ctx context.Context, filter CatalogFilter) ([]models.CatalogItem, error)
}

// EntryFilter selects ledger entries, newest first.
type EntryFilter struct {
	Participant string // sender or receiver, never fee recipient; empty matches all
	Limit       int
	Offset      int
}

func (f EntryFilter) normalize() EntryFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultHistoryLimit
	}
	if f.Limit > MaxHistoryLimit {
		f.Limit = MaxHistoryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// CatalogFilter selects catalog items, newest first.
type CatalogFilter struct {
	Seller      string
	InStockOnly bool
	Limit       int
	Offset      int
}

func (f CatalogFilter) normalize() CatalogFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultCatalogLimit
	}
	if f.Limit > MaxCatalogLimit {
		f.Limit = MaxCatalogLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// lockOrder returns the distinct usernames sorted ascending. Every unit of
// work locks accounts in this order so two operations over the same
// accounts can never wait on each other in a cycle.
func lockOrder(usernames ...string) []string {
	seen := make(map[string]struct{}, len(usernames))
	out := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
