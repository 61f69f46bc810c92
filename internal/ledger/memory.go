package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/pigpay/backend/internal/models"
)

// MemoryStore keeps everything in process. A unit of work holds the write
// lock for its whole lifetime and stages its writes, so commits are
// serializable and a failed unit leaves nothing behind.
type MemoryStore struct {
	mu        sync.RWMutex
	accounts  map[string]models.Account
	items     map[string]models.CatalogItem
	itemOrder []string
	entries   []models.LedgerEntry
	passwords map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  make(map[string]models.Account),
		items:     make(map[string]models.CatalogItem),
		passwords: make(map[string]string),
	}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:    s,
		accounts: make(map[string]*models.Account),
		items:    make(map[string]*models.CatalogItem),
	}
	if err := fn(tx); err != nil {
		return err
	}
	// abandoned before commit: drop the staged writes
	if err := ctx.Err(); err != nil {
		return err
	}

	for name, acct := range tx.accounts {
		s.accounts[name] = *acct
	}
	for id, item := range tx.items {
		s.items[id] = *item
	}
	s.entries = append(s.entries, tx.entries...)
	return nil
}

func (s *MemoryStore) CreateAccount(ctx context.Context, account models.Account) error {
	if account.Balance < 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Username]; ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, account.Username)
	}
	s.accounts[account.Username] = account
	return nil
}

func (s *MemoryStore) CreateAccountWithCredentials(ctx context.Context, account models.Account, passwordHash string) error {
	if account.Balance < 0 {
		return ErrInvalidAmount
	}
	if passwordHash == "" {
		return fmt.Errorf("%w: empty password hash", ErrStorage)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Username]; ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, account.Username)
	}
	s.accounts[account.Username] = account
	s.passwords[account.Username] = passwordHash
	return nil
}

func (s *MemoryStore) CreateListing(ctx context.Context, item models.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[item.SellerUsername]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, item.SellerUsername)
	}
	if _, ok := s.items[item.ID]; ok {
		return fmt.Errorf("%w: duplicate item id %s", ErrStorage, item.ID)
	}
	s.items[item.ID] = item
	s.itemOrder = append(s.itemOrder, item.ID)
	return nil
}

func (s *MemoryStore) Account(ctx context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, username)
	}
	return &acct, nil
}

func (s *MemoryStore) Exists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[username]
	return ok, nil
}

func (s *MemoryStore) Entries(ctx context.Context, filter EntryFilter) ([]models.LedgerEntry, error) {
	filter = filter.normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LedgerEntry, 0, filter.Limit)
	skipped := 0
	for i := len(s.entries) - 1; i >= 0 && len(out) < filter.Limit; i-- {
		e := s.entries[i]
		if filter.Participant != "" && !e.Involves(filter.Participant) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *MemoryStore) Item(ctx context.Context, itemID string) (*models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, ErrItemNotFound
	}
	return &item, nil
}

func (s *MemoryStore) Catalog(ctx context.Context, filter CatalogFilter) ([]models.CatalogItem, error) {
	filter = filter.normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CatalogItem, 0, filter.Limit)
	skipped := 0
	for i := len(s.itemOrder) - 1; i >= 0 && len(out) < filter.Limit; i-- {
		item := s.items[s.itemOrder[i]]
		if filter.Seller != "" && item.SellerUsername != filter.Seller {
			continue
		}
		if filter.InStockOnly && !item.InStock() {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

type memTx struct {
	store    *MemoryStore
	accounts map[string]*models.Account
	items    map[string]*models.CatalogItem
	entries  []models.LedgerEntry
}

func (tx *memTx) account(username string) (*models.Account, error) {
	if acct, ok := tx.accounts[username]; ok {
		return acct, nil
	}
	acct, ok := tx.store.accounts[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, username)
	}
	tx.accounts[username] = &acct
	return &acct, nil
}

func (tx *memTx) item(itemID string) (*models.CatalogItem, error) {
	if item, ok := tx.items[itemID]; ok {
		return item, nil
	}
	item, ok := tx.store.items[itemID]
	if !ok {
		return nil, ErrItemNotFound
	}
	tx.items[itemID] = &item
	return &item, nil
}

func (tx *memTx) LockItem(ctx context.Context, itemID string) (*models.CatalogItem, error) {
	item, err := tx.item(itemID)
	if err != nil {
		return nil, err
	}
	cp := *item
	return &cp, nil
}

func (tx *memTx) LockAccounts(ctx context.Context, usernames ...string) (map[string]*models.Account, error) {
	out := make(map[string]*models.Account, len(usernames))
	for _, name := range usernames {
		acct, err := tx.account(name)
		if err != nil {
			return nil, err
		}
		cp := *acct
		out[name] = &cp
	}
	return out, nil
}

func (tx *memTx) AdjustBalance(ctx context.Context, username string, delta int64) error {
	acct, err := tx.account(username)
	if err != nil {
		return err
	}
	if acct.Balance+delta < 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, username)
	}
	acct.Balance += delta
	return nil
}

func (tx *memTx) DecrementStock(ctx context.Context, itemID string) error {
	item, err := tx.item(itemID)
	if err != nil {
		return err
	}
	if item.Stock <= 0 {
		return ErrOutOfStock
	}
	item.Stock--
	return nil
}

func (tx *memTx) InsertEntry(ctx context.Context, entry *models.LedgerEntry) error {
	tx.entries = append(tx.entries, *entry)
	return nil
}
