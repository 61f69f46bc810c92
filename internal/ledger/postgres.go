package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pigpay/backend/internal/models"
)

// SQLSTATE codes the store maps onto ledger error kinds.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
)

// PostgresStore runs every unit of work as a SERIALIZABLE transaction and
// takes row locks with SELECT ... FOR UPDATE.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

// classify leaves ledger error kinds and context errors untouched, turns
// serialization failures and deadlocks into ErrConcurrencyConflict and
// everything else into ErrStorage.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{
		ErrInvalidAmount, ErrUnknownAccount, ErrItemNotFound, ErrSelfTransfer,
		ErrInsufficientFunds, ErrOutOfStock, ErrConcurrencyConflict, ErrStorage,
		ErrAccountExists, ErrInvalidUsername, ErrInvalidStock, ErrInvalidListing, ErrOfficialListingForbidden,
		context.Canceled, context.DeadlineExceeded,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %w", ErrConcurrencyConflict, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account models.Account) error {
	if account.Balance < 0 {
		return ErrInvalidAmount
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (username, balance, is_official, created_at)
		VALUES ($1, $2, $3, $4)`,
		account.Username, account.Balance, account.IsOfficial, account.CreatedAt)
	if pqCode(err) == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrAccountExists, account.Username)
	}
	return classify(err)
}

func (s *PostgresStore) CreateAccountWithCredentials(ctx context.Context, account models.Account, passwordHash string) error {
	if account.Balance < 0 {
		return ErrInvalidAmount
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (username, balance, is_official, created_at)
		VALUES ($1, $2, $3, $4)`,
		account.Username, account.Balance, account.IsOfficial, account.CreatedAt)
	if pqCode(err) == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrAccountExists, account.Username)
	}
	if err != nil {
		return classify(err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO credentials (username, password_hash)
		VALUES ($1, $2)`, account.Username, passwordHash); err != nil {
		return classify(err)
	}

	return classify(tx.Commit())
}

func (s *PostgresStore) CreateListing(ctx context.Context, item models.CatalogItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_items (id, seller_username, title, description, image_url, price, stock, is_official, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID, item.SellerUsername, item.Title, item.Description, item.ImageURL,
		item.Price, item.Stock, item.IsOfficial, item.CreatedAt)
	switch pqCode(err) {
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrUnknownAccount, item.SellerUsername)
	case pgCheckViolation:
		return ErrInvalidStock
	}
	return classify(err)
}

func (s *PostgresStore) Account(ctx context.Context, username string) (*models.Account, error) {
	var acct models.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT username, balance, is_official, created_at
		FROM accounts
		WHERE username = $1`, username).
		Scan(&acct.Username, &acct.Balance, &acct.IsOfficial, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, username)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &acct, nil
}

func (s *PostgresStore) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, classify(err)
	}
	return exists, nil
}

func (s *PostgresStore) Entries(ctx context.Context, filter EntryFilter) ([]models.LedgerEntry, error) {
	filter = filter.normalize()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, sender_username, receiver_username, amount, fee, item_id, description, created_at
		FROM ledger_entries
		WHERE ($1 = '' OR sender_username = $1 OR receiver_username = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		filter.Participant, filter.Limit, filter.Offset)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	entries := make([]models.LedgerEntry, 0, filter.Limit)
	for rows.Next() {
		var (
			e      models.LedgerEntry
			itemID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.SenderUsername, &e.ReceiverUsername,
			&e.Amount, &e.Fee, &itemID, &e.Description, &e.CreatedAt); err != nil {
			return nil, classify(err)
		}
		if itemID.Valid {
			e.ItemID = &itemID.String
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return entries, nil
}

const itemColumns = `id, seller_username, title, description, image_url, price, stock, is_official, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := row.Scan(&item.ID, &item.SellerUsername, &item.Title, &item.Description, &item.ImageURL,
		&item.Price, &item.Stock, &item.IsOfficial, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *PostgresStore) Item(ctx context.Context, itemID string) (*models.CatalogItem, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM market_items WHERE id = $1`, itemID))
	if err != nil {
		return nil, classify(err)
	}
	return item, nil
}

func (s *PostgresStore) Catalog(ctx context.Context, filter CatalogFilter) ([]models.CatalogItem, error) {
	filter = filter.normalize()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM market_items
		WHERE ($1 = '' OR seller_username = $1) AND (NOT $2 OR stock > 0)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		filter.Seller, filter.InStockOnly, filter.Limit, filter.Offset)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	items := make([]models.CatalogItem, 0, filter.Limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, classify(err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return items, nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockItem(ctx context.Context, itemID string) (*models.CatalogItem, error) {
	return scanItem(t.tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM market_items WHERE id = $1 FOR UPDATE`, itemID))
}

func (t *pgTx) LockAccounts(ctx context.Context, usernames ...string) (map[string]*models.Account, error) {
	accounts := make(map[string]*models.Account, len(usernames))
	for _, username := range usernames {
		var acct models.Account
		err := t.tx.QueryRowContext(ctx, `
			SELECT username, balance, is_official, created_at
			FROM accounts
			WHERE username = $1
			FOR UPDATE`, username).
			Scan(&acct.Username, &acct.Balance, &acct.IsOfficial, &acct.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, username)
		}
		if err != nil {
			return nil, err
		}
		accounts[username] = &acct
	}
	return accounts, nil
}

func (t *pgTx) AdjustBalance(ctx context.Context, username string, delta int64) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $1
		WHERE username = $2 AND balance + $1 >= 0`,
		delta, username)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, username)
	}
	return nil
}

func (t *pgTx) DecrementStock(ctx context.Context, itemID string) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE market_items
		SET stock = stock - 1
		WHERE id = $1 AND stock > 0`, itemID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOutOfStock
	}
	return nil
}

func (t *pgTx) InsertEntry(ctx context.Context, e *models.LedgerEntry) error {
	var itemID sql.NullString
	if e.ItemID != nil {
		itemID = sql.NullString{String: *e.ItemID, Valid: true}
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, kind, sender_username, receiver_username, amount, fee, item_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, string(e.Kind), e.SenderUsername, e.ReceiverUsername, e.Amount, e.Fee, itemID, e.Description, e.CreatedAt)
	return err
}
