package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/pigpay/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lockAccountSQL = `SELECT username, balance, is_official, created_at FROM accounts WHERE username = \$1 FOR UPDATE`
	lockItemSQL    = `SELECT id, seller_username, title, description, image_url, price, stock, is_official, created_at FROM market_items WHERE id = \$1 FOR UPDATE`
	adjustSQL      = `UPDATE accounts SET balance = balance \+ \$1 WHERE username = \$2 AND balance \+ \$1 >= 0`
	decrementSQL   = `UPDATE market_items SET stock = stock - 1 WHERE id = \$1 AND stock > 0`
	insertEntrySQL = `INSERT INTO ledger_entries`
)

var accountColumns = []string{"username", "balance", "is_official", "created_at"}

func accountRow(username string, balance int64) *sqlmock.Rows {
	return sqlmock.NewRows(accountColumns).AddRow(username, balance, false, time.Now())
}

func newPostgresEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := DefaultConfig()
	cfg.RetryBackoff = 0
	engine, err := NewEngine(NewPostgresStore(db), cfg)
	require.NoError(t, err)
	engine.newID = func() string { return "entry-1" }
	return engine, mock
}

func TestPostgresStore_Transfer(t *testing.T) {
	t.Run("locks in username order and commits", func(t *testing.T) {
		engine, mock := newPostgresEngine(t)

		mock.ExpectBegin()
		// receiver sorts first
		mock.ExpectQuery(lockAccountSQL).WithArgs("amy").WillReturnRows(accountRow("amy", 0))
		mock.ExpectQuery(lockAccountSQL).WithArgs("zed").WillReturnRows(accountRow("zed", 100))
		mock.ExpectExec(adjustSQL).WithArgs(60, "amy").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(adjustSQL).WithArgs(-60, "zed").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertEntrySQL).
			WithArgs("entry-1", "transfer", "zed", "amy", 60, 0, nil, "rent", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		entry, err := engine.Transfer(context.Background(), "zed", "amy", 60, "rent")
		require.NoError(t, err)
		assert.Equal(t, "entry-1", entry.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient funds rolls back", func(t *testing.T) {
		engine, mock := newPostgresEngine(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountSQL).WithArgs("alice").WillReturnRows(accountRow("alice", 10))
		mock.ExpectQuery(lockAccountSQL).WithArgs("bob").WillReturnRows(accountRow("bob", 0))
		mock.ExpectRollback()

		_, err := engine.Transfer(context.Background(), "alice", "bob", 60, "")
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account is unknown", func(t *testing.T) {
		engine, mock := newPostgresEngine(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountSQL).WithArgs("alice").WillReturnRows(accountRow("alice", 100))
		mock.ExpectQuery(lockAccountSQL).WithArgs("ghost").WillReturnRows(sqlmock.NewRows(accountColumns))
		mock.ExpectRollback()

		_, err := engine.Transfer(context.Background(), "alice", "ghost", 60, "")
		assert.ErrorIs(t, err, ErrUnknownAccount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure is retried", func(t *testing.T) {
		engine, mock := newPostgresEngine(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountSQL).WithArgs("alice").
			WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})
		mock.ExpectRollback()

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountSQL).WithArgs("alice").WillReturnRows(accountRow("alice", 100))
		mock.ExpectQuery(lockAccountSQL).WithArgs("bob").WillReturnRows(accountRow("bob", 0))
		mock.ExpectExec(adjustSQL).WithArgs(-60, "alice").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(adjustSQL).WithArgs(60, "bob").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertEntrySQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := engine.Transfer(context.Background(), "alice", "bob", 60, "")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit conflict surfaces after retries", func(t *testing.T) {
		engine, mock := newPostgresEngine(t)

		for i := 0; i < 3; i++ {
			mock.ExpectBegin()
			mock.ExpectQuery(lockAccountSQL).WithArgs("alice").WillReturnRows(accountRow("alice", 100))
			mock.ExpectQuery(lockAccountSQL).WithArgs("bob").WillReturnRows(accountRow("bob", 0))
			mock.ExpectExec(adjustSQL).WithArgs(-60, "alice").WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(adjustSQL).WithArgs(60, "bob").WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(insertEntrySQL).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40P01", Message: "deadlock detected"})
		}

		_, err := engine.Transfer(context.Background(), "alice", "bob", 60, "")
		assert.ErrorIs(t, err, ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure is a storage error", func(t *testing.T) {
		engine, mock := newPostgresEngine(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockAccountSQL).WithArgs("alice").WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := engine.Transfer(context.Background(), "alice", "bob", 60, "")
		assert.ErrorIs(t, err, ErrStorage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Purchase(t *testing.T) {
	itemColumns := []string{"id", "seller_username", "title", "description", "image_url", "price", "stock", "is_official", "created_at"}

	t.Run("locks item before accounts and splits fee", func(t *testing.T) {
		engine, mock := newPostgresEngine(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockItemSQL).WithArgs("item-1").
			WillReturnRows(sqlmock.NewRows(itemColumns).
				AddRow("item-1", "carol", "mug", "", "", 1000, 1, false, time.Now()))
		mock.ExpectQuery(lockAccountSQL).WithArgs("alice").WillReturnRows(accountRow("alice", 1000))
		mock.ExpectQuery(lockAccountSQL).WithArgs("carol").WillReturnRows(accountRow("carol", 0))
		mock.ExpectQuery(lockAccountSQL).WithArgs("pigpay").WillReturnRows(accountRow("pigpay", 0))
		mock.ExpectExec(decrementSQL).WithArgs("item-1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(adjustSQL).WithArgs(-1000, "alice").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(adjustSQL).WithArgs(950, "carol").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(adjustSQL).WithArgs(50, "pigpay").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertEntrySQL).
			WithArgs("entry-1", "purchase", "alice", "carol", 1000, 50, "item-1", "mug", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		entry, err := engine.Purchase(context.Background(), "alice", "item-1", "")
		require.NoError(t, err)
		assert.Equal(t, int64(50), entry.Fee)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing item", func(t *testing.T) {
		engine, mock := newPostgresEngine(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockItemSQL).WithArgs("nope").WillReturnRows(sqlmock.NewRows(itemColumns))
		mock.ExpectRollback()

		_, err := engine.Purchase(context.Background(), "alice", "nope", "")
		assert.ErrorIs(t, err, ErrItemNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guarded stock update loses race", func(t *testing.T) {
		engine, mock := newPostgresEngine(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockItemSQL).WithArgs("item-1").
			WillReturnRows(sqlmock.NewRows(itemColumns).
				AddRow("item-1", "shop", "badge", "", "", 100, 1, true, time.Now()))
		mock.ExpectQuery(lockAccountSQL).WithArgs("alice").WillReturnRows(accountRow("alice", 1000))
		mock.ExpectQuery(lockAccountSQL).WithArgs("shop").WillReturnRows(accountRow("shop", 0))
		mock.ExpectExec(decrementSQL).WithArgs("item-1").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := engine.Purchase(context.Background(), "alice", "item-1", "")
		assert.ErrorIs(t, err, ErrOutOfStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Reads(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)
	ctx := context.Background()

	t.Run("entries by participant", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT id, kind, sender_username, receiver_username, amount, fee, item_id, description, created_at FROM ledger_entries`).
			WithArgs("alice", DefaultHistoryLimit, 0).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "sender_username", "receiver_username", "amount", "fee", "item_id", "description", "created_at"}).
				AddRow("e2", "purchase", "alice", "carol", 1000, 50, "item-1", "mug", now).
				AddRow("e1", "transfer", "bob", "alice", 10, 0, nil, "送金", now.Add(-time.Minute)))

		entries, err := store.Entries(ctx, EntryFilter{Participant: "alice"})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, models.EntryKindPurchase, entries[0].Kind)
		require.NotNil(t, entries[0].ItemID)
		assert.Equal(t, "item-1", *entries[0].ItemID)
		assert.Nil(t, entries[1].ItemID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("account lookup", func(t *testing.T) {
		mock.ExpectQuery(`SELECT username, balance, is_official, created_at FROM accounts WHERE username = \$1`).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(accountColumns))

		_, err := store.Account(ctx, "ghost")
		assert.ErrorIs(t, err, ErrUnknownAccount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exists", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs("bob").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		ok, err := store.Exists(ctx, "bob")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate account", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs("bob", 1000, false, sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505"})

		err := store.CreateAccount(ctx, models.Account{Username: "bob", Balance: 1000, CreatedAt: time.Now()})
		assert.ErrorIs(t, err, ErrAccountExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_CreateAccountWithCredentials(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)
	ctx := context.Background()
	acct := models.Account{Username: "dave", Balance: 1000, CreatedAt: time.Now()}

	t.Run("both rows commit together", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs("dave", 1000, false, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO credentials`).
			WithArgs("dave", "salt$hash").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, store.CreateAccountWithCredentials(ctx, acct, "salt$hash"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("credential failure rolls back the account", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs("dave", 1000, false, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO credentials`).
			WithArgs("dave", "salt$hash").
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := store.CreateAccountWithCredentials(ctx, acct, "salt$hash")
		assert.ErrorIs(t, err, ErrStorage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs("dave", 1000, false, sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err := store.CreateAccountWithCredentials(ctx, acct, "salt$hash")
		assert.ErrorIs(t, err, ErrAccountExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(ErrOutOfStock), ErrOutOfStock)
	assert.ErrorIs(t, classify(context.Canceled), context.Canceled)
	assert.ErrorIs(t, classify(&pq.Error{Code: "40001"}), ErrConcurrencyConflict)
	assert.ErrorIs(t, classify(&pq.Error{Code: "40P01"}), ErrConcurrencyConflict)

	err := classify(&pq.Error{Code: "57P01"})
	assert.ErrorIs(t, err, ErrStorage)
	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
}
