package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pigpay/backend/internal/logging"
	"github.com/pigpay/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultTransferDescription is recorded when a transfer carries no message.
const DefaultTransferDescription = "送金"

type Operation string

const (
	OpTransfer Operation = "transfer"
	OpPurchase Operation = "purchase"
)

// State is a step of the per-operation state machine.
type State int

const (
	StateValidating State = iota
	StateCommitting
	StateCommitted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateCommitting:
		return "committing"
	case StateCommitted:
		return "committed"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event reports a state transition of one operation. Attempt counts from
// zero; a Validating event with Attempt > 0 is a retry after a conflict.
type Event struct {
	Op      Operation
	State   State
	Attempt int
	Actor   string
	Entry   *models.LedgerEntry // set when Committed
	Err     error               // set when Rejected
	Elapsed time.Duration
}

// Observer receives every state transition. Observers run synchronously on
// the calling goroutine and must not block.
type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Config tunes an Engine.
type Config struct {
	Fees         FeePolicy
	MaxAttempts  int           // total attempts per operation, including the first
	RetryBackoff time.Duration // attempt n waits n*RetryBackoff before retrying
}

func DefaultConfig() Config {
	return Config{
		Fees:         DefaultFeePolicy(),
		MaxAttempts:  3,
		RetryBackoff: 10 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	if err := c.Fees.Validate(); err != nil {
		return err
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff must not be negative")
	}
	return nil
}

// Engine is the only writer of balances, stock and ledger entries.
type Engine struct {
	store     Store
	cfg       Config
	observers []Observer
	log       *logrus.Entry
	now       func() time.Time
	newID     func() string
}

func NewEngine(store Store, cfg Config, observers ...Observer) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		store:     store,
		cfg:       cfg,
		observers: observers,
		log:       logging.For("ledger"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
	}, nil
}

// Fees returns the configured fee policy.
func (e *Engine) Fees() FeePolicy {
	return e.cfg.Fees
}

// movement is a fully validated operation waiting to be applied.
type movement struct {
	entry  *models.LedgerEntry
	deltas map[string]int64
	itemID string // decremented by one when set
}

// Transfer moves amount from sender to receiver and records one entry with
// no fee.
func (e *Engine) Transfer(ctx context.Context, sender, receiver string, amount int64, description string) (*models.LedgerEntry, error) {
	op := e.begin(OpTransfer, sender)

	if amount <= 0 {
		return nil, op.reject(ErrInvalidAmount)
	}
	if sender == receiver {
		return nil, op.reject(ErrSelfTransfer)
	}
	if strings.TrimSpace(description) == "" {
		description = DefaultTransferDescription
	}

	return e.execute(ctx, op, func(ctx context.Context, tx Tx) (*movement, error) {
		accounts, err := tx.LockAccounts(ctx, lockOrder(sender, receiver)...)
		if err != nil {
			return nil, err
		}
		if accounts[sender].Balance < amount {
			return nil, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, sender, accounts[sender].Balance, amount)
		}

		return &movement{
			entry: e.newEntry(models.EntryKindTransfer, sender, receiver, amount, 0, nil, description),
			deltas: map[string]int64{
				sender:   -amount,
				receiver: amount,
			},
		}, nil
	})
}

// Purchase buys one unit of itemID for buyer. The seller is credited the
// price net of fee and the operator account receives the fee.
func (e *Engine) Purchase(ctx context.Context, buyer, itemID, note string) (*models.LedgerEntry, error) {
	op := e.begin(OpPurchase, buyer)

	return e.execute(ctx, op, func(ctx context.Context, tx Tx) (*movement, error) {
		// the item is always locked before any account
		item, err := tx.LockItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if !item.InStock() {
			return nil, ErrOutOfStock
		}
		if item.SellerUsername == buyer {
			return nil, ErrSelfTransfer
		}

		fee := e.cfg.Fees.Compute(item.Price, item.IsOfficial)
		if item.SellerUsername == e.cfg.Fees.OperatorUsername {
			// no fee on the operator's own listings
			fee = 0
		}
		parties := []string{buyer, item.SellerUsername}
		if fee > 0 {
			parties = append(parties, e.cfg.Fees.OperatorUsername)
		}

		accounts, err := tx.LockAccounts(ctx, lockOrder(parties...)...)
		if err != nil {
			return nil, err
		}
		if accounts[buyer].Balance < item.Price {
			return nil, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, buyer, accounts[buyer].Balance, item.Price)
		}

		description := strings.TrimSpace(note)
		if description == "" {
			description = item.Title
		}

		deltas := map[string]int64{buyer: -item.Price}
		deltas[item.SellerUsername] += item.Price - fee
		if fee > 0 {
			deltas[e.cfg.Fees.OperatorUsername] += fee
		}

		id := item.ID
		return &movement{
			entry:  e.newEntry(models.EntryKindPurchase, buyer, item.SellerUsername, item.Price, fee, &id, description),
			deltas: deltas,
			itemID: item.ID,
		}, nil
	})
}

func (e *Engine) newEntry(kind models.EntryKind, sender, receiver string, amount, fee int64, itemID *string, description string) *models.LedgerEntry {
	return &models.LedgerEntry{
		ID:               e.newID(),
		Kind:             kind,
		SenderUsername:   sender,
		ReceiverUsername: receiver,
		Amount:           amount,
		Fee:              fee,
		ItemID:           itemID,
		Description:      description,
		CreatedAt:        e.now(),
	}
}

// execute runs prepare and the resulting movement in one unit of work,
// retrying on ErrConcurrencyConflict up to MaxAttempts.
func (e *Engine) execute(ctx context.Context, op *operation, prepare func(context.Context, Tx) (*movement, error)) (*models.LedgerEntry, error) {
	var lastErr error

	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			op.attempt = attempt
			op.emit(StateValidating, nil, nil)
		}

		var committed *models.LedgerEntry
		err := e.store.WithinTx(ctx, func(tx Tx) error {
			m, err := prepare(ctx, tx)
			if err != nil {
				return err
			}
			op.emit(StateCommitting, nil, nil)
			if err := moveFunds(ctx, tx, m); err != nil {
				return err
			}
			committed = m.entry
			return nil
		})
		if err == nil {
			op.emit(StateCommitted, committed, nil)
			e.log.WithFields(logrus.Fields{
				"op":       op.name,
				"entry_id": committed.ID,
				"sender":   committed.SenderUsername,
				"receiver": committed.ReceiverUsername,
				"amount":   committed.Amount,
				"fee":      committed.Fee,
				"attempt":  attempt,
			}).Info("[LEDGER] committed")
			return committed, nil
		}

		if !IsRetryable(err) {
			return nil, op.reject(err)
		}

		lastErr = err
		e.log.WithFields(logrus.Fields{
			"op":      op.name,
			"actor":   op.actor,
			"attempt": attempt,
		}).WithError(err).Warn("[LEDGER] conflict, retrying")

		if attempt+1 < e.cfg.MaxAttempts {
			wait := time.Duration(attempt+1) * e.cfg.RetryBackoff
			select {
			case <-ctx.Done():
				return nil, op.reject(ctx.Err())
			case <-time.After(wait):
			}
		}
	}

	return nil, op.reject(lastErr)
}

// moveFunds applies a validated movement: stock first, then balances in
// lock order, then the ledger entry.
func moveFunds(ctx context.Context, tx Tx, m *movement) error {
	var sum int64
	names := make([]string, 0, len(m.deltas))
	for name, delta := range m.deltas {
		sum += delta
		names = append(names, name)
	}
	if sum != 0 {
		return fmt.Errorf("%w: unbalanced movement (%d)", ErrStorage, sum)
	}
	sort.Strings(names)

	if m.itemID != "" {
		if err := tx.DecrementStock(ctx, m.itemID); err != nil {
			return err
		}
	}
	for _, name := range names {
		if m.deltas[name] == 0 {
			continue
		}
		if err := tx.AdjustBalance(ctx, name, m.deltas[name]); err != nil {
			return err
		}
	}
	return tx.InsertEntry(ctx, m.entry)
}

// operation tracks one call through the state machine.
type operation struct {
	engine  *Engine
	name    Operation
	actor   string
	attempt int
	started time.Time
}

func (e *Engine) begin(name Operation, actor string) *operation {
	op := &operation{engine: e, name: name, actor: actor, started: time.Now()}
	op.emit(StateValidating, nil, nil)
	return op
}

func (op *operation) emit(state State, entry *models.LedgerEntry, err error) {
	ev := Event{
		Op:      op.name,
		State:   state,
		Attempt: op.attempt,
		Actor:   op.actor,
		Entry:   entry,
		Err:     err,
		Elapsed: time.Since(op.started),
	}
	for _, o := range op.engine.observers {
		o.Observe(ev)
	}
}

func (op *operation) reject(err error) error {
	op.emit(StateRejected, nil, err)
	op.engine.log.WithFields(logrus.Fields{
		"op":    op.name,
		"actor": op.actor,
	}).WithError(err).Info("[LEDGER] rejected")
	return err
}
