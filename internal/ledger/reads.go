package ledger

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pigpay/backend/internal/models"
)

const maxUsernameLength = 64

// Account returns the account's current balance and identity.
func (e *Engine) Account(ctx context.Context, username string) (*models.Account, error) {
	return e.store.Account(ctx, username)
}

// History returns entries where username is sender or receiver, newest first.
// Fee credits are not listed for the operator: a purchase entry names the
// buyer and seller only, and the operator's share is visible as its Fee.
func (e *Engine) History(ctx context.Context, username string, limit, offset int) ([]models.LedgerEntry, error) {
	if username == "" {
		return nil, ErrUnknownAccount
	}
	return e.store.Entries(ctx, EntryFilter{Participant: username, Limit: limit, Offset: offset})
}

// Catalog lists marketplace items, newest first.
func (e *Engine) Catalog(ctx context.Context, filter CatalogFilter) ([]models.CatalogItem, error) {
	return e.store.Catalog(ctx, filter)
}

func (e *Engine) Item(ctx context.Context, itemID string) (*models.CatalogItem, error) {
	return e.store.Item(ctx, itemID)
}

// CreateAccount opens an account with its registration balance. This is
// the only way a balance comes into existence outside Transfer and Purchase.
func (e *Engine) CreateAccount(ctx context.Context, username string, initialBalance int64, official bool) (*models.Account, error) {
	acct, err := e.newAccount(username, initialBalance, official)
	if err != nil {
		return nil, err
	}
	if err := e.store.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}
	e.log.WithField("username", acct.Username).Info("[LEDGER] account created")
	return &acct, nil
}

// Register opens a user account together with its login credentials. Both
// are committed together, so a failed registration leaves the username free.
func (e *Engine) Register(ctx context.Context, username, passwordHash string, initialBalance int64) (*models.Account, error) {
	acct, err := e.newAccount(username, initialBalance, false)
	if err != nil {
		return nil, err
	}
	if err := e.store.CreateAccountWithCredentials(ctx, acct, passwordHash); err != nil {
		return nil, err
	}
	e.log.WithField("username", acct.Username).Info("[LEDGER] account registered")
	return &acct, nil
}

func (e *Engine) newAccount(username string, initialBalance int64, official bool) (models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return models.Account{}, ErrInvalidUsername
	}
	if initialBalance < 0 {
		return models.Account{}, ErrInvalidAmount
	}
	return models.Account{
		Username:   username,
		Balance:    initialBalance,
		IsOfficial: official,
		CreatedAt:  e.now(),
	}, nil
}

// ListingInput describes a new catalog item.
type ListingInput struct {
	Seller      string
	Title       string
	Description string
	ImageURL    string
	Price       int64
	Stock       int64
	IsOfficial  bool
}

// CreateListing adds an item to the catalog. Official listings may only be
// posted by official accounts.
func (e *Engine) CreateListing(ctx context.Context, in ListingInput) (*models.CatalogItem, error) {
	if in.Price <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.Stock < 0 {
		return nil, ErrInvalidStock
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidListing)
	}

	seller, err := e.store.Account(ctx, in.Seller)
	if err != nil {
		return nil, err
	}
	if in.IsOfficial && !seller.IsOfficial {
		return nil, ErrOfficialListingForbidden
	}

	item := models.CatalogItem{
		ID:             e.newID(),
		SellerUsername: seller.Username,
		Title:          title,
		Description:    in.Description,
		ImageURL:       in.ImageURL,
		Price:          in.Price,
		Stock:          in.Stock,
		IsOfficial:     in.IsOfficial,
		CreatedAt:      e.now(),
	}
	if err := e.store.CreateListing(ctx, item); err != nil {
		return nil, err
	}
	e.log.WithField("item_id", item.ID).WithField("seller", item.SellerUsername).Info("[MARKET] listing created")
	return &item, nil
}
