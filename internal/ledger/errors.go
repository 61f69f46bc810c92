package ledger

import "errors"

// Error kinds returned by the engine. Callers match them with errors.Is;
// returned errors may wrap them with extra context.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnknownAccount      = errors.New("unknown account")
	ErrItemNotFound        = errors.New("item not found")
	ErrSelfTransfer        = errors.New("self transfer not allowed")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrOutOfStock          = errors.New("out of stock")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrStorage             = errors.New("storage failure")

	ErrInvalidUsername          = errors.New("invalid username")
	ErrAccountExists            = errors.New("account already exists")
	ErrInvalidStock             = errors.New("invalid stock")
	ErrInvalidListing           = errors.New("invalid listing")
	ErrOfficialListingForbidden = errors.New("only official accounts may create official listings")
)

// IsRetryable reports whether err may succeed if the operation is re-run
// against fresh state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
