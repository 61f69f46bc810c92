package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pigpay/backend/internal/ledger"
)

const maxBodyBytes = 1_048_576 // 1 MB

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// DecodeAndValidate reads a single JSON object into dst and validates it.
// On failure it writes the error response and returns false.
func (vh *ValidationHelper) DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := vh.ValidateStruct(dst); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	errorResp := ErrorResponse{Error: message}

	var fieldErrs validator.ValidationErrors
	if errors.As(validationErr, &fieldErrs) {
		errorResp.Details = make(map[string]string)
		for _, err := range fieldErrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	SendJSON(w, statusCode, errorResp)
}

// SendJSON writes v as the JSON response body.
func SendJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// ledgerErrorStatus maps engine error kinds onto HTTP status codes.
func ledgerErrorStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, ledger.ErrInvalidStock),
		errors.Is(err, ledger.ErrInvalidListing),
		errors.Is(err, ledger.ErrInvalidUsername):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrOfficialListingForbidden):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrUnknownAccount),
		errors.Is(err, ledger.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrOutOfStock),
		errors.Is(err, ledger.ErrConcurrencyConflict),
		errors.Is(err, ledger.ErrAccountExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ledgerErrorMessage is the client-facing text for an engine error; storage
// details never leave the server.
func ledgerErrorMessage(err error) string {
	for _, kind := range []error{
		ledger.ErrInvalidAmount, ledger.ErrSelfTransfer, ledger.ErrInvalidStock, ledger.ErrInvalidListing,
		ledger.ErrInvalidUsername, ledger.ErrOfficialListingForbidden, ledger.ErrUnknownAccount,
		ledger.ErrItemNotFound, ledger.ErrInsufficientFunds, ledger.ErrOutOfStock,
		ledger.ErrConcurrencyConflict, ledger.ErrAccountExists,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal error"
}

// SendLedgerError writes the response for an error returned by the engine.
func SendLedgerError(w http.ResponseWriter, err error) {
	SendErrorResponse(w, ledgerErrorMessage(err), ledgerErrorStatus(err), nil)
}
