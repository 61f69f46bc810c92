package services

import (
	"net/http"

	"github.com/pigpay/backend/internal/ledger"
	"github.com/pigpay/backend/internal/logging"
	"github.com/pigpay/backend/internal/middleware"
	"github.com/pigpay/backend/internal/models"
	"github.com/sirupsen/logrus"
)

type TransferService struct {
	engine    *ledger.Engine
	validator *ValidationHelper
	log       *logrus.Entry
}

// TransferResponse wraps a committed ledger entry.
type TransferResponse struct {
	Success bool                `json:"success" example:"true"`
	Entry   *models.LedgerEntry `json:"entry"`
}

func NewTransferService(engine *ledger.Engine) *TransferService {
	return &TransferService{
		engine:    engine,
		validator: NewValidationHelper(),
		log:       logging.For("transfer"),
	}
}

// CreateTransfer sends balance to another user
// @Summary Send a transfer
// @Description Move balance from the authenticated user to the receiver. Peer transfers carry no fee.
// @Tags transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TransferRequest true "Transfer details"
// @Success 201 {object} TransferResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /transfers [post]
func (s *TransferService) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	sender := middleware.Username(r.Context())
	if sender == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.TransferRequest
	if !s.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	entry, err := s.engine.Transfer(r.Context(), sender, req.Receiver, req.Amount, req.Message)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"sender":   sender,
			"receiver": req.Receiver,
			"amount":   req.Amount,
		}).WithError(err).Debug("[TRANSFER] rejected")
		SendLedgerError(w, err)
		return
	}

	SendJSON(w, http.StatusCreated, TransferResponse{Success: true, Entry: entry})
}
