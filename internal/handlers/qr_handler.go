package handlers

import (
	"errors"
	"net/http"

	"github.com/pigpay/backend/internal/ledger"
	"github.com/pigpay/backend/internal/logging"
	"github.com/pigpay/backend/internal/middleware"
	"github.com/pigpay/backend/internal/services"
	"github.com/sirupsen/logrus"
)

type QRHandler struct {
	service   *services.QRService
	engine    *ledger.Engine
	validator *services.ValidationHelper
	log       *logrus.Entry
}

// ReceiveQRRequest asks for a receive code; a zero amount lets the payer choose.
type ReceiveQRRequest struct {
	Amount int64 `json:"amount,omitempty" validate:"gte=0" example:"500"`
}

// PayQRRequest pays a scanned receive code. Amount is only read when the
// code carries none.
type PayQRRequest struct {
	Code    string `json:"code" validate:"required,max=64"`
	Amount  int64  `json:"amount,omitempty" validate:"gte=0" example:"500"`
	Message string `json:"message,omitempty" validate:"max=200" example:"coffee"`
}

func NewQRHandler(service *services.QRService, engine *ledger.Engine) *QRHandler {
	return &QRHandler{
		service:   service,
		engine:    engine,
		validator: services.NewValidationHelper(),
		log:       logging.For("qr"),
	}
}

// GenerateQR issues a receive code for the caller
// @Summary Generate receive QR
// @Description Generate a QR code others can scan to pay the caller, optionally for a fixed amount
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ReceiveQRRequest false "Optional fixed amount"
// @Success 200 {object} object{success=bool,qrCode=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /qr/receive [post]
func (h *QRHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r.Context())
	if username == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req ReceiveQRRequest
	if r.ContentLength != 0 {
		if !h.validator.DecodeAndValidate(w, r, &req) {
			return
		}
	}

	qrCode, qrImage, err := h.service.GenerateReceiveQR(r.Context(), username, req.Amount)
	if err != nil {
		h.log.WithError(err).Error("[QR] Failed to generate receive code")
		services.SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	services.SendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"qrCode":  qrCode,
		"qrImage": qrImage,
	})
}

// PayQR transfers to the owner of a scanned receive code
// @Summary Pay a receive QR
// @Description Resolve a receive code and transfer to its owner
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PayQRRequest true "Scanned code"
// @Success 201 {object} services.TransferResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /qr/pay [post]
func (h *QRHandler) PayQR(w http.ResponseWriter, r *http.Request) {
	payer := middleware.Username(r.Context())
	if payer == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req PayQRRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	request, err := h.service.ResolveQR(r.Context(), req.Code)
	if errors.Is(err, services.ErrQRExpired) {
		services.SendErrorResponse(w, err.Error(), http.StatusNotFound, nil)
		return
	}
	if err != nil {
		h.log.WithError(err).Error("[QR] Failed to resolve code")
		services.SendErrorResponse(w, "Failed to resolve QR code", http.StatusInternalServerError, nil)
		return
	}

	amount := request.Amount
	if amount == 0 {
		amount = req.Amount
	} else if req.Amount != 0 && req.Amount != amount {
		services.SendErrorResponse(w, "amount does not match the QR code", http.StatusBadRequest, nil)
		return
	}

	entry, err := h.engine.Transfer(r.Context(), payer, request.Username, amount, req.Message)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}
	services.SendJSON(w, http.StatusCreated, services.TransferResponse{Success: true, Entry: entry})
}
