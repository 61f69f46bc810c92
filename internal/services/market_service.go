package services

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pigpay/backend/internal/ledger"
	"github.com/pigpay/backend/internal/logging"
	"github.com/pigpay/backend/internal/middleware"
	"github.com/pigpay/backend/internal/models"
	"github.com/sirupsen/logrus"
)

type MarketService struct {
	engine    *ledger.Engine
	validator *ValidationHelper
	log       *logrus.Entry
}

// CatalogResponse is one page of the catalog.
type CatalogResponse struct {
	Items  []models.CatalogItem `json:"items"`
	Limit  int                  `json:"limit" example:"50"`
	Offset int                  `json:"offset" example:"0"`
}

// PurchaseResponse wraps the committed purchase entry.
type PurchaseResponse struct {
	Success bool                `json:"success" example:"true"`
	Entry   *models.LedgerEntry `json:"entry"`
}

func NewMarketService(engine *ledger.Engine) *MarketService {
	return &MarketService{
		engine:    engine,
		validator: NewValidationHelper(),
		log:       logging.For("market"),
	}
}

// ListItems returns the catalog, newest first
// @Summary List catalog
// @Tags market
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Items to skip"
// @Param in_stock query bool false "Only items with stock left"
// @Param seller query string false "Only items from this seller"
// @Success 200 {object} CatalogResponse
// @Failure 400 {object} ErrorResponse
// @Router /market [get]
func (s *MarketService) ListItems(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r, ledger.DefaultCatalogLimit, ledger.MaxCatalogLimit)
	if !ok {
		return
	}

	filter := ledger.CatalogFilter{
		Seller: r.URL.Query().Get("seller"),
		Limit:  limit,
		Offset: offset,
	}
	if v := r.URL.Query().Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			SendErrorResponse(w, "in_stock must be a boolean", http.StatusBadRequest, nil)
			return
		}
		filter.InStockOnly = inStock
	}

	items, err := s.engine.Catalog(r.Context(), filter)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if items == nil {
		items = []models.CatalogItem{}
	}
	SendJSON(w, http.StatusOK, CatalogResponse{Items: items, Limit: limit, Offset: offset})
}

// GetItem returns one catalog item
// @Summary Get item
// @Tags market
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} models.CatalogItem
// @Failure 404 {object} ErrorResponse
// @Router /market/{id} [get]
func (s *MarketService) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.engine.Item(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	SendJSON(w, http.StatusOK, item)
}

// CreateListing posts a new item for sale
// @Summary Create listing
// @Description Only official accounts may post official listings
// @Tags market
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ListingRequest true "Listing"
// @Success 201 {object} models.CatalogItem
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /market [post]
func (s *MarketService) CreateListing(w http.ResponseWriter, r *http.Request) {
	seller := middleware.Username(r.Context())
	if seller == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.ListingRequest
	if !s.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	item, err := s.engine.CreateListing(r.Context(), ledger.ListingInput{
		Seller:      seller,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Stock:       req.Stock,
		IsOfficial:  req.IsOfficial,
	})
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	SendJSON(w, http.StatusCreated, item)
}

// Purchase buys one unit of an item
// @Summary Purchase item
// @Description Charge the caller the item price. The seller receives the price minus the fee and the operator receives the fee.
// @Tags market
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param request body models.PurchaseRequest false "Optional note"
// @Success 201 {object} PurchaseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /market/{id}/purchase [post]
func (s *MarketService) Purchase(w http.ResponseWriter, r *http.Request) {
	buyer := middleware.Username(r.Context())
	if buyer == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.PurchaseRequest
	if r.ContentLength != 0 {
		if !s.validator.DecodeAndValidate(w, r, &req) {
			return
		}
	}

	itemID := chi.URLParam(r, "id")
	entry, err := s.engine.Purchase(r.Context(), buyer, itemID, req.Note)
	if err != nil {
		s.log.WithFields(logrus.Fields{"buyer": buyer, "item_id": itemID}).WithError(err).Debug("[MARKET] purchase rejected")
		SendLedgerError(w, err)
		return
	}
	SendJSON(w, http.StatusCreated, PurchaseResponse{Success: true, Entry: entry})
}
