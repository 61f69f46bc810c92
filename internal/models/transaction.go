package models

// TransferRequest is the body of a peer transfer.
type TransferRequest struct {
	Receiver string `json:"receiver" validate:"required,max=64" example:"bob"`
	Amount   int64  `json:"amount" validate:"required,gt=0" example:"100"`
	Message  string `json:"message,omitempty" validate:"max=200" example:"lunch"`
}

// PurchaseRequest is the body of a marketplace purchase.
type PurchaseRequest struct {
	Note string `json:"note,omitempty" validate:"max=200"`
}

// ListingRequest is the body of a new marketplace listing.
type ListingRequest struct {
	Title       string `json:"title" validate:"required,max=120" example:"Handmade mug"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	ImageURL    string `json:"image_url,omitempty" validate:"omitempty,url"`
	Price       int64  `json:"price" validate:"required,gt=0" example:"1000"`
	Stock       int64  `json:"stock" validate:"gte=0" example:"3"`
	IsOfficial  bool   `json:"is_official"`
}

// HistoryItem is a ledger entry seen from one participant.
type HistoryItem struct {
	LedgerEntry
	Direction    string `json:"direction" example:"out"` // "in" or "out"
	Counterparty string `json:"counterparty" example:"bob"`
	Delta        int64  `json:"delta" example:"-100"` // signed change to the viewer's balance
}

// NewHistoryItem annotates e from viewer's side.
func NewHistoryItem(e LedgerEntry, viewer string) HistoryItem {
	h := HistoryItem{LedgerEntry: e}
	if e.SenderUsername == viewer {
		h.Direction = "out"
		h.Counterparty = e.ReceiverUsername
		h.Delta = -e.Amount
	} else {
		h.Direction = "in"
		h.Counterparty = e.SenderUsername
		h.Delta = e.Net()
	}
	return h
}
