package models

import (
	"time"
)

// EntryKind distinguishes peer transfers from marketplace purchases.
type EntryKind string

const (
	EntryKindTransfer EntryKind = "transfer"
	EntryKindPurchase EntryKind = "purchase"
)

// LedgerEntry is an immutable record of one committed balance movement.
type LedgerEntry struct {
	ID               string    `json:"id" db:"id" example:"5b0f7c1e-3c1b-4a52-9d8e-2f1f0c9b6a11"`
	Kind             EntryKind `json:"kind" db:"kind" example:"transfer"`
	SenderUsername   string    `json:"sender_username" db:"sender_username" example:"alice"`
	ReceiverUsername string    `json:"receiver_username" db:"receiver_username" example:"bob"`
	Amount           int64     `json:"amount" db:"amount" example:"100"` // gross amount debited from sender
	Fee              int64     `json:"fee" db:"fee" example:"0"`         // portion routed to the operator
	ItemID           *string   `json:"item_id,omitempty" db:"item_id"`
	Description      string    `json:"description" db:"description" example:"送金"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Net is the amount the receiver was credited.
func (e *LedgerEntry) Net() int64 {
	return e.Amount - e.Fee
}

// Involves reports whether username is the sender or receiver of the entry.
func (e *LedgerEntry) Involves(username string) bool {
	return e.SenderUsername == username || e.ReceiverUsername == username
}
