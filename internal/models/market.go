package models

import "time"

// CatalogItem is a marketplace listing.
type CatalogItem struct {
	ID             string    `json:"id" db:"id"`
	SellerUsername string    `json:"seller_username" db:"seller_username" example:"carol"`
	Title          string    `json:"title" db:"title" example:"Handmade mug"`
	Description    string    `json:"description" db:"description"`
	ImageURL       string    `json:"image_url,omitempty" db:"image_url"`
	Price          int64     `json:"price" db:"price" example:"1000"`
	Stock          int64     `json:"stock" db:"stock" example:"3"`
	IsOfficial     bool      `json:"is_official" db:"is_official"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// InStock reports whether at least one unit remains.
func (i *CatalogItem) InStock() bool {
	return i.Stock > 0
}
