package models

import "time"

// Account is a user's balance holder, keyed by username.
type Account struct {
	Username   string    `json:"username" db:"username" example:"alice"`
	Balance    int64     `json:"balance" db:"balance" example:"1000"` // minor units, never negative
	IsOfficial bool      `json:"is_official" db:"is_official" example:"false"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
