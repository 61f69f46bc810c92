package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		username    TEXT PRIMARY KEY,
		balance     BIGINT NOT NULL CHECK (balance >= 0),
		is_official BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS credentials (
		username      TEXT PRIMARY KEY REFERENCES accounts (username),
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS market_items (
		id              TEXT PRIMARY KEY,
		seller_username TEXT NOT NULL REFERENCES accounts (username),
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		image_url       TEXT NOT NULL DEFAULT '',
		price           BIGINT NOT NULL CHECK (price > 0),
		stock           BIGINT NOT NULL CHECK (stock >= 0),
		is_official     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS market_items_created_at_idx ON market_items (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id                TEXT PRIMARY KEY,
		kind              TEXT NOT NULL CHECK (kind IN ('transfer', 'purchase')),
		sender_username   TEXT NOT NULL REFERENCES accounts (username),
		receiver_username TEXT NOT NULL REFERENCES accounts (username),
		amount            BIGINT NOT NULL CHECK (amount > 0),
		fee               BIGINT NOT NULL DEFAULT 0 CHECK (fee >= 0 AND fee <= amount),
		item_id           TEXT REFERENCES market_items (id),
		description       TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (sender_username <> receiver_username)
	)`,
	`CREATE INDEX IF NOT EXISTS ledger_entries_sender_idx ON ledger_entries (sender_username, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS ledger_entries_receiver_idx ON ledger_entries (receiver_username, created_at DESC)`,
}

// EnsureSchema creates the ledger tables if they are missing and makes sure
// the operator account that collects fees exists.
func EnsureSchema(ctx context.Context, db *sql.DB, operatorUsername string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if operatorUsername != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (username, balance, is_official)
			VALUES ($1, 0, TRUE)
			ON CONFLICT (username) DO NOTHING`, operatorUsername); err != nil {
			return fmt.Errorf("create operator account: %w", err)
		}
	}

	return tx.Commit()
}
