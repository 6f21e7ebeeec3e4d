package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS entries (
		id              BIGSERIAL PRIMARY KEY,
		plate           TEXT NOT NULL,
		image_in        TEXT NOT NULL,
		timestamp_in    TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_entries_plate ON entries(plate);`,
	`CREATE TABLE IF NOT EXISTS exits (
		id               BIGSERIAL PRIMARY KEY,
		entry_id         BIGINT NOT NULL REFERENCES entries(id),
		plate            TEXT NOT NULL,
		image_out        TEXT NOT NULL,
		timestamp_out    TIMESTAMPTZ NOT NULL,
		duration_minutes BIGINT NOT NULL,
		cost             BIGINT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_exits_plate ON exits(plate);`,
	`CREATE TABLE IF NOT EXISTS active_cars (
		entry_id        BIGINT PRIMARY KEY REFERENCES entries(id),
		plate           TEXT NOT NULL,
		timestamp_in    TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_active_cars_plate ON active_cars(plate);`,
	`CREATE TABLE IF NOT EXISTS settings (
		key             TEXT PRIMARY KEY,
		value           TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		phone_number    TEXT NOT NULL UNIQUE,
		role            TEXT NOT NULL DEFAULT 'user',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		is_active       BOOLEAN NOT NULL DEFAULT true
	);`,
	`CREATE TABLE IF NOT EXISTS wallets (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL UNIQUE REFERENCES users(id),
		balance         BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		last_updated    TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id               BIGSERIAL PRIMARY KEY,
		wallet_id        BIGINT NOT NULL REFERENCES wallets(id),
		transaction_type TEXT NOT NULL,
		amount           BIGINT NOT NULL CHECK (amount > 0),
		timestamp        TIMESTAMPTZ NOT NULL DEFAULT now(),
		description      TEXT NOT NULL DEFAULT '',
		exit_id          BIGINT REFERENCES exits(id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_wallet_id ON transactions(wallet_id);`,
	`CREATE TABLE IF NOT EXISTS user_plates (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES users(id),
		plate           TEXT NOT NULL,
		registered_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		is_active       BOOLEAN NOT NULL DEFAULT true,
		UNIQUE (user_id, plate)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_user_plates_plate ON user_plates(plate);`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES users(id),
		token           TEXT NOT NULL UNIQUE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at      TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS gate_events (
		id              BIGSERIAL PRIMARY KEY,
		camera_id       TEXT NOT NULL,
		direction       TEXT NOT NULL,
		plate           TEXT NOT NULL,
		region          TEXT,
		votes           JSONB,
		event_time      TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_gate_events_plate ON gate_events(plate);`,
	`CREATE INDEX IF NOT EXISTS idx_gate_events_event_time ON gate_events(event_time);`,
}

func runMigrations(db *gorm.DB, defaultCapacity, defaultPricePerHour int) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	seed := fmt.Sprintf(`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM settings WHERE key = 'capacity') THEN
			INSERT INTO settings (key, value) VALUES ('capacity', '%d');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM settings WHERE key = 'price_per_hour') THEN
			INSERT INTO settings (key, value) VALUES ('price_per_hour', '%d');
		END IF;
	END
	$$;`, defaultCapacity, defaultPricePerHour)

	if err := db.Exec(seed).Error; err != nil {
		return fmt.Errorf("settings seed failed: %w", err)
	}
	return nil
}
