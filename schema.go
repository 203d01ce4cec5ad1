package main

import "database/sql"

func ensureSchema(db *sql.DB) error {

	// users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			coins BIGINT NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 1,
			energy INT NOT NULL DEFAULT 500,
			max_energy INT NOT NULL DEFAULT 500,
			last_energy_update TIMESTAMPTZ,
			last_passive_income TIMESTAMPTZ,
			referral_code TEXT UNIQUE,
			referrer_id BIGINT,
			referrals_count INT NOT NULL DEFAULT 0,
			referral_bonus_claimed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		ALTER TABLE users
			ADD COLUMN IF NOT EXISTS referral_code TEXT UNIQUE;
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		ALTER TABLE users
			ADD COLUMN IF NOT EXISTS referrer_id BIGINT;
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		ALTER TABLE users
			ADD COLUMN IF NOT EXISTS referrals_count INT NOT NULL DEFAULT 0;
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		ALTER TABLE users
			ADD COLUMN IF NOT EXISTS referral_bonus_claimed BOOLEAN NOT NULL DEFAULT FALSE;
	`)
	if err != nil {
		return err
	}

	// cards table: rows with owner_id NULL are the purchasable templates,
	// rows with an owner are player-held copies.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cards (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			display_name TEXT NOT NULL,
			description TEXT NOT NULL,
			level INT NOT NULL DEFAULT 1,
			base_income INT NOT NULL,
			upgrade_cost INT NOT NULL,
			income_per_level INT NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			owner_id BIGINT
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_template_name
		ON cards (name)
		WHERE owner_id IS NULL;
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cards_owner_id
		ON cards (owner_id);
	`)
	if err != nil {
		return err
	}

	return nil
}
