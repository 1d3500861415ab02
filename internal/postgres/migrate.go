package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL CHECK (role IN ('Admin', 'Manager', 'Staff'))
	)`,
	`CREATE TABLE IF NOT EXISTS flowers (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		threshold INTEGER NOT NULL DEFAULT 0 CHECK (threshold >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		flower_id BIGINT NOT NULL REFERENCES flowers(id),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		sell_date DATE NOT NULL,
		party_name VARCHAR(255) NOT NULL,
		status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'processed')),
		processed_by BIGINT REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		action VARCHAR(255) NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		reservation_id BIGINT,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_reservation ON audit_logs(reservation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_flower ON reservations(flower_id)`,
}

// Migrate bootstraps the schema. Statements are idempotent, safe to run
// on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// EnsureAdmin seeds one Admin account if none exists yet.
func EnsureAdmin(ctx context.Context, pool *pgxpool.Pool, username, password string) error {
	var id int64
	err := pool.QueryRow(ctx,
		`SELECT id FROM users WHERE role='Admin' LIMIT 1`).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO users(username, password_hash, role)
		VALUES ($1, $2, 'Admin')
		ON CONFLICT (username) DO NOTHING`,
		username, string(hash))
	return err
}
