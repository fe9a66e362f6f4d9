// Package postgres centralizes database connectivity and schema bootstrap
// for the relational stores.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505). Stores map it onto sentinel.ErrAlreadyUsed so
// concurrent duplicate writes surface as conflicts, not generic failures.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Migrate applies the schema. Statements are idempotent so they can run on
// every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// schema defines every table owned by this service. Rows are soft-delete
// only, so no ON DELETE CASCADE clause is ever exercised in practice; the
// foreign keys document ownership.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    cpf           CHAR(11) NOT NULL UNIQUE,
    first_name    TEXT NOT NULL,
    last_name     TEXT NOT NULL,
    social_name   TEXT NOT NULL,
    phone         TEXT,
    password_hash TEXT NOT NULL,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    id          UUID PRIMARY KEY,
    user_id     UUID NOT NULL REFERENCES users(id),
    name        TEXT NOT NULL,
    image_num   INTEGER,
    is_archived BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL,
    UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS categories (
    id          UUID PRIMARY KEY,
    user_id     UUID NOT NULL REFERENCES users(id),
    profile_id  UUID NOT NULL REFERENCES profiles(id),
    name        VARCHAR(50) NOT NULL,
    color       CHAR(7) NOT NULL,
    icon        VARCHAR(20) NOT NULL,
    parent_id   UUID REFERENCES categories(id),
    is_archived BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);

-- NULLs never compare equal in a plain unique constraint, so top-level
-- categories need their own partial index for the (tenant, name, parent)
-- uniqueness tuple.
CREATE UNIQUE INDEX IF NOT EXISTS categories_tenant_name_parent
    ON categories (user_id, profile_id, name, parent_id) WHERE parent_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS categories_tenant_name_root
    ON categories (user_id, profile_id, name) WHERE parent_id IS NULL;
CREATE INDEX IF NOT EXISTS categories_parent ON categories (parent_id);

CREATE TABLE IF NOT EXISTS accounts (
    id           UUID PRIMARY KEY,
    user_id      UUID NOT NULL REFERENCES users(id),
    profile_id   UUID NOT NULL REFERENCES profiles(id),
    bank_name    VARCHAR(30) NOT NULL,
    name         VARCHAR(50) NOT NULL,
    description  VARCHAR(200),
    account_type VARCHAR(50) NOT NULL,
    color        CHAR(7) NOT NULL,
    include_calc BOOLEAN NOT NULL DEFAULT TRUE,
    balance      NUMERIC(10,2) NOT NULL,
    is_archived  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL,
    UNIQUE (user_id, profile_id, name)
);

CREATE TABLE IF NOT EXISTS audit_events (
    id         UUID PRIMARY KEY,
    user_id    UUID NOT NULL,
    action     TEXT NOT NULL,
    entity_id  TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);
`
