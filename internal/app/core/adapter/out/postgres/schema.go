package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT        NOT NULL,
    email      TEXT        NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);

CREATE TABLE IF NOT EXISTS accounts (
    id             BIGSERIAL PRIMARY KEY,
    account_number TEXT          NOT NULL UNIQUE,
    balance        NUMERIC(19,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
    user_id        BIGINT        NOT NULL REFERENCES users (id),
    version        BIGINT        NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ   NOT NULL DEFAULT clock_timestamp()
);

CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts (user_id);

CREATE TABLE IF NOT EXISTS transactions (
    id              BIGSERIAL PRIMARY KEY,
    from_account_id BIGINT REFERENCES accounts (id),
    to_account_id   BIGINT REFERENCES accounts (id),
    amount          NUMERIC(19,2) NOT NULL CHECK (amount > 0),
    type            SMALLINT      NOT NULL,
    status          SMALLINT      NOT NULL,
    created_at      TIMESTAMPTZ   NOT NULL DEFAULT clock_timestamp()
);

CREATE INDEX IF NOT EXISTS idx_transactions_from ON transactions (from_account_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_to ON transactions (to_account_id, created_at DESC);
`

// Migrate 建立帳本資料表 (可重複執行)
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	return nil
}
