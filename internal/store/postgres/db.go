package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the messaging schema on PostgreSQL.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id            BIGSERIAL    PRIMARY KEY,
			participant_a BIGINT       NOT NULL,
			participant_b BIGINT       NOT NULL,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id              BIGSERIAL    PRIMARY KEY,
			conversation_id BIGINT       NOT NULL REFERENCES conversations(id),
			sender_id       BIGINT       NOT NULL,
			receiver_id     BIGINT       NOT NULL,
			content         TEXT         NOT NULL,
			is_read         BOOLEAN      NOT NULL DEFAULT FALSE,
			read_at         TIMESTAMPTZ,
			sent_at         TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			CONSTRAINT messages_read_state CHECK (is_read = (read_at IS NOT NULL))
		)`,

		// One conversation per unordered pair.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_conversations_pair
			ON conversations (LEAST(participant_a, participant_b), GREATEST(participant_a, participant_b))`,

		`CREATE INDEX IF NOT EXISTS idx_conversations_participant_a ON conversations(participant_a)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_participant_b ON conversations(participant_b)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_sent ON messages(conversation_id, sent_at, id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(conversation_id, receiver_id) WHERE is_read = FALSE`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
