package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ejcasil/dualledger/internal/model"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial ledger schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					date TEXT NOT NULL,
					time TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					incoming_ej REAL NOT NULL DEFAULT 0,
					outgoing_ej REAL NOT NULL DEFAULT 0,
					incoming_ej_neng REAL NOT NULL DEFAULT 0,
					outgoing_ej_neng REAL NOT NULL DEFAULT 0,
					ej_balance REAL NOT NULL DEFAULT 0,
					ej_neng_balance REAL NOT NULL DEFAULT 0,
					total REAL NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_order ON transactions(date, id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add chat messages",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS chat_messages (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					nickname TEXT NOT NULL,
					message TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_chat_messages_created ON chat_messages(created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add receipt references and idempotency index",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE transactions ADD COLUMN receipt TEXT NOT NULL DEFAULT ''`,
				// Speeds up the accrual engine's exact-match existence probe
				`CREATE INDEX idx_transactions_date_description ON transactions(date, description)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Backfill missing entry times from created_at",
		Up: func(tx *sql.Tx) error {
			rows, err := tx.Query(`SELECT id, created_at FROM transactions WHERE time = ''`)
			if err != nil {
				return fmt.Errorf("failed to query rows with missing time: %w", err)
			}
			defer func() { _ = rows.Close() }()

			type backfill struct {
				createdAt time.Time
				id        int64
			}
			var pending []backfill
			for rows.Next() {
				var b backfill
				if err := rows.Scan(&b.id, &b.createdAt); err != nil {
					return fmt.Errorf("failed to scan row: %w", err)
				}
				pending = append(pending, b)
			}
			if err := rows.Err(); err != nil {
				return fmt.Errorf("failed to iterate rows: %w", err)
			}

			for _, b := range pending {
				display := b.createdAt.In(model.ReportingLocation()).Format(model.TimeLayout)
				if _, err := tx.Exec(`UPDATE transactions SET time = ? WHERE id = ?`, display, b.id); err != nil {
					return fmt.Errorf("failed to backfill time for row %d: %w", b.id, err)
				}
			}
			if len(pending) > 0 {
				slog.Info("Backfilled entry times", "rows", len(pending))
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
