package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migrationStep is one versioned schema change. Steps run in order inside a
// transaction each and are recorded in schema_migrations, so Migrate is safe
// to call on every startup.
type migrationStep struct {
	version     int
	description string
	statements  []string
}

var migrations = []migrationStep{
	{
		version:     1,
		description: "calendar connections, appointments and directory tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS calendar_connections (
				id TEXT PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				owner_id TEXT NOT NULL,
				calendar_id TEXT NOT NULL,
				access_token TEXT NOT NULL,
				refresh_token TEXT NOT NULL,
				token_expiry TEXT NOT NULL,
				active INTEGER NOT NULL DEFAULT 1,
				store_calendar INTEGER NOT NULL DEFAULT 0,
				last_appointment_sync TEXT,
				last_shift_sync TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE (tenant_id, owner_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_connections_tenant_active
				ON calendar_connections (tenant_id, active)`,
			`CREATE TABLE IF NOT EXISTS appointments (
				id TEXT PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				customer_id TEXT NOT NULL,
				staff_id TEXT NOT NULL,
				service_ids TEXT NOT NULL DEFAULT '[]',
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('scheduled','confirmed','completed','canceled','noshow')),
				staff_event_id TEXT NOT NULL DEFAULT '',
				store_event_id TEXT NOT NULL DEFAULT '',
				synced_to_staff INTEGER NOT NULL DEFAULT 0,
				synced_to_store INTEGER NOT NULL DEFAULT 0,
				last_synced_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_appointments_staff_time
				ON appointments (tenant_id, staff_id, start_time)`,
			`CREATE TABLE IF NOT EXISTS customers (
				id TEXT PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				name TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS staff (
				id TEXT PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				name TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS services (
				id TEXT PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				name TEXT NOT NULL,
				duration_minutes INTEGER NOT NULL DEFAULT 60
			)`,
		},
	},
}

// Migrate applies all pending schema migrations.
func (p *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("sqlite: initialise schema_migrations: %w", err)
	}

	for _, step := range migrations {
		applied, err := p.migrationApplied(ctx, step.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = p.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, statement := range step.statements {
				if _, err := tx.ExecContext(ctx, statement); err != nil {
					return fmt.Errorf("sqlite: migration %d (%s): %w", step.version, step.description, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
				step.version, step.description, time.Now().UTC().Format(time.RFC3339))
			if err != nil {
				return fmt.Errorf("sqlite: record migration %d: %w", step.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *ConnectionPool) migrationApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: check migration %d: %w", version, err)
	}
	return count > 0, nil
}
