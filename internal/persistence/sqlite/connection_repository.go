package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/corevo-scheduler/internal/persistence"
)

// ConnectionRepository implements persistence.ConnectionRepository on
// SQLite. Tokens are sealed with the configured cipher before storage.
type ConnectionRepository struct {
	pool   *ConnectionPool
	cipher *TokenCipher
}

// NewConnectionRepository creates a connection repository. A nil cipher
// stores tokens unsealed.
func NewConnectionRepository(pool *ConnectionPool, tokens *TokenCipher) *ConnectionRepository {
	return &ConnectionRepository{pool: pool, cipher: tokens}
}

const connectionColumns = `id, tenant_id, owner_id, calendar_id, access_token, refresh_token,
	token_expiry, active, store_calendar, last_appointment_sync, last_shift_sync,
	created_at, updated_at`

// CreateConnection stores a new connection. The (tenant, owner) pair is
// unique; a second connection for the same owner is ErrDuplicate.
func (r *ConnectionRepository) CreateConnection(ctx context.Context, conn persistence.CalendarConnection) error {
	if conn.ID == "" || conn.TenantID == "" || conn.OwnerID == "" {
		return persistence.ErrConstraintViolation
	}

	accessToken, err := r.cipher.Seal(conn.AccessToken)
	if err != nil {
		return err
	}
	refreshToken, err := r.cipher.Seal(conn.RefreshToken)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now

	_, err = r.pool.db.ExecContext(ctx, `
		INSERT INTO calendar_connections
			(id, tenant_id, owner_id, calendar_id, access_token, refresh_token,
			 token_expiry, active, store_calendar, last_appointment_sync, last_shift_sync,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conn.ID,
		conn.TenantID,
		conn.OwnerID,
		conn.CalendarID,
		accessToken,
		refreshToken,
		conn.TokenExpiry.UTC().Format(time.RFC3339),
		conn.Active,
		conn.StoreCalendar,
		nullableTime(conn.LastAppointmentSync),
		nullableTime(conn.LastShiftSync),
		conn.CreatedAt.Format(time.RFC3339),
		conn.UpdatedAt.Format(time.RFC3339),
	)
	return mapError(err)
}

// GetConnection retrieves the connection for a (tenant, owner) pair. The
// store calendar uses the reserved owner id "store".
func (r *ConnectionRepository) GetConnection(ctx context.Context, tenantID, ownerID string) (persistence.CalendarConnection, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+connectionColumns+`
		FROM calendar_connections
		WHERE tenant_id = ? AND owner_id = ?`,
		tenantID, ownerID)
	return r.scanConnection(row)
}

// ListActiveStaffConnections returns active non-store connections ordered by
// owner id.
func (r *ConnectionRepository) ListActiveStaffConnections(ctx context.Context, tenantID string) ([]persistence.CalendarConnection, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+connectionColumns+`
		FROM calendar_connections
		WHERE tenant_id = ? AND active = 1 AND store_calendar = 0 AND owner_id != ?
		ORDER BY owner_id`,
		tenantID, persistence.StoreOwnerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	conns := make([]persistence.CalendarConnection, 0)
	for rows.Next() {
		conn, err := r.scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return conns, nil
}

// UpdateTokens overwrites the stored credential material. The write is
// unconditional; concurrent refreshes race and the last writer wins.
func (r *ConnectionRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiry time.Time) error {
	sealedAccess, err := r.cipher.Seal(accessToken)
	if err != nil {
		return err
	}
	sealedRefresh, err := r.cipher.Seal(refreshToken)
	if err != nil {
		return err
	}

	return r.execOnConnection(ctx, `
		UPDATE calendar_connections
		SET access_token = ?, refresh_token = ?, token_expiry = ?, updated_at = ?
		WHERE id = ?`,
		sealedAccess, sealedRefresh, expiry.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339), id)
}

// SetActive flips the activation flag.
func (r *ConnectionRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.execOnConnection(ctx, `
		UPDATE calendar_connections SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC().Format(time.RFC3339), id)
}

// TouchAppointmentSync records the last appointment sync instant.
func (r *ConnectionRepository) TouchAppointmentSync(ctx context.Context, id string, at time.Time) error {
	return r.execOnConnection(ctx, `
		UPDATE calendar_connections SET last_appointment_sync = ?, updated_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339), id)
}

// TouchShiftSync records the last shift sync instant.
func (r *ConnectionRepository) TouchShiftSync(ctx context.Context, id string, at time.Time) error {
	return r.execOnConnection(ctx, `
		UPDATE calendar_connections SET last_shift_sync = ?, updated_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339), id)
}

func (r *ConnectionRepository) execOnConnection(ctx context.Context, query string, args ...any) error {
	result, err := r.pool.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ConnectionRepository) scanConnection(row rowScanner) (persistence.CalendarConnection, error) {
	var (
		conn                           persistence.CalendarConnection
		accessToken, refreshToken      string
		expiryStr, createdStr, updStr  string
		lastAppointment, lastShift     sql.NullString
	)
	err := row.Scan(
		&conn.ID, &conn.TenantID, &conn.OwnerID, &conn.CalendarID,
		&accessToken, &refreshToken, &expiryStr,
		&conn.Active, &conn.StoreCalendar,
		&lastAppointment, &lastShift,
		&createdStr, &updStr,
	)
	if err != nil {
		return persistence.CalendarConnection{}, mapError(err)
	}

	if conn.AccessToken, err = r.cipher.Open(accessToken); err != nil {
		return persistence.CalendarConnection{}, err
	}
	if conn.RefreshToken, err = r.cipher.Open(refreshToken); err != nil {
		return persistence.CalendarConnection{}, err
	}

	if conn.TokenExpiry, err = parseStoredTime(expiryStr); err != nil {
		return persistence.CalendarConnection{}, err
	}
	if conn.CreatedAt, err = parseStoredTime(createdStr); err != nil {
		return persistence.CalendarConnection{}, err
	}
	if conn.UpdatedAt, err = parseStoredTime(updStr); err != nil {
		return persistence.CalendarConnection{}, err
	}
	if conn.LastAppointmentSync, err = parseNullableTime(lastAppointment); err != nil {
		return persistence.CalendarConnection{}, err
	}
	if conn.LastShiftSync, err = parseNullableTime(lastShift); err != nil {
		return persistence.CalendarConnection{}, err
	}
	return conn, nil
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseStoredTime(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse stored timestamp %q: %w", value, err)
	}
	return parsed, nil
}

func parseNullableTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	parsed, err := parseStoredTime(value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
