package sqlite

import (
	"context"
	"errors"

	"github.com/example/corevo-scheduler/internal/persistence"
)

// DirectoryRepository serves the read-only name lookups against the
// customer, staff and service tables owned by the CRUD layer.
type DirectoryRepository struct {
	pool *ConnectionPool
}

// NewDirectoryRepository creates a directory repository.
func NewDirectoryRepository(pool *ConnectionPool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// CustomerName looks up a customer display name.
func (r *DirectoryRepository) CustomerName(ctx context.Context, tenantID, customerID string) (string, error) {
	var name string
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT name FROM customers WHERE tenant_id = ? AND id = ?`,
		tenantID, customerID).Scan(&name)
	if err != nil {
		return "", mapError(err)
	}
	return name, nil
}

// StaffName looks up a staff display name.
func (r *DirectoryRepository) StaffName(ctx context.Context, tenantID, staffID string) (string, error) {
	var name string
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT name FROM staff WHERE tenant_id = ? AND id = ?`,
		tenantID, staffID).Scan(&name)
	if err != nil {
		return "", mapError(err)
	}
	return name, nil
}

// ServiceNames resolves service menu names, preserving input order and
// skipping unknown ids.
func (r *DirectoryRepository) ServiceNames(ctx context.Context, tenantID string, serviceIDs []string) ([]string, error) {
	names := make([]string, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		var name string
		err := r.pool.db.QueryRowContext(ctx,
			`SELECT name FROM services WHERE tenant_id = ? AND id = ?`,
			tenantID, id).Scan(&name)
		if err != nil {
			if errors.Is(mapError(err), persistence.ErrNotFound) {
				continue
			}
			return nil, mapError(err)
		}
		names = append(names, name)
	}
	return names, nil
}
