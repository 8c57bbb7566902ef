package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hidrotec/water-metering-worker/internal/db"
)

// MeterRepository handles meter registry lookups
type MeterRepository struct {
	pool *pgxpool.Pool
}

// NewMeterRepository creates a new meter repository
func NewMeterRepository(pool *pgxpool.Pool) *MeterRepository {
	return &MeterRepository{pool: pool}
}

// ExistsByIdentifier reports whether a meter with the given external key is
// registered.
func (r *MeterRepository) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM meters WHERE identifier = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, identifier).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check meter existence: %w", err)
	}

	return exists, nil
}

// FindByIdentifier returns the meter with the given external key, or nil if
// no such meter is registered.
func (r *MeterRepository) FindByIdentifier(ctx context.Context, identifier string) (*db.Meter, error) {
	query := `
		SELECT id, identifier, customer_id, created_at
		FROM meters
		WHERE identifier = $1
	`

	var meter db.Meter
	err := r.pool.QueryRow(ctx, query, identifier).Scan(
		&meter.ID,
		&meter.Identifier,
		&meter.CustomerID,
		&meter.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query meter: %w", err)
	}

	return &meter, nil
}

// FindByCustomer returns all meters owned by a customer.
func (r *MeterRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]db.Meter, error) {
	query := `
		SELECT id, identifier, customer_id, created_at
		FROM meters
		WHERE customer_id = $1
		ORDER BY identifier ASC
	`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer meters: %w", err)
	}
	defer rows.Close()

	var meters []db.Meter
	for rows.Next() {
		var meter db.Meter
		if err := rows.Scan(&meter.ID, &meter.Identifier, &meter.CustomerID, &meter.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meter: %w", err)
		}
		meters = append(meters, meter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return meters, nil
}

// OwnerEmail resolves the email address of the customer owning a meter.
// Returns an empty string when the meter or customer is unknown.
func (r *MeterRepository) OwnerEmail(ctx context.Context, identifier string) (string, error) {
	query := `
		SELECT c.email
		FROM meters m
		JOIN customers c ON c.id = m.customer_id
		WHERE m.identifier = $1
	`

	var email string
	err := r.pool.QueryRow(ctx, query, identifier).Scan(&email)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve owner email: %w", err)
	}

	return email, nil
}
