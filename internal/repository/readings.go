package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hidrotec/water-metering-worker/internal/db"
)

// ReadingRepository handles meter reading persistence
type ReadingRepository struct {
	pool *pgxpool.Pool
}

// NewReadingRepository creates a new reading repository
func NewReadingRepository(pool *pgxpool.Pool) *ReadingRepository {
	return &ReadingRepository{pool: pool}
}

// MaxValueFor returns the highest stored value for a meter. The second
// return is false when the meter has no readings yet.
func (r *ReadingRepository) MaxValueFor(ctx context.Context, meterID string) (int64, bool, error) {
	query := `
		SELECT value
		FROM meter_readings
		WHERE meter_identifier = $1
		ORDER BY value DESC
		LIMIT 1
	`

	var value int64
	err := r.pool.QueryRow(ctx, query, meterID).Scan(&value)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query max reading: %w", err)
	}

	return value, true, nil
}

// Save inserts a meter reading. Readings are append-only.
func (r *ReadingRepository) Save(ctx context.Context, reading *db.MeterReading) error {
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}

	query := `
		INSERT INTO meter_readings (id, meter_identifier, value, captured_at, device_type)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		reading.ID,
		reading.MeterIdentifier,
		reading.Value,
		reading.CapturedAt,
		reading.DeviceType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert meter reading: %w", err)
	}

	return nil
}

// FindInRange returns readings for a meter within [start, end], ordered by
// capture time.
func (r *ReadingRepository) FindInRange(ctx context.Context, meterID string, start, end time.Time) ([]db.MeterReading, error) {
	query := `
		SELECT id, meter_identifier, value, captured_at, device_type
		FROM meter_readings
		WHERE meter_identifier = $1 AND captured_at BETWEEN $2 AND $3
		ORDER BY captured_at ASC
	`

	rows, err := r.pool.Query(ctx, query, meterID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings in range: %w", err)
	}
	defer rows.Close()

	var readings []db.MeterReading
	for rows.Next() {
		var reading db.MeterReading
		if err := rows.Scan(
			&reading.ID,
			&reading.MeterIdentifier,
			&reading.Value,
			&reading.CapturedAt,
			&reading.DeviceType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return readings, nil
}
