package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hidrotec/water-metering-worker/internal/db"
)

// ThresholdRepository handles per-meter alert configuration
type ThresholdRepository struct {
	pool *pgxpool.Pool
}

// NewThresholdRepository creates a new threshold repository
func NewThresholdRepository(pool *pgxpool.Pool) *ThresholdRepository {
	return &ThresholdRepository{pool: pool}
}

// Find returns the threshold config for a meter, or nil when none exists.
func (r *ThresholdRepository) Find(ctx context.Context, meterID string) (*db.ThresholdConfig, error) {
	query := `
		SELECT meter_identifier, monthly_limit, alert_percent, enabled, updated_at
		FROM threshold_configs
		WHERE meter_identifier = $1
	`

	var cfg db.ThresholdConfig
	err := r.pool.QueryRow(ctx, query, meterID).Scan(
		&cfg.MeterIdentifier,
		&cfg.MonthlyLimit,
		&cfg.AlertPercent,
		&cfg.Enabled,
		&cfg.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query threshold config: %w", err)
	}

	return &cfg, nil
}

// Save upserts a threshold config. One config exists per meter.
func (r *ThresholdRepository) Save(ctx context.Context, cfg *db.ThresholdConfig) error {
	query := `
		INSERT INTO threshold_configs (meter_identifier, monthly_limit, alert_percent, enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (meter_identifier) DO UPDATE
		SET monthly_limit = EXCLUDED.monthly_limit,
		    alert_percent = EXCLUDED.alert_percent,
		    enabled = EXCLUDED.enabled,
		    updated_at = EXCLUDED.updated_at
	`

	cfg.UpdatedAt = time.Now()
	_, err := r.pool.Exec(ctx, query,
		cfg.MeterIdentifier,
		cfg.MonthlyLimit,
		cfg.AlertPercent,
		cfg.Enabled,
		cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save threshold config: %w", err)
	}

	return nil
}
