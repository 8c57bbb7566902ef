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

// NotificationRepository handles the append-only notification history
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

const notificationColumns = `
	id, meter_identifier, recipient_address, consumption, configured_limit,
	percent_reached, sent_at, event_date, status, detail
`

// FindSentOn returns the SENT record for a meter on a calendar date, or nil
// when the meter has not been notified that day.
func (r *NotificationRepository) FindSentOn(ctx context.Context, meterID string, date time.Time) (*db.NotificationRecord, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notification_history
		WHERE meter_identifier = $1 AND event_date = $2 AND status = $3
		LIMIT 1
	`

	row := r.pool.QueryRow(ctx, query, meterID, date.Format("2006-01-02"), db.NotificationSent)
	record, err := scanNotification(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sent notification: %w", err)
	}

	return record, nil
}

// Save appends a notification record.
func (r *NotificationRepository) Save(ctx context.Context, record *db.NotificationRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := `
		INSERT INTO notification_history (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.MeterIdentifier,
		record.RecipientAddress,
		record.Consumption,
		record.ConfiguredLimit,
		record.PercentReached,
		record.SentAt,
		record.EventDate.Format("2006-01-02"),
		record.Status,
		record.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification record: %w", err)
	}

	return nil
}

// ListByMeter returns the notification history for one meter, newest first.
func (r *NotificationRepository) ListByMeter(ctx context.Context, meterID string) ([]db.NotificationRecord, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notification_history
		WHERE meter_identifier = $1
		ORDER BY sent_at DESC
	`

	rows, err := r.pool.Query(ctx, query, meterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query meter notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// ListByCustomer returns the notification history across every meter owned
// by a customer, newest first.
func (r *NotificationRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]db.NotificationRecord, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notification_history n
		WHERE n.meter_identifier IN (
			SELECT identifier FROM meters WHERE customer_id = $1
		)
		ORDER BY n.sent_at DESC
	`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*db.NotificationRecord, error) {
	var record db.NotificationRecord
	err := row.Scan(
		&record.ID,
		&record.MeterIdentifier,
		&record.RecipientAddress,
		&record.Consumption,
		&record.ConfiguredLimit,
		&record.PercentReached,
		&record.SentAt,
		&record.EventDate,
		&record.Status,
		&record.Detail,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func collectNotifications(rows pgx.Rows) ([]db.NotificationRecord, error) {
	var records []db.NotificationRecord
	for rows.Next() {
		record, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
