package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/hidrotec/water-metering-worker/internal/consumption"
	"github.com/hidrotec/water-metering-worker/internal/db"
	"github.com/hidrotec/water-metering-worker/internal/notification"
	"github.com/hidrotec/water-metering-worker/internal/repository"
	"github.com/hidrotec/water-metering-worker/internal/watcher"
)

// BackOffice is the single surface the menu-driven front end talks to:
// monitoring control, consumption queries, threshold management and
// notification history.
type BackOffice struct {
	watcher       *watcher.Watcher
	calculator    *consumption.Calculator
	notifications *notification.Service
	meters        *repository.MeterRepository
	history       *repository.NotificationRepository
}

// NewBackOffice creates the façade.
func NewBackOffice(
	w *watcher.Watcher,
	calculator *consumption.Calculator,
	notifications *notification.Service,
	meters *repository.MeterRepository,
	history *repository.NotificationRepository,
) *BackOffice {
	return &BackOffice{
		watcher:       w,
		calculator:    calculator,
		notifications: notifications,
		meters:        meters,
		history:       history,
	}
}

// ConfigureWatchDirectory sets the directory to monitor. Takes effect on the
// next StartMonitoring.
func (b *BackOffice) ConfigureWatchDirectory(dir string) {
	b.watcher.SetDirectory(dir)
}

// StartMonitoring starts the upload watcher. A no-op when already running.
func (b *BackOffice) StartMonitoring() error {
	return b.watcher.Start()
}

// StopMonitoring stops the upload watcher and waits for the in-flight file.
func (b *BackOffice) StopMonitoring() {
	b.watcher.Stop()
}

// MonitoringActive reports whether the watcher is running.
func (b *BackOffice) MonitoringActive() bool {
	return b.watcher.Running()
}

// Meter returns the registered meter for an identifier, or nil when no such
// meter exists.
func (b *BackOffice) Meter(ctx context.Context, identifier string) (*db.Meter, error) {
	return b.meters.FindByIdentifier(ctx, identifier)
}

// MeterConsumption computes consumption for one meter and period kind given
// as user input ("daily", "weekly", "monthly", "annual").
func (b *BackOffice) MeterConsumption(ctx context.Context, meterID, periodKind string) (consumption.Result, error) {
	kind, err := consumption.ParsePeriodKind(periodKind)
	if err != nil {
		return consumption.Result{}, err
	}
	return b.calculator.ForMeter(ctx, meterID, kind)
}

// MeterConsumptionAllPeriods computes consumption for one meter across every
// supported period.
func (b *BackOffice) MeterConsumptionAllPeriods(ctx context.Context, meterID string) (map[consumption.PeriodKind]consumption.Result, error) {
	return b.calculator.ForMeterAllPeriods(ctx, meterID)
}

// CustomerConsumption computes the aggregate over every meter the customer
// owns.
func (b *BackOffice) CustomerConsumption(ctx context.Context, customerID uuid.UUID, periodKind string) (consumption.Result, error) {
	kind, err := consumption.ParsePeriodKind(periodKind)
	if err != nil {
		return consumption.Result{}, err
	}
	return b.calculator.ForCustomer(ctx, customerID, kind)
}

// CustomerConsumptionAllPeriods computes the customer aggregate across every
// supported period.
func (b *BackOffice) CustomerConsumptionAllPeriods(ctx context.Context, customerID uuid.UUID) (map[consumption.PeriodKind]consumption.Result, error) {
	return b.calculator.ForCustomerAllPeriods(ctx, customerID)
}

// ComparePeriods computes two period figures for a meter and their signed
// difference.
func (b *BackOffice) ComparePeriods(ctx context.Context, meterID, firstKind, secondKind string) (consumption.Comparison, error) {
	first, err := consumption.ParsePeriodKind(firstKind)
	if err != nil {
		return consumption.Comparison{}, err
	}
	second, err := consumption.ParsePeriodKind(secondKind)
	if err != nil {
		return consumption.Comparison{}, err
	}
	return b.calculator.Compare(ctx, meterID, first, second)
}

// ConfigureThreshold upserts a meter's alert policy. alertPercent 0 falls
// back to the configured default.
func (b *BackOffice) ConfigureThreshold(ctx context.Context, meterID string, monthlyLimit int64, alertPercent int) (*db.ThresholdConfig, error) {
	return b.notifications.ConfigureLimit(ctx, meterID, monthlyLimit, alertPercent)
}

// Threshold returns the current alert policy for a meter.
func (b *BackOffice) Threshold(ctx context.Context, meterID string) (*db.ThresholdConfig, error) {
	return b.notifications.Config(ctx, meterID)
}

// EnableAlerts turns alerts on for a meter. Idempotent.
func (b *BackOffice) EnableAlerts(ctx context.Context, meterID string) error {
	return b.notifications.Enable(ctx, meterID)
}

// DisableAlerts turns alerts off for a meter. Idempotent.
func (b *BackOffice) DisableAlerts(ctx context.Context, meterID string) error {
	return b.notifications.Disable(ctx, meterID)
}

// CheckAndNotify triggers an on-demand threshold evaluation for a meter.
func (b *BackOffice) CheckAndNotify(ctx context.Context, meterID string) error {
	return b.notifications.CheckAndNotify(ctx, meterID)
}

// NotificationsByMeter lists the alert history for one meter, newest first.
func (b *BackOffice) NotificationsByMeter(ctx context.Context, meterID string) ([]db.NotificationRecord, error) {
	return b.history.ListByMeter(ctx, meterID)
}

// NotificationsByCustomer lists the alert history across every meter a
// customer owns, newest first.
func (b *BackOffice) NotificationsByCustomer(ctx context.Context, customerID uuid.UUID) ([]db.NotificationRecord, error) {
	return b.history.ListByCustomer(ctx, customerID)
}
