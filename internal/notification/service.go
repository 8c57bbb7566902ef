package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hidrotec/water-metering-worker/internal/consumption"
	"github.com/hidrotec/water-metering-worker/internal/db"
	"github.com/hidrotec/water-metering-worker/internal/logging"
)

// Typed errors for caller mistakes. These are reported, not retried.
var (
	ErrMeterNotFound     = errors.New("meter not found")
	ErrNoThresholdConfig = errors.New("no threshold config for meter")
	ErrInvalidThreshold  = errors.New("invalid threshold config")
)

// ConfigStore persists per-meter threshold configs.
type ConfigStore interface {
	Find(ctx context.Context, meterID string) (*db.ThresholdConfig, error)
	Save(ctx context.Context, cfg *db.ThresholdConfig) error
}

// HistoryStore persists the append-only notification history.
type HistoryStore interface {
	FindSentOn(ctx context.Context, meterID string, date time.Time) (*db.NotificationRecord, error)
	Save(ctx context.Context, record *db.NotificationRecord) error
}

// MeterDirectory resolves registered meters and their owner's address.
type MeterDirectory interface {
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	OwnerEmail(ctx context.Context, identifier string) (string, error)
}

// ConsumptionSource computes the current monthly consumption for a meter.
type ConsumptionSource interface {
	ForMeter(ctx context.Context, meterID string, kind consumption.PeriodKind) (consumption.Result, error)
}

// AlertPublisher announces sent alerts to downstream consumers.
type AlertPublisher interface {
	PublishConsumptionAlert(ctx context.Context, record *db.NotificationRecord) error
}

// Service evaluates monthly consumption against per-meter limits and sends
// at most one alert per meter per calendar day.
type Service struct {
	configs     ConfigStore
	history     HistoryStore
	meters      MeterDirectory
	consumption ConsumptionSource
	sender      EmailSender
	publisher   AlertPublisher
	logger      *zap.Logger

	defaultPercent int
	now            func() time.Time
}

// NewService creates a notification service. publisher may be nil.
func NewService(
	configs ConfigStore,
	history HistoryStore,
	meters MeterDirectory,
	consumptionSource ConsumptionSource,
	sender EmailSender,
	publisher AlertPublisher,
	defaultPercent int,
	logger *zap.Logger,
) *Service {
	if defaultPercent <= 0 || defaultPercent > 100 {
		defaultPercent = 70
	}
	return &Service{
		configs:        configs,
		history:        history,
		meters:         meters,
		consumption:    consumptionSource,
		sender:         sender,
		publisher:      publisher,
		logger:         logger,
		defaultPercent: defaultPercent,
		now:            time.Now,
	}
}

// ConfigureLimit upserts the threshold config for a meter. alertPercent 0
// means unspecified and falls back to the default. The config is always
// re-enabled.
func (s *Service) ConfigureLimit(ctx context.Context, meterID string, monthlyLimit int64, alertPercent int) (*db.ThresholdConfig, error) {
	known, err := s.meters.ExistsByIdentifier(ctx, meterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check meter registry: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrMeterNotFound, meterID)
	}

	if monthlyLimit <= 0 {
		return nil, fmt.Errorf("%w: monthly limit must be positive, got %d", ErrInvalidThreshold, monthlyLimit)
	}
	if alertPercent == 0 {
		alertPercent = s.defaultPercent
	}
	if alertPercent < 0 || alertPercent > 100 {
		return nil, fmt.Errorf("%w: alert percent must be in (0,100], got %d", ErrInvalidThreshold, alertPercent)
	}

	cfg := &db.ThresholdConfig{
		MeterIdentifier: meterID,
		MonthlyLimit:    monthlyLimit,
		AlertPercent:    alertPercent,
		Enabled:         true,
	}
	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("threshold configured",
		zap.String("meter", meterID),
		zap.Int64("monthly_limit", monthlyLimit),
		zap.Int("alert_percent", alertPercent))
	return cfg, nil
}

// Config returns the threshold config for a meter.
func (s *Service) Config(ctx context.Context, meterID string) (*db.ThresholdConfig, error) {
	cfg, err := s.configs.Find(ctx, meterID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoThresholdConfig, meterID)
	}
	return cfg, nil
}

// CheckAndNotify evaluates the meter's monthly consumption against its
// configured limit. Missing or disabled config is a silent no-op. At most
// one alert is sent per meter per calendar day; a delivery failure is
// recorded as FAILED and does not surface as an error.
func (s *Service) CheckAndNotify(ctx context.Context, meterID string) error {
	logger := logging.WithMeter(s.logger, meterID)

	cfg, err := s.configs.Find(ctx, meterID)
	if err != nil {
		return fmt.Errorf("failed to load threshold config: %w", err)
	}
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	result, err := s.consumption.ForMeter(ctx, meterID, consumption.PeriodMonthly)
	if err != nil {
		return fmt.Errorf("failed to compute monthly consumption: %w", err)
	}

	percentReached := int(result.Value * 100 / cfg.MonthlyLimit)
	if percentReached < cfg.AlertPercent {
		return nil
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	already, err := s.history.FindSentOn(ctx, meterID, today)
	if err != nil {
		return fmt.Errorf("failed to check notification history: %w", err)
	}
	if already != nil {
		return nil
	}

	address, err := s.meters.OwnerEmail(ctx, meterID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if address == "" {
		logger.Warn("no recipient address for meter, alert skipped")
		return nil
	}

	record := &db.NotificationRecord{
		MeterIdentifier:  meterID,
		RecipientAddress: address,
		Consumption:      result.Value,
		ConfiguredLimit:  cfg.MonthlyLimit,
		PercentReached:   percentReached,
		SentAt:           now,
		EventDate:        today,
	}

	subject := "Water consumption alert"
	body := fmt.Sprintf("Monthly consumption of %d m3 reached %d%% of the configured limit of %d m3.",
		result.Value, percentReached, cfg.MonthlyLimit)

	if sendErr := s.sender.Send(ctx, address, subject, body); sendErr != nil {
		record.Status = db.NotificationFailed
		record.Detail = fmt.Sprintf("send failed: %v", sendErr)
		logger.Error("alert delivery failed", zap.Error(sendErr))
	} else {
		record.Status = db.NotificationSent
		record.Detail = fmt.Sprintf("alert sent to %s: %s", address, body)
		logger.Info("consumption alert sent",
			zap.Int("percent_reached", percentReached))
	}

	if err := s.history.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	if record.Status == db.NotificationSent && s.publisher != nil {
		if err := s.publisher.PublishConsumptionAlert(ctx, record); err != nil {
			logger.Error("failed to publish alert event", zap.Error(err))
		}
	}

	return nil
}

// Disable turns alerts off for a meter. Disabling an already-disabled
// config, or a meter without one, is a no-op.
func (s *Service) Disable(ctx context.Context, meterID string) error {
	return s.setEnabled(ctx, meterID, false)
}

// Enable turns alerts back on for a meter. Idempotent.
func (s *Service) Enable(ctx context.Context, meterID string) error {
	return s.setEnabled(ctx, meterID, true)
}

func (s *Service) setEnabled(ctx context.Context, meterID string, enabled bool) error {
	known, err := s.meters.ExistsByIdentifier(ctx, meterID)
	if err != nil {
		return fmt.Errorf("failed to check meter registry: %w", err)
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrMeterNotFound, meterID)
	}

	cfg, err := s.configs.Find(ctx, meterID)
	if err != nil {
		return fmt.Errorf("failed to load threshold config: %w", err)
	}
	if cfg == nil || cfg.Enabled == enabled {
		return nil
	}

	cfg.Enabled = enabled
	return s.configs.Save(ctx, cfg)
}
