package ingest

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hidrotec/water-metering-worker/internal/auth"
	"github.com/hidrotec/water-metering-worker/internal/db"
	"github.com/hidrotec/water-metering-worker/internal/logging"
	"github.com/hidrotec/water-metering-worker/internal/recognition"
)

// MeterRegistry answers whether a candidate identifier is a registered meter.
type MeterRegistry interface {
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
}

// ReadingStore persists readings and exposes the current maximum per meter.
type ReadingStore interface {
	MaxValueFor(ctx context.Context, meterID string) (int64, bool, error)
	Save(ctx context.Context, reading *db.MeterReading) error
}

// EventPublisher announces accepted readings to downstream consumers.
type EventPublisher interface {
	PublishReadingAccepted(ctx context.Context, reading *db.MeterReading) error
}

// AlertChecker evaluates a meter's threshold after a reading lands.
type AlertChecker interface {
	CheckAndNotify(ctx context.Context, meterID string) error
}

// Service turns an uploaded meter photo into a persisted reading. Every
// validation failure is a benign per-file skip: the file is logged and
// dropped, and processing of other files is unaffected.
type Service struct {
	auth      auth.Context
	registry  MeterRegistry
	readings  ReadingStore
	adapter   *recognition.Adapter
	publisher EventPublisher
	alerts    AlertChecker
	logger    *zap.Logger

	decode func(path string) (image.Image, error)
	now    func() time.Time
}

// NewService creates an ingestion service. publisher and alerts may be nil.
func NewService(
	auth auth.Context,
	registry MeterRegistry,
	readings ReadingStore,
	adapter *recognition.Adapter,
	publisher EventPublisher,
	alerts AlertChecker,
	logger *zap.Logger,
) *Service {
	return &Service{
		auth:      auth,
		registry:  registry,
		readings:  readings,
		adapter:   adapter,
		publisher: publisher,
		alerts:    alerts,
		logger:    logger,
		decode:    recognition.DecodeImage,
		now:       time.Now,
	}
}

// Ingest processes one uploaded image file. A nil return means the file was
// either registered or skipped for a benign reason; a non-nil return means a
// backing store failed and the caller may log and move on.
func (s *Service) Ingest(ctx context.Context, imagePath string) error {
	fileLogger := logging.WithFile(s.logger, imagePath)
	fileLogger.Info("processing meter image")

	if !s.auth.IsAuthenticated() {
		fileLogger.Warn("operator not authenticated, reading not registered")
		return nil
	}

	meterID := s.adapter.ExtractMeterID(filepath.Base(imagePath))
	known, err := s.registry.ExistsByIdentifier(ctx, meterID)
	if err != nil {
		return fmt.Errorf("failed to check meter registry: %w", err)
	}
	if !known {
		// Expected for stray uploads; not a fault.
		fileLogger.Info("identifier not registered, skipping",
			zap.String("meter", meterID))
		return nil
	}

	img, err := s.decode(imagePath)
	if err != nil {
		fileLogger.Warn("image could not be decoded, skipping", zap.Error(err))
		return nil
	}

	value, ok := s.adapter.TryExtractValue(img)
	if !ok {
		fileLogger.Warn("no reading value recognized, skipping",
			zap.String("meter", meterID))
		return nil
	}

	currentMax, hasPrevious, err := s.readings.MaxValueFor(ctx, meterID)
	if err != nil {
		return fmt.Errorf("failed to fetch current max reading: %w", err)
	}
	if hasPrevious && value <= currentMax {
		// Cumulative index must strictly increase.
		fileLogger.Warn("non-monotonic reading rejected",
			zap.String("meter", meterID),
			zap.Int64("value", value),
			zap.Int64("current_max", currentMax))
		return nil
	}

	reading := &db.MeterReading{
		MeterIdentifier: meterID,
		Value:           value,
		CapturedAt:      s.now(),
		DeviceType:      s.adapter.DetermineDeviceType(img),
	}

	if err := s.readings.Save(ctx, reading); err != nil {
		return fmt.Errorf("failed to persist reading: %w", err)
	}

	fileLogger.Info("reading registered",
		zap.String("meter", meterID),
		zap.Int64("value", value),
		zap.String("device_type", reading.DeviceType))

	if s.publisher != nil {
		if err := s.publisher.PublishReadingAccepted(ctx, reading); err != nil {
			fileLogger.Error("failed to publish reading event", zap.Error(err))
		}
	}

	// Threshold evaluation is best-effort after each accepted reading.
	if s.alerts != nil {
		if err := s.alerts.CheckAndNotify(ctx, meterID); err != nil {
			fileLogger.Error("threshold check failed", zap.Error(err),
				zap.String("meter", meterID))
		}
	}

	return nil
}
