package main

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hidrotec/water-metering-worker/internal/auth"
	"github.com/hidrotec/water-metering-worker/internal/config"
	"github.com/hidrotec/water-metering-worker/internal/consumption"
	"github.com/hidrotec/water-metering-worker/internal/db"
	"github.com/hidrotec/water-metering-worker/internal/ingest"
	"github.com/hidrotec/water-metering-worker/internal/mq"
	"github.com/hidrotec/water-metering-worker/internal/notification"
	"github.com/hidrotec/water-metering-worker/internal/recognition"
	"github.com/hidrotec/water-metering-worker/internal/repository"
	"github.com/hidrotec/water-metering-worker/internal/service"
	"github.com/hidrotec/water-metering-worker/internal/watcher"
)

// startWorker wires monitoring into the application lifecycle through the
// back-office surface. The configured operator identity is logged in so the
// headless worker passes the ingestion auth gate; an unset directory leaves
// monitoring stopped until the back office configures one.
func startWorker(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger *zap.Logger,
	session *auth.Session,
	back *service.BackOffice,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Watch.Operator != "" {
				session.Login(cfg.Watch.Operator)
			}
			if cfg.Watch.Directory != "" {
				back.ConfigureWatchDirectory(cfg.Watch.Directory)
			}
			return back.StartMonitoring()
		},
		OnStop: func(ctx context.Context) error {
			back.StopMonitoring()
			session.Logout()
			logger.Info("worker stopped gracefully")
			return nil
		},
	})
}

// ProvideDBPool creates the database pool
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL)
}

// ProvideMQConnection creates the RabbitMQ connection
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates the events publisher
func ProvidePublisher(conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	return mq.NewPublisher(conn,
		cfg.RabbitMQ.EventsExchange,
		cfg.RabbitMQ.ReadingRoutingKey,
		cfg.RabbitMQ.AlertRoutingKey,
		logger)
}

// ProvideReadingRepository creates the reading repository
func ProvideReadingRepository(pool *db.Pool) *repository.ReadingRepository {
	return repository.NewReadingRepository(pool)
}

// ProvideMeterRepository creates the meter registry repository
func ProvideMeterRepository(pool *db.Pool) *repository.MeterRepository {
	return repository.NewMeterRepository(pool)
}

// ProvideThresholdRepository creates the threshold config repository
func ProvideThresholdRepository(pool *db.Pool) *repository.ThresholdRepository {
	return repository.NewThresholdRepository(pool)
}

// ProvideNotificationRepository creates the notification history repository
func ProvideNotificationRepository(pool *db.Pool) *repository.NotificationRepository {
	return repository.NewNotificationRepository(pool)
}

// ProvideSession creates the operator session gate
func ProvideSession() *auth.Session {
	return auth.NewSession()
}

// ProvideRecognitionAdapter builds the strategy chain over the tesseract
// recognizer. Owner devices take priority over collaborator devices.
func ProvideRecognitionAdapter(cfg *config.Config) *recognition.Adapter {
	recognizer := recognition.NewTesseractRecognizer(
		cfg.OCR.TesseractBinary,
		time.Duration(cfg.OCR.TimeoutSeconds)*time.Second,
	)
	return recognition.NewAdapter(
		recognition.NewOwnerStrategy(recognizer),
		recognition.NewCollaboratorStrategy(recognizer),
	)
}

// ProvideCalculator creates the consumption calculator
func ProvideCalculator(readings *repository.ReadingRepository, meters *repository.MeterRepository) *consumption.Calculator {
	return consumption.NewCalculator(readings, meters)
}

// ProvideNotificationService creates the threshold alert service
func ProvideNotificationService(
	thresholds *repository.ThresholdRepository,
	notifications *repository.NotificationRepository,
	meters *repository.MeterRepository,
	calculator *consumption.Calculator,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *notification.Service {
	return notification.NewService(
		thresholds,
		notifications,
		meters,
		calculator,
		notification.NewLogSender(logger),
		publisher,
		cfg.Alert.DefaultPercent,
		logger,
	)
}

// ProvideIngestService creates the reading ingestion service
func ProvideIngestService(
	session *auth.Session,
	meters *repository.MeterRepository,
	readings *repository.ReadingRepository,
	adapter *recognition.Adapter,
	publisher *mq.Publisher,
	alerts *notification.Service,
	logger *zap.Logger,
) *ingest.Service {
	return ingest.NewService(session, meters, readings, adapter, publisher, alerts, logger)
}

// ProvideWatcher creates the upload directory watcher
func ProvideWatcher(svc *ingest.Service, cfg *config.Config, logger *zap.Logger) *watcher.Watcher {
	return watcher.New(
		logger,
		svc.Ingest,
		time.Duration(cfg.Watch.SettleDelayMS)*time.Millisecond,
	)
}

// ProvideBackOffice creates the front-end façade
func ProvideBackOffice(
	w *watcher.Watcher,
	calculator *consumption.Calculator,
	notifications *notification.Service,
	meters *repository.MeterRepository,
	history *repository.NotificationRepository,
) *service.BackOffice {
	return service.NewBackOffice(w, calculator, notifications, meters, history)
}
