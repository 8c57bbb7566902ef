package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hidrotec/water-metering-worker/internal/config"
)

func main() {
	// Load .env if present; system environment wins in containers.
	envPaths := []string{".env"}
	if workDir, err := os.Getwd(); err == nil {
		envPaths = append(envPaths,
			filepath.Join(filepath.Dir(workDir), ".env"),
		)
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err == nil {
				absPath, _ := filepath.Abs(envPath)
				fmt.Printf("Loaded environment from: %s\n", absPath)
				break
			}
		}
	}

	app := fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			ProvideDBPool,
			ProvideMQConnection,
			ProvidePublisher,
			ProvideReadingRepository,
			ProvideMeterRepository,
			ProvideThresholdRepository,
			ProvideNotificationRepository,
			ProvideSession,
			ProvideRecognitionAdapter,
			ProvideCalculator,
			ProvideNotificationService,
			ProvideIngestService,
			ProvideWatcher,
			ProvideBackOffice,
		),
		fx.Invoke(startWorker),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	if err := app.Start(startCtx); err != nil {
		tempLogger, _ := newLogger(&config.Config{ServiceName: "water-metering-worker"})
		if tempLogger != nil {
			tempLogger.Error("application failed to start", zap.Error(err))
		}
		os.Exit(1)
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Println("error stopping app:", err)
	}
}
