package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hidrotec/water-metering-worker/internal/consumption"
	"github.com/hidrotec/water-metering-worker/internal/db"
)

type fakeConfigs struct {
	cfg   *db.ThresholdConfig
	saved []*db.ThresholdConfig
}

func (f *fakeConfigs) Find(ctx context.Context, meterID string) (*db.ThresholdConfig, error) {
	return f.cfg, nil
}

func (f *fakeConfigs) Save(ctx context.Context, cfg *db.ThresholdConfig) error {
	f.cfg = cfg
	f.saved = append(f.saved, cfg)
	return nil
}

type fakeHistory struct {
	sentToday *db.NotificationRecord
	saved     []*db.NotificationRecord
}

func (f *fakeHistory) FindSentOn(ctx context.Context, meterID string, date time.Time) (*db.NotificationRecord, error) {
	return f.sentToday, nil
}

func (f *fakeHistory) Save(ctx context.Context, record *db.NotificationRecord) error {
	f.saved = append(f.saved, record)
	if record.Status == db.NotificationSent {
		f.sentToday = record
	}
	return nil
}

type fakeDirectory struct {
	exists bool
	email  string
}

func (f *fakeDirectory) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	return f.exists, nil
}

func (f *fakeDirectory) OwnerEmail(ctx context.Context, identifier string) (string, error) {
	return f.email, nil
}

type fakeConsumption struct {
	value int64
}

func (f *fakeConsumption) ForMeter(ctx context.Context, meterID string, kind consumption.PeriodKind) (consumption.Result, error) {
	return consumption.Result{SubjectKey: meterID, Value: f.value}, nil
}

type fakeSender struct {
	err  error
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, address, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, address)
	return nil
}

func newTestService(configs *fakeConfigs, history *fakeHistory, directory *fakeDirectory, monthly int64, sender *fakeSender) *Service {
	svc := NewService(
		configs,
		history,
		directory,
		&fakeConsumption{value: monthly},
		sender,
		nil,
		70,
		zap.NewNop(),
	)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func enabledConfig(limit int64, percent int) *db.ThresholdConfig {
	return &db.ThresholdConfig{
		MeterIdentifier: "HM001",
		MonthlyLimit:    limit,
		AlertPercent:    percent,
		Enabled:         true,
	}
}

func TestCheckAndNotify_SendsAboveThreshold(t *testing.T) {
	configs := &fakeConfigs{cfg: enabledConfig(100, 70)}
	history := &fakeHistory{}
	sender := &fakeSender{}
	svc := newTestService(configs, history, &fakeDirectory{email: "owner@example.com"}, 75, sender)

	if err := svc.CheckAndNotify(context.Background(), "HM001"); err != nil {
		t.Fatalf("CheckAndNotify returned error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("Expected 1 email, got %d", len(sender.sent))
	}
	if len(history.saved) != 1 {
		t.Fatalf("Expected 1 history record, got %d", len(history.saved))
	}

	record := history.saved[0]
	if record.Status != db.NotificationSent {
		t.Errorf("Expected status %s, got %s", db.NotificationSent, record.Status)
	}
	if record.PercentReached != 75 {
		t.Errorf("Expected percent 75, got %d", record.PercentReached)
	}
	if record.Detail == "" {
		t.Error("Expected a human-readable detail")
	}
}

func TestCheckAndNotify_SameDayDedup(t *testing.T) {
	configs := &fakeConfigs{cfg: enabledConfig(100, 70)}
	history := &fakeHistory{}
	sender := &fakeSender{}
	svc := newTestService(configs, history, &fakeDirectory{email: "owner@example.com"}, 75, sender)

	if err := svc.CheckAndNotify(context.Background(), "HM001"); err != nil {
		t.Fatalf("First CheckAndNotify returned error: %v", err)
	}
	if err := svc.CheckAndNotify(context.Background(), "HM001"); err != nil {
		t.Fatalf("Second CheckAndNotify returned error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Errorf("Expected exactly 1 email for the day, got %d", len(sender.sent))
	}
	if len(history.saved) != 1 {
		t.Errorf("Expected exactly 1 history record, got %d", len(history.saved))
	}
}

func TestCheckAndNotify_BelowThreshold(t *testing.T) {
	configs := &fakeConfigs{cfg: enabledConfig(100, 70)}
	history := &fakeHistory{}
	sender := &fakeSender{}
	svc := newTestService(configs, history, &fakeDirectory{email: "owner@example.com"}, 69, sender)

	if err := svc.CheckAndNotify(context.Background(), "HM001"); err != nil {
		t.Fatalf("CheckAndNotify returned error: %v", err)
	}

	if len(sender.sent) != 0 || len(history.saved) != 0 {
		t.Error("Expected no alert below the configured percent")
	}
}

func TestCheckAndNotify_ExactBoundaryNotifies(t *testing.T) {
	configs := &fakeConfigs{cfg: enabledConfig(100, 70)}
	history := &fakeHistory{}
	sender := &fakeSender{}
	svc := newTestService(configs, history, &fakeDirectory{email: "owner@example.com"}, 70, sender)

	if err := svc.CheckAndNotify(context.Background(), "HM001"); err != nil {
		t.Fatalf("CheckAndNotify returned error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Error("Expected an alert when percent reached equals the configured percent")
	}
}

func TestCheckAndNotify_FloorDivision(t *testing.T) {
	// 209 * 100 / 300 = 69.66 floors to 69, below the 70% trigger.
	configs := &fakeConfigs{cfg: enabledConfig(300, 70)}
	history := &fakeHistory{}
	sender := &fakeSender{}
	svc := newTestService(configs, history, &fakeDirectory{email: "owner@example.com"}, 209, sender)

	if err := svc.CheckAndNotify(context.Background(), "HM001"); err != nil {
		t.Fatalf("CheckAndNotify returned error: %v", err)
	}

	if len(sender.sent) != 0 {
		t.Error("Expected floored percent 69 to stay below the 70% trigger")
	}
}

func TestCheckAndNotify_MissingConfigIsSilent(t *testing.T) {
	svc := newTestService(&fakeConfigs{}, &fakeHistory{}, &fakeDirectory{email: "owner@example.com"}, 999, &fakeSender{})

	if err := svc.CheckAndNotify(context.Background(), "HM001"); err != nil {
		t.Errorf("Expected silent no-op without config, got error: %v", err)
	}
}

func TestCheckAndNotify_DisabledConfigIsSilent(t *testing.T) {
	cfg := enabledConfig(100, 70)
	cfg.Enabled = false
	history := &fakeHistory{}
	sender := &fakeSender{}
	svc := newTestService(&fakeConfigs{cfg: cfg}, history, &fakeDirectory{email: "owner@example.com"}, 999, sender)

	if err := svc.CheckAndNotify(context.Background(), "HM001"); err != nil {
		t.Fatalf("CheckAndNotify returned error: %v", err)
	}
	if len(sender.sent) != 0 || len(history.saved) != 0 {
		t.Error("Expected disabled config to suppress alerts")
	}
}

func TestCheckAndNotify_SendFailureRecordedAsFailed(t *testing.T) {
	configs := &fakeConfigs{cfg: enabledConfig(100, 70)}
	history := &fakeHistory{}
	sender := &fakeSender{err: errors.New("relay unavailable")}
	svc := newTestService(configs, history, &fakeDirectory{email: "owner@example.com"}, 80, sender)

	if err := svc.CheckAndNotify(context.Background(), "HM001"); err != nil {
		t.Fatalf("Expected send failure to be swallowed, got error: %v", err)
	}

	if len(history.saved) != 1 {
		t.Fatalf("Expected 1 history record, got %d", len(history.saved))
	}
	record := history.saved[0]
	if record.Status != db.NotificationFailed {
		t.Errorf("Expected status %s, got %s", db.NotificationFailed, record.Status)
	}
	if !strings.Contains(record.Detail, "relay unavailable") {
		t.Errorf("Expected failure detail, got %q", record.Detail)
	}
}

func TestConfigureLimit_DefaultsPercent(t *testing.T) {
	configs := &fakeConfigs{}
	svc := newTestService(configs, &fakeHistory{}, &fakeDirectory{exists: true}, 0, &fakeSender{})

	cfg, err := svc.ConfigureLimit(context.Background(), "HM001", 500, 0)
	if err != nil {
		t.Fatalf("ConfigureLimit returned error: %v", err)
	}

	if cfg.AlertPercent != 70 {
		t.Errorf("Expected default percent 70, got %d", cfg.AlertPercent)
	}
	if !cfg.Enabled {
		t.Error("Expected config to be enabled")
	}
}

func TestConfigureLimit_UnknownMeter(t *testing.T) {
	svc := newTestService(&fakeConfigs{}, &fakeHistory{}, &fakeDirectory{exists: false}, 0, &fakeSender{})

	_, err := svc.ConfigureLimit(context.Background(), "NOPE", 500, 70)
	if !errors.Is(err, ErrMeterNotFound) {
		t.Errorf("Expected ErrMeterNotFound, got %v", err)
	}
}

func TestConfigureLimit_InvalidValues(t *testing.T) {
	svc := newTestService(&fakeConfigs{}, &fakeHistory{}, &fakeDirectory{exists: true}, 0, &fakeSender{})

	if _, err := svc.ConfigureLimit(context.Background(), "HM001", 0, 70); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("Expected ErrInvalidThreshold for zero limit, got %v", err)
	}
	if _, err := svc.ConfigureLimit(context.Background(), "HM001", 100, 150); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("Expected ErrInvalidThreshold for percent over 100, got %v", err)
	}
}

func TestEnableDisable_Idempotent(t *testing.T) {
	configs := &fakeConfigs{cfg: enabledConfig(100, 70)}
	svc := newTestService(configs, &fakeHistory{}, &fakeDirectory{exists: true}, 0, &fakeSender{})

	if err := svc.Disable(context.Background(), "HM001"); err != nil {
		t.Fatalf("Disable returned error: %v", err)
	}
	if configs.cfg.Enabled {
		t.Error("Expected config disabled")
	}
	saves := len(configs.saved)

	// Disabling again must not write.
	if err := svc.Disable(context.Background(), "HM001"); err != nil {
		t.Fatalf("Second Disable returned error: %v", err)
	}
	if len(configs.saved) != saves {
		t.Error("Expected idempotent disable to skip the save")
	}

	if err := svc.Enable(context.Background(), "HM001"); err != nil {
		t.Fatalf("Enable returned error: %v", err)
	}
	if !configs.cfg.Enabled {
		t.Error("Expected config re-enabled")
	}
}

func TestDisable_NoConfigIsNoOp(t *testing.T) {
	svc := newTestService(&fakeConfigs{}, &fakeHistory{}, &fakeDirectory{exists: true}, 0, &fakeSender{})

	if err := svc.Disable(context.Background(), "HM001"); err != nil {
		t.Errorf("Expected no-op without config, got error: %v", err)
	}
}

func TestConfig_MissingReturnsTypedError(t *testing.T) {
	svc := newTestService(&fakeConfigs{}, &fakeHistory{}, &fakeDirectory{exists: true}, 0, &fakeSender{})

	if _, err := svc.Config(context.Background(), "HM001"); !errors.Is(err, ErrNoThresholdConfig) {
		t.Errorf("Expected ErrNoThresholdConfig, got %v", err)
	}
}
