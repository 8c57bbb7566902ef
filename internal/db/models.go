package db

import (
	"time"

	"github.com/google/uuid"
)

// Device type tags reported by the recognition strategies.
const (
	DeviceOwner        = "OWNER"
	DeviceCollaborator = "COLLABORATOR"
	DeviceUnknown      = "UNKNOWN"
)

// Notification delivery statuses.
const (
	NotificationSent   = "SENT"
	NotificationFailed = "FAILED"
)

// Customer represents a registered account holder
type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}

// Meter represents a registered water meter
type Meter struct {
	ID         uuid.UUID
	Identifier string
	CustomerID uuid.UUID
	CreatedAt  time.Time
}

// MeterReading represents a persisted cumulative meter index.
// Readings are immutable once stored and never deleted by this worker.
type MeterReading struct {
	ID              uuid.UUID
	MeterIdentifier string
	Value           int64
	CapturedAt      time.Time
	DeviceType      string
}

// ThresholdConfig represents the per-meter alert policy
type ThresholdConfig struct {
	MeterIdentifier string
	MonthlyLimit    int64
	AlertPercent    int
	Enabled         bool
	UpdatedAt       time.Time
}

// NotificationRecord represents one alert attempt. Append-only; at most one
// SENT record exists per (meter, event date).
type NotificationRecord struct {
	ID               uuid.UUID
	MeterIdentifier  string
	RecipientAddress string
	Consumption      int64
	ConfiguredLimit  int64
	PercentReached   int
	SentAt           time.Time
	EventDate        time.Time
	Status           string
	Detail           string
}
