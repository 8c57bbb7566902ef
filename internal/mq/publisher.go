package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/hidrotec/water-metering-worker/internal/db"
)

// Publisher announces pipeline outcomes on a topic exchange: accepted
// readings and sent consumption alerts.
type Publisher struct {
	conn              *Connection
	channel           *amqp.Channel
	exchange          string
	readingRoutingKey string
	alertRoutingKey   string
	logger            *zap.Logger
}

// NewPublisher creates a publisher and declares the events exchange.
func NewPublisher(conn *Connection, exchange, readingRoutingKey, alertRoutingKey string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:              conn,
		channel:           ch,
		exchange:          exchange,
		readingRoutingKey: readingRoutingKey,
		alertRoutingKey:   alertRoutingKey,
		logger:            logger,
	}, nil
}

// ReadingAcceptedEvent is published after a reading passes validation and is
// persisted.
type ReadingAcceptedEvent struct {
	MeterIdentifier string `json:"meter_identifier"`
	Value           int64  `json:"value"`
	CapturedAt      string `json:"captured_at"`
	DeviceType      string `json:"device_type"`
}

// ConsumptionAlertEvent is published after an alert is sent.
type ConsumptionAlertEvent struct {
	MeterIdentifier string `json:"meter_identifier"`
	Consumption     int64  `json:"consumption"`
	ConfiguredLimit int64  `json:"configured_limit"`
	PercentReached  int    `json:"percent_reached"`
	EventDate       string `json:"event_date"`
}

// PublishReadingAccepted publishes a reading-accepted event.
func (p *Publisher) PublishReadingAccepted(ctx context.Context, reading *db.MeterReading) error {
	event := ReadingAcceptedEvent{
		MeterIdentifier: reading.MeterIdentifier,
		Value:           reading.Value,
		CapturedAt:      reading.CapturedAt.Format(time.RFC3339),
		DeviceType:      reading.DeviceType,
	}
	return p.publish(ctx, p.readingRoutingKey, event)
}

// PublishConsumptionAlert publishes a consumption-alert event.
func (p *Publisher) PublishConsumptionAlert(ctx context.Context, record *db.NotificationRecord) error {
	event := ConsumptionAlertEvent{
		MeterIdentifier: record.MeterIdentifier,
		Consumption:     record.Consumption,
		ConfiguredLimit: record.ConfiguredLimit,
		PercentReached:  record.PercentReached,
		EventDate:       record.EventDate.Format("2006-01-02"),
	}
	return p.publish(ctx, p.alertRoutingKey, event)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published event", zap.String("routing_key", routingKey))
	return nil
}

// Close closes the publisher channel.
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
