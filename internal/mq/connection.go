package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Connection wraps the RabbitMQ connection and ties its lifetime to the fx
// lifecycle.
type Connection struct {
	conn *amqp.Connection
}

// NewConnection dials RabbitMQ and registers close on shutdown.
func NewConnection(lc fx.Lifecycle, logger *zap.Logger, url string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		logger.Error("rabbitmq connection failed", zap.Error(err))
		return nil, fmt.Errorf("[RABBITMQ] cannot connect: %w", err)
	}

	mqConn := &Connection{conn: conn}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("rabbitmq connection established")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := conn.Close(); err != nil {
				logger.Error("failed to close rabbitmq connection", zap.Error(err))
				return err
			}
			logger.Info("rabbitmq connection closed")
			return nil
		},
	})

	return mqConn, nil
}

// Channel opens a new RabbitMQ channel.
func (c *Connection) Channel() (*amqp.Channel, error) {
	return c.conn.Channel()
}
