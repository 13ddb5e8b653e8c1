package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrClientClosed is returned once Close has been called.
var ErrClientClosed = errors.New("rabbitmq client is closed")

// Config holds RabbitMQ connection configuration
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	VHost       string
	Heartbeat   time.Duration
	DialTimeout time.Duration
}

// Client manages a single logical connection and channel to RabbitMQ.
// Both handles are established lazily by Channel; a broker-side close or
// error clears the cached pair so the next caller redials. Reconnect
// attempts are serialized by the client mutex. Dial errors are surfaced to
// the caller, never retried here - retry policy belongs to the caller.
type Client struct {
	config *Config
	logger *slog.Logger
	dial   func(url string, config amqp.Config) (*amqp.Connection, error)

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// NewClient creates a new RabbitMQ client. No connection is made until the
// first call that needs a channel.
func NewClient(config *Config, logger *slog.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
		dial:   amqp.DialConfig,
	}
}

func (c *Client) url() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		c.config.User,
		c.config.Password,
		c.config.Host,
		c.config.Port,
		c.config.VHost,
	)
}

// Channel returns the cached channel if healthy, otherwise establishes a
// fresh connection and channel.
func (c *Client) Channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelLocked()
}

func (c *Client) channelLocked() (*amqp.Channel, error) {
	if c.closed {
		return nil, ErrClientClosed
	}

	if c.channel != nil {
		return c.channel, nil
	}

	if c.conn == nil || c.conn.IsClosed() {
		c.conn = nil
		c.channel = nil

		amqpConfig := amqp.Config{
			Heartbeat: c.config.Heartbeat,
			Dial:      amqp.DefaultDial(c.config.DialTimeout),
			Locale:    "en_US",
		}

		c.logger.Info("Connecting to RabbitMQ",
			slog.String("host", c.config.Host),
			slog.Int("port", c.config.Port),
		)

		conn, err := c.dial(c.url(), amqpConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}

		c.conn = conn
		go c.watchConnection(conn, conn.NotifyClose(make(chan *amqp.Error, 1)))

		c.logger.Info("Successfully connected to RabbitMQ")
	}

	ch, err := c.conn.Channel()
	if err != nil {
		// A connection that cannot open a channel is not worth caching.
		_ = c.conn.Close()
		c.conn = nil
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	c.channel = ch
	go c.watchChannel(ch, ch.NotifyClose(make(chan *amqp.Error, 1)))

	return ch, nil
}

// watchConnection invalidates the cached handles when the broker closes the
// connection, so the next Channel call triggers a fresh dial.
func (c *Client) watchConnection(conn *amqp.Connection, closes <-chan *amqp.Error) {
	err := <-closes
	if err != nil {
		c.logger.Error("RabbitMQ connection closed unexpectedly",
			slog.Any("error", err),
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
		c.channel = nil
	}
}

// watchChannel invalidates the cached channel on a channel-level error. The
// connection is kept; the next Channel call opens a new channel on it.
func (c *Client) watchChannel(ch *amqp.Channel, closes <-chan *amqp.Error) {
	err := <-closes
	if err != nil {
		c.logger.Error("RabbitMQ channel closed unexpectedly",
			slog.Any("error", err),
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == ch {
		c.channel = nil
	}
}

// AssertQueue idempotently declares a durable queue. Must be called before
// any publish or consume on the queue.
func (c *Client) AssertQueue(name string) error {
	ch, err := c.Channel()
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", name, err)
	}

	return nil
}

// Publish sends a persistent message to the named queue via the default
// exchange.
func (c *Client) Publish(ctx context.Context, queue string, body []byte) error {
	if err := c.AssertQueue(queue); err != nil {
		return err
	}

	ch, err := c.Channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("Message published to RabbitMQ",
		slog.String("queue", queue),
		slog.Int("body_size", len(body)),
	)

	return nil
}

// PublishJSON marshals v and publishes it to the named queue.
func (c *Client) PublishJSON(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.Publish(ctx, queue, body)
}

// Consume starts consuming from the named queue with manual acknowledgment.
// The prefetch count bounds the number of unacknowledged deliveries held by
// this consumer.
func (c *Client) Consume(queue, consumerTag string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.AssertQueue(queue); err != nil {
		return nil, err
	}

	ch, err := c.Channel()
	if err != nil {
		return nil, err
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := ch.Consume(
		queue,       // queue
		consumerTag, // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume messages: %w", err)
	}

	c.logger.Info("Started consuming messages from RabbitMQ",
		slog.String("queue", queue),
		slog.String("consumer_tag", consumerTag),
		slog.Int("prefetch_count", prefetch),
	)

	return deliveries, nil
}

// Close releases the channel then the connection. Either being already gone
// is fine.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.logger.Info("Closing RabbitMQ connection")

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error("Failed to close RabbitMQ channel",
				slog.Any("error", err),
			)
		}
		c.channel = nil
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("Failed to close RabbitMQ connection",
				slog.Any("error", err),
			)
			c.conn = nil
			return err
		}
		c.conn = nil
	}

	return nil
}
