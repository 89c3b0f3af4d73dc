package broker

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/relialab/healthprobe/internal/core/domain/target"
)

// Client wraps a long-lived AMQP connection and implements
// target.MessagingClient. Channels are opened lazily and reopened after
// broker-side closes.
type Client struct {
	url  string
	conn *amqp.Connection

	mu      sync.Mutex
	channel *amqp.Channel
}

// Dial connects to the broker at the given AMQP URL.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	return &Client{url: url, conn: conn}, nil
}

// ch returns the cached channel, opening a fresh one when missing or closed.
func (c *Client) ch() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	channel, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	c.channel = channel
	return channel, nil
}

func (c *Client) DeclareExchange(ctx context.Context, name string) error {
	channel, err := c.ch()
	if err != nil {
		return err
	}
	return channel.ExchangeDeclare(name, amqp.ExchangeDirect, true, false, false, false, nil)
}

func (c *Client) DeclareQueue(ctx context.Context, name string) error {
	channel, err := c.ch()
	if err != nil {
		return err
	}
	_, err = channel.QueueDeclare(name, true, false, false, false, nil)
	return err
}

func (c *Client) BindQueue(ctx context.Context, queue, exchange, routingKey string) error {
	channel, err := c.ch()
	if err != nil {
		return err
	}
	return channel.QueueBind(queue, routingKey, exchange, false, nil)
}

func (c *Client) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	channel, err := c.ch()
	if err != nil {
		return err
	}
	return channel.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        body,
	})
}

// String returns the broker URL with any password redacted.
func (c *Client) String() string {
	u, err := url.Parse(c.url)
	if err != nil {
		return c.url
	}
	return u.Redacted()
}

func (c *Client) Close() error {
	return c.conn.Close()
}

var _ target.MessagingClient = (*Client)(nil)
