package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Message types carried in the AMQP Publishing Type field.
const (
	TypeBudgetAlert   = "budget.alert"
	TypeGoalCompleted = "goal.completed"
	TypeBalanceDrift  = "balance.drift"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishBudgetAlert publishes a budget threshold alert
func (c *Client) PublishBudgetAlert(ctx context.Context, msg *BudgetAlertMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, TypeBudgetAlert, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published budget alert",
		"owner", msg.Owner,
		"budget_id", msg.BudgetID,
		"percent_used", msg.PercentUsed)
	return nil
}

// PublishGoalCompleted publishes a goal completion event
func (c *Client) PublishGoalCompleted(ctx context.Context, msg *GoalCompletedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, TypeGoalCompleted, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published goal completed",
		"owner", msg.Owner,
		"goal_id", msg.GoalID)
	return nil
}

// PublishBalanceDrift publishes a reconciliation drift report
func (c *Client) PublishBalanceDrift(ctx context.Context, msg *BalanceDriftMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, TypeBalanceDrift, body); err != nil {
		return err
	}

	slog.WarnContext(ctx, "Published balance drift",
		"owner", msg.Owner,
		"account_id", msg.AccountID,
		"drift", msg.Drift)
	return nil
}

func (c *Client) publish(ctx context.Context, msgType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Type:         msgType,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// EventHandler receives one decoded event. Exactly one of the message fields
// is non-nil, matching the delivery's Type.
type EventHandler interface {
	HandleBudgetAlert(ctx context.Context, msg *BudgetAlertMessage) error
	HandleGoalCompleted(ctx context.Context, msg *GoalCompletedMessage) error
	HandleBalanceDrift(ctx context.Context, msg *BalanceDriftMessage) error
}

// ConsumeEvents consumes ledger events and dispatches them by message type.
// Messages are acked on successful handling and nacked with requeue on error.
func (c *Client) ConsumeEvents(ctx context.Context, handler EventHandler) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consume channel closed")
			}
			if err := c.dispatch(ctx, handler, d); err != nil {
				slog.ErrorContext(ctx, "Failed to handle event",
					"type", d.Type, "error", err)
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, handler EventHandler, d amqp091.Delivery) error {
	switch d.Type {
	case TypeBudgetAlert:
		msg, err := BudgetAlertMessageFromJSON(d.Body)
		if err != nil {
			return fmt.Errorf("decode budget alert: %w", err)
		}
		return handler.HandleBudgetAlert(ctx, msg)
	case TypeGoalCompleted:
		msg, err := GoalCompletedMessageFromJSON(d.Body)
		if err != nil {
			return fmt.Errorf("decode goal completed: %w", err)
		}
		return handler.HandleGoalCompleted(ctx, msg)
	case TypeBalanceDrift:
		msg, err := BalanceDriftMessageFromJSON(d.Body)
		if err != nil {
			return fmt.Errorf("decode balance drift: %w", err)
		}
		return handler.HandleBalanceDrift(ctx, msg)
	default:
		return fmt.Errorf("unknown message type %q", d.Type)
	}
}

// Close closes the channel and connection
func (c *Client) Close() error {
	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close AMQP client: %v", errs)
	}

	return nil
}
