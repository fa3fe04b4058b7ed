package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names
const (
	CheckQueueName  = "codequest.checks"
	ResultQueueName = "codequest.results"
)

// Outcome statuses
const (
	StatusGraded = "graded"
	StatusFailed = "failed"
)

// CheckJob is a submission waiting to be compared against an exercise solution
type CheckJob struct {
	ID         uuid.UUID `json:"id"`
	CourseID   string    `json:"course_id"`
	ExerciseID int       `json:"exercise_id"`
	Code       string    `json:"code"`
	Locale     string    `json:"locale,omitempty"`
	Submitter  string    `json:"submitter,omitempty"`
	// ReplyTo names the queue the outcome goes to. Empty means ResultQueueName.
	ReplyTo    string    `json:"reply_to,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CheckOutcome is the graded result of a CheckJob. Status is "graded" when
// the comparison ran, whatever its verdict, and "failed" when it could not.
type CheckOutcome struct {
	JobID       uuid.UUID     `json:"job_id"`
	Status      string        `json:"status"`
	CourseID    string        `json:"course_id,omitempty"`
	ExerciseID  int           `json:"exercise_id,omitempty"`
	Submitter   string        `json:"submitter,omitempty"`
	Matched     bool          `json:"matched"`
	Messages    []string      `json:"messages,omitempty"`
	Output      string        `json:"output,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time     `json:"completed_at"`

	// replyTo is copied from the job and never leaves the worker.
	replyTo string
}

// Destination returns the queue this outcome is published to
func (o *CheckOutcome) Destination() string {
	if o.replyTo != "" {
		return o.replyTo
	}
	return ResultQueueName
}

// queueSpec describes one durable queue and how long its messages live
type queueSpec struct {
	name string
	ttl  time.Duration
}

// Check jobs expire after five minutes, outcomes after ten: a grade run
// nobody waits for anymore is not worth keeping.
var queues = []queueSpec{
	{name: CheckQueueName, ttl: 5 * time.Minute},
	{name: ResultQueueName, ttl: 10 * time.Minute},
}

// Connection is a RabbitMQ connection and channel that come back by
// themselves after the broker drops them
type Connection struct {
	url        string
	conn       *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	closed     bool
	reconnects int
	redial     retry.Retry[struct{}]
}

// NewConnection dials url and declares the grading queues
func NewConnection(url string) (*Connection, error) {
	c := &Connection{
		url: url,
		redial: retry.New[struct{}](retry.Config{
			MaxAttempts:   10,
			InitialDelay:  time.Second,
			MaxDelay:      30 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
		}),
	}

	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, amqp.Table{
			"x-message-ttl": int32(q.ttl.Milliseconds()),
		}); err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("failed to declare queue %s: %w", q.name, err)
		}
	}

	c.conn, c.channel = conn, ch
	go c.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

	slog.Info("connected to RabbitMQ", "url", sanitizeURL(c.url))
	return nil
}

// watch waits for the broker to drop the connection and redials with
// exponential backoff. A nil error means Close was called.
func (c *Connection) watch(notifyClose <-chan *amqp.Error) {
	amqpErr := <-notifyClose
	if amqpErr == nil || c.isClosed() {
		return
	}

	slog.Warn("RabbitMQ connection closed, attempting to reconnect",
		"error", amqpErr,
		"reconnects", c.reconnects,
	)

	attempt := 0
	_, err := c.redial.Do(context.Background(), func(context.Context) (struct{}, error) {
		if c.isClosed() {
			return struct{}{}, nil
		}
		attempt++
		c.mu.Lock()
		c.reconnects++
		c.mu.Unlock()

		if err := c.connect(); err != nil {
			slog.Error("reconnection failed", "error", err, "attempt", attempt)
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		slog.Error("giving up on RabbitMQ", "attempts", attempt, "error", err)
		return
	}
	slog.Info("reconnected to RabbitMQ", "attempts", attempt)
}

func (c *Connection) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Channel returns the current channel (thread-safe)
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close closes the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected checks if the connection is active
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// PublishJSON publishes a JSON message to a queue
func (c *Connection) PublishJSON(ctx context.Context, queue string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	return ch.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// sanitizeURL masks the password of an AMQP URL for logging
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
