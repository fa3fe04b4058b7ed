package queue

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

// JobHandler grades a check job
type JobHandler func(ctx context.Context, job *CheckJob) (*CheckOutcome, error)

// Consumer consumes check jobs from the queue
type Consumer struct {
	conn       *Connection
	handler    JobHandler
	producer   *Producer
	workers    int
	prefetch   int
	timeout    time.Duration
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int           // Number of concurrent workers
	Prefetch int           // Prefetch count per worker
	Timeout  time.Duration // Per-job grading timeout
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  3,
		Prefetch: 1, // Process one at a time per worker for fairness
		Timeout:  10 * time.Second,
	}
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler JobHandler, cfg ConsumerConfig) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Consumer{
		conn:     conn,
		handler:  handler,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
		timeout:  cfg.Timeout,
	}
	if conn != nil {
		c.producer = NewProducer(conn)
	}
	return c
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	// Set QoS (prefetch)
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	// Start consuming
	msgs, err := ch.Consume(
		CheckQueueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting check queue consumer", "workers", c.workers, "prefetch", c.prefetch)

	// Start worker goroutines
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

// worker processes messages from the queue
func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	slog.Info("worker started", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}

			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage handles a single delivery
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	outcome, err := c.handle(ctx, workerID, msg.Body)
	if err != nil {
		slog.Error("failed to unmarshal job",
			"worker_id", workerID,
			"error", err,
		)
		// Reject without requeue for malformed messages
		_ = msg.Reject(false)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message",
			"worker_id", workerID,
			"job_id", outcome.JobID,
			"error", err,
		)
	}
}

// handle grades one message body and publishes the outcome to the queue
// the submitter asked for. Only a malformed body is an error.
func (c *Consumer) handle(ctx context.Context, workerID int, body []byte) (*CheckOutcome, error) {
	outcome, err := c.process(ctx, workerID, body)
	if err != nil {
		return nil, err
	}

	if err := c.producer.PublishOutcome(ctx, outcome); err != nil {
		slog.Error("failed to publish outcome",
			"worker_id", workerID,
			"job_id", outcome.JobID,
			"queue", outcome.Destination(),
			"error", err,
		)
	}
	return outcome, nil
}

// process decodes and grades one message body. It only fails when the body
// is not a check job; grading failures become a "failed" outcome.
func (c *Consumer) process(ctx context.Context, workerID int, body []byte) (*CheckOutcome, error) {
	start := time.Now()

	var job CheckJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("decode check job: %w", err)
	}

	slog.Info("processing check job",
		"worker_id", workerID,
		"job_id", job.ID,
		"course", job.CourseID,
		"exercise", job.ExerciseID,
	)

	jobCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	outcome, err := c.handler(jobCtx, &job)
	duration := time.Since(start)

	if err != nil {
		slog.Error("job processing failed",
			"worker_id", workerID,
			"job_id", job.ID,
			"error", err,
			"duration", duration,
		)

		outcome = &CheckOutcome{
			Status: StatusFailed,
			Error:  err.Error(),
		}
		if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
			outcome.Error = "grading timed out"
		}
	} else if outcome.Status == "" {
		outcome.Status = StatusGraded
	}

	outcome.JobID = job.ID
	outcome.CourseID = job.CourseID
	outcome.ExerciseID = job.ExerciseID
	outcome.Submitter = job.Submitter
	outcome.replyTo = job.ReplyTo
	outcome.Duration = duration
	outcome.CompletedAt = time.Now()

	slog.Info("job completed",
		"worker_id", workerID,
		"job_id", job.ID,
		"status", outcome.Status,
		"matched", outcome.Matched,
		"duration", duration,
	)

	return outcome, nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}

// ResultConsumer consumes check outcomes and routes them to per-job handlers.
// Each consumer reads from its own exclusive reply queue, so outcomes of jobs
// submitted by another process never reach it.
type ResultConsumer struct {
	conn       *Connection
	replyTo    string
	handlers   map[string]ResultHandler
	handlersMu sync.RWMutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ResultHandler handles the outcome of a specific job
type ResultHandler func(outcome *CheckOutcome)

// NewResultConsumer creates a result consumer
func NewResultConsumer(conn *Connection) *ResultConsumer {
	return &ResultConsumer{
		conn:     conn,
		handlers: make(map[string]ResultHandler),
	}
}

// Subscribe registers a handler for results of a specific job
func (rc *ResultConsumer) Subscribe(jobID string, handler ResultHandler) {
	rc.handlersMu.Lock()
	defer rc.handlersMu.Unlock()
	rc.handlers[jobID] = handler
}

// Unsubscribe removes a handler whose outcome is no longer awaited
func (rc *ResultConsumer) Unsubscribe(jobID string) {
	rc.handlersMu.Lock()
	defer rc.handlersMu.Unlock()
	delete(rc.handlers, jobID)
}

// ReplyTo returns the name of the private reply queue once Start has run.
// Jobs whose outcome this consumer awaits must carry it in CheckJob.ReplyTo.
func (rc *ResultConsumer) ReplyTo() string {
	return rc.replyTo
}

// Start declares a private reply queue and begins consuming results from it
func (rc *ResultConsumer) Start(ctx context.Context) error {
	ch := rc.conn.Channel()

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to declare reply queue: %w", err)
	}
	rc.replyTo = q.Name

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack (results are fire-and-forget)
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start result consumer: %w", err)
	}

	ctx, rc.cancelFunc = context.WithCancel(ctx)
	rc.wg.Add(1)
	go rc.consume(ctx, msgs)

	return nil
}

func (rc *ResultConsumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer rc.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			rc.dispatch(msg.Body)
		}
	}
}

// dispatch decodes an outcome and hands it to the handler subscribed to its
// job. A job has exactly one outcome, so the subscription ends with it.
func (rc *ResultConsumer) dispatch(body []byte) bool {
	var outcome CheckOutcome
	if err := json.Unmarshal(body, &outcome); err != nil {
		slog.Error("failed to unmarshal outcome", "error", err)
		return false
	}

	key := outcome.JobID.String()
	rc.handlersMu.Lock()
	handler, ok := rc.handlers[key]
	delete(rc.handlers, key)
	rc.handlersMu.Unlock()

	if !ok {
		slog.Debug("outcome for unknown job", "job_id", key)
		return false
	}
	handler(&outcome)
	return true
}

// Stop stops the result consumer
func (rc *ResultConsumer) Stop() {
	if rc.cancelFunc != nil {
		rc.cancelFunc()
	}
	rc.wg.Wait()
}
