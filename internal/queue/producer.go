package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"
)

// Publisher sends a JSON message to a named queue. *Connection implements it.
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, data any) error
}

// ProducerConfig controls how hard the producer tries before giving up
type ProducerConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// Consecutive failed publishes before the breaker opens
	TripAfter int
	// How long the breaker stays open
	OpenTimeout time.Duration
}

// DefaultProducerConfig returns sensible defaults
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		TripAfter:    5,
		OpenTimeout:  30 * time.Second,
	}
}

// Producer publishes check jobs and outcomes. Publishing is retried with
// exponential backoff behind a circuit breaker so a dead broker fails fast.
type Producer struct {
	pub     Publisher
	retrier retry.Retry[struct{}]
	breaker circuitbreaker.CircuitBreaker[struct{}]
}

// NewProducer creates a producer with the default retry policy
func NewProducer(pub Publisher) *Producer {
	return NewProducerWithConfig(pub, DefaultProducerConfig())
}

// NewProducerWithConfig creates a producer with a custom retry policy
func NewProducerWithConfig(pub Publisher, cfg ProducerConfig) *Producer {
	def := DefaultProducerConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.TripAfter <= 0 {
		cfg.TripAfter = def.TripAfter
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}

	return &Producer{
		pub: pub,
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  cfg.InitialDelay,
			MaxDelay:      cfg.MaxDelay,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
		}),
		breaker: circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return int(counts.ConsecutiveFailures) >= cfg.TripAfter
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				slog.Warn("publish circuit breaker state change",
					"from", from.String(),
					"to", to.String())
			},
		}),
	}
}

func (p *Producer) publish(ctx context.Context, queue string, data any) error {
	_, err := p.breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return p.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.pub.PublishJSON(ctx, queue, data)
		})
	})
	return err
}

// PublishCheckJob publishes a submission to the check queue
func (p *Producer) PublishCheckJob(ctx context.Context, job *CheckJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.publish(ctx, CheckQueueName, job); err != nil {
		return fmt.Errorf("failed to publish check job: %w", err)
	}

	slog.Info("published check job",
		"job_id", job.ID,
		"course", job.CourseID,
		"exercise", job.ExerciseID,
	)

	return nil
}

// PublishOutcome publishes a graded outcome to the reply queue of its job,
// or to the shared results queue when the job named none
func (p *Producer) PublishOutcome(ctx context.Context, outcome *CheckOutcome) error {
	if outcome.CompletedAt.IsZero() {
		outcome.CompletedAt = time.Now()
	}

	queue := outcome.Destination()
	if err := p.publish(ctx, queue, outcome); err != nil {
		return fmt.Errorf("failed to publish check outcome: %w", err)
	}

	slog.Info("published check outcome",
		"job_id", outcome.JobID,
		"queue", queue,
		"status", outcome.Status,
		"matched", outcome.Matched,
		"duration", outcome.Duration,
	)

	return nil
}

// NewCheckJob creates a check job for a submission
func NewCheckJob(courseID string, exerciseID int, code, locale string) *CheckJob {
	return &CheckJob{
		ID:         uuid.New(),
		CourseID:   courseID,
		ExerciseID: exerciseID,
		Code:       code,
		Locale:     locale,
		CreatedAt:  time.Now(),
	}
}
