//go:build integration

package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ipssi/codequest/internal/queue"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// setupRabbitMQ creates a RabbitMQ container for testing
func setupRabbitMQ(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get AMQP URL: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return amqpURL, cleanup
}

func connect(t *testing.T, amqpURL string) *queue.Connection {
	t.Helper()
	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestIntegration_Connection_ConnectAndClose(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}

	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("failed to close connection: %v", err)
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	_, err := queue.NewConnection("amqp://invalid:5672")
	if err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_Producer_PublishCheckJob(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn := connect(t, amqpURL)
	producer := queue.NewProducer(conn)

	job := queue.NewCheckJob("html", 1, "<h1>Bienvenue sur CodeQuest</h1>", "")
	if err := producer.PublishCheckJob(context.Background(), job); err != nil {
		t.Fatalf("failed to publish job: %v", err)
	}

	q, err := conn.Channel().QueueInspect(queue.CheckQueueName)
	if err != nil {
		t.Fatalf("failed to inspect queue: %v", err)
	}
	if q.Messages != 1 {
		t.Errorf("expected 1 message in queue, got %d", q.Messages)
	}
}

func TestIntegration_GradeRoundTrip(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn := connect(t, amqpURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results := queue.NewResultConsumer(conn)
	if err := results.Start(ctx); err != nil {
		t.Fatalf("failed to start result consumer: %v", err)
	}
	defer results.Stop()

	consumer := queue.NewConsumer(conn, setupGrader(t, nil), queue.ConsumerConfig{
		Workers:  2,
		Prefetch: 1,
	})
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	jobs := []*queue.CheckJob{
		queue.NewCheckJob("python", 1, "print('Bonjour IPSSI')", ""),
		queue.NewCheckJob("python", 1, "x = 1", "fr"),
		queue.NewCheckJob("python", 42, "print(1)", ""),
	}

	received := make(chan *queue.CheckOutcome, len(jobs))
	for _, job := range jobs {
		job.ReplyTo = results.ReplyTo()
		results.Subscribe(job.ID.String(), func(o *queue.CheckOutcome) { received <- o })
	}

	producer := queue.NewProducer(conn)
	for _, job := range jobs {
		if err := producer.PublishCheckJob(ctx, job); err != nil {
			t.Fatalf("failed to publish job: %v", err)
		}
	}

	byJob := make(map[uuid.UUID]*queue.CheckOutcome)
	for range jobs {
		select {
		case o := <-received:
			byJob[o.JobID] = o
		case <-ctx.Done():
			t.Fatalf("timeout waiting for outcomes, got %d", len(byJob))
		}
	}

	if o := byJob[jobs[0].ID]; o.Status != queue.StatusGraded || !o.Matched {
		t.Errorf("matching submission outcome = %+v", o)
	}
	if o := byJob[jobs[1].ID]; o.Status != queue.StatusGraded || o.Matched || len(o.Messages) != 1 {
		t.Errorf("wrong submission outcome = %+v", o)
	}
	if o := byJob[jobs[2].ID]; o.Status != queue.StatusFailed || o.Error == "" {
		t.Errorf("unknown exercise outcome = %+v", o)
	}
}

func TestIntegration_ConcurrentGradeRunsKeepTheirOutcomes(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn := connect(t, amqpURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	consumer := queue.NewConsumer(conn, setupGrader(t, nil), queue.ConsumerConfig{Workers: 2})
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	first := queue.NewResultConsumer(conn)
	second := queue.NewResultConsumer(conn)
	for _, rc := range []*queue.ResultConsumer{first, second} {
		if err := rc.Start(ctx); err != nil {
			t.Fatalf("failed to start result consumer: %v", err)
		}
		defer rc.Stop()
	}
	if first.ReplyTo() == "" || first.ReplyTo() == second.ReplyTo() {
		t.Fatalf("reply queues = %q, %q; want two distinct names", first.ReplyTo(), second.ReplyTo())
	}

	producer := queue.NewProducer(conn)
	runs := []*queue.ResultConsumer{first, second}
	received := make([]chan *queue.CheckOutcome, len(runs))
	jobs := make([]*queue.CheckJob, len(runs))
	for i, rc := range runs {
		received[i] = make(chan *queue.CheckOutcome, 1)
		jobs[i] = queue.NewCheckJob("python", 1, "print('Bonjour IPSSI')", "")
		jobs[i].ReplyTo = rc.ReplyTo()
		ch := received[i]
		rc.Subscribe(jobs[i].ID.String(), func(o *queue.CheckOutcome) { ch <- o })
	}
	for _, job := range jobs {
		if err := producer.PublishCheckJob(ctx, job); err != nil {
			t.Fatalf("failed to publish job: %v", err)
		}
	}

	for i := range runs {
		select {
		case o := <-received[i]:
			if o.JobID != jobs[i].ID {
				t.Errorf("run %d received outcome for job %s; want %s", i, o.JobID, jobs[i].ID)
			}
		case <-ctx.Done():
			t.Fatalf("run %d never received its outcome", i)
		}
	}
}

func TestIntegration_Consumer_RejectsMalformed(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn := connect(t, amqpURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	consumer := queue.NewConsumer(conn, setupGrader(t, nil), queue.DefaultConsumerConfig())
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	if err := conn.PublishJSON(ctx, queue.CheckQueueName, "not a job"); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	// A rejected message is dropped and produces no outcome.
	time.Sleep(500 * time.Millisecond)

	checks, err := conn.Channel().QueueInspect(queue.CheckQueueName)
	if err != nil {
		t.Fatalf("failed to inspect check queue: %v", err)
	}
	if checks.Messages != 0 {
		t.Errorf("expected malformed message to be dropped, %d left", checks.Messages)
	}

	outcomes, err := conn.Channel().QueueInspect(queue.ResultQueueName)
	if err != nil {
		t.Fatalf("failed to inspect result queue: %v", err)
	}
	if outcomes.Messages != 0 {
		t.Errorf("expected no outcome for a malformed message, got %d", outcomes.Messages)
	}
}
