package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ipssi/codequest/internal/checker"
	"github.com/ipssi/codequest/internal/domain"
	"github.com/ipssi/codequest/internal/queue"
)

// cmdWorker consumes check jobs until interrupted
func cmdWorker() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry, cfg, closeFn, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	conn, err := queue.NewConnection(cfg.Queue.URL)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer conn.Close()

	ev := checker.NewEvaluator(checker.CatalogFor(cfg.Checker.Locale))
	consumer := queue.NewConsumer(conn, queue.NewGrader(registry, ev, nil), queue.ConsumerConfig{
		Workers:  cfg.Queue.Workers,
		Prefetch: cfg.Queue.Prefetch,
		Timeout:  time.Duration(cfg.Queue.TimeoutSeconds) * time.Second,
	})
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	stats := registry.Stats()
	fmt.Printf("Grading %d exercises with %d workers (Ctrl+C to stop)\n", stats.ExerciseCount, cfg.Queue.Workers)

	<-ctx.Done()
	consumer.Stop()
	fmt.Println("Worker stopped")
	return nil
}

// cmdGrade queues one job per file and prints the outcomes as they arrive
func cmdGrade(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: codequest grade <course>/<id> <file>...")
	}

	courseID, exerciseID, err := domain.ParseExerciseKey(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := queue.NewConnection(cfg.Queue.URL)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer conn.Close()

	results := queue.NewResultConsumer(conn)
	if err := results.Start(ctx); err != nil {
		return fmt.Errorf("start result consumer: %w", err)
	}
	defer results.Stop()

	type graded struct {
		file    string
		outcome *queue.CheckOutcome
	}
	received := make(chan graded, len(args)-1)

	producer := queue.NewProducer(conn)
	for _, file := range args[1:] {
		code, err := readSubmission(file)
		if err != nil {
			return err
		}

		job := queue.NewCheckJob(courseID, exerciseID, code, cfg.Checker.Locale)
		job.Submitter = filepath.Base(file)
		job.ReplyTo = results.ReplyTo()

		name := file
		results.Subscribe(job.ID.String(), func(o *queue.CheckOutcome) {
			received <- graded{file: name, outcome: o}
		})
		if err := producer.PublishCheckJob(ctx, job); err != nil {
			return err
		}
	}

	timeout := time.After(time.Duration(max(cfg.Queue.TimeoutSeconds, 10)*len(args)) * time.Second)
	failed := 0
	for range args[1:] {
		select {
		case g := <-received:
			switch {
			case g.outcome.Status == queue.StatusFailed:
				failed++
				fmt.Printf("✗ %s: %s\n", g.file, g.outcome.Error)
			case g.outcome.Matched:
				fmt.Printf("✓ %s\n", g.file)
			default:
				failed++
				fmt.Printf("✗ %s\n", g.file)
				for _, m := range g.outcome.Messages {
					fmt.Printf("    %s\n", m)
				}
			}
		case <-timeout:
			return fmt.Errorf("timed out waiting for outcomes (is 'codequest worker' running?)")
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	fmt.Printf("\n%d/%d submissions match\n", len(args)-1-failed, len(args)-1)
	if failed > 0 {
		return errMismatch
	}
	return nil
}
