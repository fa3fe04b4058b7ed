package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ipssi/codequest/internal/config"
	"github.com/ipssi/codequest/internal/queue"
)

// cmdInit initializes CodeQuest for first-time use
func cmdInit() error {
	fmt.Println("CodeQuest - First-Time Setup")
	fmt.Println("============================")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Creating ~/.codequest directory structure... ")
	dir, err := config.EnsureCodeQuestDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	fmt.Println()
	fmt.Println("Connections (press Enter to skip)")
	fmt.Println("---------------------------------")

	var secrets config.SecretsConfig
	fmt.Print("Postgres DSN for the catalog: ")
	line, _ := reader.ReadString('\n')
	secrets.PostgresDSN = strings.TrimSpace(line)

	fmt.Print("RabbitMQ URL for grading: ")
	line, _ = reader.ReadString('\n')
	secrets.QueueURL = strings.TrimSpace(line)

	if secrets.PostgresDSN != "" || secrets.QueueURL != "" {
		if err := config.SaveSecrets(secrets); err != nil {
			fmt.Printf("  ⚠ Failed to save: %v\n", err)
		} else {
			fmt.Println("  ✓ Saved to secrets.yaml")
		}
	}

	fmt.Println()
	fmt.Println("Setup Complete!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. codequest catalog validate   # Check the course files")
	fmt.Println("  2. codequest start              # Start the daemon")
	fmt.Println("  3. codequest courses            # See available exercises")

	return nil
}

// cmdDoctor checks that every configured backend is reachable
func cmdDoctor() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Println("Checking CodeQuest setup...")
	allGood := true

	fmt.Print("Directory: ")
	dir, err := config.CodeQuestDir()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Println("✗ not created (run 'codequest init')")
		allGood = false
	} else {
		fmt.Printf("✓ %s\n", dir)
	}

	fmt.Print("Config:    ")
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		fmt.Println("\nSome checks failed. Please fix the issues above.")
		return nil
	}
	fmt.Println("✓ loaded")

	fmt.Printf("Catalog:   ")
	registry, _, closeFn, err := openCatalog(ctx)
	if err != nil {
		fmt.Printf("✗ %s: %v\n", cfg.Catalog.Source, err)
		allGood = false
	} else {
		stats := registry.Stats()
		fmt.Printf("✓ %s (%d courses, %d exercises)\n", cfg.Catalog.Source, stats.CourseCount, stats.ExerciseCount)
		closeFn()
	}

	fmt.Print("Broker:    ")
	if conn, err := queue.NewConnection(cfg.Queue.URL); err != nil {
		fmt.Println("✗ unreachable (only needed for 'codequest worker' and 'grade')")
	} else {
		fmt.Println("✓ connected")
		conn.Close()
	}

	fmt.Print("Daemon:    ")
	if isRunning() {
		fmt.Println("✓ running")
	} else {
		fmt.Println("✗ not running (run 'codequest start')")
	}

	fmt.Println()
	if allGood {
		fmt.Println("All checks passed! ✓")
	} else {
		fmt.Println("Some checks failed. Please fix the issues above.")
	}
	return nil
}

// cmdConfig shows the effective configuration
func cmdConfig() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("CodeQuest Configuration")

	fmt.Println("Daemon:")
	fmt.Printf("  bind: %s:%d\n", cfg.Daemon.Bind, cfg.Daemon.Port)
	fmt.Printf("  log_level: %s\n", cfg.Daemon.LogLevel)

	fmt.Println("\nCatalog:")
	fmt.Printf("  source: %s\n", cfg.Catalog.Source)
	fmt.Printf("  path: %s\n", cfg.Catalog.Path)
	dir, _ := config.CodeQuestDir()
	switch cfg.Catalog.Source {
	case config.SourceSQLite:
		fmt.Printf("  database: %s\n", cfg.Catalog.SQLiteFile(dir))
	case config.SourceJSON:
		fmt.Printf("  documents: %s\n", cfg.Catalog.JSONDir(dir))
	case config.SourcePostgres:
		fmt.Printf("  dsn: %s\n", configured(cfg.Catalog.PostgresDSN))
	}

	fmt.Println("\nChecker:")
	fmt.Printf("  locale: %s\n", cfg.Checker.Locale)
	fmt.Printf("  rate_limit: enabled=%t rate=%d/s burst=%d\n", cfg.RateLimit.Enabled, cfg.RateLimit.Rate, cfg.RateLimit.Burst)
	if len(cfg.RateLimit.TrustedProxies) > 0 {
		fmt.Printf("  trusted_proxies: %s\n", strings.Join(cfg.RateLimit.TrustedProxies, ", "))
	}

	fmt.Println("\nQueue:")
	fmt.Printf("  url: %s\n", configured(cfg.Queue.URL))
	fmt.Printf("  workers: %d prefetch: %d timeout: %ds\n", cfg.Queue.Workers, cfg.Queue.Prefetch, cfg.Queue.TimeoutSeconds)

	fmt.Printf("\nConfig path: %s\n", filepath.Join(dir, "config.yaml"))
	return nil
}

func configured(secret string) string {
	if secret == "" {
		return "✗ not set"
	}
	return "✓ set"
}
