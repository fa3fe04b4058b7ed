package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ipssi/codequest/internal/checker"
	mcpserver "github.com/ipssi/codequest/internal/mcp"
	"github.com/ipssi/codequest/internal/session"
)

// cmdMCP serves the CodeQuest tools over MCP on stdio. Sessions live as long
// as the process.
func cmdMCP() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry, cfg, closeFn, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	ev := checker.NewEvaluator(checker.CatalogFor(cfg.Checker.Locale))
	sessions := session.NewService(session.NewMemoryStore(), registry, ev)

	srv := mcpserver.NewServer(mcpserver.Config{
		Sessions: sessions,
		Registry: registry,
		Version:  Version,
	})
	return srv.ServeStdio(ctx)
}
